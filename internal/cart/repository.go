package cart

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rgoncalves/cartflow/internal/domain"
	"github.com/rgoncalves/cartflow/internal/inventory"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrCartNotOpen     = errors.New("cart is no longer open")
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func findOpen(ctx context.Context, q rowQuerier, customerID string) (*domain.Order, error) {
	order := &domain.Order{}

	err := q.QueryRowContext(ctx, `
		SELECT id, customer_id, status, total, created_at
		FROM orders
		WHERE customer_id = $1 AND status = $2
	`, customerID, domain.OrderStatusCart).Scan(
		&order.ID, &order.CustomerID, &order.Status, &order.Total, &order.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return order, nil
}

// GetOrCreate returns the customer's open cart, lazily creating one inside a
// single transaction. A partial unique index on (customer_id) WHERE
// status = 'cart' backs the at-most-one-open-cart invariant; when two
// concurrent calls both miss the select, the loser's insert fails with a
// unique violation and we return the winner's row instead.
func (r *Repository) GetOrCreate(ctx context.Context, customerID string) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	order, err := findOpen(ctx, tx, customerID)
	if err != nil {
		return nil, err
	}
	if order != nil {
		return order, tx.Commit()
	}

	order = &domain.Order{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		Status:     domain.OrderStatusCart,
		Total:      0,
		CreatedAt:  time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, status, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, order.ID, order.CustomerID, order.Status, order.Total, order.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			// Lost the insert race. The winner has committed by the time
			// the unique index rejects us, so its cart is visible outside
			// this (now aborted) transaction.
			_ = tx.Rollback()
			winner, ferr := findOpen(ctx, r.db, customerID)
			if ferr != nil {
				return nil, ferr
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, err
	}

	return order, tx.Commit()
}

// ListItems returns the cart's line items joined with catalog name and the
// catalog's current price.
func (r *Repository) ListItems(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.product_id, p.name, oi.quantity, oi.unit_price, p.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY p.name
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.LivePrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// AddItem adds quantity of a product to the cart. Repeated additions of the
// same product increment the existing line item instead of inserting a
// second row; the upsert resolves concurrent duplicate adds without a
// unique violation. The unit price is captured from the catalog only when
// the line item is first created. The returned bool reports whether a new
// line item was inserted.
func (r *Repository) AddItem(ctx context.Context, cartID, productID string, quantity int) (*domain.LineItem, bool, error) {
	if quantity < 1 {
		return nil, false, ErrInvalidQuantity
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback() }()

	// Lock the order row so a checkout racing this add cannot flip the
	// cart to completed underneath it.
	var status domain.OrderStatus
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM orders WHERE id = $1 FOR UPDATE
	`, cartID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, ErrCartNotOpen
		}
		return nil, false, err
	}
	if status != domain.OrderStatusCart {
		return nil, false, ErrCartNotOpen
	}

	product, err := inventory.GetProduct(ctx, tx, productID)
	if err != nil {
		return nil, false, err
	}
	if product == nil {
		return nil, false, ErrProductNotFound
	}

	item := &domain.LineItem{
		OrderID:   cartID,
		ProductID: productID,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id, product_id)
		DO UPDATE SET quantity = order_items.quantity + EXCLUDED.quantity
		RETURNING id, quantity, unit_price
	`, uuid.New().String(), cartID, productID, quantity, product.Price).Scan(
		&item.ID, &item.Quantity, &item.UnitPrice,
	)
	if err != nil {
		return nil, false, err
	}

	// A merged row always exceeds the requested quantity because the
	// existing line item holds at least 1.
	created := item.Quantity == quantity

	return item, created, tx.Commit()
}

// UpdateItemQuantity overwrites a line item's quantity in place. The
// captured unit price is untouched. Items of finalized orders never match.
func (r *Repository) UpdateItemQuantity(ctx context.Context, cartID, productID string, quantity int) (*domain.LineItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item := &domain.LineItem{
		OrderID:   cartID,
		ProductID: productID,
		Quantity:  quantity,
	}

	err := r.db.QueryRowContext(ctx, `
		UPDATE order_items oi
		SET quantity = $3
		FROM orders o
		WHERE oi.order_id = $1 AND oi.product_id = $2
			AND o.id = oi.order_id AND o.status = $4
		RETURNING oi.id, oi.unit_price
	`, cartID, productID, quantity, domain.OrderStatusCart).Scan(&item.ID, &item.UnitPrice)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	return item, nil
}

// RemoveItem deletes a line item from the cart. Items of finalized orders
// never match.
func (r *Repository) RemoveItem(ctx context.Context, cartID, productID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM order_items oi
		USING orders o
		WHERE oi.order_id = $1 AND oi.product_id = $2
			AND o.id = oi.order_id AND o.status = $3
	`, cartID, productID, domain.OrderStatusCart)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	return nil
}
