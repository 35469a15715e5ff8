package orders

import (
	"context"
	"database/sql"

	"github.com/rgoncalves/cartflow/internal/domain"
)

// Repository reads finalized orders. Open carts never show up here; the
// cart package owns those.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Summary is one row of a customer's order history. CalculatedTotal is
// recomputed from line items and should always match the persisted Total
// for completed orders; a mismatch indicates data damage.
type Summary struct {
	domain.Order
	ItemCount       int   `json:"item_count"`
	CalculatedTotal int64 `json:"calculated_total"`
}

// ItemDetail is a line item joined with its catalog product name.
type ItemDetail struct {
	domain.LineItem
	ProductName string `json:"product_name"`
}

type Detail struct {
	Order domain.Order `json:"order"`
	Items []ItemDetail `json:"items"`
}

func (r *Repository) List(ctx context.Context, customerID string) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.customer_id, o.status, o.total, o.created_at,
			COUNT(oi.id),
			COALESCE(SUM(oi.quantity * oi.unit_price), 0)
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE o.customer_id = $1 AND o.status <> $2
		GROUP BY o.id
		ORDER BY o.created_at DESC
	`, customerID, domain.OrderStatusCart)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := []Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.Status, &s.Total, &s.CreatedAt, &s.ItemCount, &s.CalculatedTotal); err != nil {
			return nil, err
		}
		orders = append(orders, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// GetByID returns one finalized order with its items, or nil when the order
// does not exist, is still a cart, or belongs to another customer.
func (r *Repository) GetByID(ctx context.Context, customerID, orderID string) (*Detail, error) {
	detail := &Detail{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, status, total, created_at
		FROM orders
		WHERE id = $1 AND customer_id = $2 AND status <> $3
	`, orderID, customerID, domain.OrderStatusCart).Scan(
		&detail.Order.ID, &detail.Order.CustomerID, &detail.Order.Status,
		&detail.Order.Total, &detail.Order.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, p.name
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY p.name
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	detail.Items = []ItemDetail{}
	for rows.Next() {
		var item ItemDetail
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.ProductName); err != nil {
			return nil, err
		}
		detail.Items = append(detail.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return detail, nil
}
