package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rgoncalves/cartflow/internal/domain"
	"github.com/rgoncalves/cartflow/internal/inventory"
	"github.com/rgoncalves/cartflow/internal/messaging"
	"github.com/rgoncalves/cartflow/internal/payment"
	"github.com/rgoncalves/cartflow/internal/telemetry"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrEmptyCart    = errors.New("cart is empty")
)

// Service drives the cart → order transition. Every checkout runs as one
// database transaction: the open cart row is locked, items are loaded, the
// payment authority is consulted, stock is decremented, the order is
// flipped to completed and a fresh cart is provisioned. Any failure rolls
// the whole unit back and leaves the original cart open and unmodified.
type Service struct {
	db         *sql.DB
	authorizer payment.Authorizer
	producer   *messaging.Producer
	metrics    *telemetry.CheckoutMetrics
	logger     *slog.Logger
}

// NewService wires the orchestrator. producer and metrics may be nil, in
// which case event publishing and metric recording are skipped.
func NewService(db *sql.DB, authorizer payment.Authorizer, producer *messaging.Producer, metrics *telemetry.CheckoutMetrics, logger *slog.Logger) *Service {
	return &Service{
		db:         db,
		authorizer: authorizer,
		producer:   producer,
		metrics:    metrics,
		logger:     logger,
	}
}

type Result struct {
	Order     *domain.Order     `json:"order"`
	Items     []domain.LineItem `json:"items"`
	NewCartID string            `json:"new_cart_id"`
}

func (s *Service) Checkout(ctx context.Context, customerID string) (*Result, error) {
	result, err := s.checkout(ctx, customerID)
	s.metrics.RecordCheckout(ctx, resultLabel(err))
	return result, err
}

func (s *Service) checkout(ctx context.Context, customerID string) (*Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// Lock the open cart row so a concurrent checkout for the same
	// customer blocks here, then finds no cart once this one commits.
	order := &domain.Order{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, customer_id, status, total, created_at
		FROM orders
		WHERE customer_id = $1 AND status = $2
		FOR UPDATE
	`, customerID, domain.OrderStatusCart).Scan(
		&order.ID, &order.CustomerID, &order.Status, &order.Total, &order.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	items, err := loadItems(ctx, tx, order.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var total int64
	for _, item := range items {
		total += int64(item.Quantity) * item.UnitPrice
	}

	if err := s.authorizer.Authorize(ctx, total); err != nil {
		return nil, fmt.Errorf("authorize payment of %d: %w", total, err)
	}

	for _, item := range items {
		if err := inventory.Decrement(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return nil, fmt.Errorf("decrement stock for product %s: %w", item.ProductID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, total = $3, updated_at = NOW()
		WHERE id = $1
	`, order.ID, domain.OrderStatusCompleted, total)
	if err != nil {
		return nil, err
	}

	newCartID := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, status, total, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $4)
	`, newCartID, customerID, domain.OrderStatusCart, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusCompleted
	order.Total = total

	s.publishCompleted(ctx, order, items)

	return &Result{
		Order:     order,
		Items:     items,
		NewCartID: newCartID,
	}, nil
}

func loadItems(ctx context.Context, tx *sql.Tx, orderID string) ([]domain.LineItem, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.LineItem
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// publishCompleted emits the order.completed event after the transaction
// has committed. Publish failures are logged, never surfaced: the checkout
// itself already succeeded.
func (s *Service) publishCompleted(ctx context.Context, order *domain.Order, items []domain.LineItem) {
	if s.producer == nil {
		return
	}

	event := domain.OrderCompletedEvent{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Total:       order.Total,
		Items:       items,
		CompletedAt: time.Now().UTC(),
	}

	if err := s.producer.Publish(ctx, order.ID, event); err != nil {
		s.logger.Error("failed to publish order completed event", "error", err, "order_id", order.ID)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "completed"
	case errors.Is(err, ErrCartNotFound):
		return "cart_not_found"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, payment.ErrDeclined):
		return "payment_declined"
	case errors.Is(err, inventory.ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "error"
	}
}
