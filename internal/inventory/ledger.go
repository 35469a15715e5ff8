package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rgoncalves/cartflow/internal/domain"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// DBTX is the subset of *sql.DB and *sql.Tx the ledger needs, so stock
// mutations can run inside a caller's transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetProduct reads a catalog product. Returns (nil, nil) when the product
// does not exist.
func GetProduct(ctx context.Context, q DBTX, productID string) (*domain.Product, error) {
	product := &domain.Product{}

	err := q.QueryRowContext(ctx, `
		SELECT id, name, price, stock_quantity
		FROM products
		WHERE id = $1
	`, productID).Scan(&product.ID, &product.Name, &product.Price, &product.StockQuantity)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return product, nil
}

// Decrement reduces a product's stock by quantity. It fails with
// ErrInsufficientStock when the decrement would drive stock negative.
// Calling twice decrements twice; the operation is not idempotent.
func Decrement(ctx context.Context, q DBTX, productID string, quantity int) error {
	result, err := q.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2
		WHERE id = $1 AND stock_quantity >= $2
	`, productID, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrInsufficientStock
	}

	return nil
}
