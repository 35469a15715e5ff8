package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGetProduct(t *testing.T) {
	t.Run("returns product", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock new: %v", err)
		}
		defer db.Close()

		rows := sqlmock.NewRows([]string{"id", "name", "price", "stock_quantity"}).
			AddRow("prod-1", "Widget", int64(1000), 25)
		mock.ExpectQuery(`SELECT id, name, price, stock_quantity`).
			WithArgs("prod-1").
			WillReturnRows(rows)

		product, err := GetProduct(context.Background(), db, "prod-1")
		if err != nil {
			t.Fatalf("GetProduct failed: %v", err)
		}
		if product == nil {
			t.Fatal("expected product, got nil")
		}
		if product.Name != "Widget" || product.Price != 1000 || product.StockQuantity != 25 {
			t.Fatalf("unexpected product: %+v", product)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("returns nil for unknown product", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		mock.ExpectQuery(`SELECT id, name, price, stock_quantity`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "stock_quantity"}))

		product, err := GetProduct(context.Background(), db, "missing")
		if err != nil {
			t.Fatalf("GetProduct failed: %v", err)
		}
		if product != nil {
			t.Fatalf("expected nil, got %+v", product)
		}
	})
}

func TestDecrement(t *testing.T) {
	t.Run("decrements stock", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		mock.ExpectExec(`UPDATE products`).
			WithArgs("prod-1", 3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := Decrement(context.Background(), db, "prod-1", 3); err != nil {
			t.Fatalf("Decrement failed: %v", err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("fails when stock would go negative", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		mock.ExpectExec(`UPDATE products`).
			WithArgs("prod-1", 99).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := Decrement(context.Background(), db, "prod-1", 99)
		if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
	})

	t.Run("is not idempotent", func(t *testing.T) {
		db, mock, _ := sqlmock.New()
		defer db.Close()

		mock.ExpectExec(`UPDATE products`).
			WithArgs("prod-1", 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE products`).
			WithArgs("prod-1", 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		for i := 0; i < 2; i++ {
			if err := Decrement(context.Background(), db, "prod-1", 2); err != nil {
				t.Fatalf("Decrement %d failed: %v", i, err)
			}
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("expected two decrements: %v", err)
		}
	})
}
