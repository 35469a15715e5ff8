package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/rgoncalves/cartflow/internal/inventory"
	"github.com/rgoncalves/cartflow/internal/payment"
)

type fakeAuthorizer struct {
	err     error
	amounts []int64
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, amount int64) error {
	f.amounts = append(f.amounts, amount)
	return f.err
}

func newTestService(t *testing.T, auth payment.Authorizer) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(db, auth, nil, nil, logger), mock
}

func expectOpenCart(mock sqlmock.Sqlmock, cartID, customerID string) {
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(customerID, "cart").
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "status", "total", "created_at"}).
			AddRow(cartID, customerID, "cart", int64(0), time.Now()))
}

func TestCheckout_Success(t *testing.T) {
	auth := &fakeAuthorizer{}
	service, mock := newTestService(t, auth)

	mock.ExpectBegin()
	expectOpenCart(mock, "cart-1", "cust-1")
	mock.ExpectQuery(`FROM order_items`).
		WithArgs("cart-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "unit_price"}).
			AddRow("item-1", "cart-1", "prod-a", 2, int64(1000)).
			AddRow("item-2", "cart-1", "prod-b", 1, int64(500)))
	mock.ExpectExec(`UPDATE products`).
		WithArgs("prod-a", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE products`).
		WithArgs("prod-b", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE orders`).
		WithArgs("cart-1", "completed", int64(2500)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := service.Checkout(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	if result.Order.Status != "completed" {
		t.Fatalf("expected completed order, got %s", result.Order.Status)
	}
	if result.Order.Total != 2500 {
		t.Fatalf("expected total 2500, got %d", result.Order.Total)
	}
	if result.NewCartID == "" || result.NewCartID == result.Order.ID {
		t.Fatalf("expected fresh cart id distinct from order id, got %q", result.NewCartID)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	if len(auth.amounts) != 1 || auth.amounts[0] != 2500 {
		t.Fatalf("expected one authorization for 2500, got %v", auth.amounts)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCheckout_CartNotFound(t *testing.T) {
	service, mock := newTestService(t, &fakeAuthorizer{})

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("cust-1", "cart").
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "status", "total", "created_at"}))
	mock.ExpectRollback()

	_, err := service.Checkout(context.Background(), "cust-1")
	if !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	auth := &fakeAuthorizer{}
	service, mock := newTestService(t, auth)

	mock.ExpectBegin()
	expectOpenCart(mock, "cart-1", "cust-1")
	mock.ExpectQuery(`FROM order_items`).
		WithArgs("cart-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "unit_price"}))
	mock.ExpectRollback()

	_, err := service.Checkout(context.Background(), "cust-1")
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if len(auth.amounts) != 0 {
		t.Fatal("payment must not be invoked for an empty cart")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCheckout_PaymentDeclinedRollsBack(t *testing.T) {
	service, mock := newTestService(t, &fakeAuthorizer{err: payment.ErrDeclined})

	mock.ExpectBegin()
	expectOpenCart(mock, "cart-1", "cust-1")
	mock.ExpectQuery(`FROM order_items`).
		WithArgs("cart-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "unit_price"}).
			AddRow("item-1", "cart-1", "prod-a", 2, int64(1000)))
	// No stock decrement, no status flip, no new cart: the decline aborts
	// the transaction before any mutation.
	mock.ExpectRollback()

	_, err := service.Checkout(context.Background(), "cust-1")
	if !errors.Is(err, payment.ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCheckout_InsufficientStockRollsBack(t *testing.T) {
	service, mock := newTestService(t, &fakeAuthorizer{})

	mock.ExpectBegin()
	expectOpenCart(mock, "cart-1", "cust-1")
	mock.ExpectQuery(`FROM order_items`).
		WithArgs("cart-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "unit_price"}).
			AddRow("item-1", "cart-1", "prod-a", 5, int64(1000)))
	mock.ExpectExec(`UPDATE products`).
		WithArgs("prod-a", 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := service.Checkout(context.Background(), "cust-1")
	if !errors.Is(err, inventory.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
