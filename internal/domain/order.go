package domain

import "time"

type OrderStatus string

const (
	// OrderStatusCart marks the customer's single mutable cart.
	OrderStatusCart OrderStatus = "cart"
	// OrderStatusCompleted marks a finalized, immutable order.
	OrderStatusCompleted OrderStatus = "completed"
)

// Order is both an in-progress cart and a finalized purchase, discriminated
// by Status. While Status is "cart" the Total is advisory; it becomes
// authoritative when checkout flips the order to "completed".
type Order struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customer_id"`
	Status     OrderStatus `json:"status"`
	Total      int64       `json:"total"`
	CreatedAt  time.Time   `json:"created_at"`
}

// LineItem is one product-quantity entry owned by exactly one order.
// UnitPrice is captured from the catalog when the item is first added and
// never updated afterwards.
type LineItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// CartItem is a line item joined with catalog data for cart reads.
// LivePrice is the catalog's current price, which may have drifted from the
// captured UnitPrice.
type CartItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	LivePrice   int64  `json:"live_price"`
}
