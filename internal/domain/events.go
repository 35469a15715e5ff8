package domain

import "time"

type OrderCompletedEvent struct {
	OrderID     string     `json:"order_id"`
	CustomerID  string     `json:"customer_id"`
	Total       int64      `json:"total"`
	Items       []LineItem `json:"items"`
	CompletedAt time.Time  `json:"completed_at"`
}
