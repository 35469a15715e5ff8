package domain

// Product is the catalog entity. This service only reads it and decrements
// StockQuantity during checkout; catalog CRUD lives elsewhere.
type Product struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
}
