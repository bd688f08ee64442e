package products

import "time"

// Product is an item carried in the store catalog.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	SupplierID    int64     `json:"supplier_id"`
	SupplierName  string    `json:"supplier_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Filter narrows product listings.
type Filter struct {
	Search     string
	Category   string
	SupplierID int64
	LowStock   bool
	Sort       string
	Limit      int
	Offset     int
}
