package orders

import "time"

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Final reports whether the status permits no further transitions.
func (s Status) Final() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Order is a recorded sale with line items priced at order time.
type Order struct {
	ID           int64       `json:"id"`
	CustomerID   int64       `json:"customer_id"`
	CustomerName string      `json:"customer_name,omitempty"`
	EmployeeID   int64       `json:"employee_id"`
	Status       Status      `json:"status"`
	TotalAmount  float64     `json:"total_amount"`
	OrderDate    time.Time   `json:"order_date"`
	Items        []OrderItem `json:"items,omitempty"`
}

// OrderItem is a line on an order. UnitPrice is a snapshot of the product
// price at the moment the order was placed, so later catalog edits never
// rewrite order history.
type OrderItem struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"order_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Subtotal is the line total at the snapshotted price.
func (i OrderItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Filter narrows order listings.
type Filter struct {
	Status     Status
	CustomerID int64
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// LockedProduct is the slice of a product row needed while it is held
// under a row lock during order creation.
type LockedProduct struct {
	ID            int64
	Name          string
	Price         float64
	StockQuantity int
}
