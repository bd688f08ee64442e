package suppliers

import "time"

// Supplier is a vendor that provides products to the store.
type Supplier struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Filter narrows supplier listings.
type Filter struct {
	Search string
	Limit  int
	Offset int
}
