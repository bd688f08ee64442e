package employees

import "time"

// Employee is a staff member who can log in and record orders.
type Employee struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Filter narrows employee listings.
type Filter struct {
	Search     string
	Role       string
	ActiveOnly bool
	Limit      int
	Offset     int
}
