package product

import "time"

// Price is a live pricing and stock record from the pricing collaborator.
type Price struct {
	SKU       string
	Amount    float64
	Currency  string
	Stock     int
	UpdatedAt time.Time
}
