package domain

import "time"

// Customer identifies a caller. The phone number is the natural unique key:
// repeated registration with the same phone returns the stored record
// unchanged. Customers are never mutated or deleted after creation.
type Customer struct {
	ID        int64
	Name      string
	Phone     string
	CreatedAt time.Time
}
