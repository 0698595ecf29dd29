package domain

import "time"

// Destination is a bookable listing. Price is per night in minor units.
type Destination struct {
	ID           string
	Name         string
	Description  string
	Location     string
	Category     string
	Price        int64
	Currency     string
	MaxGuests    int
	IsActive     bool
	BookingCount int
	LastBookedAt *time.Time
	Rating       float64
	ReviewCount  int
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
