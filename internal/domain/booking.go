package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusRefunded  BookingStatus = "refunded"
)

// ActiveStatuses are the statuses that hold a destination's dates.
var ActiveStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed}

// IsActive reports whether a booking in this status blocks its dates.
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted, BookingStatusRefunded:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodPaypal     PaymentMethod = "paypal"
	PaymentMethodStripe     PaymentMethod = "stripe"
	PaymentMethodCash       PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPaypal, PaymentMethodStripe, PaymentMethodCash:
		return true
	}
	return false
}

type BookingSource string

const (
	BookingSourceWeb    BookingSource = "web"
	BookingSourceMobile BookingSource = "mobile"
	BookingSourceAdmin  BookingSource = "admin"
)

func (s BookingSource) Valid() bool {
	return s == BookingSourceWeb || s == BookingSourceMobile || s == BookingSourceAdmin
}

type Guest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type AdditionalGuest struct {
	Name string `json:"name"`
	Age  *int   `json:"age,omitempty"`
}

type GuestDetails struct {
	PrimaryGuest     Guest             `json:"primaryGuest"`
	AdditionalGuests []AdditionalGuest `json:"additionalGuests,omitempty"`
}

type Cancellation struct {
	CancelledAt  time.Time
	CancelledBy  string
	Reason       string
	RefundAmount int64
}

type Confirmation struct {
	ConfirmedAt        time.Time
	ConfirmationNumber string
}

type Review struct {
	Rating     int
	Comment    string
	ReviewedAt time.Time
}

type Metadata struct {
	Source    BookingSource `json:"source"`
	IPAddress string        `json:"ipAddress,omitempty"`
	UserAgent string        `json:"userAgent,omitempty"`
}

// Booking is one reservation of a destination for the half-open interval
// [StartDate, EndDate). Confirmation, Cancellation and Review are set only
// once the booking has reached the matching state. Amounts are minor units.
type Booking struct {
	ID              string
	UserID          string
	DestinationID   string
	StartDate       time.Time
	EndDate         time.Time
	Guests          int
	PricePerNight   int64
	TotalPrice      int64
	Currency        string
	Status          BookingStatus
	PaymentStatus   PaymentStatus
	PaymentMethod   PaymentMethod
	SpecialRequests string
	GuestDetails    GuestDetails
	Cancellation    *Cancellation
	Confirmation    *Confirmation
	Review          *Review
	Metadata        Metadata
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BookingFilter narrows booking listings. Zero values mean "any".
type BookingFilter struct {
	UserID        string
	DestinationID string
	Status        BookingStatus
	StartFrom     *time.Time
	StartTo       *time.Time
	Page          int
	Limit         int
}

type BookingPage struct {
	Bookings   []Booking
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

type BookingStats struct {
	TotalBookings       int
	TotalRevenue        int64
	AverageBookingValue float64
	AverageGuests       float64
	StatusBreakdown     map[BookingStatus]int
}
