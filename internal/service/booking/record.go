package booking

import (
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

const day = 24 * time.Hour

const (
	MinGuests             = 1
	MaxGuests             = 20
	maxSpecialRequests    = 500
	maxReviewComment      = 1000
	maxCancellationReason = 500
	maxGuestAge           = 120
)

// Nights is the ceiling of the day difference between end and start.
func Nights(start, end time.Time) int {
	diff := end.Sub(start)
	if diff <= 0 {
		return 0
	}
	nights := int(diff / day)
	if diff%day != 0 {
		nights++
	}
	return nights
}

func PriceBooking(nights int, pricePerNight int64, guests int) int64 {
	return int64(nights) * pricePerNight * int64(guests)
}

func ValidateGuestCapacity(guests, maxGuests int) error {
	if guests > maxGuests {
		return fmt.Errorf("%w: %d guests requested, maximum is %d", domain.ErrCapacityExceeded, guests, maxGuests)
	}
	return nil
}

// Confirm moves a pending booking to confirmed under the given code.
func Confirm(b domain.Booking, now time.Time, code string) (domain.Booking, error) {
	if b.Status != domain.BookingStatusPending {
		return b, transitionError(b.Status, domain.BookingStatusConfirmed)
	}
	b.Status = domain.BookingStatusConfirmed
	b.Confirmation = &domain.Confirmation{ConfirmedAt: now, ConfirmationNumber: code}
	return b, nil
}

// Cancel cancels a pending or confirmed booking. A confirmed booking whose
// start day is today or earlier (UTC) needs override.
func Cancel(b domain.Booking, reason, actorID string, now time.Time, override bool) (domain.Booking, error) {
	if !b.Status.IsActive() {
		return b, fmt.Errorf("%w: booking is %s", domain.ErrBookingNotCancellable, b.Status)
	}
	if b.Status == domain.BookingStatusConfirmed && !startsAfterToday(b, now) && !override {
		return b, fmt.Errorf("%w: stay has already started", domain.ErrBookingNotCancellable)
	}
	b.Status = domain.BookingStatusCancelled
	b.Cancellation = &domain.Cancellation{
		CancelledAt: now,
		CancelledBy: actorID,
		Reason:      reason,
	}
	return b, nil
}

func startsAfterToday(b domain.Booking, now time.Time) bool {
	return b.StartDate.UTC().Truncate(day).After(now.UTC().Truncate(day))
}

// DaysUntilStart is ceil((start - now) / 1 day); negative once the stay began.
func DaysUntilStart(b domain.Booking, now time.Time) int {
	return int(math.Ceil(float64(b.StartDate.Sub(now)) / float64(day)))
}

// CalculateRefund applies the tiered policy: more than 7 days ahead refunds
// everything, 3 to 7 days refunds half, anything later refunds nothing.
func CalculateRefund(b domain.Booking, now time.Time) int64 {
	days := DaysUntilStart(b, now)
	switch {
	case days > 7:
		return b.TotalPrice
	case days >= 3:
		return (b.TotalPrice*50 + 50) / 100
	default:
		return 0
	}
}

func AttachReview(b domain.Booking, rating int, comment string, now time.Time) (domain.Booking, error) {
	if b.Status != domain.BookingStatusCompleted {
		return b, domain.ErrReviewNotAllowed
	}
	if b.Review != nil {
		return b, domain.ErrReviewAlreadyExists
	}

	v := &domain.ValidationError{}
	if rating < 1 || rating > 5 {
		v.Add("rating", "rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxReviewComment {
		v.Add("comment", fmt.Sprintf("comment cannot exceed %d characters", maxReviewComment))
	}
	if err := v.Err(); err != nil {
		return b, err
	}

	b.Review = &domain.Review{Rating: rating, Comment: comment, ReviewedAt: now}
	return b, nil
}

// Complete marks a confirmed booking whose stay has ended as completed.
func Complete(b domain.Booking, now time.Time) (domain.Booking, error) {
	if b.Status != domain.BookingStatusConfirmed {
		return b, transitionError(b.Status, domain.BookingStatusCompleted)
	}
	if now.Before(b.EndDate) {
		return b, fmt.Errorf("%w: stay ends %s", domain.ErrInvalidStateTransition, b.EndDate.Format(time.RFC3339))
	}
	b.Status = domain.BookingStatusCompleted
	return b, nil
}

func MarkRefunded(b domain.Booking) (domain.Booking, error) {
	if b.Status != domain.BookingStatusCompleted {
		return b, transitionError(b.Status, domain.BookingStatusRefunded)
	}
	b.Status = domain.BookingStatusRefunded
	b.PaymentStatus = domain.PaymentStatusRefunded
	return b, nil
}

func transitionError(from, to domain.BookingStatus) error {
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStateTransition, from, to)
}

func validateCreateInput(input CreateBookingInput, now time.Time) error {
	v := &domain.ValidationError{}

	if strings.TrimSpace(input.DestinationID) == "" {
		v.Add("destinationId", "destination is required")
	}
	validateDates(v, input.StartDate, input.EndDate)
	if !input.StartDate.IsZero() && input.StartDate.Before(now.Truncate(day)) {
		v.Add("startDate", "start date cannot be in the past")
	}
	if input.Guests < MinGuests {
		v.Add("guests", "at least 1 guest is required")
	} else if input.Guests > MaxGuests {
		v.Add("guests", fmt.Sprintf("maximum %d guests allowed", MaxGuests))
	}
	if input.GuestDetails != nil {
		validateGuestDetails(v, *input.GuestDetails)
	}
	validateSpecialRequests(v, input.SpecialRequests)
	if input.PaymentMethod != "" && !input.PaymentMethod.Valid() {
		v.Add("paymentMethod", "unsupported payment method")
	}
	if input.Metadata.Source != "" && !input.Metadata.Source.Valid() {
		v.Add("metadata.source", "source must be web, mobile or admin")
	}

	return v.Err()
}

func validateDates(v *domain.ValidationError, start, end time.Time) {
	if start.IsZero() {
		v.Add("startDate", "start date is required")
	}
	if end.IsZero() {
		v.Add("endDate", "end date is required")
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		v.Add("endDate", "end date must be after start date")
	}
}

func validateGuestDetails(v *domain.ValidationError, details domain.GuestDetails) {
	primary := details.PrimaryGuest
	if strings.TrimSpace(primary.Name) == "" {
		v.Add("guestDetails.primaryGuest.name", "primary guest name is required")
	}
	if strings.TrimSpace(primary.Email) == "" {
		v.Add("guestDetails.primaryGuest.email", "primary guest email is required")
	} else if _, err := mail.ParseAddress(primary.Email); err != nil {
		v.Add("guestDetails.primaryGuest.email", "primary guest email is invalid")
	}
	for i, g := range details.AdditionalGuests {
		if strings.TrimSpace(g.Name) == "" {
			v.Add(fmt.Sprintf("guestDetails.additionalGuests[%d].name", i), "guest name is required")
		}
		if g.Age != nil && (*g.Age < 0 || *g.Age > maxGuestAge) {
			v.Add(fmt.Sprintf("guestDetails.additionalGuests[%d].age", i), fmt.Sprintf("age must be between 0 and %d", maxGuestAge))
		}
	}
}

func validateSpecialRequests(v *domain.ValidationError, requests string) {
	if len(strings.TrimSpace(requests)) > maxSpecialRequests {
		v.Add("specialRequests", fmt.Sprintf("special requests cannot exceed %d characters", maxSpecialRequests))
	}
}

func normalizeGuestDetails(details domain.GuestDetails) domain.GuestDetails {
	details.PrimaryGuest.Name = strings.TrimSpace(details.PrimaryGuest.Name)
	details.PrimaryGuest.Email = strings.ToLower(strings.TrimSpace(details.PrimaryGuest.Email))
	details.PrimaryGuest.Phone = strings.TrimSpace(details.PrimaryGuest.Phone)
	if len(details.AdditionalGuests) > 0 {
		guests := make([]domain.AdditionalGuest, len(details.AdditionalGuests))
		for i, g := range details.AdditionalGuests {
			guests[i] = domain.AdditionalGuest{Name: strings.TrimSpace(g.Name), Age: g.Age}
		}
		details.AdditionalGuests = guests
	}
	return details
}
