package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Sender delivers booking notifications. Delivery is a structured log line;
// an SMTP relay can replace it behind the same method.
type Sender struct {
	logger *logrus.Logger
}

func NewSender(logger *logrus.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		s.logger.WithField("booking_id", event.BookingID).Warn("notification skipped: no guest email")
		return nil
	}
	subject, body := Compose(event)
	s.logger.WithFields(logrus.Fields{
		"to":         event.Email,
		"subject":    subject,
		"booking_id": event.BookingID,
		"event":      event.Type,
	}).Info(body)
	return nil
}

// Compose renders the subject and body for a booking event.
func Compose(event kafka.BookingEvent) (string, string) {
	dates := fmt.Sprintf("%s to %s", event.StartDate.Format("2006-01-02"), event.EndDate.Format("2006-01-02"))
	name := event.GuestName
	if name == "" {
		name = "traveller"
	}

	switch event.Type {
	case kafka.EventBookingCreated:
		return "Booking received",
			fmt.Sprintf("Hi %s, we received your booking for %s. Total %s.", name, dates, formatAmount(event.TotalPrice, event.Currency))
	case kafka.EventBookingConfirmed:
		return "Booking confirmed " + event.ConfirmationNumber,
			fmt.Sprintf("Hi %s, your booking for %s is confirmed. Confirmation number %s.", name, dates, event.ConfirmationNumber)
	case kafka.EventBookingCancelled:
		return "Booking cancelled",
			fmt.Sprintf("Hi %s, your booking for %s was cancelled. Refund %s.", name, dates, formatAmount(event.RefundAmount, event.Currency))
	case kafka.EventBookingCompleted:
		return "Thanks for travelling with us",
			fmt.Sprintf("Hi %s, we hope you enjoyed your stay (%s). You can now leave a review.", name, dates)
	case kafka.EventBookingRefunded:
		return "Booking refunded",
			fmt.Sprintf("Hi %s, your booking for %s has been refunded.", name, dates)
	default:
		return "Booking update",
			fmt.Sprintf("Hi %s, your booking for %s is now %s.", name, dates, strings.ToLower(event.Status))
	}
}

func formatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", minor/100, minor%100, currency)
}
