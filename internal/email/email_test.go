package email

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(eventType string) kafka.BookingEvent {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return kafka.BookingEvent{
		Type:               eventType,
		BookingID:          "b-1",
		Email:              "ann@example.com",
		GuestName:          "Ann",
		Status:             "confirmed",
		StartDate:          start,
		EndDate:            start.AddDate(0, 0, 4),
		TotalPrice:         123456,
		Currency:           "USD",
		ConfirmationNumber: "TRV-K2J9F3-AB12C",
		RefundAmount:       61728,
	}
}

func TestCompose(t *testing.T) {
	subject, body := Compose(event(kafka.EventBookingConfirmed))
	assert.Equal(t, "Booking confirmed TRV-K2J9F3-AB12C", subject)
	assert.Contains(t, body, "2024-06-01 to 2024-06-05")

	_, body = Compose(event(kafka.EventBookingCreated))
	assert.Contains(t, body, "1234.56 USD")

	_, body = Compose(event(kafka.EventBookingCancelled))
	assert.Contains(t, body, "Refund 617.28 USD")

	subject, _ = Compose(event("something_else"))
	assert.Equal(t, "Booking update", subject)
}

func TestSender_Send(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sender := NewSender(logger)

	require.NoError(t, sender.Send(context.Background(), event(kafka.EventBookingCreated)))
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "ann@example.com", hook.LastEntry().Data["to"])

	noEmail := event(kafka.EventBookingCreated)
	noEmail.Email = ""
	require.NoError(t, sender.Send(context.Background(), noEmail))
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
