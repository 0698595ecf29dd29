package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBookingsXLSX(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	bookings := []domain.Booking{
		{
			ID:            "b-1",
			DestinationID: "d-1",
			UserID:        "u-1",
			StartDate:     start,
			EndDate:       start.AddDate(0, 0, 4),
			Guests:        2,
			TotalPrice:    80000,
			Currency:      "USD",
			Status:        domain.BookingStatusConfirmed,
			PaymentStatus: domain.PaymentStatusPaid,
			GuestDetails:  domain.GuestDetails{PrimaryGuest: domain.Guest{Name: "Ann", Email: "ann@example.com"}},
			Confirmation:  &domain.Confirmation{ConfirmationNumber: "TRV-K2J9F3-AB12C"},
		},
		{
			ID:           "b-2",
			StartDate:    start,
			EndDate:      start.AddDate(0, 0, 1),
			Status:       domain.BookingStatusCancelled,
			Cancellation: &domain.Cancellation{RefundAmount: 5000},
		},
	}

	data, err := BookingsXLSX(bookings)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, "b-1", rows[1][0])
	assert.Equal(t, "2024-06-05", rows[1][6])
	assert.Equal(t, "TRV-K2J9F3-AB12C", rows[1][12])
	assert.Equal(t, "50", rows[2][13])
}
