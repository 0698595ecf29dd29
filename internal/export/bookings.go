package export

import (
	"bytes"
	"fmt"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var headers = []string{
	"ID", "Destination", "User", "Guest", "Email", "Start", "End", "Guests",
	"Total", "Currency", "Status", "Payment", "Confirmation", "Refund", "Rating", "Created",
}

// BookingsXLSX renders bookings as a single-sheet workbook.
func BookingsXLSX(bookings []domain.Booking) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for col, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheetName, cell, title)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheetName, "A1", last, headerStyle)

	for i, b := range bookings {
		row := i + 2
		values := []interface{}{
			b.ID,
			b.DestinationID,
			b.UserID,
			b.GuestDetails.PrimaryGuest.Name,
			b.GuestDetails.PrimaryGuest.Email,
			b.StartDate.Format("2006-01-02"),
			b.EndDate.Format("2006-01-02"),
			b.Guests,
			float64(b.TotalPrice) / 100,
			b.Currency,
			string(b.Status),
			string(b.PaymentStatus),
			"",
			"",
			"",
			b.CreatedAt.Format("2006-01-02 15:04"),
		}
		if b.Confirmation != nil {
			values[12] = b.Confirmation.ConfirmationNumber
		}
		if b.Cancellation != nil {
			values[13] = float64(b.Cancellation.RefundAmount) / 100
		}
		if b.Review != nil {
			values[14] = b.Review.Rating
		}

		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
