package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	DestinationID   string               `json:"destinationId"`
	StartDate       string               `json:"startDate"`
	EndDate         string               `json:"endDate"`
	Guests          int                  `json:"guests"`
	GuestDetails    *domain.GuestDetails `json:"guestDetails"`
	SpecialRequests string               `json:"specialRequests"`
	PaymentMethod   string               `json:"paymentMethod"`
	Source          string               `json:"source"`
}

type updateBookingRequest struct {
	SpecialRequests *string              `json:"specialRequests"`
	GuestDetails    *domain.GuestDetails `json:"guestDetails"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
	Force  bool   `json:"force"`
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type cancellationResponse struct {
	CancelledAt  string `json:"cancelledAt"`
	CancelledBy  string `json:"cancelledBy"`
	Reason       string `json:"reason,omitempty"`
	RefundAmount int64  `json:"refundAmount"`
}

type confirmationResponse struct {
	ConfirmedAt        string `json:"confirmedAt"`
	ConfirmationNumber string `json:"confirmationNumber"`
}

type reviewResponse struct {
	Rating     int    `json:"rating"`
	Comment    string `json:"comment,omitempty"`
	ReviewedAt string `json:"reviewedAt"`
}

type bookingResponse struct {
	ID              string                `json:"id"`
	UserID          string                `json:"userId"`
	DestinationID   string                `json:"destinationId"`
	StartDate       string                `json:"startDate"`
	EndDate         string                `json:"endDate"`
	Nights          int                   `json:"nights"`
	Guests          int                   `json:"guests"`
	PricePerNight   int64                 `json:"pricePerNight"`
	TotalPrice      int64                 `json:"totalPrice"`
	Currency        string                `json:"currency"`
	Status          string                `json:"status"`
	PaymentStatus   string                `json:"paymentStatus"`
	PaymentMethod   string                `json:"paymentMethod"`
	SpecialRequests string                `json:"specialRequests,omitempty"`
	GuestDetails    domain.GuestDetails   `json:"guestDetails"`
	Cancellation    *cancellationResponse `json:"cancellation,omitempty"`
	Confirmation    *confirmationResponse `json:"confirmation,omitempty"`
	Review          *reviewResponse       `json:"review,omitempty"`
	Metadata        domain.Metadata       `json:"metadata"`
	CreatedAt       string                `json:"createdAt"`
	UpdatedAt       string                `json:"updatedAt"`
}

type paginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup, auth *Authenticator) {
	bookings := router.Group("/bookings")
	bookings.GET("/availability", h.availability)

	user := bookings.Group("", auth.Required())
	user.POST("", h.create)
	user.GET("", h.list)
	user.GET("/:id", h.get)
	user.PUT("/:id", h.update)
	user.POST("/:id/cancel", h.cancel)
	user.POST("/:id/review", h.review)

	admin := bookings.Group("", auth.Required(), RequireAdmin())
	admin.POST("/:id/confirm", h.confirm)
	admin.POST("/:id/complete", h.complete)
	admin.POST("/:id/refund", h.refund)

	reports := router.Group("/admin/bookings", auth.Required(), RequireAdmin())
	reports.GET("/stats", h.stats)
	reports.GET("/export", h.export)
	reports.POST("/complete-finished", h.completeFinished)
}

func (h *BookingHandler) create(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err.Error())
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		badRequest(c, "startDate", "expected YYYY-MM-DD or RFC 3339")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		badRequest(c, "endDate", "expected YYYY-MM-DD or RFC 3339")
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), actor, booking.CreateBookingInput{
		DestinationID:   req.DestinationID,
		StartDate:       start,
		EndDate:         end,
		Guests:          req.Guests,
		GuestDetails:    req.GuestDetails,
		SpecialRequests: req.SpecialRequests,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		Metadata: domain.Metadata{
			Source:    domain.BookingSource(req.Source),
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		},
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "booking": toBookingResponse(created)})
}

func (h *BookingHandler) list(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	filter, ok := bookingFilterFromQuery(c)
	if !ok {
		return
	}

	page, err := h.service.ListBookings(c.Request.Context(), actor, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]bookingResponse, 0, len(page.Bookings))
	for i := range page.Bookings {
		items = append(items, toBookingResponse(&page.Bookings[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"bookings": items,
		"pagination": paginationResponse{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	})
}

func (h *BookingHandler) get(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": toBookingResponse(b)})
}

func (h *BookingHandler) update(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err.Error())
		return
	}

	b, err := h.service.UpdateBooking(c.Request.Context(), actor, c.Param("id"), booking.UpdateBookingInput{
		SpecialRequests: req.SpecialRequests,
		GuestDetails:    req.GuestDetails,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": toBookingResponse(b)})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	// the body is optional
	var req cancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body", err.Error())
			return
		}
	}

	b, err := h.service.CancelBooking(c.Request.Context(), actor, c.Param("id"), booking.CancelBookingInput{
		Reason: req.Reason,
		Force:  req.Force,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"booking":      toBookingResponse(b),
		"refundAmount": b.Cancellation.RefundAmount,
	})
}

func (h *BookingHandler) review(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err.Error())
		return
	}

	b, err := h.service.AddReview(c.Request.Context(), actor, c.Param("id"), booking.ReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "booking": toBookingResponse(b)})
}

func (h *BookingHandler) confirm(c *gin.Context) {
	h.transition(c, h.service.ConfirmBooking)
}

func (h *BookingHandler) complete(c *gin.Context) {
	h.transition(c, h.service.CompleteBooking)
}

func (h *BookingHandler) refund(c *gin.Context) {
	h.transition(c, h.service.RefundBooking)
}

func (h *BookingHandler) transition(c *gin.Context, fn func(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error)) {
	actor, err := actorFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	b, err := fn(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": toBookingResponse(b)})
}

func (h *BookingHandler) availability(c *gin.Context) {
	destinationID := c.Query("destinationId")
	start, err := parseDate(c.Query("startDate"))
	if err != nil {
		badRequest(c, "startDate", "expected YYYY-MM-DD or RFC 3339")
		return
	}
	end, err := parseDate(c.Query("endDate"))
	if err != nil {
		badRequest(c, "endDate", "expected YYYY-MM-DD or RFC 3339")
		return
	}

	result, err := h.service.CheckAvailability(c.Request.Context(), destinationID, start, end)
	if err != nil {
		writeError(c, err)
		return
	}

	conflicts := make([]gin.H, 0, len(result.Conflicts))
	for _, b := range result.Conflicts {
		conflicts = append(conflicts, gin.H{
			"startDate": formatDate(b.StartDate),
			"endDate":   formatDate(b.EndDate),
			"status":    string(b.Status),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"available": result.Available,
		"conflicts": conflicts,
	})
}

func (h *BookingHandler) stats(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	from, ok := optionalDate(c, "from")
	if !ok {
		return
	}
	to, ok := optionalDate(c, "to")
	if !ok {
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), actor, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	breakdown := make(map[string]int, len(stats.StatusBreakdown))
	for status, n := range stats.StatusBreakdown {
		breakdown[string(status)] = n
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"totalBookings":       stats.TotalBookings,
			"totalRevenue":        stats.TotalRevenue,
			"averageBookingValue": stats.AverageBookingValue,
			"averageGuests":       stats.AverageGuests,
			"statusBreakdown":     breakdown,
		},
	})
}

func (h *BookingHandler) export(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	filter, ok := bookingFilterFromQuery(c)
	if !ok {
		return
	}

	data, err := h.service.ExportBookings(c.Request.Context(), actor, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *BookingHandler) completeFinished(c *gin.Context) {
	completed, err := h.service.CompleteFinishedStays(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	ids := make([]string, 0, len(completed))
	for _, b := range completed {
		ids = append(ids, b.ID)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "completed": ids})
}

func bookingFilterFromQuery(c *gin.Context) (domain.BookingFilter, bool) {
	filter := domain.BookingFilter{
		UserID:        c.Query("userId"),
		DestinationID: c.Query("destinationId"),
		Status:        domain.BookingStatus(c.Query("status")),
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &filter.Page}, {"limit", &filter.Limit}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, p.name, "must be a positive integer")
			return filter, false
		}
		*p.dst = n
	}

	var ok bool
	if filter.StartFrom, ok = optionalDate(c, "startFrom"); !ok {
		return filter, false
	}
	if filter.StartTo, ok = optionalDate(c, "startTo"); !ok {
		return filter, false
	}
	return filter, true
}

func optionalDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := parseDate(raw)
	if err != nil {
		badRequest(c, name, "expected YYYY-MM-DD or RFC 3339")
		return nil, false
	}
	return &t, true
}

// parseDate accepts a calendar date or an RFC 3339 timestamp and returns UTC.
// An empty string yields the zero time so the service reports it as missing.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		DestinationID:   b.DestinationID,
		StartDate:       formatDate(b.StartDate),
		EndDate:         formatDate(b.EndDate),
		Nights:          booking.Nights(b.StartDate, b.EndDate),
		Guests:          b.Guests,
		PricePerNight:   b.PricePerNight,
		TotalPrice:      b.TotalPrice,
		Currency:        b.Currency,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		PaymentMethod:   string(b.PaymentMethod),
		SpecialRequests: b.SpecialRequests,
		GuestDetails:    b.GuestDetails,
		Metadata:        b.Metadata,
		CreatedAt:       formatDate(b.CreatedAt),
		UpdatedAt:       formatDate(b.UpdatedAt),
	}
	if b.Cancellation != nil {
		resp.Cancellation = &cancellationResponse{
			CancelledAt:  formatDate(b.Cancellation.CancelledAt),
			CancelledBy:  b.Cancellation.CancelledBy,
			Reason:       b.Cancellation.Reason,
			RefundAmount: b.Cancellation.RefundAmount,
		}
	}
	if b.Confirmation != nil {
		resp.Confirmation = &confirmationResponse{
			ConfirmedAt:        formatDate(b.Confirmation.ConfirmedAt),
			ConfirmationNumber: b.Confirmation.ConfirmationNumber,
		}
	}
	if b.Review != nil {
		resp.Review = &reviewResponse{
			Rating:     b.Review.Rating,
			Comment:    b.Review.Comment,
			ReviewedAt: formatDate(b.Review.ReviewedAt),
		}
	}
	return resp
}
