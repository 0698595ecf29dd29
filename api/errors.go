package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorKind struct {
	err    error
	kind   string
	status int
}

// Order matters: the first match wins.
var errorKinds = []errorKind{
	{domain.ErrValidationFailed, "ValidationFailed", http.StatusBadRequest},
	{domain.ErrDestinationNotFound, "DestinationNotFound", http.StatusNotFound},
	{domain.ErrNotFound, "NotFound", http.StatusNotFound},
	{domain.ErrDatesUnavailable, "DatesUnavailable", http.StatusConflict},
	{domain.ErrBookingInProgress, "BookingInProgress", http.StatusConflict},
	{domain.ErrInvalidStateTransition, "InvalidStateTransition", http.StatusConflict},
	{domain.ErrBookingNotCancellable, "BookingNotCancellable", http.StatusConflict},
	{domain.ErrReviewAlreadyExists, "ReviewAlreadyExists", http.StatusConflict},
	{domain.ErrCapacityExceeded, "CapacityExceeded", http.StatusUnprocessableEntity},
	{domain.ErrReviewNotAllowed, "ReviewNotAllowed", http.StatusUnprocessableEntity},
	{domain.ErrAccessDenied, "AccessDenied", http.StatusForbidden},
	{domain.ErrUnauthorized, "Unauthorized", http.StatusUnauthorized},
	{domain.ErrStorageUnavailable, "StorageUnavailable", http.StatusServiceUnavailable},
}

type errorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func classify(err error) (string, int) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind, k.status
		}
	}
	return "Internal", http.StatusInternalServerError
}

// writeError aborts the request with the JSON error envelope. Internal
// errors are logged by the request logger and not echoed to the client.
func writeError(c *gin.Context, err error) {
	kind, status := classify(err)
	resp := errorResponse{Error: kind, Message: err.Error()}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	if status == http.StatusInternalServerError {
		resp.Message = "internal server error"
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, field, message string) {
	writeError(c, domain.FieldError(field, message))
}
