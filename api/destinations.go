package api

import (
	"net/http"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/service/destinations"
	"github.com/gin-gonic/gin"
)

type DestinationHandler struct {
	service destinations.DestinationUseCase
}

type createDestinationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
	MaxGuests   int    `json:"maxGuests"`
}

type updateDestinationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Category    *string `json:"category"`
	Price       *int64  `json:"price"`
	Currency    *string `json:"currency"`
	MaxGuests   *int    `json:"maxGuests"`
	IsActive    *bool   `json:"isActive"`
}

type destinationResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Location     string  `json:"location"`
	Category     string  `json:"category,omitempty"`
	Price        int64   `json:"price"`
	Currency     string  `json:"currency"`
	MaxGuests    int     `json:"maxGuests"`
	IsActive     bool    `json:"isActive"`
	BookingCount int     `json:"bookingCount"`
	LastBookedAt *string `json:"lastBookedAt,omitempty"`
	Rating       float64 `json:"rating"`
	ReviewCount  int     `json:"reviewCount"`
}

func NewDestinationHandler(service destinations.DestinationUseCase) *DestinationHandler {
	return &DestinationHandler{service: service}
}

func (h *DestinationHandler) Register(router *gin.RouterGroup, auth *Authenticator) {
	group := router.Group("/destinations")
	group.GET("", h.list)
	group.GET("/:id", h.get)
	group.POST("", auth.Required(), RequireAdmin(), h.create)
	group.PUT("/:id", auth.Required(), RequireAdmin(), h.update)
	group.DELETE("/:id", auth.Required(), RequireAdmin(), h.deactivate)
}

func (h *DestinationHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]destinationResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toDestinationResponse(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "destinations": resp})
}

func (h *DestinationHandler) get(c *gin.Context) {
	d, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "destination": toDestinationResponse(d)})
}

func (h *DestinationHandler) create(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req createDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err.Error())
		return
	}

	d, err := h.service.Create(c.Request.Context(), actor, destinations.CreateDestinationInput{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		Price:       req.Price,
		Currency:    req.Currency,
		MaxGuests:   req.MaxGuests,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "destination": toDestinationResponse(d)})
}

func (h *DestinationHandler) update(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req updateDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err.Error())
		return
	}

	d, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), destinations.UpdateDestinationInput{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		Price:       req.Price,
		Currency:    req.Currency,
		MaxGuests:   req.MaxGuests,
		IsActive:    req.IsActive,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "destination": toDestinationResponse(d)})
}

func (h *DestinationHandler) deactivate(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "destination deactivated"})
}

func toDestinationResponse(d *domain.Destination) destinationResponse {
	resp := destinationResponse{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.Description,
		Location:     d.Location,
		Category:     d.Category,
		Price:        d.Price,
		Currency:     d.Currency,
		MaxGuests:    d.MaxGuests,
		IsActive:     d.IsActive,
		BookingCount: d.BookingCount,
		Rating:       d.Rating,
		ReviewCount:  d.ReviewCount,
	}
	if d.LastBookedAt != nil {
		s := formatDate(*d.LastBookedAt)
		resp.LastBookedAt = &s
	}
	return resp
}
