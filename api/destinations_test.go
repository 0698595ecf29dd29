package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/service/destinations"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDestinationUseCase struct {
	mock.Mock
}

func (m *MockDestinationUseCase) List(ctx context.Context) ([]domain.Destination, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Destination), args.Error(1)
}

func (m *MockDestinationUseCase) GetByID(ctx context.Context, id string) (*domain.Destination, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Destination), args.Error(1)
}

func (m *MockDestinationUseCase) Create(ctx context.Context, actor domain.Actor, input destinations.CreateDestinationInput) (*domain.Destination, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Destination), args.Error(1)
}

func (m *MockDestinationUseCase) Update(ctx context.Context, actor domain.Actor, id string, input destinations.UpdateDestinationInput) (*domain.Destination, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Destination), args.Error(1)
}

func (m *MockDestinationUseCase) Deactivate(ctx context.Context, actor domain.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func newDestinationRouter(service destinations.DestinationUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewDestinationHandler(service).Register(router.Group("/api"), testAuth)
	return router
}

func TestDestinationHandler_list(t *testing.T) {
	mockService := &MockDestinationUseCase{}
	mockService.On("List", mock.Anything).Return([]domain.Destination{
		{ID: "d1", Name: "Lisbon loft", Location: "Lisbon", Price: 9000, Currency: "EUR", MaxGuests: 2, IsActive: true, Rating: 4.5},
	}, nil)

	c, w := newTestContext(http.MethodGet, "/api/destinations", nil, nil)
	NewDestinationHandler(mockService).list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)["destinations"].([]interface{})
	assert.Len(t, list, 1)
	first := list[0].(map[string]interface{})
	assert.Equal(t, "Lisbon loft", first["name"])
	assert.Equal(t, 4.5, first["rating"])
}

func TestDestinationHandler_get_NotFound(t *testing.T) {
	mockService := &MockDestinationUseCase{}
	mockService.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrDestinationNotFound)

	w := httptest.NewRecorder()
	newDestinationRouter(mockService).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/destinations/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "DestinationNotFound", decode(t, w)["error"])
}

func TestDestinationRoutes_create(t *testing.T) {
	mockService := &MockDestinationUseCase{}
	input := destinations.CreateDestinationInput{Name: "Alpine cabin", Location: "Tyrol", Price: 15000, MaxGuests: 6}
	mockService.On("Create", mock.Anything, testAdmin, input).Return(&domain.Destination{ID: "d2", Name: "Alpine cabin", IsActive: true}, nil)
	router := newDestinationRouter(mockService)

	body := `{"name":"Alpine cabin","location":"Tyrol","price":15000,"maxGuests":6}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/destinations", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, testUser))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/destinations", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, testAdmin))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "d2", decode(t, w)["destination"].(map[string]interface{})["id"])

	mockService.AssertNumberOfCalls(t, "Create", 1)
}

func TestDestinationRoutes_update(t *testing.T) {
	mockService := &MockDestinationUseCase{}
	price := int64(12000)
	mockService.On("Update", mock.Anything, testAdmin, "d1", mock.MatchedBy(func(in destinations.UpdateDestinationInput) bool {
		return in.Price != nil && *in.Price == price && in.Name == nil
	})).Return(&domain.Destination{ID: "d1", Name: "Lisbon loft", Price: price, IsActive: true}, nil)
	router := newDestinationRouter(mockService)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/destinations/d1", strings.NewReader(`{"price":12000}`))
	req.Header.Set("Authorization", bearer(t, testAdmin))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(price), decode(t, w)["destination"].(map[string]interface{})["price"])
	mockService.AssertExpectations(t)
}

func TestDestinationRoutes_deactivate(t *testing.T) {
	mockService := &MockDestinationUseCase{}
	mockService.On("Deactivate", mock.Anything, testAdmin, "d1").Return(nil)
	mockService.On("Deactivate", mock.Anything, testAdmin, "missing").Return(domain.ErrDestinationNotFound)
	router := newDestinationRouter(mockService)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/destinations/d1", nil)
	req.Header.Set("Authorization", bearer(t, testUser))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/destinations/d1", nil)
	req.Header.Set("Authorization", bearer(t, testAdmin))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/destinations/missing", nil)
	req.Header.Set("Authorization", bearer(t, testAdmin))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "DestinationNotFound", decode(t, w)["error"])
}
