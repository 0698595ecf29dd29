package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(ready func(context.Context) error, origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	reg := prometheus.NewRegistry()

	cfg := &config.Config{
		HTTP: config.HTTPConfig{CORSOrigins: origins},
		Auth: config.AuthConfig{JWTSecret: "secret", Issuer: "travel-app", Audience: "travel-app-users"},
	}
	return NewRouter(cfg, Deps{
		Logger:   logger,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Ready:    ready,
	})
}

func TestRouter_Health(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(nil, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	down := func(context.Context) error { return errors.New("db down") }
	newTestRouter(down, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(nil, nil)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "travel_http_requests_total")
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(nil, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_CORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/destinations", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")

	w := httptest.NewRecorder()
	newTestRouter(nil, []string{"http://localhost:5173"}).ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
