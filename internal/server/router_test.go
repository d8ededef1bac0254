package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/recipebox/webapp/internal/metrics"
	"github.com/recipebox/webapp/internal/services"
	"github.com/recipebox/webapp/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func newTestRouter(t *testing.T, dbErr error) http.Handler {
	t.Helper()
	mem := testutil.NewMemStore()
	images := testutil.NewMemImages()
	reg := prometheus.NewRegistry()

	router, err := NewRouter(Deps{
		Recipes:       services.NewRecipeService(mem.Recipes(), images, images, nil, nil),
		Favorites:     services.NewFavoriteService(mem.Favorites()),
		Users:         services.NewUserServiceWithCost(mem.Users(), bcrypt.MinCost),
		Images:        images,
		DB:            pinger{err: dbErr},
		Metrics:       metrics.NewWithRegistry(reg, reg),
		SessionSecret: "secret",
	})
	require.NoError(t, err)
	return router
}

func TestNewRouterRequiresSecret(t *testing.T) {
	_, err := NewRouter(Deps{})
	assert.EqualError(t, err, "SESSION_SECRET is required")
}

func TestRootRedirectsToRecipes(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/recipes", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recipes", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No recipes yet.")
}

func TestHealthzAndMetrics(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/healthz",status="200"} 1`)

	down := newTestRouter(t, errors.New("connection refused"))
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	router := newTestRouter(t, nil)
	form := url.Values{"username": {"nobody"}, "password": {"x"}}.Encode()

	var last int
	for i := 0; i < credentialBurst+1; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = "192.0.2.10:4000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestLoginRateLimitIgnoresForwardedHeaders(t *testing.T) {
	router := newTestRouter(t, nil)
	form := url.Values{"username": {"nobody"}, "password": {"x"}}.Encode()

	limited := 0
	for i := 0; i < 4*credentialBurst; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		req.Header.Set("X-Real-IP", "203.0.113."+strconv.Itoa(i))
		req.RemoteAddr = "192.0.2.20:4000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.GreaterOrEqual(t, limited, 2*credentialBurst)
}
