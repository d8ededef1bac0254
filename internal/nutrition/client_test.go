package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/recipebox/webapp/config"
	"github.com/recipebox/webapp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "calories": 245,
  "totalWeight": 512.5,
  "dietLabels": ["LOW_FAT"],
  "healthLabels": ["VEGAN", "PEANUT_FREE"],
  "totalNutrients": {
    "FAT": {"label": "Fat", "quantity": 1.25, "unit": "g"},
    "ENERC_KCAL": {"label": "Energy", "quantity": 245, "unit": "kcal"}
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	client := NewClient(config.NutritionConfig{
		BaseURL: server.URL + "/",
		AppID:   "id",
		AppKey:  "key",
		Timeout: timeout,
	})
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client
}

func TestAnalyzeSendsRequestAndDecodes(t *testing.T) {
	var gotBody analyzeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/nutrition-details", r.URL.Path)
		assert.Equal(t, "id", r.URL.Query().Get("app_id"))
		assert.Equal(t, "key", r.URL.Query().Get("app_key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}, time.Second)

	got, err := client.Analyze(context.Background(), "Soup", []string{"1 unit salt", "2 cups water"})
	require.NoError(t, err)

	assert.Equal(t, analyzeRequest{Title: "Soup", Ingr: []string{"1 unit salt", "2 cups water"}}, gotBody)

	want := types.Nutrition{
		Calories:     245,
		TotalWeight:  512.5,
		DietLabels:   []string{"LOW_FAT"},
		HealthLabels: []string{"VEGAN", "PEANUT_FREE"},
		Nutrients: []types.Nutrient{
			{Code: "ENERC_KCAL", Label: "Energy", Quantity: 245, Unit: "kcal"},
			{Code: "FAT", Label: "Fat", Quantity: 1.25, Unit: "g"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Analyze mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeNon2xx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(555)
		_, _ = w.Write([]byte("low quality recipe"))
	}, time.Second)

	_, err := client.Analyze(context.Background(), "Soup", []string{"1 unit salt"})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 555, statusErr.StatusCode)
	assert.Equal(t, "low quality recipe", statusErr.Body)
}

func TestAnalyzeMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}, time.Second)

	_, err := client.Analyze(context.Background(), "Soup", []string{"1 unit salt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode nutrition response")
}

func TestAnalyzeTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	_, err := client.Analyze(context.Background(), "Soup", []string{"1 unit salt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nutrition request")
}

func TestAnalyzeNotConfigured(t *testing.T) {
	client := NewClient(config.NutritionConfig{BaseURL: "http://localhost"})
	defer client.Close()

	assert.False(t, client.Configured())
	_, err := client.Analyze(context.Background(), "Soup", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCacheKeyIsStable(t *testing.T) {
	a := CacheKey("Soup", []string{"1 unit salt", "2 cups water"})
	b := CacheKey("Soup", []string{"1 unit salt", "2 cups water"})
	c := CacheKey("Soup", []string{"1 unit salt2 cups water"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^nutrition:[0-9a-f]{64}$`, a)
}

func TestNewRedisCacheDisabledWithoutAddr(t *testing.T) {
	assert.Nil(t, NewRedisCache(config.RedisConfig{}, time.Hour))
}
