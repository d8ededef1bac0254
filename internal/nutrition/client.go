// Package nutrition looks up nutrition facts for recipes from the Edamam
// nutrition-details API.
package nutrition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/recipebox/webapp/config"
	"github.com/recipebox/webapp/types"
)

const (
	defaultTimeout   = 5 * time.Second
	detailsPath      = "/api/nutrition-details"
	maxResponseBytes = 4 << 20
)

// ErrNotConfigured is returned by Analyze when no app id or key is set.
var ErrNotConfigured = errors.New("nutrition api credentials are not configured")

// StatusError reports a non-2xx response from the nutrition API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("nutrition api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("nutrition api returned status %d: %s", e.StatusCode, e.Body)
}

// Client calls the nutrition-details endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appID      string
	appKey     string
}

// NewClient builds a client with its own transport and a bounded timeout.
func NewClient(cfg config.NutritionConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		appID:   strings.TrimSpace(cfg.AppID),
		appKey:  strings.TrimSpace(cfg.AppKey),
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.appID != "" && c.appKey != "" && c.baseURL != ""
}

type analyzeRequest struct {
	Title string   `json:"title"`
	Ingr  []string `json:"ingr"`
}

type analyzeResponse struct {
	Calories       float64                    `json:"calories"`
	TotalWeight    float64                    `json:"totalWeight"`
	DietLabels     []string                   `json:"dietLabels"`
	HealthLabels   []string                   `json:"healthLabels"`
	TotalNutrients map[string]nutrientPayload `json:"totalNutrients"`
}

type nutrientPayload struct {
	Label    string  `json:"label"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Analyze posts the recipe title and ingredient lines and decodes the
// nutrition totals. Any transport failure, non-2xx status or undecodable
// body is returned as an error.
func (c *Client) Analyze(ctx context.Context, title string, lines []string) (types.Nutrition, error) {
	if !c.Configured() {
		return types.Nutrition{}, ErrNotConfigured
	}

	body, err := json.Marshal(analyzeRequest{Title: title, Ingr: lines})
	if err != nil {
		return types.Nutrition{}, err
	}

	query := url.Values{}
	query.Set("app_id", c.appID)
	query.Set("app_key", c.appKey)
	endpoint := c.baseURL + detailsPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return types.Nutrition{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.Nutrition{}, fmt.Errorf("nutrition request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.Nutrition{}, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var payload analyzeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return types.Nutrition{}, fmt.Errorf("decode nutrition response: %w", err)
	}
	return payload.toNutrition(), nil
}

// Close releases idle connections held by the client's transport.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (p analyzeResponse) toNutrition() types.Nutrition {
	nutrients := make([]types.Nutrient, 0, len(p.TotalNutrients))
	for code, n := range p.TotalNutrients {
		nutrients = append(nutrients, types.Nutrient{
			Code:     code,
			Label:    n.Label,
			Quantity: n.Quantity,
			Unit:     n.Unit,
		})
	}
	sort.Slice(nutrients, func(i, j int) bool { return nutrients[i].Code < nutrients[j].Code })

	return types.Nutrition{
		Calories:     p.Calories,
		TotalWeight:  p.TotalWeight,
		DietLabels:   p.DietLabels,
		HealthLabels: p.HealthLabels,
		Nutrients:    nutrients,
	}
}
