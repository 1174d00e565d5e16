// Package apicheck probes a deployed readings API after a release: the
// health endpoint must answer and the latest readings it serves must carry
// AQI values consistent with the calculator.
package apicheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkarls/aqi-ops/internal/domain"
)

// Client runs smoke checks against a deployed readings API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a smoke-check client for the API at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// CheckResult is one probe outcome.
type CheckResult struct {
	Name string
	Err  error
}

// Passed reports whether the check succeeded.
func (r CheckResult) Passed() bool { return r.Err == nil }

// Run executes all smoke checks and returns their results in order.
func (c *Client) Run(ctx context.Context) []CheckResult {
	return []CheckResult{
		{Name: "health endpoint", Err: c.CheckHealth(ctx)},
		{Name: "latest readings", Err: c.CheckLatestReadings(ctx)},
	}
}

// CheckHealth verifies the API's health endpoint answers 200.
func (c *Client) CheckHealth(ctx context.Context) error {
	resp, err := c.get(ctx, "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("health endpoint: status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// apiReading mirrors the readings API's JSON representation.
type apiReading struct {
	StationID string   `json:"station_id"`
	PM25      *float64 `json:"pm25"`
	PM10      *float64 `json:"pm10"`
	AQI       int      `json:"aqi"`
}

// CheckLatestReadings verifies the latest-readings endpoint answers 200 with
// a decodable body whose AQI values match the calculator. A tolerance of ±1
// absorbs rounding differences between the API's runtime and ours.
func (c *Client) CheckLatestReadings(ctx context.Context) error {
	resp, err := c.get(ctx, "/api/readings/latest")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("latest readings: status %d: %s", resp.StatusCode, body)
	}

	var readings []apiReading
	if err := json.NewDecoder(resp.Body).Decode(&readings); err != nil {
		return fmt.Errorf("decode latest readings: %w", err)
	}

	for _, r := range readings {
		expected := domain.CombinedIndex(r.PM25, r.PM10)
		if diff := expected - r.AQI; diff > 1 || diff < -1 {
			return fmt.Errorf("station %s reports AQI %d, calculator says %d", r.StationID, r.AQI, expected)
		}
	}

	c.logger.Debug("latest readings consistent", "count", len(readings))
	return nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return resp, nil
}
