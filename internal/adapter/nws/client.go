package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/address-forecast-service/internal/domain"
	"github.com/couchcryptid/address-forecast-service/internal/observability"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
)

// API Docs: https://www.weather.gov/documentation/services-web-api
// Sample requests:
// - https://api.weather.gov/points/38.8459%2C-76.9275
// - https://api.weather.gov/gridpoints/LWX/101,67/forecast
const DefaultBaseURL = "https://api.weather.gov"

// Client implements domain.ZoneResolver and domain.ForecastFetcher against
// the National Weather Service API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	validate   *validator.Validate
	metrics    *observability.Metrics
	logger     *slog.Logger
	clock      clockwork.Clock
}

// NewClient creates an NWS client. NWS rejects requests without a
// User-Agent identifying the caller.
func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   baseURL,
		userAgent: userAgent,
		validate:  validator.New(),
		metrics:   metrics,
		logger:    logger,
		clock:     clockwork.NewRealClock(),
	}
}

// getJSON performs a GET and decodes a 200 response into out. service labels
// the request in metrics ("points" or "forecast").
func (c *Client) getJSON(ctx context.Context, fullURL, service string, out any) error {
	start := c.clock.Now()
	err := c.doRequest(ctx, fullURL, out)
	c.metrics.UpstreamDuration.WithLabelValues(service).Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(service, "error").Inc()
		c.logger.Warn("nws request failed", "service", service, "url", fullURL, "error", err)
		return err
	}
	c.metrics.UpstreamRequests.WithLabelValues(service, "success").Inc()
	return nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("nws request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("nws API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func upstream(stage domain.Stage, err error) error {
	return &domain.UpstreamError{Stage: stage, Err: err}
}
