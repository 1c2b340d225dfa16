package census

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/address-forecast-service/internal/domain"
	"github.com/couchcryptid/address-forecast-service/internal/observability"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
)

// DefaultBaseURL is the public Census Bureau geocoder root.
const DefaultBaseURL = "https://geocoding.geo.census.gov/geocoder"

// Client implements domain.AddressResolver using the Census Bureau
// onelineaddress geocoder.
type Client struct {
	httpClient *http.Client
	baseURL    string
	benchmark  string
	validate   *validator.Validate
	metrics    *observability.Metrics
	logger     *slog.Logger
	clock      clockwork.Clock
}

// NewClient creates a Census geocoding client. benchmark selects the
// address-range vintage, e.g. "2020" or "Public_AR_Current".
func NewClient(baseURL, benchmark string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   baseURL,
		benchmark: benchmark,
		validate:  validator.New(),
		metrics:   metrics,
		logger:    logger,
		clock:     clockwork.NewRealClock(),
	}
}

// Resolve geocodes address and returns the first match's coordinates.
func (c *Client) Resolve(ctx context.Context, address string) (domain.Coordinates, error) {
	params := url.Values{
		"address":   {address},
		"benchmark": {c.benchmark},
		"format":    {"json"},
	}
	fullURL := c.baseURL + "/locations/onelineaddress?" + params.Encode()

	start := c.clock.Now()
	resp, err := c.doRequest(ctx, fullURL)
	c.metrics.UpstreamDuration.WithLabelValues("census").Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("census", "error").Inc()
		return domain.Coordinates{}, &domain.UpstreamError{Stage: domain.StageGeocode, Err: err}
	}

	if resp.Result == nil || len(resp.Result.AddressMatches) == 0 {
		c.metrics.UpstreamRequests.WithLabelValues("census", "empty").Inc()
		c.logger.Debug("geocoder returned no matches", "address", address)
		return domain.Coordinates{}, &domain.InputError{Message: domain.MsgNoResults}
	}

	match := resp.Result.AddressMatches[0]
	if err := c.validate.Struct(match); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("census", "invalid").Inc()
		return domain.Coordinates{}, &domain.UpstreamError{
			Stage: domain.StageGeocode,
			Err:   fmt.Errorf("invalid address match: %w", err),
		}
	}

	c.metrics.UpstreamRequests.WithLabelValues("census", "success").Inc()
	coords := domain.Coordinates{
		Latitude:  *match.Coordinates.Y,
		Longitude: *match.Coordinates.X,
	}
	c.logger.Debug("address geocoded",
		"matched_address", match.MatchedAddress,
		"latitude", coords.Latitude,
		"longitude", coords.Longitude,
	)
	return coords, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return response{}, fmt.Errorf("census API error: status %d: %s", resp.StatusCode, body)
	}

	var censusResp response
	if err := json.NewDecoder(resp.Body).Decode(&censusResp); err != nil {
		return response{}, fmt.Errorf("decode response: %w", err)
	}
	return censusResp, nil
}

// Census API response types. Pointer fields distinguish absent from zero.

type response struct {
	Result *result `json:"result"`
}

type result struct {
	AddressMatches []addressMatch `json:"addressMatches"`
}

type addressMatch struct {
	MatchedAddress string      `json:"matchedAddress"`
	Coordinates    coordinates `json:"coordinates"`
}

type coordinates struct {
	X *float64 `json:"x" validate:"required,min=-180,max=180"` // longitude
	Y *float64 `json:"y" validate:"required,min=-90,max=90"`   // latitude
}
