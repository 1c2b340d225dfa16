package nws

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/couchcryptid/address-forecast-service/internal/domain"
)

// pointPrecision is the number of decimals NWS accepts before redirecting
// to a truncated URL.
const pointPrecision = 4

// ResolveZone looks up the grid point covering coords and returns its
// forecast URL.
func (c *Client) ResolveZone(ctx context.Context, coords domain.Coordinates) (domain.ForecastLocator, error) {
	fullURL := pointsURL(c.baseURL, coords)

	var resp pointResponse
	if err := c.getJSON(ctx, fullURL, "points", &resp); err != nil {
		return "", upstream(domain.StageZone, err)
	}

	if resp.Properties == nil {
		return "", upstream(domain.StageZone, errors.New("point response has no properties"))
	}
	if err := c.validate.Struct(resp.Properties); err != nil {
		return "", upstream(domain.StageZone, fmt.Errorf("invalid point properties: %w", err))
	}

	c.logger.Debug("grid point resolved",
		"coordinates", coords.String(),
		"grid_id", resp.Properties.GridID,
		"grid_x", resp.Properties.GridX,
		"grid_y", resp.Properties.GridY,
		"forecast", resp.Properties.Forecast,
	)
	return domain.ForecastLocator(resp.Properties.Forecast), nil
}

// pointsURL builds /points/{lat}%2C{lon}. The comma is escaped explicitly so
// the request path matches what NWS publishes.
func pointsURL(baseURL string, coords domain.Coordinates) string {
	lat := strconv.FormatFloat(coords.Latitude, 'f', pointPrecision, 64)
	lon := strconv.FormatFloat(coords.Longitude, 'f', pointPrecision, 64)
	return fmt.Sprintf("%s/points/%s%%2C%s", baseURL, lat, lon)
}
