package nws

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/address-forecast-service/internal/domain"
)

// FetchForecast retrieves the forecast behind locator. Periods are returned
// in response order.
func (c *Client) FetchForecast(ctx context.Context, locator domain.ForecastLocator) ([]domain.ForecastPeriod, error) {
	var resp forecastResponse
	if err := c.getJSON(ctx, string(locator), "forecast", &resp); err != nil {
		return nil, upstream(domain.StageForecast, err)
	}

	if resp.Properties == nil || len(resp.Properties.Periods) == 0 {
		c.logger.Info("forecast response has no periods", "locator", string(locator))
		return nil, &domain.NoDataError{Message: domain.MsgNoForecast}
	}

	periods := make([]domain.ForecastPeriod, 0, len(resp.Properties.Periods))
	for i, p := range resp.Properties.Periods {
		period, err := c.translatePeriod(p)
		if err != nil {
			return nil, upstream(domain.StageForecast, fmt.Errorf("period %d: %w", i, err))
		}
		periods = append(periods, period)
	}
	return periods, nil
}

// translatePeriod validates a wire period and converts it to the domain type.
func (c *Client) translatePeriod(p period) (domain.ForecastPeriod, error) {
	if err := c.validate.Struct(p); err != nil {
		return domain.ForecastPeriod{}, fmt.Errorf("invalid period: %w", err)
	}

	start, err := time.Parse(time.RFC3339, p.StartTime)
	if err != nil {
		return domain.ForecastPeriod{}, fmt.Errorf("parse startTime: %w", err)
	}
	end, err := time.Parse(time.RFC3339, p.EndTime)
	if err != nil {
		return domain.ForecastPeriod{}, fmt.Errorf("parse endTime: %w", err)
	}

	return domain.ForecastPeriod{
		Number:           p.Number,
		Name:             p.Name,
		Temperature:      *p.Temperature,
		TemperatureUnit:  p.TemperatureUnit,
		IsDaytime:        p.IsDaytime,
		Icon:             p.Icon,
		ShortForecast:    p.ShortForecast,
		DetailedForecast: p.DetailedForecast,
		StartTime:        start,
		EndTime:          end,
	}, nil
}
