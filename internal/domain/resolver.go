package domain

import "context"

// AddressResolver geocodes a free-text US postal address.
type AddressResolver interface {
	// Resolve returns the coordinates of the first match for address.
	Resolve(ctx context.Context, address string) (Coordinates, error)
}

// ZoneResolver maps coordinates to the forecast resource that covers them.
type ZoneResolver interface {
	ResolveZone(ctx context.Context, coords Coordinates) (ForecastLocator, error)
}

// ForecastFetcher retrieves the ordered forecast periods behind a locator.
type ForecastFetcher interface {
	FetchForecast(ctx context.Context, locator ForecastLocator) ([]ForecastPeriod, error)
}
