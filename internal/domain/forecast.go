package domain

import (
	"fmt"
	"math"
	"time"
)

// Coordinates is a WGS-84 latitude/longitude pair. Optional coordinates are
// carried as *Coordinates so a half-populated pair cannot exist.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports whether both values are finite and inside WGS-84 bounds.
func (c Coordinates) Validate() error {
	if !isFinite(c.Latitude) || !isFinite(c.Longitude) {
		return fmt.Errorf("coordinates %v,%v are not finite", c.Latitude, c.Longitude)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Longitude)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// ForecastLocator is the absolute URL of a forecast resource, as returned by
// the grid-point lookup. It is handed to the fetcher untouched.
type ForecastLocator string

// ForecastPeriod is one time-bounded forecast segment, e.g. "Tonight".
type ForecastPeriod struct {
	Number           int       `json:"number,omitempty"`
	Name             string    `json:"name"`
	Temperature      float64   `json:"temperature"`
	TemperatureUnit  string    `json:"temperature_unit,omitempty"`
	IsDaytime        bool      `json:"is_daytime"`
	Icon             string    `json:"icon,omitempty"`
	ShortForecast    string    `json:"short_forecast,omitempty"`
	DetailedForecast string    `json:"detailed_forecast,omitempty"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
}
