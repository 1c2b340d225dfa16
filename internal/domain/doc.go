// Package domain models the address-to-forecast resolution pipeline.
//
// # Data Sources
//
// Addresses are geocoded by the US Census Bureau geocoder
// (https://geocoding.geo.census.gov/geocoder/). The "onelineaddress" endpoint
// returns a list of address matches; only the first is used. Census reports
// coordinates as x (longitude) and y (latitude).
//
// Forecasts come from the National Weather Service API
// (https://www.weather.gov/documentation/services-web-api) in two hops:
//
//	GET /points/{lat},{lon}     ->  properties.forecast (absolute URL)
//	GET {properties.forecast}   ->  properties.periods[]
//
// Points outside NWS coverage (oceans, non-US territory) answer 404, which
// the pipeline reports as an upstream failure.
//
// # Error Taxonomy
//
// Every failure is one of three kinds:
//
//	InputError     empty address, zero geocode matches
//	UpstreamError  transport failure, non-200, malformed or invalid JSON
//	NoDataError    valid forecast response without periods
//
// [UserMessage] collapses them into the single string shown to users. Only
// "No results found" and "No forecast available" are specific; everything
// upstream shares a generic message.
//
// # Period Ordering
//
// Forecast periods are kept in the order NWS returns them (chronological).
// Nothing in the pipeline sorts or filters them.
package domain
