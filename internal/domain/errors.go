package domain

import (
	"errors"
	"fmt"
)

// Messages surfaced to callers.
const (
	MsgAddressRequired = "Address is required"
	MsgNoResults       = "No results found"
	MsgNoForecast      = "No forecast available"
	MsgUpstreamFailure = "Unable to retrieve forecast"
)

// Stage names a step of the resolution pipeline.
type Stage string

const (
	StageGeocode  Stage = "geocode"
	StageZone     Stage = "zone"
	StageForecast Stage = "forecast"
)

// InputError means the caller's input cannot be resolved: an empty address
// or an address the geocoder found no match for.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// UpstreamError wraps a transport failure, unexpected status, malformed body,
// or schema violation from one of the upstream services.
type UpstreamError struct {
	Stage Stage
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NoDataError means a well-formed response lacked the data it should carry.
type NoDataError struct {
	Message string
}

func (e *NoDataError) Error() string { return e.Message }

// UserMessage collapses any pipeline error into the single string shown to
// users. Upstream and unrecognised errors share one generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return inputErr.Message
	}
	var noData *NoDataError
	if errors.As(err, &noData) {
		return noData.Message
	}
	return MsgUpstreamFailure
}

// ErrorKind returns a low-cardinality label for err, used by metrics.
func ErrorKind(err error) string {
	var (
		inputErr    *InputError
		upstreamErr *UpstreamError
		noData      *NoDataError
	)
	switch {
	case errors.As(err, &inputErr):
		return "input"
	case errors.As(err, &upstreamErr):
		return "upstream"
	case errors.As(err, &noData):
		return "no_data"
	default:
		return "unknown"
	}
}
