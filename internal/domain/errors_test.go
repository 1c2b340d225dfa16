package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"input", &InputError{Message: MsgAddressRequired}, MsgAddressRequired},
		{"no results", &InputError{Message: MsgNoResults}, MsgNoResults},
		{"no data", &NoDataError{Message: MsgNoForecast}, MsgNoForecast},
		{"upstream", &UpstreamError{Stage: StageZone, Err: errors.New("status 404")}, MsgUpstreamFailure},
		{"unknown", errors.New("boom"), MsgUpstreamFailure},
		{"wrapped input", fmt.Errorf("resolve: %w", &InputError{Message: MsgNoResults}), MsgNoResults},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "input", ErrorKind(&InputError{Message: MsgNoResults}))
	assert.Equal(t, "upstream", ErrorKind(&UpstreamError{Stage: StageGeocode, Err: errors.New("x")}))
	assert.Equal(t, "no_data", ErrorKind(&NoDataError{Message: MsgNoForecast}))
	assert.Equal(t, "unknown", ErrorKind(errors.New("x")))
}

func TestUpstreamError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &UpstreamError{Stage: StageForecast, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "forecast upstream: connection refused", err.Error())
}
