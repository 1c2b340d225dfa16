package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/address-forecast-service/internal/adapter/http"
	"github.com/couchcryptid/address-forecast-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockController struct {
	result    domain.Snapshot
	submitted []string
	coords    []domain.Coordinates
	cleared   int
}

func (m *mockController) Submit(_ context.Context, address string) domain.Snapshot {
	m.submitted = append(m.submitted, address)
	return m.result
}

func (m *mockController) SetCoordinates(_ context.Context, c domain.Coordinates) domain.Snapshot {
	m.coords = append(m.coords, c)
	return m.result
}

func (m *mockController) ClearCoordinates() domain.Snapshot {
	m.cleared++
	return domain.Snapshot{State: domain.StateIdle, Generation: 9}
}

func (m *mockController) Snapshot() domain.Snapshot { return m.result }

func readySnapshot() domain.Snapshot {
	return domain.Snapshot{
		State:       domain.StateReady,
		Address:     "4600 Silver Hill Rd",
		Coordinates: &domain.Coordinates{Latitude: 38.8, Longitude: -76.9},
		Forecast:    []domain.ForecastPeriod{{Number: 1, Name: "Tonight", Temperature: 41, TemperatureUnit: "F"}},
		Generation:  1,
	}
}

func newTestServer(readyErr error, ctrl *mockController) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, ctrl, slog.Default())
}

func do(srv *httpadapter.Server, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) domain.Snapshot {
	t.Helper()
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func TestHealthzReturns200(t *testing.T) {
	rec := do(newTestServer(nil, &mockController{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(newTestServer(nil, &mockController{}), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := do(newTestServer(fmt.Errorf("not ready yet"), &mockController{}), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newTestServer(nil, &mockController{}), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSubmitForecast_Ready(t *testing.T) {
	ctrl := &mockController{result: readySnapshot()}
	rec := do(newTestServer(nil, ctrl), http.MethodPost, "/forecast", `{"address":"4600 Silver Hill Rd"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []string{"4600 Silver Hill Rd"}, ctrl.submitted)

	snap := decodeSnapshot(t, rec)
	assert.Equal(t, domain.StateReady, snap.State)
	require.Len(t, snap.Forecast, 1)
	assert.Equal(t, "Tonight", snap.Forecast[0].Name)
}

func TestSubmitForecast_FailedReturns422(t *testing.T) {
	ctrl := &mockController{result: domain.Snapshot{State: domain.StateFailed, Error: domain.MsgNoResults}}
	rec := do(newTestServer(nil, ctrl), http.MethodPost, "/forecast", `{"address":"nowhere"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{
		"state": "failed",
		"coordinates": null,
		"forecast": null,
		"error": "No results found",
		"generation": 0,
		"updated_at": "0001-01-01T00:00:00Z"
	}`, rec.Body.String())
}

func TestSubmitForecast_EmptyAddressReachesController(t *testing.T) {
	ctrl := &mockController{result: domain.Snapshot{State: domain.StateFailed, Error: domain.MsgAddressRequired}}
	rec := do(newTestServer(nil, ctrl), http.MethodPost, "/forecast", `{"address":""}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{""}, ctrl.submitted)
}

func TestSubmitForecast_BadBody(t *testing.T) {
	for name, body := range map[string]string{
		"malformed":     `{"address":`,
		"unknown field": `{"addr":"x"}`,
		"wrong type":    `{"address":42}`,
	} {
		t.Run(name, func(t *testing.T) {
			ctrl := &mockController{}
			rec := do(newTestServer(nil, ctrl), http.MethodPost, "/forecast", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, ctrl.submitted)
		})
	}
}

func TestGetForecast(t *testing.T) {
	ctrl := &mockController{result: readySnapshot()}
	rec := do(newTestServer(nil, ctrl), http.MethodGet, "/forecast", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StateReady, decodeSnapshot(t, rec).State)
	assert.Empty(t, ctrl.submitted, "GET must not start a run")
}

func TestSetCoordinates(t *testing.T) {
	ctrl := &mockController{result: readySnapshot()}
	rec := do(newTestServer(nil, ctrl), http.MethodPut, "/coordinates", `{"latitude":38.8,"longitude":-76.9}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []domain.Coordinates{{Latitude: 38.8, Longitude: -76.9}}, ctrl.coords)
}

func TestSetCoordinates_ZeroIsValid(t *testing.T) {
	ctrl := &mockController{result: readySnapshot()}
	rec := do(newTestServer(nil, ctrl), http.MethodPut, "/coordinates", `{"latitude":0,"longitude":0}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, ctrl.coords, 1)
}

func TestSetCoordinates_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing latitude", `{"longitude":-76.9}`, "latitude is required"},
		{"missing longitude", `{"latitude":38.8}`, "longitude is required"},
		{"latitude too high", `{"latitude":90.5,"longitude":0}`, "latitude must be at most 90"},
		{"longitude too low", `{"latitude":0,"longitude":-180.1}`, "longitude must be at least -180"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &mockController{}
			rec := do(newTestServer(nil, ctrl), http.MethodPut, "/coordinates", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMsg, body["error"])
			assert.Empty(t, ctrl.coords)
		})
	}
}

func TestSetCoordinates_FailedReturns422(t *testing.T) {
	ctrl := &mockController{result: domain.Snapshot{State: domain.StateFailed, Error: domain.MsgUpstreamFailure}}
	rec := do(newTestServer(nil, ctrl), http.MethodPut, "/coordinates", `{"latitude":10,"longitude":10}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, domain.MsgUpstreamFailure, decodeSnapshot(t, rec).Error)
}

func TestClearCoordinates(t *testing.T) {
	ctrl := &mockController{}
	rec := do(newTestServer(nil, ctrl), http.MethodDelete, "/coordinates", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ctrl.cleared)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, domain.StateIdle, snap.State)
	assert.Empty(t, snap.Forecast)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(newTestServer(nil, &mockController{}), http.MethodPatch, "/forecast", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
