package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/couchcryptid/address-forecast-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type submitRequest struct {
	Address string `json:"address"`
}

type coordinatesRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

func (s *Server) handleGetForecast(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

// handleSubmit runs the full pipeline for an address. An empty address is
// not rejected here; the controller turns it into a Failed state like any
// other input error.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := s.ctrl.Submit(context.WithoutCancel(r.Context()), req.Address)
	writeSnapshot(w, snap)
}

func (s *Server) handleSetCoordinates(w http.ResponseWriter, r *http.Request) {
	var req coordinatesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, describeValidation(err))
		return
	}

	coords := domain.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	snap := s.ctrl.SetCoordinates(context.WithoutCancel(r.Context()), coords)
	writeSnapshot(w, snap)
}

func (s *Server) handleClearCoordinates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.ClearCoordinates())
}

// writeSnapshot maps a finished run to a status code. A run superseded by a
// newer one reports whatever state the newer run is in.
func writeSnapshot(w http.ResponseWriter, snap domain.Snapshot) {
	status := http.StatusOK
	if snap.State == domain.StateFailed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, snap)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}
