package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is the pipeline's position in the resolution state machine.
type State int

const (
	StateIdle State = iota
	StateResolvingAddress
	StateResolvingZone
	StateFetchingForecast
	StateReady
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:             "idle",
	StateResolvingAddress: "resolving_address",
	StateResolvingZone:    "resolving_zone",
	StateFetchingForecast: "fetching_forecast",
	StateReady:            "ready",
	StateFailed:           "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether the state ends a run. Ready and Failed are only
// terminal for the run that produced them; a new submission or coordinate
// change starts another.
func (s State) Terminal() bool {
	return s == StateReady || s == StateFailed
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	for k, v := range stateNames {
		if v == name {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", name)
}

// Snapshot is the observable pipeline state handed to observers.
// Coordinates is nil whenever no resolved pair is held; Forecast is
// non-empty only in StateReady.
type Snapshot struct {
	State       State            `json:"state"`
	Address     string           `json:"address,omitempty"`
	Coordinates *Coordinates     `json:"coordinates"`
	Forecast    []ForecastPeriod `json:"forecast"`
	Error       string           `json:"error"`
	Generation  uint64           `json:"generation"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Clone returns a copy that shares no mutable memory with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Coordinates != nil {
		c := *s.Coordinates
		out.Coordinates = &c
	}
	out.Forecast = make([]ForecastPeriod, len(s.Forecast))
	copy(out.Forecast, s.Forecast)
	return out
}
