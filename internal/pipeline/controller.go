package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/address-forecast-service/internal/domain"
	"github.com/couchcryptid/address-forecast-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Controller runs the address -> coordinates -> forecast zone -> forecast
// pipeline and owns the resulting state.
//
// Every run is tagged with a generation when it starts. A stage result is
// committed only while its generation is still current, so when runs
// overlap only the most recently started one can change state. Superseded
// runs are not cancelled; their results are discarded.
type Controller struct {
	geocoder  domain.AddressResolver
	zones     domain.ZoneResolver
	forecasts domain.ForecastFetcher
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	ready     atomic.Bool

	mu         sync.Mutex
	generation uint64
	snap       domain.Snapshot
	subs       map[uint64]chan domain.Snapshot
	nextSubID  uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the time source used for UpdatedAt and stage durations.
func WithClock(c clockwork.Clock) Option {
	return func(ctrl *Controller) {
		ctrl.clock = c
	}
}

// New creates a Controller in the Idle state.
func New(g domain.AddressResolver, z domain.ZoneResolver, f domain.ForecastFetcher, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Controller {
	c := &Controller{
		geocoder:  g,
		zones:     z,
		forecasts: f,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
		subs:      make(map[uint64]chan domain.Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.snap = domain.Snapshot{State: domain.StateIdle, UpdatedAt: c.clock.Now()}
	return c
}

// CheckReadiness returns nil once any run has produced a forecast.
func (c *Controller) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("pipeline has not resolved a forecast yet")
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.Clone()
}

// Submit starts a new run for address and blocks until that run commits a
// terminal state or is superseded. It returns the controller's state at
// that point, which belongs to a newer run if this one was superseded.
func (c *Controller) Submit(ctx context.Context, address string) domain.Snapshot {
	gen := c.begin(func(s *domain.Snapshot) {
		s.State = domain.StateResolvingAddress
		s.Address = address
	})
	c.logger.Info("address submitted", "generation", gen)

	if strings.TrimSpace(address) == "" {
		return c.fail(gen, domain.StageGeocode, &domain.InputError{Message: domain.MsgAddressRequired})
	}

	start := c.clock.Now()
	coords, err := c.geocoder.Resolve(ctx, address)
	c.observeStage(domain.StageGeocode, start)
	if err != nil {
		return c.fail(gen, domain.StageGeocode, err)
	}

	// A resolved address is a coordinate change: replace the pair wholesale
	// and continue from the zone lookup.
	if _, ok := c.commit(gen, func(s *domain.Snapshot) {
		s.State = domain.StateResolvingZone
		s.Coordinates = &coords
	}); !ok {
		return c.superseded(gen, domain.StageGeocode)
	}
	return c.resolveForecast(ctx, gen, coords)
}

// SetCoordinates replaces the current coordinates and re-runs the pipeline
// from the zone lookup.
func (c *Controller) SetCoordinates(ctx context.Context, coords domain.Coordinates) domain.Snapshot {
	gen := c.begin(func(s *domain.Snapshot) {
		s.State = domain.StateResolvingZone
		s.Coordinates = &coords
	})
	c.logger.Info("coordinates set", "generation", gen, "coordinates", coords.String())

	if err := coords.Validate(); err != nil {
		return c.fail(gen, domain.StageZone, &domain.InputError{Message: "Invalid coordinates: " + err.Error()})
	}
	return c.resolveForecast(ctx, gen, coords)
}

// ClearCoordinates drops the coordinates and forecast and returns to Idle.
// Any run still in flight is superseded.
func (c *Controller) ClearCoordinates() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.snap = domain.Snapshot{
		State:      domain.StateIdle,
		Generation: c.generation,
		UpdatedAt:  c.clock.Now(),
	}
	c.publishLocked()
	c.logger.Info("coordinates cleared", "generation", c.generation)
	return c.snap.Clone()
}

// resolveForecast runs the zone lookup and forecast fetch for gen.
func (c *Controller) resolveForecast(ctx context.Context, gen uint64, coords domain.Coordinates) domain.Snapshot {
	start := c.clock.Now()
	locator, err := c.zones.ResolveZone(ctx, coords)
	c.observeStage(domain.StageZone, start)
	if err != nil {
		return c.fail(gen, domain.StageZone, err)
	}

	if _, ok := c.commit(gen, func(s *domain.Snapshot) {
		s.State = domain.StateFetchingForecast
	}); !ok {
		return c.superseded(gen, domain.StageZone)
	}

	start = c.clock.Now()
	periods, err := c.forecasts.FetchForecast(ctx, locator)
	c.observeStage(domain.StageForecast, start)
	if err != nil {
		return c.fail(gen, domain.StageForecast, err)
	}
	if len(periods) == 0 {
		return c.fail(gen, domain.StageForecast, &domain.NoDataError{Message: domain.MsgNoForecast})
	}

	snap, ok := c.commit(gen, func(s *domain.Snapshot) {
		s.State = domain.StateReady
		s.Forecast = periods
	})
	if !ok {
		return c.superseded(gen, domain.StageForecast)
	}

	c.ready.Store(true)
	c.metrics.Runs.WithLabelValues("ready").Inc()
	c.logger.Info("forecast ready", "generation", gen, "periods", len(periods))
	return snap
}

// fail commits the Failed state for gen. Coordinates and forecast are
// cleared in the same transition that sets the message. A superseded run's
// failure is counted only as superseded.
func (c *Controller) fail(gen uint64, stage domain.Stage, err error) domain.Snapshot {
	snap, ok := c.commit(gen, func(s *domain.Snapshot) {
		s.State = domain.StateFailed
		s.Coordinates = nil
		s.Forecast = nil
		s.Error = domain.UserMessage(err)
	})
	if !ok {
		return c.superseded(gen, stage)
	}

	kind := domain.ErrorKind(err)
	c.metrics.StageErrors.WithLabelValues(string(stage), kind).Inc()
	c.metrics.Runs.WithLabelValues("failed").Inc()
	c.logger.Warn("pipeline run failed",
		"generation", gen,
		"stage", string(stage),
		"kind", kind,
		"error", err,
	)
	return snap
}

func (c *Controller) superseded(gen uint64, stage domain.Stage) domain.Snapshot {
	c.metrics.Runs.WithLabelValues("superseded").Inc()
	c.logger.Debug("discarding superseded result", "generation", gen, "stage", string(stage))
	return c.Snapshot()
}

// begin starts a new generation, resetting coordinates, forecast, and error
// before applying mutate.
func (c *Controller) begin(mutate func(*domain.Snapshot)) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.snap = domain.Snapshot{Generation: c.generation}
	mutate(&c.snap)
	c.snap.UpdatedAt = c.clock.Now()
	c.publishLocked()
	return c.generation
}

// commit applies mutate if gen is still current. It reports false, leaving
// state untouched, when a newer run has started.
func (c *Controller) commit(gen uint64, mutate func(*domain.Snapshot)) (domain.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return domain.Snapshot{}, false
	}
	mutate(&c.snap)
	c.snap.UpdatedAt = c.clock.Now()
	c.publishLocked()
	return c.snap.Clone(), true
}

// Subscribe registers an observer that receives a snapshot after every
// state change. Delivery never blocks the pipeline: when the channel's
// buffer is full the update is dropped. The returned function unsubscribes
// and closes the channel; it is safe to call more than once.
func (c *Controller) Subscribe(buffer int) (<-chan domain.Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	ch := make(chan domain.Snapshot, buffer)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
			close(ch)
		})
	}
}

// publishLocked fans the current snapshot out to subscribers. c.mu must be held.
func (c *Controller) publishLocked() {
	c.metrics.State.Set(float64(c.snap.State))
	if len(c.subs) == 0 {
		return
	}
	for id, ch := range c.subs {
		select {
		case ch <- c.snap.Clone():
		default:
			c.metrics.SubscriberDrops.Inc()
			c.logger.Warn("subscriber not keeping up, dropping update",
				"subscriber", id,
				"generation", c.snap.Generation,
				"state", c.snap.State.String(),
			)
		}
	}
}

func (c *Controller) observeStage(stage domain.Stage, start time.Time) {
	c.metrics.StageDuration.WithLabelValues(string(stage)).Observe(c.clock.Since(start).Seconds())
}
