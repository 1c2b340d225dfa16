package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/address-forecast-service/internal/config"
	"github.com/couchcryptid/address-forecast-service/internal/domain"
	"github.com/couchcryptid/address-forecast-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
	maxAttempts    = 4
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes terminal pipeline snapshots (Ready and Failed) to a
// Kafka topic so other services can follow resolution outcomes.
type Publisher struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
	backoff time.Duration
}

// NewPublisher creates a Kafka producer for the configured outcome topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics, backoff: initialBackoff}
}

// Run publishes every terminal snapshot received on updates until the
// channel is closed or ctx is cancelled. Intermediate states are skipped.
func (p *Publisher) Run(ctx context.Context, updates <-chan domain.Snapshot) error {
	p.logger.Info("outcome publisher started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outcome publisher stopping", "reason", ctx.Err())
			return nil
		case snap, ok := <-updates:
			if !ok {
				p.logger.Info("outcome publisher stopping", "reason", "updates closed")
				return nil
			}
			if !snap.State.Terminal() {
				continue
			}
			if err := p.publishWithRetry(ctx, snap); err != nil && ctx.Err() == nil {
				p.metrics.PublishErrors.Inc()
				p.logger.Error("publish outcome failed",
					"error", err,
					"generation", snap.Generation,
					"state", snap.State.String(),
				)
			}
		}
	}
}

// Publish serializes and writes a single snapshot.
func (p *Publisher) Publish(ctx context.Context, snap domain.Snapshot) error {
	msg, err := serializeToMessage(snap)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}
	p.metrics.EventsPublished.Inc()
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// publishWithRetry retries transient broker failures with exponential
// backoff, giving up after maxAttempts.
func (p *Publisher) publishWithRetry(ctx context.Context, snap domain.Snapshot) error {
	backoff := p.backoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = p.Publish(ctx, snap); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		p.logger.Warn("publish outcome failed, retrying",
			"error", err,
			"attempt", attempt,
			"backoff", backoff,
		)
		if !sleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return err
}

// serializeToMessage marshals a snapshot into a Kafka message keyed by its
// generation.
func serializeToMessage(snap domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	gen := strconv.FormatUint(snap.Generation, 10)
	return kafkago.Message{
		Key:   []byte(gen),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "state", Value: []byte(snap.State.String())},
			{Key: "generation", Value: []byte(gen)},
			{Key: "updated_at", Value: []byte(snap.UpdatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
