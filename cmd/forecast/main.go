package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/address-forecast-service/internal/adapter/census"
	httpadapter "github.com/couchcryptid/address-forecast-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/address-forecast-service/internal/adapter/kafka"
	"github.com/couchcryptid/address-forecast-service/internal/adapter/nws"
	"github.com/couchcryptid/address-forecast-service/internal/config"
	"github.com/couchcryptid/address-forecast-service/internal/observability"
	"github.com/couchcryptid/address-forecast-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	geocoder := census.NewClient(cfg.CensusBaseURL, cfg.CensusBenchmark, cfg.UpstreamTimeout, metrics, logger)
	weather := nws.NewClient(cfg.NWSBaseURL, cfg.NWSUserAgent, cfg.UpstreamTimeout, metrics, logger)

	ctrl := pipeline.New(geocoder, weather, weather, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, ctrl, ctrl, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Publish outcomes (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var publisher *kafkaadapter.Publisher
	publisherDone := make(chan struct{})
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		updates, unsubscribe := ctrl.Subscribe(cfg.SubscriberBuffer)
		defer unsubscribe()
		logger.Info("kafka outcome publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)

		go func() {
			defer close(publisherDone)
			if err := publisher.Run(ctx, updates); err != nil {
				logger.Error("publisher error", "error", err)
			}
		}()
	} else {
		close(publisherDone)
		logger.Info("kafka outcome publishing disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-publisherDone:
	case <-shutdownCtx.Done():
		logger.Warn("publisher did not stop before shutdown timeout")
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
