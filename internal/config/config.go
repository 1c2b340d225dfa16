package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream services.
	CensusBaseURL   string
	CensusBenchmark string
	NWSBaseURL      string
	NWSUserAgent    string
	UpstreamTimeout time.Duration

	// SubscriberBuffer is the channel capacity given to state subscribers.
	SubscriberBuffer int

	// Kafka outcome publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("UPSTREAM_TIMEOUT", "10s"))
	if err != nil || upstreamTimeout <= 0 {
		return nil, errors.New("invalid UPSTREAM_TIMEOUT")
	}

	subscriberBuffer, err := strconv.Atoi(sharedcfg.EnvOrDefault("SUBSCRIBER_BUFFER", "16"))
	if err != nil || subscriberBuffer < 1 {
		return nil, errors.New("invalid SUBSCRIBER_BUFFER")
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CensusBaseURL:   strings.TrimRight(sharedcfg.EnvOrDefault("CENSUS_BASE_URL", "https://geocoding.geo.census.gov/geocoder"), "/"),
		CensusBenchmark: sharedcfg.EnvOrDefault("CENSUS_BENCHMARK", "2020"),
		NWSBaseURL:      strings.TrimRight(sharedcfg.EnvOrDefault("NWS_BASE_URL", "https://api.weather.gov"), "/"),
		NWSUserAgent:    sharedcfg.EnvOrDefault("NWS_USER_AGENT", "address-forecast-service (ops@example.com)"),
		UpstreamTimeout: upstreamTimeout,

		SubscriberBuffer: subscriberBuffer,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "forecast-resolutions"),
	}

	if !isAbsoluteURL(cfg.CensusBaseURL) {
		return nil, errors.New("CENSUS_BASE_URL must be an absolute URL")
	}
	if !isAbsoluteURL(cfg.NWSBaseURL) {
		return nil, errors.New("NWS_BASE_URL must be an absolute URL")
	}
	if cfg.CensusBenchmark == "" {
		return nil, errors.New("CENSUS_BENCHMARK is required")
	}
	if cfg.NWSUserAgent == "" {
		return nil, errors.New("NWS_USER_AGENT is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
