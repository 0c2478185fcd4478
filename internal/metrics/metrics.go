package metrics

import (
	"time"

	"github.com/Brownie44l1/modeld/internal/config"
	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog/log"
)

const (
	ExecutionTime   = "modeld.execution_time"
	BackendTime     = "modeld.backend_time"
	FramesProcessed = "modeld.frames"
	FrameTimeouts   = "modeld.frame_timeouts"
	FrameErrors     = "modeld.frame_errors"
	PublishFailures = "modeld.publish_failures"
	StateUpdates    = "modeld.state_updates"
)

var (
	// safe for concurrent use
	statsDClient statsd.ClientInterface = &statsd.NoOpClient{}

	samplingRate = 1.0
)

// Init points the package client at telegraf. A failing client leaves the
// no-op client in place; metrics are never fatal.
func Init(cfg *config.Configs) {
	samplingRate = cfg.MetricsSamplingRate
	client, err := statsd.New(
		cfg.TelegrafAddress(),
		statsd.WithTags([]string{
			"env:" + cfg.AppEnv,
			"service:" + cfg.AppName,
		}),
	)
	if err != nil {
		log.Error().Err(err).Msg("StatsD client initialization failed, metrics will be unavailable")
		return
	}
	statsDClient = client
	log.Info().Str("address", cfg.TelegrafAddress()).Float64("sampling_rate", samplingRate).
		Msg("Metrics client initialized")
}

// SetClient replaces the package client.
func SetClient(c statsd.ClientInterface) {
	statsDClient = c
}

func Close() {
	if err := statsDClient.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing statsd client")
	}
}

func Timing(name string, value time.Duration, tags []string) {
	if err := statsDClient.Timing(name, value, tags, samplingRate); err != nil {
		log.Warn().Err(err).Msg("Error occurred while doing statsd timing")
	}
}

func Count(name string, value int64, tags []string) {
	if err := statsDClient.Count(name, value, tags, samplingRate); err != nil {
		log.Warn().Err(err).Msg("Error occurred while doing statsd count")
	}
}

func Gauge(name string, value float64, tags []string) {
	if err := statsDClient.Gauge(name, value, tags, samplingRate); err != nil {
		log.Warn().Err(err).Msg("Error occurred while doing statsd gauge")
	}
}
