package metrics

import (
	"testing"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/stretchr/testify/assert"
)

type recordingClient struct {
	statsd.NoOpClient
	timings map[string]time.Duration
	counts  map[string]int64
}

func (r *recordingClient) Timing(name string, value time.Duration, _ []string, _ float64) error {
	r.timings[name] = value
	return nil
}

func (r *recordingClient) Count(name string, value int64, _ []string, _ float64) error {
	r.counts[name] += value
	return nil
}

func TestHelpersForwardToClient(t *testing.T) {
	rec := &recordingClient{timings: map[string]time.Duration{}, counts: map[string]int64{}}
	SetClient(rec)
	defer SetClient(&statsd.NoOpClient{})

	Timing(BackendTime, 12*time.Millisecond, nil)
	Count(FramesProcessed, 1, nil)
	Count(FramesProcessed, 1, nil)
	Gauge(StateUpdates, 3, nil)

	assert.Equal(t, 12*time.Millisecond, rec.timings[BackendTime])
	assert.Equal(t, int64(2), rec.counts[FramesProcessed])
}
