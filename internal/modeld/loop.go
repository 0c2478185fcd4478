// Package modeld drives a model once per camera frame: wait for a frame,
// sample auxiliary state, run the network, publish the result.
package modeld

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Brownie44l1/modeld/internal/frames"
	"github.com/Brownie44l1/modeld/internal/messaging"
	"github.com/Brownie44l1/modeld/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Model is one network instance as seen by the loop.
type Model interface {
	Name() string
	// Sample merges any state updates that arrived since the last frame.
	// It must not block.
	Sample()
	Eval(frame *frames.Frame) (*messaging.Event, error)
}

// Loop owns the whole receive→sample→infer→publish cycle on the calling
// goroutine.
type Loop struct {
	frames     frames.Source
	model      Model
	publisher  messaging.Publisher
	channel    string
	retryDelay time.Duration

	processed uint64
}

func NewLoop(src frames.Source, m Model, pub messaging.Publisher, channel string) *Loop {
	return &Loop{
		frames:     src,
		model:      m,
		publisher:  pub,
		channel:    channel,
		retryDelay: 100 * time.Millisecond,
	}
}

// Processed is the number of frames that went through inference.
func (l *Loop) Processed() uint64 {
	return l.processed
}

// Run cycles until ctx is cancelled or the frame source is exhausted, both of
// which return nil. Cancellation is checked between cycles only; an inference
// in flight always completes. A failed inference returns its error.
func (l *Loop) Run(ctx context.Context) error {
	log.Info().Str("model", l.model.Name()).Str("channel", l.channel).Msg("Model loop started")
	for {
		if ctx.Err() != nil {
			log.Info().Uint64("frames", l.processed).Msg("Model loop stopped")
			return nil
		}
		_, err := l.Step(ctx)
		switch {
		case err == nil:
		case errors.Is(err, frames.ErrExhausted):
			log.Info().Uint64("frames", l.processed).Msg("Frame source exhausted")
			return nil
		case ctx.Err() != nil:
			log.Info().Uint64("frames", l.processed).Msg("Model loop stopped")
			return nil
		default:
			return err
		}
	}
}

// Step runs one cycle and reports whether a message was published. A receive
// timeout is a skipped cycle: no sampling, no inference, no message.
func (l *Loop) Step(ctx context.Context) (bool, error) {
	frame, err := l.frames.Receive(ctx)
	if err != nil {
		if errors.Is(err, frames.ErrExhausted) || ctx.Err() != nil {
			return false, err
		}
		log.Warn().Err(err).Msg("Frame receive failed")
		metrics.Count(metrics.FrameErrors, 1, nil)
		l.backoff(ctx)
		return false, nil
	}
	if frame == nil {
		metrics.Count(metrics.FrameTimeouts, 1, nil)
		return false, nil
	}

	l.model.Sample()

	event, err := l.model.Eval(frame)
	if err != nil {
		return false, fmt.Errorf("%s inference on frame %d: %w", l.model.Name(), frame.ID, err)
	}
	l.processed++
	metrics.Count(metrics.FramesProcessed, 1, nil)

	l.publish(ctx, frame.ID, event)
	return true, nil
}

// publish is fire-and-forget; delivery is the transport's concern.
func (l *Loop) publish(ctx context.Context, frameID uint32, event *messaging.Event) {
	if err := l.publisher.Publish(ctx, l.channel, event); err != nil {
		metrics.Count(metrics.PublishFailures, 1, nil)
		log.Warn().Err(err).Uint32("frame_id", frameID).Msg("Publish failed")
	}
}

func (l *Loop) backoff(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(l.retryDelay):
	}
}
