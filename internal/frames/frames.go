// Package frames supplies camera frames to the model loops.
package frames

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrExhausted is returned by sources that have no more frames to give.
var ErrExhausted = errors.New("frame source exhausted")

// Frame is one unit of camera input. ID is assigned by the producer and
// increases monotonically.
type Frame struct {
	ID         uint32
	Data       []byte
	ReceivedAt time.Time
}

// Source blocks until the next frame. A nil frame with a nil error means the
// wait timed out and the caller should simply try again. Data is only valid
// until the next Receive.
type Source interface {
	Receive(ctx context.Context) (*Frame, error)
}

// Connector is implemented by sources that need a live transport before the
// first Receive.
type Connector interface {
	Connect(ctx context.Context) error
}

// WaitConnected retries Connect every interval until it succeeds, attempts run
// out (0 means unlimited) or ctx ends.
func WaitConnected(ctx context.Context, c Connector, interval time.Duration, attempts int) error {
	for i := 1; ; i++ {
		err := c.Connect(ctx)
		if err == nil {
			return nil
		}
		if attempts > 0 && i >= attempts {
			return err
		}
		log.Debug().Err(err).Int("attempt", i).Msg("Frame source not ready, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
