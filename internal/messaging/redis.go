package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Publisher sends one event on a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, event *Event) error
}

// Subscriber is a non-blocking view of the latest value on a channel.
// updated reports whether anything arrived since the previous Poll.
type Subscriber[T any] interface {
	Poll() (latest T, updated bool)
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

type RedisPublisher struct {
	client redis.UniversalClient
}

func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", channel, err)
	}
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", channel, err)
	}
	return nil
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, channel string, event *Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, channel, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RedisSubscriber keeps the latest payload picked out of events on one
// channel. go-redis delivers messages on a buffered channel from its own
// goroutine; Poll drains it without blocking.
type RedisSubscriber[T any] struct {
	channel string
	pubsub  *redis.PubSub
	msgs    <-chan *redis.Message
	pick    func(*Event) (T, bool)
	latest  T
}

// NewRedisSubscriber subscribes to channel and waits for the confirmation.
func NewRedisSubscriber[T any](ctx context.Context, client redis.UniversalClient, channel string, pick func(*Event) (T, bool)) (*RedisSubscriber[T], error) {
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	return &RedisSubscriber[T]{
		channel: channel,
		pubsub:  pubsub,
		msgs:    pubsub.Channel(),
		pick:    pick,
	}, nil
}

func (s *RedisSubscriber[T]) Poll() (T, bool) {
	updated := false
	for {
		select {
		case msg, ok := <-s.msgs:
			if !ok {
				return s.latest, updated
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Str("channel", s.channel).Msg("Dropping malformed event")
				continue
			}
			v, ok := s.pick(&event)
			if !ok {
				log.Warn().Str("channel", s.channel).Msg("Dropping event without expected payload")
				continue
			}
			s.latest = v
			updated = true
		default:
			return s.latest, updated
		}
	}
}

func (s *RedisSubscriber[T]) Close() error {
	return s.pubsub.Close()
}

// PickCarState and PickCarControl extract the payloads the body model samples.
func PickCarState(e *Event) (CarState, bool) {
	if e.CarState == nil {
		return CarState{}, false
	}
	return *e.CarState, true
}

func PickCarControl(e *Event) (CarControl, bool) {
	if e.CarControl == nil {
		return CarControl{}, false
	}
	return *e.CarControl, true
}
