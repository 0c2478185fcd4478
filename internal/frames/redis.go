package frames

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stream entry fields written by the camera producer.
const (
	FieldFrameID = "frame_id"
	FieldData    = "data"
)

// RedisStreamSource reads frames from a redis stream with XREAD BLOCK. It
// only sees frames added after it started.
type RedisStreamSource struct {
	client  redis.UniversalClient
	stream  string
	timeout time.Duration
	lastID  string
	buf     []byte
}

func NewRedisStreamSource(client redis.UniversalClient, stream string, timeout time.Duration) *RedisStreamSource {
	return &RedisStreamSource{client: client, stream: stream, timeout: timeout, lastID: "$"}
}

func (s *RedisStreamSource) Connect(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStreamSource) Receive(ctx context.Context) (*Frame, error) {
	streams, err := s.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{s.stream, s.lastID},
		Count:   1,
		Block:   s.timeout,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.stream, err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	msg := streams[0].Messages[0]
	s.lastID = msg.ID

	id, err := parseFrameID(msg.Values[FieldFrameID])
	if err != nil {
		return nil, fmt.Errorf("stream entry %s: %w", msg.ID, err)
	}
	data, ok := msg.Values[FieldData].(string)
	if !ok {
		return nil, fmt.Errorf("stream entry %s has no %s field", msg.ID, FieldData)
	}
	s.buf = append(s.buf[:0], data...)

	return &Frame{ID: id, Data: s.buf, ReceivedAt: time.Now()}, nil
}

// BufferSize reports the payload size of the newest frame in the stream, or 0
// when the stream is empty.
func (s *RedisStreamSource) BufferSize(ctx context.Context) (int, error) {
	msgs, err := s.client.XRevRangeN(ctx, s.stream, "+", "-", 1).Result()
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}
	data, _ := msgs[0].Values[FieldData].(string)
	return len(data), nil
}

func parseFrameID(v interface{}) (uint32, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("missing %s", FieldFrameID)
	}
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q: %w", FieldFrameID, s, err)
	}
	return uint32(id), nil
}

// AddFrame appends a frame to a stream the way camera producers do.
func AddFrame(ctx context.Context, client redis.UniversalClient, stream string, id uint32, data []byte) error {
	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			FieldFrameID: strconv.FormatUint(uint64(id), 10),
			FieldData:    data,
		},
	}).Err()
}
