package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisDataField = "data"

func newRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisEnqueuer appends messages to a Redis Stream.
type RedisEnqueuer struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisEnqueuer creates an enqueuer. A positive maxLen trims the stream
// to roughly that many entries as it grows.
func NewRedisEnqueuer(client *redis.Client, stream string, maxLen int64) *RedisEnqueuer {
	return &RedisEnqueuer{client: client, stream: stream, maxLen: maxLen}
}

func (e *RedisEnqueuer) addArgs(data []byte) *redis.XAddArgs {
	args := &redis.XAddArgs{
		Stream: e.stream,
		Values: map[string]any{redisDataField: string(data)},
	}
	if e.maxLen > 0 {
		args.MaxLen = e.maxLen
		args.Approx = true
	}
	return args
}

// Enqueue returns the stream entry ID.
func (e *RedisEnqueuer) Enqueue(ctx context.Context, msg *Message) (string, error) {
	data, err := encodeMessage(msg)
	if err != nil {
		return "", err
	}
	id, err := e.client.XAdd(ctx, e.addArgs(data)).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", e.stream, err)
	}
	publishedTotal.WithLabelValues(BackendRedis).Inc()
	return id, nil
}

// redisSource reads a stream through a consumer group, one entry per call.
type redisSource struct {
	client *redis.Client
	cfg    RedisConfig
}

// NewRedisDequeuer consumes cfg.Redis.Stream as group cfg.Redis.Group.
func NewRedisDequeuer(client *redis.Client, handler MessageHandler, cfg Config, log zerolog.Logger) Dequeuer {
	return newConsumer(&redisSource{client: client, cfg: cfg.Redis}, handler, cfg, log)
}

func (s *redisSource) backend() string { return BackendRedis }

// prepare creates the group, and the stream with it. An existing group is
// reused so restarts keep their position.
func (s *redisSource) prepare(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.cfg.Stream, s.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", s.cfg.Group, s.cfg.Stream, err)
	}
	return nil
}

func (s *redisSource) receive(ctx context.Context, worker string) ([]envelope, error) {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.cfg.Group,
		Consumer: worker,
		Streams:  []string{s.cfg.Stream, ">"},
		Count:    1,
		Block:    s.cfg.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []envelope
	for _, st := range streams {
		for _, m := range st.Messages {
			// A missing or non-string field decodes as an empty body and is
			// dropped as malformed.
			data, _ := m.Values[redisDataField].(string)
			out = append(out, envelope{ref: m.ID, id: m.ID, body: []byte(data)})
		}
	}
	return out, nil
}

func (s *redisSource) ack(ctx context.Context, env envelope) error {
	return s.client.XAck(ctx, s.cfg.Stream, s.cfg.Group, env.ref).Err()
}
