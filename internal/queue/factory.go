package queue

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// NewEnqueuer builds only the publishing side, for processes that do not
// consume.
func NewEnqueuer(cfg Config, log zerolog.Logger) (Enqueuer, error) {
	enq, _, err := build(cfg, nil, log)
	return enq, err
}

// NewQueue builds both sides of the configured backend.
func NewQueue(cfg Config, handler MessageHandler, log zerolog.Logger) (Enqueuer, Dequeuer, error) {
	return build(cfg, handler, log)
}

func build(cfg Config, handler MessageHandler, log zerolog.Logger) (Enqueuer, Dequeuer, error) {
	switch cfg.Backend {
	case BackendRedis, "":
		client := newRedisClient(cfg.Redis)
		var deq Dequeuer
		if handler != nil {
			deq = NewRedisDequeuer(client, handler, cfg, log)
		}
		return NewRedisEnqueuer(client, cfg.Redis.Stream, cfg.Redis.MaxLen), deq, nil
	case BackendSQS:
		client, err := newSQSClient(context.Background(), cfg.SQS.Region)
		if err != nil {
			return nil, nil, fmt.Errorf("create sqs client: %w", err)
		}
		var deq Dequeuer
		if handler != nil {
			deq = NewSQSDequeuer(client, handler, cfg, log)
		}
		return NewSQSEnqueuer(client, cfg.SQS.QueueURL, log), deq, nil
	default:
		return nil, nil, fmt.Errorf("unknown queue backend: %s", cfg.Backend)
	}
}
