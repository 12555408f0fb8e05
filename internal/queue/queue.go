// Package queue carries delivery record IDs from the API server to the
// workers. Redis Streams and SQS are supported; both acknowledge every
// message after one handling attempt, because the outcome is persisted on the
// delivery record and stale records are swept back in by the worker.
package queue

import "context"

type Enqueuer interface {
	Enqueue(ctx context.Context, msg *Message) (string, error)
}

// Dequeuer runs a pool of consumers between Start and Stop.
type Dequeuer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// MessageHandler processes one message. Returned errors are logged and
// counted, never retried by the queue.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg *Message) error
}
