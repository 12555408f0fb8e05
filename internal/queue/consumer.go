package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// envelope is one raw message as read from a backend.
type envelope struct {
	ref  string // entry ID or receipt handle, passed back to ack
	id   string // for logs
	body []byte
}

// source is the backend-specific half of a consumer.
type source interface {
	backend() string
	// prepare runs once before the workers start.
	prepare(ctx context.Context) error
	// receive blocks for at most one poll interval. It may return nothing.
	receive(ctx context.Context, worker string) ([]envelope, error)
	ack(ctx context.Context, env envelope) error
}

// consumer runs Workers goroutines pulling from a source. Every envelope is
// acknowledged after a single attempt, whatever the handler returns.
type consumer struct {
	src     source
	handler MessageHandler
	cfg     Config
	log     zerolog.Logger

	// pause after a receive error, so a broken backend does not spin.
	backoff time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func newConsumer(src source, handler MessageHandler, cfg Config, log zerolog.Logger) *consumer {
	return &consumer{
		src:     src,
		handler: handler,
		cfg:     cfg,
		log:     log.With().Str("queue", src.backend()).Logger(),
		backoff: time.Second,
	}
}

func (c *consumer) Start(ctx context.Context) error {
	if err := c.src.prepare(ctx); err != nil {
		return err
	}

	ctx, c.cancel = context.WithCancel(ctx)
	workers := max(c.cfg.Workers, 1)
	for i := range workers {
		c.wg.Add(1)
		go c.loop(ctx, fmt.Sprintf("%s-worker-%d", c.src.backend(), i))
	}
	c.log.Info().Int("workers", workers).Msg("consumers started")
	return nil
}

// Stop cancels the workers and waits for in-flight messages, bounded by ctx
// and the configured shutdown timeout.
func (c *consumer) Stop(ctx context.Context) error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	timeout := c.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	select {
	case <-done:
		c.log.Info().Msg("consumers stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return fmt.Errorf("%s consumers: shutdown timed out after %s", c.src.backend(), timeout)
	}
}

func (c *consumer) loop(ctx context.Context, worker string) {
	defer c.wg.Done()

	for ctx.Err() == nil {
		batch, err := c.src.receive(ctx, worker)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error().Err(err).Str("worker", worker).Msg("receive failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
			continue
		}
		for _, env := range batch {
			c.process(ctx, env)
		}
	}
}

func (c *consumer) process(ctx context.Context, env envelope) {
	backend := c.src.backend()
	defer func() {
		// Ack with a fresh context so shutdown does not leave the entry pending.
		ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := c.src.ack(ackCtx, env); err != nil {
			c.log.Error().Err(err).Str("message_id", env.id).Msg("ack failed")
		}
	}()

	msg, err := decodeMessage(env.body)
	if err != nil {
		c.log.Error().Err(err).Str("message_id", env.id).Msg("dropping malformed message")
		consumedTotal.WithLabelValues(backend, "malformed").Inc()
		return
	}

	timeout := c.cfg.ProcessTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err = c.handler.HandleMessage(hctx, msg)
	handleSeconds.WithLabelValues(backend).Observe(time.Since(start).Seconds())

	if err != nil {
		c.log.Error().Err(err).Stringer("delivery_id", msg.DeliveryID).Msg("message handling failed")
		consumedTotal.WithLabelValues(backend, "error").Inc()
		return
	}
	consumedTotal.WithLabelValues(backend, "ok").Inc()
}
