package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/clock"
	"github.com/mudancasja/leadqueue/internal/config"
	"github.com/mudancasja/leadqueue/internal/delivery"
	"github.com/mudancasja/leadqueue/internal/location"
	"github.com/mudancasja/leadqueue/internal/logger"
	"github.com/mudancasja/leadqueue/internal/matcher"
	"github.com/mudancasja/leadqueue/internal/provider"
	"github.com/mudancasja/leadqueue/internal/queue"
	"github.com/mudancasja/leadqueue/internal/settings"
	"github.com/mudancasja/leadqueue/internal/storage"
	"github.com/mudancasja/leadqueue/internal/testmode"
	"github.com/mudancasja/leadqueue/internal/worker"
)

// Logger builds the process logger for service from the logging section.
func Logger(cfg config.LoggingConfig, service string) zerolog.Logger {
	return logger.NewFromConfig(logger.Config{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		FilePath:   cfg.FilePath,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxFiles:   cfg.MaxFiles,
		MaxAgeDays: cfg.MaxAgeDays,
		Service:    service,
	})
}

// QueueConfig translates the queue section into the transport config,
// keeping transport defaults for unset values.
func QueueConfig(c config.QueueConfig) queue.Config {
	q := queue.DefaultConfig()
	setString(&q.Backend, c.Type)
	setPositive(&q.Workers, c.Workers)
	setPositive(&q.ProcessTimeout, c.ProcessTimeout)
	setPositive(&q.ShutdownTimeout, c.ShutdownTimeout)

	setString(&q.Redis.Addr, c.RedisAddr)
	q.Redis.Password = c.RedisPassword
	q.Redis.DB = c.RedisDB
	setString(&q.Redis.Stream, c.StreamName)
	setString(&q.Redis.Group, c.GroupName)
	setPositive(&q.Redis.Block, c.BlockTimeout)
	setPositive(&q.Redis.MaxLen, c.StreamMaxLen)

	q.SQS.QueueURL = c.SQSQueueURL
	q.SQS.Region = c.SQSRegion
	setPositive(&q.SQS.WaitSeconds, c.SQSWaitTime)
	setPositive(&q.SQS.VisibilitySeconds, c.SQSVisTimeout)
	return q
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPositive[T int | int32 | int64 | time.Duration](dst *T, v T) {
	if v > 0 {
		*dst = v
	}
}

// Core holds the components every command shares.
type Core struct {
	DB       *storage.DB
	Queries  *storage.Queries
	Clock    *clock.Regional
	Settings *settings.Service
	Registry *provider.Registry
	Sender   *testmode.Interceptor
	Handler  *worker.Handler
}

// NewCore connects to the database and builds the send path: settings,
// provider resolution, the test-mode interceptor and the delivery handler.
func NewCore(ctx context.Context, cfg *config.Config, service string, log zerolog.Logger) (*Core, error) {
	clk, err := clock.NewRegional(cfg.Scanner.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Scanner.Timezone, err)
	}

	db, err := storage.NewDB(ctx, cfg.Database.URL, storage.PoolOptions{
		MinConns:        cfg.Database.PoolMin,
		MaxConns:        cfg.Database.PoolMax,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
		ApplicationName: service,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	queries := storage.New(db.Pool)

	settingsSvc := settings.NewService(queries, cfg.Email, cfg.Settings.CacheTTL, log)
	registry := provider.NewRegistry()
	resolver := provider.NewResolver(registry, provider.NewHTTPClient(cfg.Email.Timeout), log)
	sender := testmode.NewInterceptor(queries, settingsSvc, resolver, log)

	limiter := worker.NewLimiter(cfg.Worker.RatePerSecond, cfg.Worker.Burst)
	handler := worker.NewHandler(queries, delivery.NewMachine(queries), sender, limiter, log)

	return &Core{
		DB:       db,
		Queries:  queries,
		Clock:    clk,
		Settings: settingsSvc,
		Registry: registry,
		Sender:   sender,
		Handler:  handler,
	}, nil
}

// Close releases the database pool.
func (c *Core) Close() {
	c.DB.Close()
}

// Dispatcher returns the delivery.Service selected by delivery.mode:
// "sync" sends in-process through the Core handler, anything else
// publishes record IDs to the configured queue.
func (c *Core) Dispatcher(cfg *config.Config, log zerolog.Logger) (delivery.Service, error) {
	if cfg.Delivery.Mode == "sync" {
		log.Info().Msg("deliveries are sent in-process")
		return delivery.NewSyncService(c.Handler, log), nil
	}
	enq, err := queue.NewEnqueuer(QueueConfig(cfg.Queue), log)
	if err != nil {
		return nil, fmt.Errorf("create enqueuer: %w", err)
	}
	log.Info().Str("queue", cfg.Queue.Type).Msg("deliveries are published to the queue")
	return delivery.NewAsyncService(enq, log), nil
}

// Matcher builds the campaign matcher over the Core store.
func (c *Core) Matcher(dispatch delivery.Service, log zerolog.Logger) *matcher.Matcher {
	return matcher.New(c.Queries, location.NewResolver(c.Queries), dispatch, c.Clock, log)
}
