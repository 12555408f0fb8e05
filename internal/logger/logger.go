package logger

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config selects level, encoding and destination of the process logger.
// It is filled from config.LoggingConfig by the commands.
type Config struct {
	Level      string
	Format     string // json (default) or console
	Output     string // stdout (default) or file
	FilePath   string
	MaxSizeMB  int
	MaxFiles   int
	MaxAgeDays int
	Service    string
}

type contextKey string

const (
	loggerKey        contextKey = "logger"
	correlationIDKey contextKey = "correlation_id"
)

// New returns a JSON logger on stdout at the given level. Unknown levels
// fall back to info.
func New(level string) zerolog.Logger {
	return NewFromConfig(Config{Level: level})
}

// NewFromConfig builds the process logger. File output rotates through
// lumberjack; console format is meant for local development only.
func NewFromConfig(cfg Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	c := zerolog.New(output(cfg)).Level(lvl).With().Timestamp()
	if cfg.Service != "" {
		c = c.Str("service", cfg.Service)
	}
	return c.Logger()
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithCorrelationID stores a correlation ID in the context.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// CorrelationIDFromContext returns the correlation ID, or "" when unset.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns the request-scoped logger, tagged with the correlation
// ID when one is present. Without a stored logger an info-level stdout logger
// is returned.
func FromContext(ctx context.Context) zerolog.Logger {
	log, ok := ctx.Value(loggerKey).(zerolog.Logger)
	if !ok {
		log = New("info")
	}
	if id := CorrelationIDFromContext(ctx); id != "" {
		log = log.With().Str("correlation_id", id).Logger()
	}
	return log
}

// NewCorrelationID generates a new correlation ID.
func NewCorrelationID() string {
	return uuid.New().String()
}
