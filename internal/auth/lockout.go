package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockedOut is returned by Lockout.Check once a client has exceeded its
// failed attempt budget.
var ErrLockedOut = errors.New("too many failed authentication attempts")

// LockoutConfig holds failed-authentication throttling configuration.
type LockoutConfig struct {
	// MaxAttempts is the number of failures tolerated within Window.
	MaxAttempts int
	// Window is how long failures are remembered, and so how long a
	// locked-out client waits.
	Window time.Duration
}

// Lockout counts failed admin token attempts per client in Redis. A nil
// client disables it.
type Lockout struct {
	client *redis.Client
	config LockoutConfig
}

// NewLockout creates a Lockout over client.
func NewLockout(client *redis.Client, config LockoutConfig) *Lockout {
	return &Lockout{client: client, config: config}
}

// Check returns ErrLockedOut if the client has used up its attempts.
func (l *Lockout) Check(ctx context.Context, clientKey string) error {
	if l == nil || l.client == nil || l.config.MaxAttempts <= 0 {
		return nil
	}

	count, err := l.client.Get(ctx, lockoutKey(clientKey)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("check auth lockout: %w", err)
	}
	if int(count) >= l.config.MaxAttempts {
		return ErrLockedOut
	}
	return nil
}

// RecordFailure increments the client's failure counter and refreshes its
// expiry.
func (l *Lockout) RecordFailure(ctx context.Context, clientKey string) error {
	if l == nil || l.client == nil || l.config.MaxAttempts <= 0 {
		return nil
	}

	key := lockoutKey(clientKey)
	pipe := l.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record auth failure: %w", err)
	}
	return nil
}

// Clear resets the client's failure counter.
func (l *Lockout) Clear(ctx context.Context, clientKey string) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Del(ctx, lockoutKey(clientKey)).Err()
}

func lockoutKey(clientKey string) string {
	return "leadqueue:auth:fail:" + clientKey
}
