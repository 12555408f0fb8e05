// Package settings serves runtime-overridable configuration. Values stored
// in the configuracoes table win over the file/environment configuration,
// and the merged view is cached for a short TTL.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/config"
	"github.com/mudancasja/leadqueue/internal/provider"
	"github.com/mudancasja/leadqueue/internal/storage"
)

// Keys recognized in the configuracoes table.
const (
	KeyTestMode     = "test_mode"
	KeyProvider     = "email_provider"
	KeyFromAddress  = "email_from_address"
	KeyFromName     = "email_from_name"
	KeyAPIKey       = "email_api_key"
	KeyDomain       = "email_domain"
	KeyEndpoint     = "email_endpoint"
	KeySMTPHost     = "smtp_host"
	KeySMTPPort     = "smtp_port"
	KeySMTPUsername = "smtp_username"
	KeySMTPPassword = "smtp_password"
	KeySMTPStartTLS = "smtp_starttls"
)

// Store is the subset of storage.Querier the service runs.
type Store interface {
	ListSettings(ctx context.Context) ([]storage.Setting, error)
	UpsertSetting(ctx context.Context, key, value string) (storage.Setting, error)
}

// Snapshot is an immutable view of the effective settings.
type Snapshot struct {
	TestMode    bool
	Provider    provider.ProviderConfig
	FromAddress string
	FromName    string
	LoadedAt    time.Time
}

// Service loads and caches Snapshots.
type Service struct {
	store    Store
	fallback config.EmailConfig
	ttl      time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu     sync.RWMutex
	cached *Snapshot
}

// NewService creates a Service. fallback supplies every value the table
// does not override.
func NewService(store Store, fallback config.EmailConfig, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		fallback: fallback,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
}

// Load returns the cached snapshot, refreshing it when older than the TTL.
// If the table cannot be read, a stale snapshot is served when one exists,
// otherwise the fallback configuration alone.
func (s *Service) Load(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil && s.now().Sub(cached.LoadedAt) < s.ttl {
		return *cached, nil
	}

	rows, err := s.store.ListSettings(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read settings table, using fallback")
		if cached != nil {
			return *cached, nil
		}
		return s.build(nil), nil
	}

	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Key] = r.Value
	}
	snap := s.build(values)

	s.mu.Lock()
	s.cached = &snap
	s.mu.Unlock()
	return snap, nil
}

// Invalidate drops the cached snapshot.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// SetTestMode persists the test-mode flag and invalidates the cache.
func (s *Service) SetTestMode(ctx context.Context, enabled bool) error {
	if _, err := s.store.UpsertSetting(ctx, KeyTestMode, strconv.FormatBool(enabled)); err != nil {
		return apperr.Storage("upsert setting", err)
	}
	s.Invalidate()
	s.log.Info().Bool("enabled", enabled).Msg("test mode updated")
	return nil
}

func (s *Service) build(values map[string]string) Snapshot {
	fb := s.fallback
	str := func(key, def string) string {
		if v, ok := values[key]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}
	boolean := func(key string, def bool) bool {
		v, ok := values[key]
		if !ok {
			return def
		}
		b, err := parseBool(v)
		if err != nil {
			s.log.Warn().Str("key", key).Str("value", v).Msg("ignoring malformed boolean setting")
			return def
		}
		return b
	}
	port := fb.SMTPPort
	if v, ok := values[KeySMTPPort]; ok {
		if p, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			port = p
		} else {
			s.log.Warn().Str("key", KeySMTPPort).Str("value", v).Msg("ignoring malformed port setting")
		}
	}

	return Snapshot{
		TestMode: boolean(KeyTestMode, fb.TestMode),
		Provider: provider.ProviderConfig{
			Type:     strings.ToLower(str(KeyProvider, fb.Provider)),
			APIKey:   str(KeyAPIKey, fb.APIKey),
			Endpoint: str(KeyEndpoint, fb.Endpoint),
			Timeout:  fb.Timeout,
			Domain:   str(KeyDomain, fb.Domain),
			SMTPHost: str(KeySMTPHost, fb.SMTPHost),
			SMTPPort: port,
			Username: str(KeySMTPUsername, fb.SMTPUsername),
			Password: str(KeySMTPPassword, fb.SMTPPassword),
			StartTLS: boolean(KeySMTPStartTLS, fb.SMTPStartTLS),
		},
		FromAddress: str(KeyFromAddress, fb.FromAddress),
		FromName:    str(KeyFromName, fb.FromName),
		LoadedAt:    s.now(),
	}
}

// parseBool accepts the spellings operators tend to type into the table.
func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "yes", "sim", "on":
		return true, nil
	case "0", "f", "false", "no", "nao", "não", "off", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", v)
}
