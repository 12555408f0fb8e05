package provider

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultCacheTTL = 5 * time.Minute

// cachedProvider holds a provider instance and its expiration time.
type cachedProvider struct {
	provider  Provider
	expiresAt time.Time
}

// Resolver turns a provider configuration into a ready adapter. Adapters are
// cached by configuration so a settings change builds a new one while
// repeated sends reuse the existing instance. A configuration that fails its
// capability check resolves to the shared stdout provider.
type Resolver struct {
	registry *Registry
	client   HTTPClient
	log      zerolog.Logger

	mu       sync.RWMutex
	cache    map[ProviderConfig]*cachedProvider
	cacheTTL time.Duration

	stdout Provider
}

// NewResolver creates a Resolver that registers every adapter it builds.
func NewResolver(registry *Registry, client HTTPClient, log zerolog.Logger) *Resolver {
	stdout := NewStdout(ProviderConfig{Type: TypeStdout})
	registry.Register(stdout)
	return &Resolver{
		registry: registry,
		client:   client,
		log:      log,
		cache:    make(map[ProviderConfig]*cachedProvider),
		cacheTTL: defaultCacheTTL,
		stdout:   stdout,
	}
}

// Resolve returns the adapter for cfg.
func (r *Resolver) Resolve(_ context.Context, cfg ProviderConfig) Provider {
	r.mu.RLock()
	if cached, ok := r.cache[cfg]; ok && time.Now().Before(cached.expiresAt) {
		p := cached.provider
		r.mu.RUnlock()
		return p
	}
	r.mu.RUnlock()

	p, err := NewProvider(cfg, r.client)
	if err != nil {
		r.log.Warn().
			Err(err).
			Str("provider", cfg.Type).
			Msg("provider configuration incomplete, using stdout")
		p = r.stdout
	} else {
		r.registry.Register(p)
		r.log.Debug().
			Str("provider", p.GetName()).
			Msg("resolved provider from settings")
	}

	r.mu.Lock()
	r.cache[cfg] = &cachedProvider{
		provider:  p,
		expiresAt: time.Now().Add(r.cacheTTL),
	}
	r.mu.Unlock()
	return p
}
