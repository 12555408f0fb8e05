package provider

import (
	"fmt"
	"sort"
	"sync"
)

type builder func(cfg ProviderConfig, client HTTPClient) Provider

var builders = map[string]builder{
	TypeSendGrid: func(cfg ProviderConfig, c HTTPClient) Provider { return NewSendGrid(cfg, c) },
	TypeMailgun:  func(cfg ProviderConfig, c HTTPClient) Provider { return NewMailgun(cfg, c) },
	TypeSMTP:     func(cfg ProviderConfig, _ HTTPClient) Provider { return NewSMTP(cfg) },
	TypeStdout:   func(cfg ProviderConfig, _ HTTPClient) Provider { return NewStdout(cfg) },
	TypeFile:     func(cfg ProviderConfig, _ HTTPClient) Provider { return NewFile(cfg) },
}

// NewProvider validates cfg and builds the matching adapter. client is only
// used by the HTTP API adapters.
func NewProvider(cfg ProviderConfig, client HTTPClient) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid provider config: %w", err)
	}
	build, ok := builders[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Type)
	}
	return build(cfg, client), nil
}

// Registry holds the adapters built during the life of the process, keyed by
// name. The health monitor probes whatever it finds here.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{entries: map[string]Provider{}}
}

// Register stores p under its name, replacing an earlier adapter of the same
// type.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	r.entries[p.GetName()] = p
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	p, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}
	return p, nil
}

// List returns the registered names sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// All returns the registered adapters sorted by name.
func (r *Registry) All() []Provider {
	names := r.List()
	out := make([]Provider, 0, len(names))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range names {
		if p, ok := r.entries[name]; ok {
			out = append(out, p)
		}
	}
	return out
}
