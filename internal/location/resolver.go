// Package location resolves free-text city/state pairs against the canonical
// cidades table.
package location

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/storage"
)

// Store is the lookup the resolver needs.
type Store interface {
	ResolveCity(ctx context.Context, name, state string) (storage.City, error)
}

// Resolver maps a city name and state code to a canonical City.
type Resolver struct {
	store Store
}

// NewResolver creates a Resolver over store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve looks up name/state case-insensitively. Blank input and unknown
// cities both yield an apperr.ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, name, state string) (storage.City, error) {
	name = strings.TrimSpace(name)
	state = strings.ToUpper(strings.TrimSpace(state))
	query := name + "/" + state

	if name == "" || len(state) != 2 {
		return storage.City{}, &apperr.ResolutionError{Query: query}
	}

	city, err := r.store.ResolveCity(ctx, name, state)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.City{}, &apperr.ResolutionError{Query: query}
	}
	if err != nil {
		return storage.City{}, apperr.Storage("resolve city", err)
	}
	return city, nil
}
