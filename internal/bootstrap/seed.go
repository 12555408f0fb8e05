// Package bootstrap provides startup-time initialization routines shared
// by the commands: dependency wiring and seeding of runtime settings.
package bootstrap

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/config"
	"github.com/mudancasja/leadqueue/internal/settings"
	"github.com/mudancasja/leadqueue/internal/storage"
)

// SettingsStore is the subset of storage.Querier SeedSettings needs.
type SettingsStore interface {
	ListSettings(ctx context.Context) ([]storage.Setting, error)
	UpsertSetting(ctx context.Context, key, value string) (storage.Setting, error)
}

// SeedSettings writes the non-secret email settings from the file
// configuration into configuracoes when the table has no row for them yet.
// It is idempotent and never overwrites a value an operator has set.
// Credentials are not seeded; they stay in the environment.
func SeedSettings(ctx context.Context, store SettingsStore, email config.EmailConfig, log zerolog.Logger) (int, error) {
	existing, err := store.ListSettings(ctx)
	if err != nil {
		return 0, err
	}
	have := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		have[s.Key] = struct{}{}
	}

	defaults := []struct{ key, value string }{
		{settings.KeyTestMode, strconv.FormatBool(email.TestMode)},
		{settings.KeyProvider, email.Provider},
		{settings.KeyFromAddress, email.FromAddress},
		{settings.KeyFromName, email.FromName},
	}

	seeded := 0
	for _, d := range defaults {
		if _, ok := have[d.key]; ok || d.value == "" {
			continue
		}
		if _, err := store.UpsertSetting(ctx, d.key, d.value); err != nil {
			return seeded, err
		}
		seeded++
		log.Info().Str("key", d.key).Msg("setting seeded")
	}
	if seeded == 0 {
		log.Debug().Msg("settings already present, skipping seed")
	}
	return seeded, nil
}
