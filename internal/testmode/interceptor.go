// Package testmode is the single dispatch point for outgoing notification
// emails. When the persisted test-mode flag is on, sends are captured into
// email_tracking instead of reaching a provider.
package testmode

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/metrics"
	"github.com/mudancasja/leadqueue/internal/provider"
	"github.com/mudancasja/leadqueue/internal/settings"
	"github.com/mudancasja/leadqueue/internal/storage"
)

const (
	// ProviderName tags tracking rows written for captured sends.
	ProviderName = "test-mode"
	// MetadataFlag is the metadata key marking a tracking row as a test send.
	MetadataFlag = "test_mode"

	StatusCaptured = "capturado"
	StatusSent     = "enviado"
	StatusFailed   = "erro"

	logQueryLimit = 500
)

// Store is the subset of storage.Querier the interceptor runs.
type Store interface {
	CreateEmailTracking(ctx context.Context, arg storage.CreateEmailTrackingParams) (storage.EmailTrackingEntry, error)
	ListEmailTrackingByProvider(ctx context.Context, provider string, limit int32) ([]storage.EmailTrackingEntry, error)
	ListEmailTrackingByMetadataFlag(ctx context.Context, key string, limit int32) ([]storage.EmailTrackingEntry, error)
}

// SettingsSource yields the effective runtime settings.
type SettingsSource interface {
	Load(ctx context.Context) (settings.Snapshot, error)
}

// ProviderResolver turns a provider configuration into an adapter.
type ProviderResolver interface {
	Resolve(ctx context.Context, cfg provider.ProviderConfig) provider.Provider
}

// Email is a rendered notification addressed to a single recipient.
type Email struct {
	DeliveryID *uuid.UUID
	Kind       storage.EmailKind
	To         string
	ReplyTo    string
	Subject    string
	HTML       string
	Text       string
}

// metadata is what a tracking row carries in its jsonb column.
type metadata struct {
	TestMode           bool   `json:"test_mode"`
	OriginalRecipient  string `json:"destinatario_original,omitempty"`
	Subject            string `json:"assunto,omitempty"`
	HTML               string `json:"html,omitempty"`
	ConfiguredProvider string `json:"provedor_configurado,omitempty"`
	ProviderMessageID  string `json:"provider_message_id,omitempty"`
	Error              string `json:"erro,omitempty"`
}

// Interceptor sends email through the configured provider, or captures it
// when test mode is on.
type Interceptor struct {
	store    Store
	settings SettingsSource
	resolver ProviderResolver
	log      zerolog.Logger

	mu        sync.RWMutex
	captures  []storage.EmailTrackingEntry
	cleared   map[uuid.UUID]struct{}
	watermark time.Time
}

// NewInterceptor creates an Interceptor.
func NewInterceptor(store Store, src SettingsSource, resolver ProviderResolver, log zerolog.Logger) *Interceptor {
	return &Interceptor{
		store:    store,
		settings: src,
		resolver: resolver,
		log:      log,
	}
}

// Send dispatches e and writes exactly one tracking row for the attempt.
// Provider failures are returned as *apperr.UpstreamDeliveryError.
func (i *Interceptor) Send(ctx context.Context, e Email) (*provider.DeliveryResult, error) {
	snap, err := i.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	code := uuid.NewString()

	if snap.TestMode {
		return i.capture(ctx, code, e, snap)
	}

	p := i.resolver.Resolve(ctx, snap.Provider)
	msg := &provider.Message{
		ID:       code,
		From:     snap.FromAddress,
		FromName: snap.FromName,
		To:       []string{e.To},
		ReplyTo:  e.ReplyTo,
		Subject:  e.Subject,
		Category: string(e.Kind),
		TextBody: e.Text,
		HTMLBody: e.HTML,
	}

	start := time.Now()
	res, sendErr := p.Send(ctx, msg)
	metrics.DeliveryAttemptDuration.WithLabelValues(p.GetName()).Observe(time.Since(start).Seconds())

	meta := metadata{ConfiguredProvider: snap.Provider.Type}
	status := StatusSent
	if sendErr != nil {
		status = StatusFailed
		meta.Error = sendErr.Error()
	} else if res != nil {
		meta.ProviderMessageID = res.ProviderMessageID
	}

	if _, err := i.track(ctx, code, e, p.GetName(), status, meta); err != nil {
		i.log.Error().Err(err).
			Str("tracking_code", code).
			Str("provider", p.GetName()).
			Msg("failed to write email tracking")
	}

	if sendErr != nil {
		return nil, &apperr.UpstreamDeliveryError{
			Provider:  p.GetName(),
			Permanent: provider.IsPermanent(sendErr),
			Err:       sendErr,
		}
	}
	return res, nil
}

func (i *Interceptor) capture(ctx context.Context, code string, e Email, snap settings.Snapshot) (*provider.DeliveryResult, error) {
	entry, err := i.track(ctx, code, e, ProviderName, StatusCaptured, metadata{
		TestMode:           true,
		OriginalRecipient:  e.To,
		Subject:            e.Subject,
		HTML:               e.HTML,
		ConfiguredProvider: snap.Provider.Type,
	})
	if err != nil {
		return nil, err
	}

	i.mu.Lock()
	i.captures = append(i.captures, entry)
	i.mu.Unlock()

	metrics.TestModeCapturedTotal.Inc()
	i.log.Info().
		Str("tracking_code", code).
		Str("recipient", e.To).
		Str("kind", string(e.Kind)).
		Msg("email captured by test mode")

	return &provider.DeliveryResult{
		ProviderMessageID: "test-" + code,
		Status:            provider.StatusSent,
		Timestamp:         entry.SentAt,
	}, nil
}

func (i *Interceptor) track(ctx context.Context, code string, e Email, providerName, status string, meta metadata) (storage.EmailTrackingEntry, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return storage.EmailTrackingEntry{}, err
	}
	entry, err := i.store.CreateEmailTracking(ctx, storage.CreateEmailTrackingParams{
		TrackingCode:     code,
		Recipient:        e.To,
		Subject:          e.Subject,
		Provider:         providerName,
		Status:           status,
		EmailKind:        string(e.Kind),
		DeliveryRecordID: e.DeliveryID,
		Metadata:         raw,
	})
	if err != nil {
		return storage.EmailTrackingEntry{}, apperr.Storage("create email tracking", err)
	}
	return entry, nil
}

// Capture is one captured send as shown in the log.
type Capture struct {
	ID                 uuid.UUID  `json:"id"`
	TrackingCode       string     `json:"codigo_rastreamento"`
	Recipient          string     `json:"destinatario"`
	Subject            string     `json:"assunto"`
	EmailKind          string     `json:"tipo_email"`
	ConfiguredProvider string     `json:"provedor_configurado"`
	DeliveryRecordID   *uuid.UUID `json:"orcamento_campanha_id,omitempty"`
	HTML               string     `json:"html"`
	CapturedAt         time.Time  `json:"enviado_em"`
}

// Stats aggregates the captures in a Report.
type Stats struct {
	Total               int        `json:"total"`
	DistinctRecipients  int        `json:"destinatarios_distintos"`
	ProvidersConfigured int        `json:"provedores_configurados"`
	LastCapture         *time.Time `json:"ultima_captura"`
}

// Report is the reconstructed test-mode log, newest first.
type Report struct {
	Captures []Capture `json:"emails"`
	Stats    Stats     `json:"stats"`
}

// Log merges captures tagged by provider, captures flagged in metadata and
// the in-memory captures of this process, deduplicated by row ID. Entries
// hidden by the last Clear are left out.
func (i *Interceptor) Log(ctx context.Context) (Report, error) {
	entries, err := i.collect(ctx)
	if err != nil {
		return Report{}, err
	}

	i.mu.RLock()
	cleared, watermark := i.cleared, i.watermark
	i.mu.RUnlock()

	captures := []Capture{}
	for _, entry := range entries {
		if _, hidden := cleared[entry.ID]; hidden {
			continue
		}
		if entry.SentAt.Before(watermark) {
			continue
		}
		captures = append(captures, toCapture(entry))
	}
	sort.SliceStable(captures, func(a, b int) bool {
		return captures[a].CapturedAt.After(captures[b].CapturedAt)
	})

	return Report{Captures: captures, Stats: summarize(captures)}, nil
}

// Clear empties the in-memory view and hides every capture visible now from
// Log. The cutoff is the newest capture's database timestamp, so the app
// host's clock never decides what is hidden. Tracking rows are kept.
func (i *Interceptor) Clear(ctx context.Context) error {
	entries, err := i.collect(ctx)
	if err != nil {
		return err
	}

	hidden := make(map[uuid.UUID]struct{}, len(entries))
	var newest time.Time
	for _, entry := range entries {
		hidden[entry.ID] = struct{}{}
		if entry.SentAt.After(newest) {
			newest = entry.SentAt
		}
	}

	i.mu.Lock()
	i.captures = nil
	i.cleared = hidden
	if newest.After(i.watermark) {
		i.watermark = newest
	}
	i.mu.Unlock()
	i.log.Info().Int("hidden", len(hidden)).Msg("test-mode log cleared")
	return nil
}

// collect returns every capture this process can see, deduplicated by ID.
func (i *Interceptor) collect(ctx context.Context) ([]storage.EmailTrackingEntry, error) {
	byProvider, err := i.store.ListEmailTrackingByProvider(ctx, ProviderName, logQueryLimit)
	if err != nil {
		return nil, apperr.Storage("list test captures", err)
	}
	byFlag, err := i.store.ListEmailTrackingByMetadataFlag(ctx, MetadataFlag, logQueryLimit)
	if err != nil {
		return nil, apperr.Storage("list flagged tracking", err)
	}

	i.mu.RLock()
	local := append([]storage.EmailTrackingEntry(nil), i.captures...)
	i.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	var out []storage.EmailTrackingEntry
	for _, batch := range [][]storage.EmailTrackingEntry{byProvider, byFlag, local} {
		for _, entry := range batch {
			if _, dup := seen[entry.ID]; dup {
				continue
			}
			seen[entry.ID] = struct{}{}
			out = append(out, entry)
		}
	}
	return out, nil
}

func toCapture(e storage.EmailTrackingEntry) Capture {
	var meta metadata
	if len(e.Metadata) > 0 {
		_ = json.Unmarshal(e.Metadata, &meta)
	}
	c := Capture{
		ID:                 e.ID,
		TrackingCode:       e.TrackingCode,
		Recipient:          e.Recipient,
		Subject:            e.Subject,
		EmailKind:          e.EmailKind,
		ConfiguredProvider: meta.ConfiguredProvider,
		DeliveryRecordID:   e.DeliveryRecordID,
		HTML:               meta.HTML,
		CapturedAt:         e.SentAt,
	}
	if meta.OriginalRecipient != "" {
		c.Recipient = meta.OriginalRecipient
	}
	if c.Subject == "" {
		c.Subject = meta.Subject
	}
	return c
}

func summarize(captures []Capture) Stats {
	recipients := make(map[string]struct{})
	providers := make(map[string]struct{})
	var last *time.Time
	for idx := range captures {
		c := &captures[idx]
		recipients[strings.ToLower(c.Recipient)] = struct{}{}
		if c.ConfiguredProvider != "" {
			providers[c.ConfiguredProvider] = struct{}{}
		}
		if last == nil || c.CapturedAt.After(*last) {
			t := c.CapturedAt
			last = &t
		}
	}
	return Stats{
		Total:               len(captures),
		DistinctRecipients:  len(recipients),
		ProvidersConfigured: len(providers),
		LastCapture:         last,
	}
}
