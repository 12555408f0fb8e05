package storage

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const trackingColumns = `id, codigo_rastreamento, destinatario, assunto, provedor, status, tipo_email,
	orcamento_campanha_id, enviado_em, metadata`

type CreateEmailTrackingParams struct {
	TrackingCode     string
	Recipient        string
	Subject          string
	Provider         string
	Status           string
	EmailKind        string
	DeliveryRecordID *uuid.UUID
	Metadata         json.RawMessage
}

const createEmailTracking = `
INSERT INTO email_tracking (codigo_rastreamento, destinatario, assunto, provedor, status, tipo_email, orcamento_campanha_id, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + trackingColumns

func (q *Queries) CreateEmailTracking(ctx context.Context, arg CreateEmailTrackingParams) (EmailTrackingEntry, error) {
	metadata := arg.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}
	var e EmailTrackingEntry
	err := q.db.QueryRow(ctx, createEmailTracking,
		arg.TrackingCode, arg.Recipient, arg.Subject, arg.Provider, arg.Status,
		arg.EmailKind, arg.DeliveryRecordID, metadata,
	).Scan(trackingDest(&e)...)
	return e, err
}

const listEmailTrackingByProvider = `
SELECT ` + trackingColumns + ` FROM email_tracking
WHERE provedor = $1
ORDER BY enviado_em DESC
LIMIT $2
`

func (q *Queries) ListEmailTrackingByProvider(ctx context.Context, provider string, limit int32) ([]EmailTrackingEntry, error) {
	return q.listTracking(ctx, listEmailTrackingByProvider, provider, limit)
}

const listEmailTrackingByMetadataFlag = `
SELECT ` + trackingColumns + ` FROM email_tracking
WHERE metadata ->> $1 = 'true'
ORDER BY enviado_em DESC
LIMIT $2
`

func (q *Queries) ListEmailTrackingByMetadataFlag(ctx context.Context, key string, limit int32) ([]EmailTrackingEntry, error) {
	return q.listTracking(ctx, listEmailTrackingByMetadataFlag, key, limit)
}

func (q *Queries) listTracking(ctx context.Context, sql string, args ...any) ([]EmailTrackingEntry, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []EmailTrackingEntry
	for rows.Next() {
		var e EmailTrackingEntry
		if err := rows.Scan(trackingDest(&e)...); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func trackingDest(e *EmailTrackingEntry) []any {
	return []any{
		&e.ID, &e.TrackingCode, &e.Recipient, &e.Subject, &e.Provider, &e.Status,
		&e.EmailKind, &e.DeliveryRecordID, &e.SentAt, &e.Metadata,
	}
}
