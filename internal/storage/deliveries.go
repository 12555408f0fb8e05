package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const deliveryColumns = `id, orcamento_id, campanha_id, tipo_email, ciclo, status_envio_email,
	tentativas_envio, ultimo_erro_envio, ultima_tentativa_envio, created_at, updated_at`

func deliveryDest(d *DeliveryRecord) []any {
	return []any{
		&d.ID, &d.LeadID, &d.CampaignID, &d.Kind, &d.Cycle, &d.Status,
		&d.Attempts, &d.LastError, &d.LastAttemptAt, &d.CreatedAt, &d.UpdatedAt,
	}
}

func scanDelivery(row pgx.Row) (DeliveryRecord, error) {
	var d DeliveryRecord
	err := row.Scan(deliveryDest(&d)...)
	return d, err
}

func collectIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertLeadDelivery returns pgx.ErrNoRows when the (lead, campaign) pair
// already has a record.
const insertLeadDelivery = `
INSERT INTO orcamentos_campanhas (orcamento_id, campanha_id, tipo_email)
VALUES ($1, $2, 'orcamento')
ON CONFLICT (orcamento_id, campanha_id) WHERE tipo_email = 'orcamento' DO NOTHING
RETURNING ` + deliveryColumns

func (q *Queries) InsertLeadDelivery(ctx context.Context, leadID, campaignID uuid.UUID) (DeliveryRecord, error) {
	return scanDelivery(q.db.QueryRow(ctx, insertLeadDelivery, leadID, campaignID))
}

const getLeadDelivery = `
SELECT ` + deliveryColumns + ` FROM orcamentos_campanhas
WHERE orcamento_id = $1 AND campanha_id = $2 AND tipo_email = 'orcamento'
`

func (q *Queries) GetLeadDelivery(ctx context.Context, leadID, campaignID uuid.UUID) (DeliveryRecord, error) {
	return scanDelivery(q.db.QueryRow(ctx, getLeadDelivery, leadID, campaignID))
}

// InsertReminderDelivery returns pgx.ErrNoRows when the campaign already has
// a reminder for cycle.
const insertReminderDelivery = `
INSERT INTO orcamentos_campanhas (campanha_id, tipo_email, ciclo)
VALUES ($1, 'lembrete_vencimento', $2::date)
ON CONFLICT (campanha_id, tipo_email, ciclo) WHERE tipo_email = 'lembrete_vencimento' DO NOTHING
RETURNING ` + deliveryColumns

func (q *Queries) InsertReminderDelivery(ctx context.Context, campaignID uuid.UUID, cycle time.Time) (DeliveryRecord, error) {
	return scanDelivery(q.db.QueryRow(ctx, insertReminderDelivery, campaignID, cycle))
}

const getDelivery = `SELECT ` + deliveryColumns + ` FROM orcamentos_campanhas WHERE id = $1`

func (q *Queries) GetDelivery(ctx context.Context, id uuid.UUID) (DeliveryRecord, error) {
	return scanDelivery(q.db.QueryRow(ctx, getDelivery, id))
}

const listDeliveriesByLead = `
SELECT ` + deliveryColumns + ` FROM orcamentos_campanhas
WHERE orcamento_id = $1
ORDER BY created_at, id
`

func (q *Queries) ListDeliveriesByLead(ctx context.Context, leadID uuid.UUID) ([]DeliveryRecord, error) {
	rows, err := q.db.Query(ctx, listDeliveriesByLead, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []DeliveryRecord
	for rows.Next() {
		var d DeliveryRecord
		if err := rows.Scan(deliveryDest(&d)...); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// ClaimDelivery moves a queued record to enviando. pgx.ErrNoRows means the
// record is missing or another worker got there first.
const claimDelivery = `
UPDATE orcamentos_campanhas
SET status_envio_email = 'enviando',
    tentativas_envio = tentativas_envio + 1,
    ultima_tentativa_envio = $2,
    updated_at = now()
WHERE id = $1 AND status_envio_email = 'na_fila'
RETURNING ` + deliveryColumns

func (q *Queries) ClaimDelivery(ctx context.Context, id uuid.UUID, at time.Time) (DeliveryRecord, error) {
	return scanDelivery(q.db.QueryRow(ctx, claimDelivery, id, at))
}

const completeDelivery = `
UPDATE orcamentos_campanhas
SET status_envio_email = 'enviado', ultimo_erro_envio = NULL, updated_at = now()
WHERE id = $1 AND status_envio_email = 'enviando'
RETURNING ` + deliveryColumns

func (q *Queries) CompleteDelivery(ctx context.Context, id uuid.UUID) (DeliveryRecord, error) {
	return scanDelivery(q.db.QueryRow(ctx, completeDelivery, id))
}

const failDelivery = `
UPDATE orcamentos_campanhas
SET status_envio_email = 'erro', ultimo_erro_envio = $2, updated_at = now()
WHERE id = $1 AND status_envio_email = 'enviando'
RETURNING ` + deliveryColumns

func (q *Queries) FailDelivery(ctx context.Context, id uuid.UUID, lastError string) (DeliveryRecord, error) {
	return scanDelivery(q.db.QueryRow(ctx, failDelivery, id, lastError))
}

const requeueDelivery = `
UPDATE orcamentos_campanhas
SET status_envio_email = 'na_fila',
    tentativas_envio = 0,
    ultimo_erro_envio = NULL,
    ultima_tentativa_envio = NULL,
    updated_at = now()
WHERE id = $1 AND orcamento_id = $2
RETURNING ` + deliveryColumns

func (q *Queries) RequeueDelivery(ctx context.Context, id, leadID uuid.UUID) (DeliveryRecord, error) {
	return scanDelivery(q.db.QueryRow(ctx, requeueDelivery, id, leadID))
}

// The status predicate is evaluated at write time so a record claimed by a
// worker after any earlier read is never reset.
const requeueLeadDeliveries = `
UPDATE orcamentos_campanhas
SET status_envio_email = 'na_fila',
    tentativas_envio = 0,
    ultimo_erro_envio = NULL,
    ultima_tentativa_envio = NULL,
    updated_at = now()
WHERE orcamento_id = $1 AND status_envio_email IN ('enviado', 'erro')
RETURNING id
`

func (q *Queries) RequeueLeadDeliveries(ctx context.Context, leadID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, requeueLeadDeliveries, leadID)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

const touchStaleQueuedDeliveries = `
UPDATE orcamentos_campanhas SET updated_at = now()
WHERE id IN (
    SELECT id FROM orcamentos_campanhas
    WHERE status_envio_email = 'na_fila' AND updated_at < $1
    ORDER BY updated_at
    LIMIT $2
    FOR UPDATE SKIP LOCKED
) AND status_envio_email = 'na_fila'
RETURNING id
`

// TouchStaleQueuedDeliveries stamps updated_at on up to limit na_fila records
// last touched before queuedBefore and returns their IDs. A touched record is
// not returned again until it goes stale once more.
func (q *Queries) TouchStaleQueuedDeliveries(ctx context.Context, queuedBefore time.Time, limit int32) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, touchStaleQueuedDeliveries, queuedBefore, limit)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}
