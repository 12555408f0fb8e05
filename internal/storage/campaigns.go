package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const campaignColumns = `id, hotsite_id, plano_id, data_inicio, data_fim, ativo, valor_mensal,
	participa_cotacao, limite_orcamentos_mes, created_at, updated_at`

func campaignDest(c *Campaign) []any {
	return []any{
		&c.ID, &c.ListingID, &c.PlanID, &c.StartDate, &c.EndDate, &c.Active,
		&c.MonthlyValue, &c.ParticipatesInQuoting, &c.MonthlyLeadCap,
		&c.CreatedAt, &c.UpdatedAt,
	}
}

func scanCampaign(row pgx.Row) (Campaign, error) {
	var c Campaign
	err := row.Scan(campaignDest(&c)...)
	return c, err
}

type CreateCampaignParams struct {
	ListingID             uuid.UUID
	PlanID                uuid.UUID
	StartDate             time.Time
	EndDate               *time.Time
	Active                bool
	MonthlyValue          float64
	ParticipatesInQuoting bool
	MonthlyLeadCap        *int32
}

const createCampaign = `
INSERT INTO campanhas (hotsite_id, plano_id, data_inicio, data_fim, ativo, valor_mensal, participa_cotacao, limite_orcamentos_mes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + campaignColumns

func (q *Queries) CreateCampaign(ctx context.Context, arg CreateCampaignParams) (Campaign, error) {
	return scanCampaign(q.db.QueryRow(ctx, createCampaign,
		arg.ListingID, arg.PlanID, arg.StartDate, arg.EndDate, arg.Active,
		arg.MonthlyValue, arg.ParticipatesInQuoting, arg.MonthlyLeadCap,
	))
}

const getCampaign = `SELECT ` + campaignColumns + ` FROM campanhas WHERE id = $1`

func (q *Queries) GetCampaign(ctx context.Context, id uuid.UUID) (Campaign, error) {
	return scanCampaign(q.db.QueryRow(ctx, getCampaign, id))
}

// UpdateCampaignParams leaves a column untouched when its pointer is nil.
// Nullable columns carry an explicit Set flag so they can be cleared.
type UpdateCampaignParams struct {
	ID                    uuid.UUID
	SetEndDate            bool
	EndDate               *time.Time
	MonthlyValue          *float64
	Active                *bool
	ParticipatesInQuoting *bool
	SetMonthlyLeadCap     bool
	MonthlyLeadCap        *int32
}

const updateCampaign = `
UPDATE campanhas SET
    data_fim = CASE WHEN $2::boolean THEN $3::date ELSE data_fim END,
    valor_mensal = COALESCE($4::numeric, valor_mensal),
    ativo = COALESCE($5::boolean, ativo),
    participa_cotacao = COALESCE($6::boolean, participa_cotacao),
    limite_orcamentos_mes = CASE WHEN $7::boolean THEN $8::integer ELSE limite_orcamentos_mes END,
    updated_at = now()
WHERE id = $1
RETURNING ` + campaignColumns

func (q *Queries) UpdateCampaign(ctx context.Context, arg UpdateCampaignParams) (Campaign, error) {
	return scanCampaign(q.db.QueryRow(ctx, updateCampaign,
		arg.ID, arg.SetEndDate, arg.EndDate, arg.MonthlyValue, arg.Active,
		arg.ParticipatesInQuoting, arg.SetMonthlyLeadCap, arg.MonthlyLeadCap,
	))
}

const deleteCampaign = `DELETE FROM campanhas WHERE id = $1`

func (q *Queries) DeleteCampaign(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCampaign, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type ListEligibleCampaignsParams struct {
	City  string
	State string
	Today time.Time
}

const listEligibleCampaigns = `
SELECT c.id, c.hotsite_id, c.plano_id, c.data_inicio, c.data_fim, c.ativo, c.valor_mensal,
       c.participa_cotacao, c.limite_orcamentos_mes, c.created_at, c.updated_at,
       h.id, h.empresa_id, h.nome_exibicao, h.descricao, h.endereco, h.cidade, h.estado,
       h.telefone1, h.telefone2, h.email, h.categoria, h.created_at, h.updated_at
FROM campanhas c
JOIN hotsites h ON h.id = c.hotsite_id
WHERE c.ativo
  AND c.participa_cotacao
  AND (c.data_fim IS NULL OR c.data_fim >= $3::date)
  AND lower(h.cidade) = lower($1)
  AND upper(h.estado) = upper($2)
ORDER BY c.created_at
`

func (q *Queries) ListEligibleCampaigns(ctx context.Context, arg ListEligibleCampaignsParams) ([]EligibleCampaign, error) {
	rows, err := q.db.Query(ctx, listEligibleCampaigns, arg.City, arg.State, arg.Today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []EligibleCampaign
	for rows.Next() {
		var i EligibleCampaign
		l := &i.Listing
		dest := append(campaignDest(&i.Campaign),
			&l.ID, &l.CompanyID, &l.DisplayName, &l.Description, &l.Address,
			&l.City, &l.State, &l.Phone1, &l.Phone2, &l.Email, &l.Category,
			&l.CreatedAt, &l.UpdatedAt,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listCampaignsEndingBetween = `
SELECT ` + campaignColumns + ` FROM campanhas
WHERE data_fim BETWEEN $1::date AND $2::date
ORDER BY data_fim, id
`

func (q *Queries) ListCampaignsEndingBetween(ctx context.Context, from, to time.Time) ([]Campaign, error) {
	rows, err := q.db.Query(ctx, listCampaignsEndingBetween, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Campaign
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(campaignDest(&c)...); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
