package storage

import (
	"context"

	"github.com/google/uuid"
)

const leadColumns = `id, nome_cliente, email_cliente, telefone_cliente, origem_cidade, origem_estado,
	destino_cidade, destino_estado, tipo_imovel, comodos, distancia_km, preco_min, preco_max, created_at`

type CreateLeadParams struct {
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	OriginCity       string
	OriginState      string
	DestinationCity  string
	DestinationState string
	PropertyType     string
	Rooms            int32
	DistanceKm       float64
	PriceMin         float64
	PriceMax         float64
}

const createLead = `
INSERT INTO orcamentos (nome_cliente, email_cliente, telefone_cliente, origem_cidade, origem_estado,
    destino_cidade, destino_estado, tipo_imovel, comodos, distancia_km, preco_min, preco_max)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + leadColumns

func (q *Queries) CreateLead(ctx context.Context, arg CreateLeadParams) (Lead, error) {
	var l Lead
	err := q.db.QueryRow(ctx, createLead,
		arg.CustomerName, arg.CustomerEmail, arg.CustomerPhone, arg.OriginCity, arg.OriginState,
		arg.DestinationCity, arg.DestinationState, arg.PropertyType, arg.Rooms, arg.DistanceKm,
		arg.PriceMin, arg.PriceMax,
	).Scan(leadDest(&l)...)
	return l, err
}

const getLead = `SELECT ` + leadColumns + ` FROM orcamentos WHERE id = $1`

func (q *Queries) GetLead(ctx context.Context, id uuid.UUID) (Lead, error) {
	var l Lead
	err := q.db.QueryRow(ctx, getLead, id).Scan(leadDest(&l)...)
	return l, err
}

func leadDest(l *Lead) []any {
	return []any{
		&l.ID, &l.CustomerName, &l.CustomerEmail, &l.CustomerPhone, &l.OriginCity, &l.OriginState,
		&l.DestinationCity, &l.DestinationState, &l.PropertyType, &l.Rooms, &l.DistanceKm,
		&l.PriceMin, &l.PriceMax, &l.CreatedAt,
	}
}
