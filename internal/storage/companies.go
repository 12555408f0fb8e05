package storage

import (
	"context"

	"github.com/google/uuid"
)

const resolveCity = `
SELECT id, nome, estado FROM cidades
WHERE lower(nome) = lower($1) AND upper(estado) = upper($2)
`

func (q *Queries) ResolveCity(ctx context.Context, name, state string) (City, error) {
	var c City
	err := q.db.QueryRow(ctx, resolveCity, name, state).Scan(&c.ID, &c.Name, &c.State)
	return c, err
}

const getCity = `SELECT id, nome, estado FROM cidades WHERE id = $1`

func (q *Queries) GetCity(ctx context.Context, id uuid.UUID) (City, error) {
	var c City
	err := q.db.QueryRow(ctx, getCity, id).Scan(&c.ID, &c.Name, &c.State)
	return c, err
}

const getPlan = `SELECT id, nome, valor_mensal_padrao FROM planos WHERE id = $1`

func (q *Queries) GetPlan(ctx context.Context, id uuid.UUID) (Plan, error) {
	var p Plan
	err := q.db.QueryRow(ctx, getPlan, id).Scan(&p.ID, &p.Name, &p.DefaultMonthlyValue)
	return p, err
}

const getCompany = `
SELECT id, nome, endereco, telefone1, telefone2, email, cidade_id
FROM empresas WHERE id = $1
`

func (q *Queries) GetCompany(ctx context.Context, id uuid.UUID) (Company, error) {
	var c Company
	err := q.db.QueryRow(ctx, getCompany, id).Scan(
		&c.ID, &c.Name, &c.Address, &c.Phone1, &c.Phone2, &c.Email, &c.CityID,
	)
	return c, err
}
