package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const listingColumns = `id, empresa_id, nome_exibicao, descricao, endereco, cidade, estado,
	telefone1, telefone2, email, categoria, created_at, updated_at`

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	err := row.Scan(
		&l.ID, &l.CompanyID, &l.DisplayName, &l.Description, &l.Address,
		&l.City, &l.State, &l.Phone1, &l.Phone2, &l.Email, &l.Category,
		&l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

const getListing = `SELECT ` + listingColumns + ` FROM hotsites WHERE id = $1`

func (q *Queries) GetListing(ctx context.Context, id uuid.UUID) (Listing, error) {
	return scanListing(q.db.QueryRow(ctx, getListing, id))
}

const getListingByCompany = `SELECT ` + listingColumns + ` FROM hotsites WHERE empresa_id = $1`

func (q *Queries) GetListingByCompany(ctx context.Context, companyID uuid.UUID) (Listing, error) {
	return scanListing(q.db.QueryRow(ctx, getListingByCompany, companyID))
}

type InsertListingParams struct {
	CompanyID   uuid.UUID
	DisplayName string
	Description string
	Address     string
	City        string
	State       string
	Phone1      string
	Phone2      string
	Email       string
}

// InsertListingIfAbsent returns pgx.ErrNoRows when the company already owns
// a listing.
const insertListingIfAbsent = `
INSERT INTO hotsites (empresa_id, nome_exibicao, descricao, endereco, cidade, estado, telefone1, telefone2, email)
VALUES ($1, $2, $3, $4, $5, upper($6), $7, $8, $9)
ON CONFLICT (empresa_id) DO NOTHING
RETURNING ` + listingColumns

func (q *Queries) InsertListingIfAbsent(ctx context.Context, arg InsertListingParams) (Listing, error) {
	return scanListing(q.db.QueryRow(ctx, insertListingIfAbsent,
		arg.CompanyID, arg.DisplayName, arg.Description, arg.Address,
		arg.City, arg.State, arg.Phone1, arg.Phone2, arg.Email,
	))
}

const updateListingCategory = `UPDATE hotsites SET categoria = $2, updated_at = now() WHERE id = $1`

func (q *Queries) UpdateListingCategory(ctx context.Context, id uuid.UUID, category string) error {
	tag, err := q.db.Exec(ctx, updateListingCategory, id, category)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
