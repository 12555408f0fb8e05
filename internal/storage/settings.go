package storage

import "context"

const listSettings = `SELECT chave, valor, updated_at FROM configuracoes ORDER BY chave`

func (q *Queries) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := q.db.Query(ctx, listSettings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const upsertSetting = `
INSERT INTO configuracoes (chave, valor) VALUES ($1, $2)
ON CONFLICT (chave) DO UPDATE SET valor = EXCLUDED.valor, updated_at = now()
RETURNING chave, valor, updated_at
`

func (q *Queries) UpsertSetting(ctx context.Context, key, value string) (Setting, error) {
	var s Setting
	err := q.db.QueryRow(ctx, upsertSetting, key, value).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	return s, err
}
