package postgres

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	pgdb "github.com/ogurasousui/codex-labor-insights/internal/platform/db/postgres"
)

// StoreRepository は PostgreSQL を利用した店舗の参照実装です。
type StoreRepository struct {
	pool pgdb.Queryer
}

var _ labor.StoreRepository = (*StoreRepository)(nil)

// NewStoreRepository は StoreRepository を生成します。
func NewStoreRepository(pool pgdb.Queryer) *StoreRepository {
	return &StoreRepository{pool: pool}
}

// FindByID は ID で店舗を取得します。
func (r *StoreRepository) FindByID(ctx context.Context, id string) (*labor.Store, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id::text,
               name,
               revenue_per_labour_hour_threshold::text
          FROM stores
         WHERE id = $1
         LIMIT 1
    `, id)

	store, err := scanStore(row)
	if err != nil {
		return nil, translatePgError(err, labor.ErrStoreNotFound)
	}
	return store, nil
}

func scanStore(row pgx.Row) (*labor.Store, error) {
	var (
		id        string
		name      string
		threshold sql.NullString
	)
	if err := row.Scan(&id, &name, &threshold); err != nil {
		return nil, err
	}

	store := &labor.Store{ID: id, Name: name}
	if threshold.Valid {
		value, err := parseAmount("revenue_per_labour_hour_threshold", threshold.String)
		if err != nil {
			return nil, err
		}
		store.RevenuePerLabourHourThreshold = &value
	}
	return store, nil
}
