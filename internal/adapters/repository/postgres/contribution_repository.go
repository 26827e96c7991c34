package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	pgdb "github.com/ogurasousui/codex-labor-insights/internal/platform/db/postgres"
)

// ContributionRepository は貢献率設定の参照実装です。
type ContributionRepository struct {
	pool pgdb.Queryer
}

var _ labor.ContributionRepository = (*ContributionRepository)(nil)

// NewContributionRepository は ContributionRepository を生成します。
func NewContributionRepository(pool pgdb.Queryer) *ContributionRepository {
	return &ContributionRepository{pool: pool}
}

// ActiveMappings は店舗の有効な貢献率設定をリクエスト時点の内容で返します。
func (r *ContributionRepository) ActiveMappings(ctx context.Context, storeID string) ([]*labor.ContributionMapping, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id::text,
               store_id::text,
               job_title,
               category,
               percentage::text
          FROM contribution_mappings
         WHERE store_id = $1
           AND active
         ORDER BY job_title, category, id
    `, storeID)
	if err != nil {
		return nil, translatePgError(err, nil)
	}
	defer rows.Close()

	var mappings []*labor.ContributionMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, translatePgError(err, nil)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err, nil)
	}
	return mappings, nil
}

func scanMapping(row pgx.Row) (*labor.ContributionMapping, error) {
	var (
		m   labor.ContributionMapping
		pct string
	)
	if err := row.Scan(&m.ID, &m.StoreID, &m.JobTitle, &m.Category, &pct); err != nil {
		return nil, err
	}
	value, err := parseAmount("percentage", pct)
	if err != nil {
		return nil, err
	}
	m.Percentage = value
	return &m, nil
}
