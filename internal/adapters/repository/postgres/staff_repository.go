package postgres

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	pgdb "github.com/ogurasousui/codex-labor-insights/internal/platform/db/postgres"
)

// StaffRepository は PostgreSQL を利用したスタッフの参照実装です。
type StaffRepository struct {
	pool pgdb.Queryer
}

var _ labor.StaffRepository = (*StaffRepository)(nil)

// NewStaffRepository は StaffRepository を生成します。
func NewStaffRepository(pool pgdb.Queryer) *StaffRepository {
	return &StaffRepository{pool: pool}
}

// ListByStore は店舗に所属するスタッフを名前順で返します。
func (r *StaffRepository) ListByStore(ctx context.Context, storeID string) ([]*labor.Staff, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id::text,
               store_id::text,
               name,
               job_title,
               job_area_id::text
          FROM staff
         WHERE store_id = $1
         ORDER BY name, id
    `, storeID)
	if err != nil {
		return nil, translatePgError(err, nil)
	}
	defer rows.Close()

	var staff []*labor.Staff
	for rows.Next() {
		member, err := scanStaff(rows)
		if err != nil {
			return nil, translatePgError(err, nil)
		}
		staff = append(staff, member)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err, nil)
	}
	return staff, nil
}

func scanStaff(row pgx.Row) (*labor.Staff, error) {
	var (
		s         labor.Staff
		jobAreaID sql.NullString
	)
	if err := row.Scan(&s.ID, &s.StoreID, &s.Name, &s.JobTitle, &jobAreaID); err != nil {
		return nil, err
	}
	s.JobAreaID = jobAreaID.String
	return &s, nil
}
