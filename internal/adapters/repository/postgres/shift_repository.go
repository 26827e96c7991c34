package postgres

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	pgdb "github.com/ogurasousui/codex-labor-insights/internal/platform/db/postgres"
)

const shiftColumns = `
        SELECT sh.id::text,
               sh.staff_id::text,
               sh.job_area_id::text,
               sh.start_time,
               sh.end_time,
               sh.published
          FROM scheduled_shifts sh`

// ShiftRepository は PostgreSQL を利用した予定シフトの参照実装です。
// 下書き (未公開) のシフトも返します。
type ShiftRepository struct {
	pool pgdb.Queryer
}

var _ labor.ShiftRepository = (*ShiftRepository)(nil)

// NewShiftRepository は ShiftRepository を生成します。
func NewShiftRepository(pool pgdb.Queryer) *ShiftRepository {
	return &ShiftRepository{pool: pool}
}

// ShiftsForStaff は開始時刻が window に含まれるスタッフのシフトを返します。
func (r *ShiftRepository) ShiftsForStaff(ctx context.Context, staffID string, window calendar.Window) ([]*labor.ScheduledShift, error) {
	return r.query(ctx, shiftColumns+`
         WHERE sh.staff_id = $1
           AND sh.start_time >= $2 AND sh.start_time < $3
         ORDER BY sh.start_time, sh.id
    `, staffID, window.Start, window.End)
}

// ShiftsForStore は開始時刻が window に含まれる店舗全体のシフトを返します。
func (r *ShiftRepository) ShiftsForStore(ctx context.Context, storeID string, window calendar.Window) ([]*labor.ScheduledShift, error) {
	return r.query(ctx, shiftColumns+`
          JOIN staff st ON st.id = sh.staff_id
         WHERE st.store_id = $1
           AND sh.start_time >= $2 AND sh.start_time < $3
         ORDER BY sh.start_time, sh.id
    `, storeID, window.Start, window.End)
}

func (r *ShiftRepository) query(ctx context.Context, query string, args ...any) ([]*labor.ScheduledShift, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err, nil)
	}
	defer rows.Close()

	var shifts []*labor.ScheduledShift
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, translatePgError(err, nil)
		}
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err, nil)
	}
	return shifts, nil
}

func scanShift(row pgx.Row) (*labor.ScheduledShift, error) {
	var (
		s         labor.ScheduledShift
		jobAreaID sql.NullString
		endTime   sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.StaffID, &jobAreaID, &s.StartTime, &endTime, &s.Published); err != nil {
		return nil, err
	}
	s.JobAreaID = jobAreaID.String
	s.EndTime = timeOrZero(endTime)
	return &s, nil
}
