package postgres

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	pgdb "github.com/ogurasousui/codex-labor-insights/internal/platform/db/postgres"
)

// ClockEventRepository は PostgreSQL を利用した出退勤記録の参照実装です。
type ClockEventRepository struct {
	pool pgdb.Queryer
}

var _ labor.ClockEventRepository = (*ClockEventRepository)(nil)

// NewClockEventRepository は ClockEventRepository を生成します。
func NewClockEventRepository(pool pgdb.Queryer) *ClockEventRepository {
	return &ClockEventRepository{pool: pool}
}

// ClockEventsForStaff は window と重なるスタッフの出退勤記録を返します。未退勤の記録も含みます。
func (r *ClockEventRepository) ClockEventsForStaff(ctx context.Context, staffID string, window calendar.Window) ([]*labor.ClockEvent, error) {
	return r.query(ctx, `
        SELECT ce.id::text, ce.staff_id::text, ce.start_time, ce.end_time
          FROM clock_events ce
         WHERE ce.staff_id = $1
           AND ce.start_time < $3
           AND (ce.end_time IS NULL OR ce.end_time > $2)
         ORDER BY ce.start_time, ce.id
    `, staffID, window.Start, window.End)
}

// ClockEventsForStore は window と重なる店舗全体の出退勤記録を返します。
func (r *ClockEventRepository) ClockEventsForStore(ctx context.Context, storeID string, window calendar.Window) ([]*labor.ClockEvent, error) {
	return r.query(ctx, `
        SELECT ce.id::text, ce.staff_id::text, ce.start_time, ce.end_time
          FROM clock_events ce
          JOIN staff st ON st.id = ce.staff_id
         WHERE st.store_id = $1
           AND ce.start_time < $3
           AND (ce.end_time IS NULL OR ce.end_time > $2)
         ORDER BY ce.start_time, ce.id
    `, storeID, window.Start, window.End)
}

func (r *ClockEventRepository) query(ctx context.Context, query string, args ...any) ([]*labor.ClockEvent, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err, nil)
	}
	defer rows.Close()

	var events []*labor.ClockEvent
	for rows.Next() {
		event, err := scanClockEvent(rows)
		if err != nil {
			return nil, translatePgError(err, nil)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err, nil)
	}
	return events, nil
}

func scanClockEvent(row pgx.Row) (*labor.ClockEvent, error) {
	var (
		e       labor.ClockEvent
		endTime sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.StaffID, &e.StartTime, &endTime); err != nil {
		return nil, err
	}
	if endTime.Valid {
		end := endTime.Time
		e.EndTime = &end
	}
	return &e, nil
}
