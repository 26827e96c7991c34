package postgres

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	pgdb "github.com/ogurasousui/codex-labor-insights/internal/platform/db/postgres"
)

// SalesRepository は POS から取り込んだ売上の参照実装です。
type SalesRepository struct {
	pool pgdb.Queryer
}

var _ labor.SalesRepository = (*SalesRepository)(nil)

// NewSalesRepository は SalesRepository を生成します。
func NewSalesRepository(pool pgdb.Queryer) *SalesRepository {
	return &SalesRepository{pool: pool}
}

// TransactionsForStore は発生時刻が window に含まれる売上を返します。
func (r *SalesRepository) TransactionsForStore(ctx context.Context, storeID string, window calendar.Window) ([]*labor.SalesTransaction, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id::text,
               store_id::text,
               occurred_at,
               amount::text,
               category,
               staff_id::text
          FROM sales_transactions
         WHERE store_id = $1
           AND occurred_at >= $2 AND occurred_at < $3
         ORDER BY occurred_at, id
    `, storeID, window.Start, window.End)
	if err != nil {
		return nil, translatePgError(err, nil)
	}
	defer rows.Close()

	var txs []*labor.SalesTransaction
	for rows.Next() {
		tx, err := scanSale(rows)
		if err != nil {
			return nil, translatePgError(err, nil)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err, nil)
	}
	return txs, nil
}

func scanSale(row pgx.Row) (*labor.SalesTransaction, error) {
	var (
		tx       labor.SalesTransaction
		amount   string
		category sql.NullString
		staffID  sql.NullString
	)
	if err := row.Scan(&tx.ID, &tx.StoreID, &tx.OccurredAt, &amount, &category, &staffID); err != nil {
		return nil, err
	}

	value, err := parseAmount("amount", amount)
	if err != nil {
		return nil, err
	}
	tx.Amount = value
	tx.Category = category.String
	tx.StaffID = staffID.String
	return &tx, nil
}
