package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	"github.com/shopspring/decimal"
)

const (
	invalidTextRepresentationCode = "22P02"
	queryCanceledCode             = "57014"
)

// translatePgError は pgx のエラーをドメインのエラー分類に変換します。
// notFound は行が存在しなかった場合に返すエラーです。
func translatePgError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case invalidTextRepresentationCode:
			return fmt.Errorf("%s: %w", pgErr.Message, labor.ErrInvalidInput)
		case queryCanceledCode:
			return fmt.Errorf("postgres: %s: %w", pgErr.Message, labor.ErrUpstreamUnavailable)
		}
	}

	return err
}

func parseAmount(column, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("postgres: %s %q: %w", column, raw, labor.ErrDataInconsistent)
	}
	return d, nil
}

func timeOrZero(value sql.NullTime) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	return value.Time
}
