package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ogurasousui/codex-labor-insights/internal/platform/config"
)

const (
	applicationName = "labor-insights"
	pingAttempts    = 3
)

// BuildPoolConfig は database 設定から pgxpool.Config を構築します。
// エンジンは書き込みを行わないため、セッションは既定で読み取り専用になり、
// タイムゾーンは店舗の現地時刻に合わせます。
func BuildPoolConfig(cfg config.DatabaseConfig, loc *time.Location) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}

	params := poolCfg.ConnConfig.RuntimeParams
	params["application_name"] = applicationName
	params["default_transaction_read_only"] = "on"
	if loc != nil {
		params["timezone"] = loc.String()
	}

	return poolCfg, nil
}

// NewPool は pgxpool.Pool を生成し疎通確認を行います。起動直後のデータベース待ちのため ping は数回再試行します。
func NewPool(ctx context.Context, cfg config.DatabaseConfig, loc *time.Location, logger *slog.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := BuildPoolConfig(cfg, loc)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), pingAttempts-1), ctx)
	err = backoff.RetryNotify(func() error {
		return pool.Ping(ctx)
	}, policy, func(err error, wait time.Duration) {
		logger.WarnContext(ctx, "database ping failed, retrying",
			slog.String("host", cfg.Host),
			slog.Duration("wait", wait),
			slog.Any("error", err),
		)
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return pool, nil
}
