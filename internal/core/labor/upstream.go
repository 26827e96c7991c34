package labor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultUpstreamRetries = 1
	defaultInitialBackoff  = 100 * time.Millisecond
)

// Upstream は外部コラボレーター呼び出しの再試行ポリシーです。
// 一時的な失敗は maxRetries 回までバックオフ付きで再試行し、それでも失敗した場合は
// ErrUpstreamUnavailable として返します。
type Upstream struct {
	maxRetries uint64
	initial    time.Duration
	logger     *slog.Logger
}

// NewUpstream は Upstream を生成します。負の再試行回数と 0 以下の待機時間は既定値に置き換えます。
func NewUpstream(maxRetries int, initial time.Duration, logger *slog.Logger) *Upstream {
	if maxRetries < 0 {
		maxRetries = defaultUpstreamRetries
	}
	if initial <= 0 {
		initial = defaultInitialBackoff
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Upstream{maxRetries: uint64(maxRetries), initial: initial, logger: logger}
}

// Call は fn を実行し、必要に応じて再試行します。
func (u *Upstream) Call(ctx context.Context, name string, fn func(context.Context) error) error {
	if u == nil {
		u = NewUpstream(defaultUpstreamRetries, defaultInitialBackoff, nil)
	}

	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if isPermanent(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = u.initial
	policy := backoff.WithContext(backoff.WithMaxRetries(b, u.maxRetries), ctx)

	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		u.logger.WarnContext(ctx, "upstream call failed, retrying",
			slog.String("source", name),
			slog.Duration("wait", wait),
			slog.Any("error", err),
		)
	})
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", name, ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || isPermanent(err) {
		return fmt.Errorf("%s: %w", name, err)
	}
	return fmt.Errorf("%s: %w: %w", name, ErrUpstreamUnavailable, err)
}

// Fetch は値を返す呼び出しを Upstream 経由で実行します。
func Fetch[T any](ctx context.Context, u *Upstream, name string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := u.Call(ctx, name, func(callCtx context.Context) error {
		v, err := fn(callCtx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrDataInconsistent)
}
