package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/lib/pq"
)

// RetryPolicy はストアへの1往復に対する再試行方針を表す。
type RetryPolicy struct {
	// Attempts は初回を含む最大試行回数。1以下なら再試行しない。
	Attempts int
	// AttemptTimeout は1回の試行に与えるタイムアウト。0の場合は呼び出し元のコンテキストのみに従う。
	AttemptTimeout time.Duration
	// InitialInterval は最初の再試行までの待機時間。
	InitialInterval time.Duration
	// MaxInterval は再試行間隔の上限。
	MaxInterval time.Duration
	// OnRetry は一時的な障害で再試行する直前に呼ばれる。
	OnRetry func(operation string, err error)
}

// DefaultRetryPolicy は3回試行、1回あたり5秒のポリシーを返す。
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:        3,
		AttemptTimeout:  5 * time.Second,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// Retry はfnを一時的な障害に限り指数バックオフで再試行する。
// 一時的でないエラーは即座に返す。
func Retry[T any](ctx context.Context, policy RetryPolicy, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		b.MaxInterval = policy.MaxInterval
	}

	op := func() (T, error) {
		attemptCtx := ctx
		if policy.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, policy.AttemptTimeout)
			defer cancel()
		}

		result, err := fn(attemptCtx)
		if err != nil && !IsTransient(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(attempts)),
	}
	if policy.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, _ time.Duration) {
			policy.OnRetry(operation, err)
		}))
	}

	return backoff.Retry(ctx, op, opts...)
}

// IsTransient は接続断など再試行で回復し得るエラーかどうかを判定する。
// SQL構文エラーや制約違反は一時的とみなさない。
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == "08" {
			return true
		}
		switch pqErr.Code {
		case "57P01", "57P02", "57P03":
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsUniqueViolation はエラーが一意制約違反（SQLSTATE 23505）かどうかを返す。
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
