package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// newBackOff returns the delay policy between retry attempts.
type newBackOff func() backoff.BackOff

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second

	return b
}

// retry runs op once plus up to maxRetries more times while it fails and ctx is live.
// With maxRetries 0 op runs exactly once.
func retry[T any](
	ctx context.Context, logger *slog.Logger, policy newBackOff, maxRetries int, what string, op func() (T, error),
) (T, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy(), uint64(maxRetries)), ctx)

	//nolint:wrapcheck // callers wrap with stage context
	return backoff.RetryNotifyWithData(op, b, func(err error, wait time.Duration) {
		logger.Warn(what+": retrying", "error", err, "wait", wait)
	})
}
