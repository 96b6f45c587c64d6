package pipeline

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/symmetry/internal/api"
)

const maxAttempts = 3

// retrySleepFunc is swapped out by tests
var retrySleepFunc = sleepCtx

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// withRetry runs fn up to maxAttempts times while it fails with a transient
// error. Backoff doubles from 500ms.
func withRetry[T any](ctx context.Context, log *zap.Logger, op string, fn func(context.Context) (T, error)) (T, error) {
	var (
		result T
		err    error
	)

	backoff := 500 * time.Millisecond
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err = fn(ctx)
		if err == nil || !isRetryable(err) || attempt == maxAttempts {
			return result, err
		}

		log.Debug("Retrying backend call",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		retrySleepFunc(ctx, backoff)
		backoff *= 2

		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, api.Classify(ctxErr, 0)
		}
	}
	return result, err
}

// isRetryable reports whether err is worth another attempt: 5xx, 429 and
// transport failures. Timeouts are not retried; the caller already waited
// the full client timeout.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		apiErr = api.Classify(err, 0)
	}

	switch apiErr.Kind {
	case api.KindNetwork:
		return true
	case api.KindHTTP:
		return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
	default:
		return false
	}
}
