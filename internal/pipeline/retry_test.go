package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/symmetry/internal/api"
)

func noSleep(t *testing.T) {
	t.Helper()
	orig := retrySleepFunc
	retrySleepFunc = func(context.Context, time.Duration) {}
	t.Cleanup(func() { retrySleepFunc = orig })
}

func httpErr(status int) error {
	return &api.Error{Kind: api.KindHTTP, Status: status}
}

func TestWithRetry_Success(t *testing.T) {
	calls := 0
	got, err := withRetry(context.Background(), zap.NewNop(), "op", func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("withRetry() = %q, %v", got, err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 attempt, got %d", calls)
	}
}

func TestWithRetry_TransientThenSuccess(t *testing.T) {
	noSleep(t)

	calls := 0
	got, err := withRetry(context.Background(), zap.NewNop(), "op", func(context.Context) (int, error) {
		calls++
		if calls <= 2 {
			return 0, httpErr(http.StatusServiceUnavailable)
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
}

func TestWithRetry_PermanentFailure(t *testing.T) {
	noSleep(t)

	calls := 0
	_, err := withRetry(context.Background(), zap.NewNop(), "op", func(context.Context) (int, error) {
		calls++
		return 0, httpErr(http.StatusNotFound)
	})
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	if calls != 1 {
		t.Errorf("404 is not retryable, expected 1 attempt, got %d", calls)
	}
}

func TestWithRetry_AllRetriesExhausted(t *testing.T) {
	noSleep(t)

	calls := 0
	_, err := withRetry(context.Background(), zap.NewNop(), "op", func(context.Context) (int, error) {
		calls++
		return 0, httpErr(http.StatusBadGateway)
	})
	if err == nil {
		t.Fatal("Expected error after all retries exhausted")
	}
	if calls != maxAttempts {
		t.Errorf("Expected %d attempts, got %d", maxAttempts, calls)
	}
}

func TestWithRetry_StopsWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	orig := retrySleepFunc
	retrySleepFunc = func(context.Context, time.Duration) { cancel() }
	t.Cleanup(func() { retrySleepFunc = orig })

	calls := 0
	_, err := withRetry(ctx, zap.NewNop(), "op", func(context.Context) (int, error) {
		calls++
		return 0, httpErr(http.StatusTooManyRequests)
	})

	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Kind != api.KindCanceled {
		t.Fatalf("Expected canceled error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 attempt, got %d", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"503", httpErr(503), true},
		{"500", httpErr(500), true},
		{"429", httpErr(429), true},
		{"404", httpErr(404), false},
		{"422", httpErr(422), false},
		{"network", &api.Error{Kind: api.KindNetwork}, true},
		{"timeout", &api.Error{Kind: api.KindTimeout}, false},
		{"canceled", &api.Error{Kind: api.KindCanceled}, false},
		{"unknown", &api.Error{Kind: api.KindUnknown, Message: "bad payload"}, false},
		{"wrapped http", fmt.Errorf("compare: %w", httpErr(502)), true},
		{"raw op error", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.retryable {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestSleepCtx_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	sleepCtx(ctx, time.Hour)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("sleepCtx ignored cancellation, waited %v", elapsed)
	}
}

func TestWithRetry_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	start := time.Now()
	_, err := withRetry(ctx, zap.NewNop(), "op", func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, httpErr(http.StatusServiceUnavailable)
	})
	if err == nil {
		t.Fatal("Expected error after cancel")
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("backoff outlived the context: %v", elapsed)
	}
	if calls != 1 {
		t.Errorf("Expected 1 attempt, got %d", calls)
	}
}
