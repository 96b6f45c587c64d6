package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDHeader correlates client log lines with backend logs.
const RequestIDHeader = "X-Request-ID"

const maxLoggedBody = 2 << 10

// loggingTransport logs every backend exchange.
type loggingTransport struct {
	next    http.RoundTripper
	logger  *zap.Logger
	baseURL string
}

func newLoggingTransport(next http.RoundTripper, logger *zap.Logger, baseURL string) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next, logger: logger, baseURL: baseURL}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rid := req.Header.Get(RequestIDHeader)
	if rid == "" {
		rid = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, rid)
	}

	log := t.logger.With(zap.String("request_id", rid))
	log.Debug("backend request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("base_url", t.baseURL),
		zap.String("params", req.URL.RawQuery),
	)

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	elapsed := time.Since(start)
	if err != nil {
		log.Warn("backend request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	fields := []zap.Field{
		zap.Int("status", resp.StatusCode),
		zap.String("path", req.URL.Path),
		zap.Duration("elapsed", elapsed),
	}

	if log.Core().Enabled(zapcore.DebugLevel) && resp.Body != nil {
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(body))
		if readErr != nil {
			// Surface the read failure to the caller on its own read.
			resp.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), errReader{readErr}))
		}
		fields = append(fields, zap.ByteString("body", truncateBytes(body, maxLoggedBody)))
	}

	if resp.StatusCode >= 400 {
		log.Warn("backend response", fields...)
	} else {
		log.Debug("backend response", fields...)
	}
	return resp, nil
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func truncateBytes(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
