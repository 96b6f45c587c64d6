package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// Kind tags a classified failure.
type Kind int

// Failure kinds. Presentation code switches on these exhaustively.
const (
	KindUnknown Kind = iota
	KindTimeout
	KindCanceled
	KindHTTP
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	case KindHTTP:
		return "http"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is every failure the client returns.
type Error struct {
	Kind    Kind
	Status  int           // KindHTTP
	Detail  string        // KindHTTP, backend-provided detail
	Elapsed time.Duration // KindTimeout
	Message string        // KindUnknown
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("request timed out after %s", e.Elapsed.Round(time.Second))
	case KindCanceled:
		return "request canceled"
	case KindHTTP:
		if e.Detail != "" {
			return fmt.Sprintf("http status %d: %s", e.Status, e.Detail)
		}
		return fmt.Sprintf("http status %d", e.Status)
	case KindNetwork:
		if e.Err != nil {
			return fmt.Sprintf("no response from backend: %v", e.Err)
		}
		return "no response from backend"
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx response before classification.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// Classify maps any error from a backend call onto the Kind taxonomy.
// elapsed is how long the call had been outstanding.
func Classify(err error, elapsed time.Duration) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCanceled, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Elapsed: elapsed, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Elapsed: elapsed, Err: err}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return &Error{
			Kind:   KindHTTP,
			Status: statusErr.Status,
			Detail: parseDetail(statusErr.Body),
			Err:    err,
		}
	}

	if isNetworkError(err) {
		return &Error{Kind: KindNetwork, Err: err}
	}

	return &Error{Kind: KindUnknown, Message: err.Error(), Err: err}
}

func isNetworkError(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	var urlErr *url.Error
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	case errors.As(err, &urlErr):
		// Transport-level failure with no response.
		return true
	}
	return false
}

// parseDetail extracts FastAPI's "detail" (a string or a list of {msg}).
func parseDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		text := strings.TrimSpace(string(body))
		if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
			return ""
		}
		return truncate(text, 300)
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
		Loc []any  `json:"loc"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg == "" {
				continue
			}
			if loc := formatLoc(it.Loc); loc != "" {
				msgs = append(msgs, loc+": "+it.Msg)
				continue
			}
			msgs = append(msgs, it.Msg)
		}
		return strings.Join(msgs, "; ")
	}

	return truncate(string(envelope.Detail), 300)
}

func formatLoc(loc []any) string {
	parts := make([]string, 0, len(loc))
	for _, p := range loc {
		if s, ok := p.(string); ok && (s == "body" || s == "query") {
			continue
		}
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, ".")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
