package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/symmetry/internal/config"
	"github.com/ppiankov/symmetry/internal/logger"
)

// FallbackBaseURL is used when the app config cannot be obtained.
const FallbackBaseURL = "http://127.0.0.1:8000"

// DefaultTimeout bounds every backend request.
const DefaultTimeout = 30 * time.Second

// ConfigSource provides the app config; a bridge client is one.
type ConfigSource interface {
	GetAppConfig(ctx context.Context) (*config.AppConfig, error)
}

// Resolver builds the one Client for the process, on first use.
type Resolver struct {
	source ConfigSource
	opts   []Option
	logger *zap.Logger

	once   sync.Once
	client *Client
}

// NewResolver creates a resolver. opts are applied to the resolved client.
func NewResolver(source ConfigSource, log *zap.Logger, opts ...Option) *Resolver {
	log = logger.OrNop(log)
	return &Resolver{
		source: source,
		opts:   append([]Option{WithLogger(log)}, opts...),
		logger: log,
	}
}

// Resolve returns the memoized client. If the config cannot be obtained the
// client targets FallbackBaseURL instead; Resolve never fails.
func (r *Resolver) Resolve(ctx context.Context) *Client {
	r.once.Do(func() {
		baseURL := r.baseURL(ctx)
		r.client = NewClient(baseURL, DefaultTimeout, r.opts...)
		r.logger.Info("Backend client ready", zap.String("base_url", baseURL))
	})
	return r.client
}

func (r *Resolver) baseURL(ctx context.Context) string {
	if r.source == nil {
		return FallbackBaseURL
	}

	cfg, err := r.source.GetAppConfig(ctx)
	if err != nil {
		r.logger.Warn("App config unavailable, using fallback backend URL",
			zap.String("base_url", FallbackBaseURL), zap.Error(err))
		return FallbackBaseURL
	}
	if cfg == nil || cfg.BackendBaseURL == "" {
		return FallbackBaseURL
	}
	return cfg.BackendBaseURL
}
