// Package host is the privileged side of the application: it owns the
// application config file and the backend process, and answers the two
// requests the UI is allowed to make.
package host

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ppiankov/symmetry/internal/backend"
	"github.com/ppiankov/symmetry/internal/config"
	"github.com/ppiankov/symmetry/internal/logger"
	"github.com/ppiankov/symmetry/internal/model"
)

// Backend is the process control the host needs.
type Backend interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

// Host answers GetAppConfig and StartBackend.
type Host struct {
	loader   *config.Loader
	settings model.BackendSettings
	killer   backend.Killer
	logger   *zap.Logger

	backendOnce sync.Once
	backend     Backend

	shutdownOnce sync.Once
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Host) { h.logger = logger.OrNop(l) }
}

// WithBackend replaces the process supervisor.
func WithBackend(b Backend) Option {
	return func(h *Host) { h.backend = b }
}

// WithKiller sets the killer used by the default supervisor.
func WithKiller(k backend.Killer) Option {
	return func(h *Host) { h.killer = k }
}

// New creates a host reading the app config through loader.
func New(loader *config.Loader, settings model.BackendSettings, opts ...Option) *Host {
	h := &Host{
		loader:   loader,
		settings: settings,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// GetAppConfig returns the config loaded once for the process lifetime.
// A load failure is returned unchanged on every call.
func (h *Host) GetAppConfig(_ context.Context) (*config.AppConfig, error) {
	cfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error("Failed to load app config", zap.String("path", h.loader.Path()), zap.Error(err))
		return nil, err
	}
	return cfg, nil
}

// StartBackend (re)starts the backend process.
func (h *Host) StartBackend(ctx context.Context) model.StartResult {
	if err := h.ensureBackend().Start(ctx); err != nil {
		h.logger.Error("Failed to start backend", zap.Error(err))
		return model.StartResult{Success: false, Error: err.Error()}
	}
	return model.StartResult{Success: true}
}

// Shutdown terminates the backend. Safe to call more than once; only the first
// call has an effect.
func (h *Host) Shutdown(ctx context.Context) {
	h.shutdownOnce.Do(func() {
		h.logger.Info("Shutting down backend")
		h.ensureBackend().Stop(ctx)
	})
}

func (h *Host) ensureBackend() Backend {
	h.backendOnce.Do(func() {
		if h.backend != nil {
			return
		}

		port := config.DefaultBackendPort
		if cfg, err := h.loader.Load(); err == nil {
			port = cfg.BackendPort
		} else {
			h.logger.Warn("Using default backend port", zap.Int("port", port), zap.Error(err))
		}

		opts := []backend.Option{backend.WithLogger(h.logger.Named("backend"))}
		if h.killer != nil {
			opts = append(opts, backend.WithKiller(h.killer))
		}
		h.backend = backend.NewSupervisor(backend.Spec{
			Command:        h.settings.Command,
			Args:           h.settings.Args,
			Dir:            h.settings.Dir,
			EnvFile:        h.settings.EnvFile,
			ProcessPattern: h.settings.ProcessPattern,
			Port:           port,
		}, opts...)
	})
	return h.backend
}
