// Package bridge is the only channel between the UI and the host. It carries
// exactly two verbs: read the app config and request a backend start.
package bridge

import (
	"context"

	"github.com/ppiankov/symmetry/internal/config"
	"github.com/ppiankov/symmetry/internal/model"
)

// Route paths. Nothing else is served.
const (
	PathAppConfig    = "/bridge/v1/app-config"
	PathStartBackend = "/bridge/v1/backend/start"
)

// TokenHeader carries the per-session capability token.
const TokenHeader = "X-Bridge-Token"

// Bridge is the capability allowlist exposed to the UI.
type Bridge interface {
	GetAppConfig(ctx context.Context) (*config.AppConfig, error)
	StartBackend(ctx context.Context) model.StartResult
}

// errorResponse is the body of every non-2xx bridge reply.
type errorResponse struct {
	Error string `json:"error"`
}
