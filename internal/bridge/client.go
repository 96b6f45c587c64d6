package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/symmetry/internal/config"
	"github.com/ppiankov/symmetry/internal/model"
)

// Client reaches a Server. It implements Bridge.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the bridge at baseURL.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		// Starting the backend may wait on process termination.
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetAppConfig asks the host for the app config.
func (c *Client) GetAppConfig(ctx context.Context) (*config.AppConfig, error) {
	var cfg config.AppConfig
	if err := c.do(ctx, http.MethodGet, PathAppConfig, &cfg); err != nil {
		return nil, fmt.Errorf("bridge get app config: %w", err)
	}
	return &cfg, nil
}

// StartBackend asks the host to (re)start the backend. Transport failures are
// reported in the result rather than returned.
func (c *Client) StartBackend(ctx context.Context) model.StartResult {
	var res model.StartResult
	if err := c.do(ctx, http.MethodPost, PathStartBackend, &res); err != nil {
		return model.StartResult{Success: false, Error: fmt.Sprintf("bridge start backend: %v", err)}
	}
	return res
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set(TokenHeader, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ Bridge = (*Client)(nil)
