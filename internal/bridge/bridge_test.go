package bridge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/symmetry/internal/config"
	"github.com/ppiankov/symmetry/internal/model"
)

type fakeTarget struct {
	cfg    *config.AppConfig
	cfgErr error
	start  model.StartResult
	starts int
}

func (f *fakeTarget) GetAppConfig(context.Context) (*config.AppConfig, error) {
	return f.cfg, f.cfgErr
}

func (f *fakeTarget) StartBackend(context.Context) model.StartResult {
	f.starts++
	return f.start
}

func newTestPair(t *testing.T, target Bridge) (*Client, *httptest.Server, *Server) {
	t.Helper()
	srv := NewServer(target, WithToken("secret"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, srv.Token()), ts, srv
}

func TestClient_GetAppConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.BackendPort = 8123
	client, _, _ := newTestPair(t, &fakeTarget{cfg: &cfg})

	got, err := client.GetAppConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg, *got)
}

func TestClient_GetAppConfigLoadError(t *testing.T) {
	client, _, _ := newTestPair(t, &fakeTarget{
		cfgErr: &config.LoadError{Path: "config.json", Err: errors.New("no such file")},
	})

	_, err := client.GetAppConfig(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "no such file")
}

func TestClient_StartBackend(t *testing.T) {
	target := &fakeTarget{start: model.StartResult{Success: false, Error: "spawn failed"}}
	client, _, _ := newTestPair(t, target)

	res := client.StartBackend(context.Background())
	assert.Equal(t, model.StartResult{Success: false, Error: "spawn failed"}, res)
	assert.Equal(t, 1, target.starts)
}

func TestClient_StartBackendUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	res := NewClient(url, "secret").StartBackend(context.Background())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "bridge start backend")
}

func TestServer_RejectsMissingToken(t *testing.T) {
	cfg := config.Defaults()
	_, ts, _ := newTestPair(t, &fakeTarget{cfg: &cfg})

	resp, err := http.Get(ts.URL + PathAppConfig)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, err = NewClient(ts.URL, "wrong").GetAppConfig(context.Background())
	assert.Error(t, err)
}

func TestServer_OnlyTwoVerbs(t *testing.T) {
	target := &fakeTarget{}
	_, ts, srv := newTestPair(t, target)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, PathAppConfig, http.StatusMethodNotAllowed},
		{http.MethodGet, PathStartBackend, http.StatusMethodNotAllowed},
		{http.MethodPost, "/bridge/v1/backend/stop", http.StatusNotFound},
		{http.MethodGet, "/bridge/v1/fs/read", http.StatusNotFound},
		{http.MethodGet, "/", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			require.NoError(t, err)
			req.Header.Set(TokenHeader, srv.Token())

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
	assert.Zero(t, target.starts)
}

func TestServer_ListenLoopback(t *testing.T) {
	cfg := config.Defaults()
	srv := NewServer(&fakeTarget{cfg: &cfg})
	baseURL, err := srv.Listen(0)
	require.NoError(t, err)
	defer func() { _ = srv.Close(context.Background()) }()

	assert.Regexp(t, `^http://127\.0\.0\.1:\d+$`, baseURL)

	got, err := NewClient(baseURL, srv.Token()).GetAppConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.BackendBaseURL, got.BackendBaseURL)
}

func TestNewServer_GeneratesToken(t *testing.T) {
	a := NewServer(&fakeTarget{})
	b := NewServer(&fakeTarget{})
	assert.NotEmpty(t, a.Token())
	assert.NotEqual(t, a.Token(), b.Token())
}
