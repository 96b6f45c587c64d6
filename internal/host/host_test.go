package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/symmetry/internal/bridge"
	"github.com/ppiankov/symmetry/internal/config"
	"github.com/ppiankov/symmetry/internal/model"
)

type fakeBackend struct {
	mu     sync.Mutex
	starts int
	stops  int
	err    error
}

func (f *fakeBackend) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.err
}

func (f *fakeBackend) Stop(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

type fakeKiller struct {
	ports []int
}

func (f *fakeKiller) KillByPattern(context.Context, string) error { return nil }

func (f *fakeKiller) KillByPort(_ context.Context, port int) error {
	f.ports = append(f.ports, port)
	return nil
}

func writeConfig(t *testing.T, body string) *config.Loader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return config.NewLoader(path)
}

func TestHost_GetAppConfig(t *testing.T) {
	h := New(writeConfig(t, `{"BACKEND_PORT": 8123}`), model.BackendSettings{})

	cfg, err := h.GetAppConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.BackendPort)
	assert.Equal(t, "http://127.0.0.1:8123", cfg.BackendBaseURL)
}

func TestHost_GetAppConfigMissingFile(t *testing.T) {
	h := New(config.NewLoader(filepath.Join(t.TempDir(), "missing.json")), model.BackendSettings{})

	_, err := h.GetAppConfig(context.Background())
	var loadErr *config.LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestHost_StartBackend(t *testing.T) {
	fb := &fakeBackend{}
	h := New(writeConfig(t, `{}`), model.BackendSettings{}, WithBackend(fb))

	res := h.StartBackend(context.Background())
	assert.Equal(t, model.StartResult{Success: true}, res)
	assert.Equal(t, 1, fb.starts)
}

func TestHost_StartBackendFailure(t *testing.T) {
	fb := &fakeBackend{err: errors.New("spawn backend: exec: \"python\": not found")}
	h := New(writeConfig(t, `{}`), model.BackendSettings{}, WithBackend(fb))

	res := h.StartBackend(context.Background())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not found")
}

func TestHost_ShutdownOnce(t *testing.T) {
	fb := &fakeBackend{}
	h := New(writeConfig(t, `{}`), model.BackendSettings{}, WithBackend(fb))

	h.Shutdown(context.Background())
	h.Shutdown(context.Background())
	assert.Equal(t, 1, fb.stops)
}

func TestHost_DefaultSupervisorUsesConfiguredPort(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	killer := &fakeKiller{}
	h := New(writeConfig(t, `{"BACKEND_PORT": 8123}`), model.BackendSettings{
		Command: "sh",
		Args:    []string{"-c", "sleep 30"},
	}, WithKiller(killer))
	defer h.Shutdown(context.Background())

	res := h.StartBackend(context.Background())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []int{8123}, killer.ports)
}

func TestHost_DefaultPortWhenConfigFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	killer := &fakeKiller{}
	h := New(config.NewLoader(filepath.Join(t.TempDir(), "missing.json")), model.BackendSettings{
		Command: "sh",
		Args:    []string{"-c", "sleep 30"},
	}, WithKiller(killer))
	defer h.Shutdown(context.Background())

	res := h.StartBackend(context.Background())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []int{config.DefaultBackendPort}, killer.ports)
}

var _ bridge.Bridge = (*Host)(nil)
