package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	tests := []struct {
		name string
		body string
		want AppConfig
	}{
		{
			name: "empty object",
			body: `{}`,
			want: Defaults(),
		},
		{
			name: "port only derives base url",
			body: `{"BACKEND_PORT": 9001}`,
			want: AppConfig{
				BackendBaseURL:      "http://127.0.0.1:9001",
				BackendPort:         9001,
				FrontendPort:        5173,
				OllamaBaseURL:       "http://localhost:11434",
				DefaultTimeout:      30000,
				SimilarityThreshold: 0.65,
			},
		},
		{
			name: "explicit base url wins over port",
			body: `{"BACKEND_BASE_URL": "http://backend.local:7000/", "BACKEND_PORT": 9001}`,
			want: AppConfig{
				BackendBaseURL:      "http://backend.local:7000",
				BackendPort:         9001,
				FrontendPort:        5173,
				OllamaBaseURL:       "http://localhost:11434",
				DefaultTimeout:      30000,
				SimilarityThreshold: 0.65,
			},
		},
		{
			name: "all keys",
			body: `{
				"BACKEND_BASE_URL": "https://symmetry.example.org",
				"BACKEND_PORT": 8100,
				"FRONTEND_PORT": 3000,
				"OLLAMA_BASE_URL": "http://gpu-box:11434",
				"DEFAULT_TIMEOUT": 45000,
				"SIMILARITY_THRESHOLD": 0.8
			}`,
			want: AppConfig{
				BackendBaseURL:      "https://symmetry.example.org",
				BackendPort:         8100,
				FrontendPort:        3000,
				OllamaBaseURL:       "http://gpu-box:11434",
				DefaultTimeout:      45000,
				SimilarityThreshold: 0.8,
			},
		},
		{
			name: "threshold zero is kept",
			body: `{"SIMILARITY_THRESHOLD": 0}`,
			want: func() AppConfig {
				c := Defaults()
				c.SimilarityThreshold = 0
				return c
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewLoader(writeConfig(t, tt.body)).Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, *cfg)
		})
	}
}

func TestDefaults_Values(t *testing.T) {
	d := Defaults()
	assert.Equal(t, 8000, d.BackendPort)
	assert.Equal(t, 5173, d.FrontendPort)
	assert.Equal(t, 30000, d.DefaultTimeout)
	assert.Equal(t, 0.65, d.SimilarityThreshold)
	assert.Equal(t, "http://127.0.0.1:8000", d.BackendBaseURL)
	assert.Equal(t, 30*time.Second, d.Timeout())
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")

	_, err := NewLoader(path).Load()
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr), "expected *LoadError, got %T", err)
	assert.Equal(t, path, loadErr.Path)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := NewLoader(writeConfig(t, `{"BACKEND_PORT": `)).Load()
	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port out of range", `{"BACKEND_PORT": 70000}`},
		{"negative timeout", `{"DEFAULT_TIMEOUT": -1}`},
		{"threshold above one", `{"SIMILARITY_THRESHOLD": 1.5}`},
		{"bad scheme", `{"BACKEND_BASE_URL": "ftp://host"}`},
		{"port not a number", `{"BACKEND_PORT": "eight thousand"}`},
		{"fractional port", `{"BACKEND_PORT": 8000.7}`},
		{"fractional timeout", `{"DEFAULT_TIMEOUT": 1500.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(writeConfig(t, tt.body)).Load()
			var loadErr *LoadError
			assert.ErrorAs(t, err, &loadErr)
		})
	}
}

func TestLoad_WholeNumberFloatsAccepted(t *testing.T) {
	cfg, err := NewLoader(writeConfig(t, `{"BACKEND_PORT": 8100.0, "DEFAULT_TIMEOUT": 2e3}`)).Load()
	require.NoError(t, err)
	assert.Equal(t, 8100, cfg.BackendPort)
	assert.Equal(t, 2000, cfg.DefaultTimeout)
}

func TestLoad_Memoized(t *testing.T) {
	path := writeConfig(t, `{"BACKEND_PORT": 8100}`)
	loader := NewLoader(path)

	first, err := loader.Load()
	require.NoError(t, err)

	// later edits are not observed: the file is read exactly once
	require.NoError(t, os.WriteFile(path, []byte(`{"BACKEND_PORT": 9100}`), 0644))
	second, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, first.BackendPort, second.BackendPort)

	// callers get copies
	second.BackendPort = 1
	third, _ := loader.Load()
	assert.Equal(t, 8100, third.BackendPort)
}

func TestLoad_FailureMemoized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	loader := NewLoader(path)

	_, err := loader.Load()
	require.Error(t, err)

	// no retry once the first read failed
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))
	_, err = loader.Load()
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SYMMETRY_BACKEND_PORT", "8123")

	cfg, err := NewLoader(writeConfig(t, `{}`)).Load()
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.BackendPort)
	assert.Equal(t, "http://127.0.0.1:8123", cfg.BackendBaseURL)
}

func TestNewLoader_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, NewLoader("").Path())
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, WriteDefault(path))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)

	assert.Error(t, WriteDefault(path), "second write must refuse to overwrite")
}
