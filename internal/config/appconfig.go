// Package config loads the application configuration file shared by the host
// and, through the bridge, by the UI.
//
// The file is JSON with optional upper-case keys (BACKEND_BASE_URL,
// BACKEND_PORT, FRONTEND_PORT, OLLAMA_BASE_URL, DEFAULT_TIMEOUT,
// SIMILARITY_THRESHOLD). It is read once per Loader; every field has a
// default but the file itself must exist.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// DefaultPath is the location of the application config relative to the
// working directory.
const DefaultPath = "config.json"

// Field defaults.
const (
	DefaultBackendPort         = 8000
	DefaultFrontendPort        = 5173
	DefaultTimeoutMillis       = 30000
	DefaultSimilarityThreshold = 0.65
	DefaultOllamaBaseURL       = "http://localhost:11434"
)

// AppConfig is the resolved runtime configuration. Read-only after Load.
type AppConfig struct {
	BackendBaseURL      string  `json:"BACKEND_BASE_URL" yaml:"BACKEND_BASE_URL"`
	BackendPort         int     `json:"BACKEND_PORT" yaml:"BACKEND_PORT"`
	FrontendPort        int     `json:"FRONTEND_PORT" yaml:"FRONTEND_PORT"`
	OllamaBaseURL       string  `json:"OLLAMA_BASE_URL" yaml:"OLLAMA_BASE_URL"`
	DefaultTimeout      int     `json:"DEFAULT_TIMEOUT" yaml:"DEFAULT_TIMEOUT"` // milliseconds
	SimilarityThreshold float64 `json:"SIMILARITY_THRESHOLD" yaml:"SIMILARITY_THRESHOLD"`
}

// Timeout returns DefaultTimeout as a duration.
func (c AppConfig) Timeout() time.Duration {
	return time.Duration(c.DefaultTimeout) * time.Millisecond
}

// Defaults returns the configuration used for every key the file omits.
func Defaults() AppConfig {
	return AppConfig{
		BackendBaseURL:      BackendURLForPort(DefaultBackendPort),
		BackendPort:         DefaultBackendPort,
		FrontendPort:        DefaultFrontendPort,
		OllamaBaseURL:       DefaultOllamaBaseURL,
		DefaultTimeout:      DefaultTimeoutMillis,
		SimilarityThreshold: DefaultSimilarityThreshold,
	}
}

// BackendURLForPort derives the loopback backend URL for a port.
func BackendURLForPort(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// LoadError reports a missing, unreadable or invalid config file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load app config %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// fileConfig mirrors the file; nil pointers mark absent keys.
type fileConfig struct {
	BackendBaseURL      *string  `mapstructure:"backend_base_url"`
	BackendPort         *int     `mapstructure:"backend_port"`
	FrontendPort        *int     `mapstructure:"frontend_port"`
	OllamaBaseURL       *string  `mapstructure:"ollama_base_url"`
	DefaultTimeout      *int     `mapstructure:"default_timeout"`
	SimilarityThreshold *float64 `mapstructure:"similarity_threshold"`
}

var fileKeys = []string{
	"backend_base_url",
	"backend_port",
	"frontend_port",
	"ollama_base_url",
	"default_timeout",
	"similarity_threshold",
}

// Loader reads the config file at most once and caches the outcome,
// including a failure.
type Loader struct {
	path string

	once sync.Once
	cfg  *AppConfig
	err  error
}

// NewLoader creates a loader for the given path (DefaultPath when empty).
func NewLoader(path string) *Loader {
	if path == "" {
		path = DefaultPath
	}
	return &Loader{path: path}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string {
	return l.path
}

// Load returns the cached configuration, reading the file on first use.
func (l *Loader) Load() (*AppConfig, error) {
	l.once.Do(func() {
		l.cfg, l.err = readFile(l.path)
	})
	if l.err != nil {
		return nil, l.err
	}
	cfg := *l.cfg
	return &cfg, nil
}

func readFile(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	// SYMMETRY_BACKEND_PORT etc. override the file
	v.SetEnvPrefix("SYMMETRY")
	for _, key := range fileKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	var raw fileConfig
	if err := v.Unmarshal(&raw, viper.DecodeHook(rejectFractionalInts())); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("decode: %w", err)}
	}

	cfg := resolve(raw)
	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return &cfg, nil
}

// rejectFractionalInts fails the decode of a JSON number with a fractional
// part into an integer field; mapstructure would truncate it.
func rejectFractionalInts() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		for to.Kind() == reflect.Pointer {
			to = to.Elem()
		}
		if to.Kind() != reflect.Int {
			return data, nil
		}
		if f, ok := data.(float64); ok && f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not a whole number", f)
		}
		return data, nil
	}
}

// resolve applies per-field defaults. The base URL is derived from the port
// only when the file does not name one.
func resolve(raw fileConfig) AppConfig {
	cfg := Defaults()

	if raw.BackendPort != nil {
		cfg.BackendPort = *raw.BackendPort
	}
	if raw.BackendBaseURL != nil && strings.TrimSpace(*raw.BackendBaseURL) != "" {
		cfg.BackendBaseURL = strings.TrimRight(strings.TrimSpace(*raw.BackendBaseURL), "/")
	} else {
		cfg.BackendBaseURL = BackendURLForPort(cfg.BackendPort)
	}
	if raw.FrontendPort != nil {
		cfg.FrontendPort = *raw.FrontendPort
	}
	if raw.OllamaBaseURL != nil && strings.TrimSpace(*raw.OllamaBaseURL) != "" {
		cfg.OllamaBaseURL = strings.TrimRight(strings.TrimSpace(*raw.OllamaBaseURL), "/")
	}
	if raw.DefaultTimeout != nil {
		cfg.DefaultTimeout = *raw.DefaultTimeout
	}
	if raw.SimilarityThreshold != nil {
		cfg.SimilarityThreshold = *raw.SimilarityThreshold
	}

	return cfg
}

// Validate checks ranges and URL shapes.
func (c AppConfig) Validate() error {
	var errs []error

	if c.BackendPort < 1 || c.BackendPort > 65535 {
		errs = append(errs, fmt.Errorf("BACKEND_PORT %d out of range", c.BackendPort))
	}
	if c.FrontendPort < 1 || c.FrontendPort > 65535 {
		errs = append(errs, fmt.Errorf("FRONTEND_PORT %d out of range", c.FrontendPort))
	}
	if c.DefaultTimeout <= 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_TIMEOUT must be positive, got %d", c.DefaultTimeout))
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("SIMILARITY_THRESHOLD %v outside [0,1]", c.SimilarityThreshold))
	}
	if err := checkHTTPURL(c.BackendBaseURL); err != nil {
		errs = append(errs, fmt.Errorf("BACKEND_BASE_URL: %w", err))
	}
	if err := checkHTTPURL(c.OllamaBaseURL); err != nil {
		errs = append(errs, fmt.Errorf("OLLAMA_BASE_URL: %w", err))
	}

	return errors.Join(errs...)
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

// WriteDefault writes a fully populated default config to path. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	data, err := json.MarshalIndent(Defaults(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
