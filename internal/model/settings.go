package model

import (
	"os"
	"path/filepath"
	"time"
)

// Settings holds CLI-level settings (flags > SYMMETRY_* env > ~/.symmetry/config.yaml > defaults).
// Backend addresses and thresholds live in the application config file instead.
type Settings struct {
	Backend      BackendSettings   `yaml:"backend" mapstructure:"backend"`
	Cache        CacheSettings     `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitSettings `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Liveness     LivenessSettings  `yaml:"liveness" mapstructure:"liveness"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Log          LogSettings       `yaml:"log" mapstructure:"log"`
	Output       OutputSettings    `yaml:"output" mapstructure:"output"`
}

// BackendSettings describes how the host launches the backend process
type BackendSettings struct {
	Command        string   `yaml:"command" mapstructure:"command"`
	Args           []string `yaml:"args" mapstructure:"args"` // "{port}" is replaced with BACKEND_PORT
	Dir            string   `yaml:"dir" mapstructure:"dir"`
	EnvFile        string   `yaml:"env_file" mapstructure:"env_file"`
	ProcessPattern string   `yaml:"process_pattern" mapstructure:"process_pattern"` // matched against full command lines
}

// CacheSettings configures the article cache
type CacheSettings struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	RedisURL  string        `yaml:"redis_url" mapstructure:"redis_url"` // replaces memory+disk when set
}

// RateLimitSettings bounds request rates against one host
type RateLimitSettings struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LivenessSettings controls backend health polling in the UI
type LivenessSettings struct {
	ProbeQuery   string        `yaml:"probe_query" mapstructure:"probe_query"`
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	RestartDelay time.Duration `yaml:"restart_delay" mapstructure:"restart_delay"`
}

// LLMConfig configures the optional gap narrative
type LLMConfig struct {
	Provider         string `yaml:"provider" mapstructure:"provider"` // openai, ollama, or empty
	Model            string `yaml:"model" mapstructure:"model"`
	APIKey           string `yaml:"-" mapstructure:"api_key"`
	BaseURL          string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout          int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	StrictReferences bool   `yaml:"strict_references" mapstructure:"strict_references"`
	MaxTokens        int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	HTTPProxy        string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy       string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy          string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// LogSettings configures zap
type LogSettings struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"` // used while the terminal UI is running
}

// OutputSettings controls report rendering
type OutputSettings struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultSettings returns the built-in settings
func DefaultSettings() *Settings {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	base := filepath.Join(home, ".symmetry")

	return &Settings{
		Backend: BackendSettings{
			Command:        "python",
			Args:           []string{"-m", "uvicorn", "app.main:app", "--host", "127.0.0.1", "--port", "{port}"},
			Dir:            "../symmetry-unified-backend",
			EnvFile:        ".env",
			ProcessPattern: "uvicorn app.main:app",
		},
		Cache: CacheSettings{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			DiskDir:   filepath.Join(base, "cache"),
			DiskTTL:   24 * time.Hour,
		},
		RateLimiting: RateLimitSettings{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 2,
		},
		Liveness: LivenessSettings{
			ProbeQuery:   "https://en.wikipedia.org/wiki/Main_Page",
			PollInterval: 30 * time.Second,
			RestartDelay: 3 * time.Second,
		},
		LLM: LLMConfig{
			Timeout:          60,
			StrictReferences: true,
			MaxTokens:        800,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "console",
			File:   filepath.Join(base, "symmetry.log"),
		},
		Output: OutputSettings{
			IncludeFooter: true,
		},
	}
}
