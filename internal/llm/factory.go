package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/symmetry/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	case "":
		// LLM disabled
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config. ollamaBaseURL,
// usually OLLAMA_BASE_URL from the application config, fills an empty
// base URL for the ollama provider.
func ConfigFromModel(m model.LLMConfig, ollamaBaseURL string) Config {
	cfg := Config{
		Provider:         m.Provider,
		Model:            m.Model,
		APIKey:           m.APIKey,
		BaseURL:          m.BaseURL,
		Timeout:          m.Timeout,
		StrictReferences: m.StrictReferences,
		MaxTokens:        m.MaxTokens,
		HTTPProxy:        m.HTTPProxy,
		HTTPSProxy:       m.HTTPSProxy,
		NoProxy:          m.NoProxy,
	}
	if cfg.BaseURL == "" && strings.EqualFold(cfg.Provider, "ollama") {
		cfg.BaseURL = ollamaBaseURL
	}
	return cfg
}
