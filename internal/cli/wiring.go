package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/symmetry/internal/api"
	"github.com/ppiankov/symmetry/internal/cache"
	"github.com/ppiankov/symmetry/internal/config"
	"github.com/ppiankov/symmetry/internal/host"
	"github.com/ppiankov/symmetry/internal/llm"
	"github.com/ppiankov/symmetry/internal/logger"
	"github.com/ppiankov/symmetry/internal/pipeline"
	"github.com/ppiankov/symmetry/internal/ui"
	"github.com/ppiankov/symmetry/internal/util"
	"github.com/ppiankov/symmetry/internal/worker"
)

// Flags shared by the commands that talk to the backend.
var (
	threshold float64
	noCache   bool
)

func addBackendFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&threshold, "threshold", config.DefaultSimilarityThreshold, "comparison threshold sent to the backend (only when set)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the article cache (force fresh fetch)")
}

// newHost builds the privileged side for this process.
func newHost() *host.Host {
	return host.New(config.NewLoader(appConfigPath), settings.Backend,
		host.WithLogger(logger.Named("host")))
}

// clientOptions wires the cache, the per-host limiter and the optional
// threshold into the backend client.
func clientOptions(cmd *cobra.Command) ([]api.Option, func(), error) {
	opts := []api.Option{
		api.WithRateLimiter(worker.NewLimiter(settings.RateLimiting.RequestsPerSecond, settings.RateLimiting.BurstSize)),
		api.WithTransport(util.NewTransport("", "", "")),
	}
	cleanup := func() {}

	cacheSettings := settings.Cache
	if noCache {
		cacheSettings.Enabled = false
	}
	c, err := cache.New(cacheSettings)
	if err != nil {
		return nil, cleanup, fmt.Errorf("open cache: %w", err)
	}
	if c != nil {
		opts = append(opts, api.WithArticleStore(cache.NewArticleStore(c, cacheSettings.DiskTTL)))
		if closer, ok := c.(io.Closer); ok {
			cleanup = func() { _ = closer.Close() }
		}
	}

	if f := cmd.Flags().Lookup("threshold"); f != nil && f.Changed {
		if threshold < 0 || threshold > 1 {
			cleanup()
			return nil, func() {}, fmt.Errorf("--threshold %v outside [0,1]", threshold)
		}
		opts = append(opts, api.WithThreshold(threshold))
	}
	return opts, cleanup, nil
}

// resolveClient builds the backend client from the app config held by source.
func resolveClient(ctx context.Context, cmd *cobra.Command, source api.ConfigSource) (*api.Client, func(), error) {
	opts, cleanup, err := clientOptions(cmd)
	if err != nil {
		return nil, cleanup, err
	}
	client := api.NewResolver(source, logger.Named("api"), opts...).Resolve(ctx)
	return client, cleanup, nil
}

// newSummarizer builds the gap narrator when --explain is set. The ollama base
// URL comes from the app config unless the settings name one.
func newSummarizer(ctx context.Context, source api.ConfigSource, explain bool) (*llm.Summarizer, error) {
	if !explain {
		return nil, nil
	}
	m := settings.LLM
	if m.Provider == "" {
		m.Provider = "openai"
	}

	ollamaBaseURL := config.DefaultOllamaBaseURL
	if cfg, err := source.GetAppConfig(ctx); err == nil && cfg.OllamaBaseURL != "" {
		ollamaBaseURL = cfg.OllamaBaseURL
	}

	s, err := llm.NewSummarizer(llm.ConfigFromModel(m, ollamaBaseURL))
	if err != nil {
		return nil, fmt.Errorf("configure LLM: %w", err)
	}
	return s, nil
}

func newPipeline(client pipeline.Backend, language string, summarizer *llm.Summarizer) *pipeline.Pipeline {
	return pipeline.NewPipeline(client, language,
		pipeline.WithSummarizer(summarizer),
		pipeline.WithRenderer(pipeline.NewRenderer(settings.Output.IncludeFooter)),
		pipeline.WithLogger(logger.Named("pipeline")),
	)
}

// signalContext is canceled on the first SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// userError turns a backend failure into the message the terminal UI would
// show for op.
func userError(op ui.Operation, err error, baseURL string) error {
	logger.L().Debug("Operation failed", zap.String("op", string(op)), zap.Error(err))
	return errors.New(ui.ErrorMessage(op, err, baseURL))
}

// operationFor names the step of a pipeline run that produced err.
func operationFor(err error) ui.Operation {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		switch stageErr.Stage {
		case pipeline.StageFetch:
			return ui.OpArticleFetch
		case pipeline.StageTranslate:
			return ui.OpTranslation
		}
	}
	return ui.OpComparison
}
