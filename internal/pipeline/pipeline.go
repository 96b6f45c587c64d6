// Package pipeline runs fetch, translate and compare against the backend
// and renders the resulting report.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/symmetry/internal/llm"
	"github.com/ppiankov/symmetry/internal/logger"
	"github.com/ppiankov/symmetry/internal/model"
)

// Backend is the subset of the backend client the pipeline drives
type Backend interface {
	FetchArticle(ctx context.Context, sourceURL string) (*model.ArticleFetchResult, error)
	TranslateArticle(ctx context.Context, title, language string) (*model.TranslationResult, error)
	CompareArticles(ctx context.Context, textA, textB, languageA, languageB string) (*model.ComparisonResult, error)
}

// Steps of a run, as reported by StageError
const (
	StageFetch     = "fetch"
	StageTranslate = "translate"
	StageCompare   = "compare"
)

// StageError records which step of a run failed
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Pipeline orchestrates one comparison run
type Pipeline struct {
	backend    Backend
	target     string
	renderer   *Renderer
	summarizer *llm.Summarizer // nil when disabled
	logger     *zap.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithSummarizer attaches an LLM summarizer
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithRenderer replaces the default renderer
func WithRenderer(r *Renderer) Option {
	return func(p *Pipeline) { p.renderer = r }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logger.OrNop(l) }
}

// NewPipeline creates a pipeline comparing articles against targetLanguage
func NewPipeline(backend Backend, targetLanguage string, opts ...Option) *Pipeline {
	p := &Pipeline{
		backend:  backend,
		target:   strings.ToLower(strings.TrimSpace(targetLanguage)),
		renderer: NewRenderer(true),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TargetLanguage returns the language articles are compared against
func (p *Pipeline) TargetLanguage() string {
	return p.target
}

// CompareURL fetches the article at sourceURL, fetches the same subject in
// the target language and compares the two.
func (p *Pipeline) CompareURL(ctx context.Context, sourceURL string) (*model.Report, error) {
	if p.target == "" {
		return nil, fmt.Errorf("target language is required")
	}

	sourceLang := model.LanguageFromURL(sourceURL)
	if sourceLang == p.target {
		return nil, fmt.Errorf("source article is already in %q", p.target)
	}
	subject := model.SubjectFromURL(sourceURL)
	log := p.logger.With(zap.String("url", sourceURL), zap.String("target", p.target))

	// 1. Fetch source article
	article, err := withRetry(ctx, log, StageFetch, func(ctx context.Context) (*model.ArticleFetchResult, error) {
		return p.backend.FetchArticle(ctx, sourceURL)
	})
	if err != nil {
		return nil, &StageError{Stage: StageFetch, Err: err}
	}
	log.Debug("Fetched source article", zap.Int("chars", len(article.SourceArticle)))

	// 2. Fetch the same subject in the target language
	translation, err := withRetry(ctx, log, StageTranslate, func(ctx context.Context) (*model.TranslationResult, error) {
		return p.backend.TranslateArticle(ctx, subject, p.target)
	})
	if err != nil {
		return nil, &StageError{Stage: StageTranslate, Err: err}
	}

	// 3. Compare
	report, err := p.compare(ctx, log, article.SourceArticle, translation.TranslatedArticle, sourceLang, p.target)
	if err != nil {
		return nil, err
	}
	report.Subject = subject
	report.SourceURL = sourceURL
	report.AvailableLanguages = article.ArticleLanguages

	// 4. Optional narrative, after the comparison so it can never alter it
	p.summarize(ctx, log, report)
	return report, nil
}

// CompareTexts compares two texts directly
func (p *Pipeline) CompareTexts(ctx context.Context, subject, textA, textB, languageA, languageB string) (*model.Report, error) {
	log := p.logger.With(zap.String("subject", subject))

	report, err := p.compare(ctx, log, textA, textB, languageA, languageB)
	if err != nil {
		return nil, err
	}
	report.Subject = subject

	p.summarize(ctx, log, report)
	return report, nil
}

func (p *Pipeline) compare(ctx context.Context, log *zap.Logger, textA, textB, languageA, languageB string) (*model.Report, error) {
	comparison, err := withRetry(ctx, log, StageCompare, func(ctx context.Context) (*model.ComparisonResult, error) {
		return p.backend.CompareArticles(ctx, textA, textB, languageA, languageB)
	})
	if err != nil {
		return nil, &StageError{Stage: StageCompare, Err: err}
	}

	stats := model.NewStats(*comparison)
	log.Info("Comparison complete",
		zap.Int("missing", stats.MissingInformation),
		zap.Int("extra", stats.ExtraInformation),
		zap.Float64("symmetry", stats.Symmetry),
	)

	return &model.Report{
		SourceLanguage: languageA,
		TargetLanguage: languageB,
		ComparedAt:     time.Now().UTC(),
		Comparison:     *comparison,
		Stats:          stats,
	}, nil
}

func (p *Pipeline) summarize(ctx context.Context, log *zap.Logger, report *model.Report) {
	if !p.summarizer.IsEnabled() {
		return
	}
	summary, err := p.summarizer.GenerateSummary(ctx, *report)
	if err != nil {
		log.Warn("LLM summary generation failed", zap.Error(err))
		return
	}
	report.LLM = summary
}

// Outputs names the report files to write; empty paths are skipped
type Outputs struct {
	JSON     string
	Markdown string
	HTML     string
}

// RenderReport writes the requested files and prints the terminal summary to w
func (p *Pipeline) RenderReport(report *model.Report, out Outputs, w io.Writer) error {
	if out.JSON != "" {
		if err := p.renderer.RenderJSON(report, out.JSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.logger.Info("Wrote JSON", zap.String("path", out.JSON))
	}

	if out.Markdown != "" {
		if err := p.renderer.RenderMarkdown(report, out.Markdown); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		p.logger.Info("Wrote Markdown", zap.String("path", out.Markdown))

		// LLM narrative goes to its own file next to the report
		if report.LLM != nil && report.LLM.Enabled {
			llmPath := strings.TrimSuffix(out.Markdown, ".md") + ".llm.md"
			if err := p.renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), llmPath); err != nil {
				p.logger.Warn("Failed to write LLM summary", zap.String("path", llmPath), zap.Error(err))
			} else {
				p.logger.Info("Wrote LLM summary", zap.String("path", llmPath))
			}
		}
	}

	if out.HTML != "" {
		if err := p.renderer.RenderHTML(report, out.HTML); err != nil {
			return fmt.Errorf("render HTML: %w", err)
		}
		p.logger.Info("Wrote HTML", zap.String("path", out.HTML))
	}

	if w != nil {
		p.renderer.RenderSummary(w, report)
	}
	return nil
}
