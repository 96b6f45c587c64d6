package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/symmetry/internal/logger"
	"github.com/ppiankov/symmetry/internal/model"
)

// Summarizer wraps an optional Provider. A failing provider degrades to a
// GapSummary carrying warnings; it never fails the comparison.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer builds the provider named by config. An empty provider name
// yields a disabled summarizer.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary narrates the gaps in report. It returns nil when disabled.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report) (*model.GapSummary, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	log := logger.Named("llm")
	summary := &model.GapSummary{
		Provider:         s.provider.Name(),
		Model:            s.config.Model,
		StrictReferences: s.config.StrictReferences,
	}

	if !s.provider.IsAvailable(ctx) {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("LLM provider %s is not available; skipping summary", summary.Provider))
		return summary, nil
	}
	summary.Enabled = true

	if !report.Comparison.HasDifferences() {
		summary.SummaryMD = "No asymmetric sentences were flagged; the two versions carry the same information."
		return summary, nil
	}

	refs := AllowedReferences(report.Comparison)
	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:     report,
		References: refs,
		Model:      s.config.Model,
		MaxTokens:  s.config.MaxTokens,
	})
	if err != nil {
		log.Warn("LLM summary failed", zap.String("provider", summary.Provider), zap.Error(err))
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("LLM summary failed: %v", err))
		return summary, nil
	}

	if resp.Model != "" {
		summary.Model = resp.Model
	}
	summary.SummaryMD = resp.Summary
	summary.Warnings = append(summary.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	if s.config.StrictReferences {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("Verified %d sentence citations against %d flagged sentences", len(resp.CitedReferences), len(refs)))
	}

	log.Debug("LLM summary generated",
		zap.String("provider", summary.Provider),
		zap.String("model", summary.Model),
		zap.Int("tokens", resp.TokensUsed),
	)
	return summary, nil
}

// RenderSeparateMarkdown renders the summary as its own document, kept apart
// from the comparison report.
func RenderSeparateMarkdown(summary *model.GapSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT.** This narrative was written by a language model from the flagged sentences only.\n")
	b.WriteString("> The comparison itself was determined independently by the backend and is not affected by it.\n\n")

	fmt.Fprintf(&b, "- **Provider:** %s\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", summary.Model)
	}
	fmt.Fprintf(&b, "- **Strict References:** %t\n\n", summary.StrictReferences)

	b.WriteString("## Summary\n\n")
	if strings.TrimSpace(summary.SummaryMD) == "" {
		b.WriteString("_No summary generated._\n")
	} else {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
