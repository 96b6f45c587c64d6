// Package llm produces an optional narrative of the gaps a comparison found.
// The narrative never changes the comparison itself.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/symmetry/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize narrates the gaps of a report
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report holds the comparison to narrate
	Report model.Report

	// References is the allowlist of sentence references ("L3", "R1") the
	// model may cite. In strict mode any other reference rejects the summary.
	References []string

	// Prompt overrides the generated prompt when set
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	Summary string

	// CitedReferences are the references the model actually used
	CitedReferences []string

	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", or "" (disabled)
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// StrictReferences rejects summaries citing sentences outside the flagged lists
	StrictReferences bool

	MaxTokens int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:          60,
		StrictReferences: true,
		MaxTokens:        800,
	}
}

const systemPrompt = "You explain differences between two versions of an encyclopedia article. You only describe what the flagged sentences say and cite them by reference."

// maxPromptSentences caps each flagged list in the prompt
const maxPromptSentences = 40

// BuildPrompt constructs the gap narration prompt. Sentences the source
// article alone carries are labelled [L<n>], sentences only the comparison
// article carries are labelled [R<n>], n being the 1-based sentence number.
func BuildPrompt(report model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Two versions of the article "%s" were compared sentence by sentence.
Source language: %s. Compared language: %s.
Sentences compared: %d (source) and %d (comparison).

RULES:
1. Cite sentences ONLY with the references listed below, written exactly as [L<n>] or [R<n>].
2. DO NOT cite any other sentence number and DO NOT invent content.
3. Describe what information is missing or extra; do not judge which version is correct.
4. If there are no flagged sentences, say the versions are consistent.

`, report.Subject, report.SourceLanguage, report.TargetLanguage,
		len(report.Comparison.LeftArticleArray), len(report.Comparison.RightArticleArray))

	writeSection(&b, "Only in the source article (extra information)", "L", report.Comparison.ExtraInformation())
	writeSection(&b, "Only in the compared article (missing information)", "R", report.Comparison.MissingInformation())

	b.WriteString("\nWrite 3-5 sentences grouping the gaps by topic.")
	return b.String()
}

func writeSection(b *strings.Builder, title, side string, sentences []model.FlaggedSentence) {
	fmt.Fprintf(b, "%s:\n", title)
	if len(sentences) == 0 {
		b.WriteString("(none)\n\n")
		return
	}
	for i, s := range sentences {
		if i >= maxPromptSentences {
			fmt.Fprintf(b, "... and %d more\n", len(sentences)-maxPromptSentences)
			break
		}
		fmt.Fprintf(b, "[%s%d] %s\n", side, s.Number, s.Text)
	}
	b.WriteString("\n")
}

// AllowedReferences lists the references a summary of c may cite
func AllowedReferences(c model.ComparisonResult) []string {
	var refs []string
	for _, s := range c.ExtraInformation() {
		refs = append(refs, fmt.Sprintf("L%d", s.Number))
	}
	for _, s := range c.MissingInformation() {
		refs = append(refs, fmt.Sprintf("R%d", s.Number))
	}
	return refs
}

var referencePattern = regexp.MustCompile(`\[\s*([LRlr])\s*(\d+)\s*\]`)

// extractReferences returns the distinct references cited in text, in order
func extractReferences(text string) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, m := range referencePattern.FindAllStringSubmatch(text, -1) {
		ref := strings.ToUpper(m[1]) + strings.TrimLeft(m[2], "0")
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	return refs
}

// checkReferences fails on the first cited reference not in allowed
func checkReferences(cited, allowed []string) error {
	ok := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		ok[a] = true
	}
	for _, c := range cited {
		if !ok[c] {
			return fmt.Errorf("reference leak: summary cites [%s], which is not a flagged sentence", c)
		}
	}
	return nil
}

// finishSummary applies strict reference checking to a raw model answer
func finishSummary(cfg Config, req SummarizeRequest, summary string) ([]string, error) {
	cited := extractReferences(summary)
	if cfg.StrictReferences {
		if err := checkReferences(cited, req.References); err != nil {
			return nil, err
		}
	}
	return cited, nil
}
