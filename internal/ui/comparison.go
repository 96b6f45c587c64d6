package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/symmetry/internal/model"
	"github.com/ppiankov/symmetry/internal/pipeline"
)

// ComparisonView renders flagged sentences. Right-side extras are listed as
// missing information, left-side extras as extra information, each with its
// 1-based sentence number.
func ComparisonView(c model.ComparisonResult) string {
	if !c.HasDifferences() {
		return InfoStyle.Render(pipeline.NoDifferences)
	}

	var sections []string
	if missing := c.MissingInformation(); len(missing) > 0 {
		sections = append(sections, sentenceList(MissingStyle, pipeline.LabelMissing, missing))
	}
	if extra := c.ExtraInformation(); len(extra) > 0 {
		sections = append(sections, sentenceList(ExtraStyle, pipeline.LabelExtra, extra))
	}
	return strings.Join(sections, "\n\n")
}

func sentenceList(heading lipgloss.Style, label string, sentences []model.FlaggedSentence) string {
	var b strings.Builder
	b.WriteString(heading.Render(label))
	for _, s := range sentences {
		fmt.Fprintf(&b, "\n  Sentence %d: %s", s.Number, s.Text)
	}
	return b.String()
}
