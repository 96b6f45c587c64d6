package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/symmetry/internal/model"
)

// Labels shared by every rendering of a comparison
const (
	LabelMissing   = "Missing Information"
	LabelExtra     = "Extra Information"
	NoDifferences  = "No significant differences found."
	summaryDivider = "═══════════════════════════════════════════════════════════"
)

// Renderer writes reports as JSON, Markdown, HTML and a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// RenderLLMMarkdown writes an already rendered LLM summary
func (r *Renderer) RenderLLMMarkdown(markdown, path string) error {
	if markdown == "" {
		return nil
	}
	return writeFile(path, []byte(markdown))
}

// RenderHTML writes the report as a standalone HTML page
func (r *Renderer) RenderHTML(report *model.Report, path string) error {
	data, err := r.HTML(report)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// Markdown renders the report as Markdown
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Symmetry Report: %s\n\n", title(report))
	if report.SourceURL != "" {
		fmt.Fprintf(&b, "- **Source:** %s\n", report.SourceURL)
	}
	fmt.Fprintf(&b, "- **Languages:** %s → %s\n", report.SourceLanguage, report.TargetLanguage)
	if !report.ComparedAt.IsZero() {
		fmt.Fprintf(&b, "- **Compared:** %s\n", report.ComparedAt.Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintf(&b, "- **Sentences:** %d (%s) / %d (%s)\n",
		report.Stats.LeftSentences, report.SourceLanguage, report.Stats.RightSentences, report.TargetLanguage)
	fmt.Fprintf(&b, "- **Symmetry:** %.1f%%\n\n", report.Stats.Symmetry*100)

	if !report.Comparison.HasDifferences() {
		b.WriteString(NoDifferences + "\n")
	} else {
		writeMarkdownSection(&b, LabelMissing,
			fmt.Sprintf("Sentences in the %s article with no counterpart in the %s article.", report.TargetLanguage, report.SourceLanguage),
			report.Comparison.MissingInformation())
		writeMarkdownSection(&b, LabelExtra,
			fmt.Sprintf("Sentences in the %s article with no counterpart in the %s article.", report.SourceLanguage, report.TargetLanguage),
			report.Comparison.ExtraInformation())
	}

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString("_Generated by symmetry. Flagged sentences come from the comparison backend; ")
		b.WriteString("they show differing coverage, not which version is correct._\n")
	}
	return b.String()
}

func writeMarkdownSection(b *strings.Builder, label, caption string, sentences []model.FlaggedSentence) {
	if len(sentences) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n%s\n\n", label, caption)
	for _, s := range sentences {
		fmt.Fprintf(b, "- **Sentence %d:** %s\n", s.Number, s.Text)
	}
	b.WriteString("\n")
}

// HTML renders the report as a standalone HTML document
func (r *Renderer) HTML(report *model.Report) ([]byte, error) {
	heading := "Symmetry Report: " + title(report)

	body := element(atom.Body, nil,
		element(atom.H1, nil, text(heading)),
		metaList(report),
	)

	if !report.Comparison.HasDifferences() {
		body.AppendChild(element(atom.P, attrs("class", "empty"), text(NoDifferences)))
	} else {
		for _, sec := range []struct {
			label, class string
			sentences    []model.FlaggedSentence
		}{
			{LabelMissing, "missing", report.Comparison.MissingInformation()},
			{LabelExtra, "extra", report.Comparison.ExtraInformation()},
		} {
			// a side with nothing flagged gets no section
			if len(sec.sentences) > 0 {
				body.AppendChild(htmlSection(sec.label, sec.class, sec.sentences))
			}
		}
	}

	if report.LLM != nil && report.LLM.Enabled && report.LLM.SummaryMD != "" {
		body.AppendChild(element(atom.Section, attrs("class", "llm"),
			element(atom.H2, nil, text("LLM Summary (generated)")),
			element(atom.Pre, nil, text(report.LLM.SummaryMD)),
		))
	}

	if r.includeFooter {
		body.AppendChild(element(atom.Footer, nil,
			text("Generated by symmetry. Flagged sentences show differing coverage, not which version is correct.")))
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(element(atom.Html, attrs("lang", report.SourceLanguage),
		element(atom.Head, nil,
			element(atom.Meta, attrs("charset", "utf-8")),
			element(atom.Title, nil, text(heading)),
			element(atom.Style, nil, text(pageStyle)),
		),
		body,
	))

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

const pageStyle = `body{font-family:sans-serif;max-width:60em;margin:2em auto}` +
	`.missing li{border-left:4px solid #d9822b;padding-left:.5em}` +
	`.extra li{border-left:4px solid #2b7bd9;padding-left:.5em}` +
	`.num{font-weight:bold;margin-right:.5em}`

func metaList(report *model.Report) *html.Node {
	ul := element(atom.Ul, attrs("class", "meta"))
	if report.SourceURL != "" {
		ul.AppendChild(element(atom.Li, nil,
			text("Source: "),
			element(atom.A, attrs("href", report.SourceURL), text(report.SourceURL)),
		))
	}
	ul.AppendChild(element(atom.Li, nil, text(fmt.Sprintf("Languages: %s → %s", report.SourceLanguage, report.TargetLanguage))))
	ul.AppendChild(element(atom.Li, nil, text(fmt.Sprintf("Symmetry: %.1f%%", report.Stats.Symmetry*100))))
	return ul
}

func htmlSection(label, class string, sentences []model.FlaggedSentence) *html.Node {
	section := element(atom.Section, attrs("class", class), element(atom.H2, nil, text(label)))
	list := element(atom.Ul, nil)
	for _, s := range sentences {
		list.AppendChild(element(atom.Li, attrs("data-sentence", fmt.Sprint(s.Number)),
			element(atom.Span, attrs("class", "num"), text(fmt.Sprintf("Sentence %d", s.Number))),
			text(s.Text),
		))
	}
	section.AppendChild(list)
	return section
}

func element(a atom.Atom, attr []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attr}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attrs(kv ...string) []html.Attribute {
	out := make([]html.Attribute, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return out
}

// RenderSummary prints a short terminal summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	_, _ = fmt.Fprintln(w, summaryDivider)
	_, _ = fmt.Fprintf(w, "  %s (%s → %s)\n", title(report), report.SourceLanguage, report.TargetLanguage)
	_, _ = fmt.Fprintln(w, summaryDivider)
	_, _ = fmt.Fprintf(w, "  Sentences:   %d / %d\n", report.Stats.LeftSentences, report.Stats.RightSentences)
	_, _ = fmt.Fprintf(w, "  Symmetry:    %.1f%%\n", report.Stats.Symmetry*100)

	if !report.Comparison.HasDifferences() {
		_, _ = fmt.Fprintf(w, "\n  %s\n", NoDifferences)
	} else {
		_, _ = fmt.Fprintf(w, "  %s: %d\n", LabelMissing, report.Stats.MissingInformation)
		_, _ = fmt.Fprintf(w, "  %s:   %d\n", LabelExtra, report.Stats.ExtraInformation)
	}

	if report.LLM != nil {
		for _, warning := range report.LLM.Warnings {
			_, _ = fmt.Fprintf(w, "  ⚠ %s\n", warning)
		}
	}
	_, _ = fmt.Fprintln(w, summaryDivider)
}

func title(report *model.Report) string {
	if report.Subject != "" {
		return report.Subject
	}
	return "untitled comparison"
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
