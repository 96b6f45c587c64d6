package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/symmetry/internal/logger"
	"github.com/ppiankov/symmetry/internal/model"
	"github.com/ppiankov/symmetry/internal/pipeline"
)

var (
	outJSON   string
	outMD     string
	outHTML   string
	compareTo string
	langA     string
	langB     string
	explain   bool
	noFooter  bool
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare (<url> --language xx | <fileA> <fileB> --lang-a xx --lang-b yy)",
	Short: "Compare two language versions of an article",
	Long: `Compare flags sentences that only one of two texts carries.

With one argument it is a Wikipedia URL: the article is fetched, the same
subject is fetched in --language and the two are compared. With two
arguments they are text files in --lang-a and --lang-b.

Ctrl-C stops a running comparison.

Example:
  symmetry compare https://en.wikipedia.org/wiki/Laksa --language fr
  symmetry compare en.txt fr.txt --lang-a en --lang-b fr --md report.md
  symmetry compare https://en.wikipedia.org/wiki/Laksa -l de --explain`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVarP(&compareTo, "language", "l", "", "target language when comparing a URL")
	compareCmd.Flags().StringVar(&langA, "lang-a", "", "language of the first file")
	compareCmd.Flags().StringVar(&langB, "lang-b", "", "language of the second file")

	compareCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	compareCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	compareCmd.Flags().StringVar(&outHTML, "html", "", "output HTML path")
	compareCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown and HTML reports")

	compareCmd.Flags().BoolVar(&explain, "explain", false, "ask the configured LLM to narrate the flagged sentences")
	addBackendFlags(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	if noFooter {
		settings.Output.IncludeFooter = false
	}

	h := newHost()
	client, cleanup, err := resolveClient(ctx, cmd, h)
	defer cleanup()
	if err != nil {
		return err
	}

	summarizer, err := newSummarizer(ctx, h, explain)
	if err != nil {
		return err
	}

	var report *model.Report
	if len(args) == 1 {
		if strings.TrimSpace(compareTo) == "" {
			return fmt.Errorf("--language is required when comparing a URL")
		}
		p := newPipeline(client, compareTo, summarizer)
		report, err = p.CompareURL(ctx, strings.TrimSpace(args[0]))
		if err != nil {
			return userError(operationFor(err), err, client.BaseURL())
		}
		return p.RenderReport(report, outputs(), os.Stdout)
	}

	textA, textB, err := readPair(args[0], args[1])
	if err != nil {
		return err
	}
	if strings.TrimSpace(textA) == "" || strings.TrimSpace(textB) == "" {
		return fmt.Errorf("both texts are required")
	}
	if strings.TrimSpace(langA) == "" || strings.TrimSpace(langB) == "" {
		return fmt.Errorf("both languages are required (--lang-a, --lang-b)")
	}

	p := newPipeline(client, langB, summarizer)
	subject := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	report, err = p.CompareTexts(ctx, subject, textA, textB, strings.TrimSpace(langA), strings.TrimSpace(langB))
	if err != nil {
		return userError(operationFor(err), err, client.BaseURL())
	}
	return p.RenderReport(report, outputs(), os.Stdout)
}

func outputs() pipeline.Outputs {
	return pipeline.Outputs{JSON: outJSON, Markdown: outMD, HTML: outHTML}
}

func readPair(pathA, pathB string) (string, string, error) {
	a, err := os.ReadFile(pathA)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", pathA, err)
	}
	b, err := os.ReadFile(pathB)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", pathB, err)
	}
	logger.L().Debug("Read comparison inputs",
		zap.String("a", pathA), zap.Int("a_bytes", len(a)),
		zap.String("b", pathB), zap.Int("b_bytes", len(b)))
	return string(a), string(b), nil
}
