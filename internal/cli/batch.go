package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/symmetry/internal/pipeline"
	"github.com/ppiankov/symmetry/internal/worker"
)

var (
	concurrency   int
	outputDir     string
	batchTimeout  time.Duration
	batchLanguage string
	batchHTML     bool
	batchExplain  bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Compare many articles from a file in parallel",
	Long: `Batch compares every Wikipedia URL in a file against one language:
- Read URLs from input file (one per line, '#' comments allowed)
- Fetch, translate and compare each article with a pool of workers
- Retry transient backend failures (5xx, 429, network) with backoff
- Write a JSON and Markdown report (and optionally HTML) per article

Example:
  symmetry batch urls.txt --language fr
  symmetry batch urls.txt -l de --concurrency 4 --output-dir ./reports --html`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchLanguage, "language", "l", "", "target language every article is compared against")
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: settings, then NumCPU)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./symmetry-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchHTML, "html", false, "also write an HTML report per article")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown and HTML reports")
	batchCmd.Flags().BoolVar(&batchExplain, "explain", false, "ask the configured LLM to narrate each comparison")
	addBackendFlags(batchCmd)

	_ = batchCmd.MarkFlagRequired("language")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()
	ctx, stop := signalContext(ctx)
	defer stop()

	workers := concurrency
	if workers <= 0 {
		workers = settings.Concurrency.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if noFooter {
		settings.Output.IncludeFooter = false
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Symmetry Batch Comparison\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Language:     %s\n", batchLanguage)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)

	h := newHost()
	client, cleanup, err := resolveClient(ctx, cmd, h)
	defer cleanup()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "  Backend:      %s\n", client.BaseURL())

	summarizer, err := newSummarizer(ctx, h, batchExplain)
	if err != nil {
		return err
	}
	if summarizer.IsEnabled() {
		fmt.Fprintf(os.Stderr, "  LLM:          %s\n", summarizer.ProviderName())
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p := newPipeline(client, batchLanguage, summarizer)

	urls, err := worker.ReadURLsFromFile(file)
	if err != nil {
		return fmt.Errorf("read URLs: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d URLs\n\n", len(urls))

	processor := worker.NewBatchProcessor(p, workers).OnProgress(func(done, total int, r *worker.CompareResult) {
		if r.Error != nil {
			fmt.Fprintf(os.Stderr, "[%d/%d] ✗ %s: %s\n", done, total, r.URL, userError(operationFor(r.Error), r.Error, client.BaseURL()))
			return
		}
		fmt.Fprintf(os.Stderr, "[%d/%d] ✓ %s\n", done, total, r.URL)
	})
	results := processor.ProcessURLs(ctx, urls)

	successCount, failureCount := 0, 0
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			continue
		}

		base := filepath.Join(outputDir, reportBaseName(result.Report.Subject, result.Report.SourceLanguage, result.Report.TargetLanguage))
		out := pipeline.Outputs{JSON: base + ".json", Markdown: base + ".md"}
		if batchHTML {
			out.HTML = base + ".html"
		}
		if err := p.RenderReport(result.Report, out, nil); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, err)
			continue
		}
		successCount++
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d URLs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if successCount == 0 && failureCount > 0 {
		return fmt.Errorf("all %d comparisons failed", failureCount)
	}
	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "_",
)

// reportBaseName builds "<subject>.<from>-<to>" safe for any filesystem
func reportBaseName(subject, from, to string) string {
	return sanitizeFilename(subject) + "." + sanitizeFilename(from) + "-" + sanitizeFilename(to)
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")
	if s == "" {
		s = "untitled"
	}

	// Limit length without splitting a multi-byte rune
	if len(s) > 100 {
		cut := 100
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
