package worker

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/ppiankov/symmetry/internal/model"
)

// Comparer runs the full fetch, translate and compare sequence for one article
type Comparer interface {
	CompareURL(ctx context.Context, sourceURL string) (*model.Report, error)
}

// CompareJob compares one article
type CompareJob struct {
	Index    int
	URL      string
	Comparer Comparer
}

// Execute executes the job
func (j *CompareJob) Execute(ctx context.Context) Result {
	report, err := j.Comparer.CompareURL(ctx, j.URL)
	return &CompareResult{
		Index:  j.Index,
		URL:    j.URL,
		Report: report,
		Error:  err,
	}
}

// CompareResult represents the result of a compare job
type CompareResult struct {
	Index  int
	URL    string
	Report *model.Report
	Error  error
}

// GetError returns the error from the result
func (r *CompareResult) GetError() error {
	return r.Error
}

// ProgressFunc is called after each job finishes
type ProgressFunc func(done, total int, result *CompareResult)

// BatchProcessor processes multiple URLs concurrently
type BatchProcessor struct {
	comparer    Comparer
	concurrency int
	progress    ProgressFunc
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(comparer Comparer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		comparer:    comparer,
		concurrency: concurrency,
	}
}

// OnProgress registers a progress callback. Calls are serialized.
func (b *BatchProcessor) OnProgress(fn ProgressFunc) *BatchProcessor {
	b.progress = fn
	return b
}

// ProcessURLs compares every URL and returns results in input order. URLs
// never submitted because ctx ended carry ctx's error.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*CompareResult {
	if len(urls) == 0 {
		return []*CompareResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	var (
		mu   sync.Mutex
		done int
	)
	out := make([]*CompareResult, len(urls))
	for i, u := range urls {
		job := &progressJob{
			CompareJob: CompareJob{Index: i, URL: u, Comparer: b.comparer},
			after: func(r *CompareResult) {
				if b.progress == nil {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				done++
				b.progress(done, len(urls), r)
			},
		}
		if !pool.Submit(job) {
			out[i] = &CompareResult{Index: i, URL: u, Error: ctxErr(ctx)}
		}
	}

	for _, r := range pool.Wait() {
		cr := r.(*CompareResult)
		out[cr.Index] = cr
	}
	for i, r := range out {
		if r == nil {
			out[i] = &CompareResult{Index: i, URL: urls[i], Error: ctxErr(ctx)}
		}
	}
	return out
}

// ProcessFile reads URLs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CompareResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

type progressJob struct {
	CompareJob
	after func(*CompareResult)
}

func (j *progressJob) Execute(ctx context.Context) Result {
	r := j.CompareJob.Execute(ctx).(*CompareResult)
	j.after(r)
	return r
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return context.Canceled
}

// ReadURLsFromFile reads article URLs from a file (one per line). Blank lines
// and '#' comments are skipped, duplicates dropped, and lines that are not
// absolute http(s) URLs rejected.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parsed, err := url.Parse(line)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, fmt.Errorf("line %d: not an http(s) URL: %q", lineNo, line)
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
