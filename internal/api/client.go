// Package api is the typed client for the comparison backend's HTTP contract.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/symmetry/internal/cache"
	"github.com/ppiankov/symmetry/internal/logger"
	"github.com/ppiankov/symmetry/internal/model"
)

// Backend routes.
const (
	PathArticles  = "/symmetry/v1/wiki/articles"
	PathTranslate = "/symmetry/v1/wiki_translate/source_article"
	PathCompare   = "/symmetry/v1/articles/compare"
)

// ModelName is sent with every comparison; the backend picks its default model.
const ModelName = "default"

const maxResponseBytes = 64 << 20

// RateLimiter paces outgoing requests per host.
type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Client calls the backend at one base URL.
type Client struct {
	baseURL   string
	http      *http.Client
	logger    *zap.Logger
	articles  *cache.ArticleStore
	limiter   RateLimiter
	threshold *float64
	transport http.RoundTripper
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used by the request interceptor.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = logger.OrNop(l) }
}

// WithTransport sets the transport underneath the logging interceptor.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithArticleStore caches FetchArticle results by source URL.
func WithArticleStore(s *cache.ArticleStore) Option {
	return func(c *Client) { c.articles = s }
}

// WithRateLimiter paces requests.
func WithRateLimiter(l RateLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithThreshold sends an explicit comparison_threshold with every comparison.
func WithThreshold(t float64) Option {
	return func(c *Client) { c.threshold = &t }
}

// NewClient creates a client bound to baseURL with a fixed per-request timeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = &http.Client{
		Timeout:   timeout,
		Transport: newLoggingTransport(c.transport, c.logger, c.baseURL),
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchArticle asks the backend for the article at sourceURL.
func (c *Client) FetchArticle(ctx context.Context, sourceURL string) (*model.ArticleFetchResult, error) {
	if article, ok := c.articles.Get(ctx, sourceURL); ok {
		c.logger.Debug("article cache hit", zap.String("url", sourceURL))
		return article, nil
	}

	var out model.ArticleFetchResult
	if err := c.call(ctx, http.MethodGet, PathArticles, "query="+url.QueryEscape(sourceURL), nil, &out); err != nil {
		return nil, err
	}

	if err := c.articles.Put(ctx, sourceURL, &out); err != nil {
		c.logger.Warn("Failed to cache article", zap.String("url", sourceURL), zap.Error(err))
	}
	return &out, nil
}

// Probe issues an uncached article fetch; any 2xx answer means the backend is
// up. The payload is discarded.
func (c *Client) Probe(ctx context.Context, query string) error {
	return c.call(ctx, http.MethodGet, PathArticles, "query="+url.QueryEscape(query), nil, nil)
}

// TranslateArticle asks for the article title translated into language. The
// title is sent unencoded apart from bytes a URL cannot carry; the language
// is fully query-escaped.
func (c *Client) TranslateArticle(ctx context.Context, title, language string) (*model.TranslationResult, error) {
	query := "title=" + rawQueryValue(title) + "&language=" + url.QueryEscape(language)

	var out model.TranslationResult
	if err := c.call(ctx, http.MethodGet, PathTranslate, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type compareRequest struct {
	ArticleTextBlob1         string   `json:"article_text_blob_1"`
	ArticleTextBlob2         string   `json:"article_text_blob_2"`
	ArticleTextBlob1Language string   `json:"article_text_blob_1_language"`
	ArticleTextBlob2Language string   `json:"article_text_blob_2_language"`
	ModelName                string   `json:"model_name"`
	ComparisonThreshold      *float64 `json:"comparison_threshold,omitempty"`
}

type compareResponse struct {
	Comparisons []model.ComparisonResult `json:"comparisons"`
}

// CompareArticles compares two texts. Only the first comparison the backend
// returns is used.
func (c *Client) CompareArticles(ctx context.Context, textA, textB, languageA, languageB string) (*model.ComparisonResult, error) {
	body, err := json.Marshal(compareRequest{
		ArticleTextBlob1:         textA,
		ArticleTextBlob2:         textB,
		ArticleTextBlob1Language: languageA,
		ArticleTextBlob2Language: languageB,
		ModelName:                ModelName,
		ComparisonThreshold:      c.threshold,
	})
	if err != nil {
		return nil, Classify(fmt.Errorf("encode compare request: %w", err), 0)
	}

	var out compareResponse
	if err := c.call(ctx, http.MethodPost, PathCompare, "", body, &out); err != nil {
		return nil, err
	}

	if len(out.Comparisons) == 0 {
		return nil, &Error{Kind: KindUnknown, Message: "backend returned no comparisons"}
	}

	result := out.Comparisons[0]
	if err := result.Validate(); err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "invalid comparison: " + err.Error(), Err: err}
	}
	return &result, nil
}

// call performs one request; every failure comes back as *Error.
func (c *Client) call(ctx context.Context, method, path, rawQuery string, body []byte, out any) error {
	start := time.Now()
	if err := c.do(ctx, method, path, rawQuery, body, out); err != nil {
		return Classify(err, time.Since(start))
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, rawQuery string, body []byte, out any) error {
	target := c.baseURL + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, target); err != nil {
			return err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode, Body: data}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
