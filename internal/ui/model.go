// Package ui is the interactive terminal front end: an article view that
// fetches and translates, and a compare view that flags asymmetric sentences.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/ppiankov/symmetry/internal/bridge"
	"github.com/ppiankov/symmetry/internal/logger"
	"github.com/ppiankov/symmetry/internal/model"
)

// Backend is the backend surface the views call
type Backend interface {
	BaseURL() string
	Probe(ctx context.Context, query string) error
	FetchArticle(ctx context.Context, sourceURL string) (*model.ArticleFetchResult, error)
	TranslateArticle(ctx context.Context, title, language string) (*model.TranslationResult, error)
	CompareArticles(ctx context.Context, textA, textB, languageA, languageB string) (*model.ComparisonResult, error)
}

// Options tunes liveness polling and defaults
type Options struct {
	ProbeQuery     string
	PollInterval   time.Duration
	RestartDelay   time.Duration
	TargetLanguage string
	Logger         *zap.Logger
}

// DefaultOptions polls every 30s and re-polls 3s after a start request
func DefaultOptions() Options {
	return Options{
		ProbeQuery:   "https://en.wikipedia.org/wiki/Main_Page",
		PollInterval: 30 * time.Second,
		RestartDelay: 3 * time.Second,
	}
}

// liveness tracks whether the backend answered the last probe
type liveness struct {
	checked  bool
	online   bool
	starting bool
	notice   string
	isError  bool
}

// request is the idle -> loading -> success|error -> idle cycle of one view
type request struct {
	loading bool
	elapsed int
	seq     int
	status  string
	isError bool
}

func (r *request) begin() int {
	r.loading = true
	r.elapsed = 0
	r.seq++
	r.status = ""
	r.isError = false
	return r.seq
}

func (r *request) succeed(status string) {
	r.loading = false
	r.elapsed = 0
	r.status = status
	r.isError = false
}

func (r *request) fail(status string) {
	r.loading = false
	r.elapsed = 0
	r.status = status
	r.isError = true
}

// Model is the root tea.Model
type Model struct {
	ctx     context.Context
	backend Backend
	bridge  bridge.Bridge
	opts    Options
	log     *zap.Logger
	nav     *Navigator

	article articleView
	compare compareView
	live    liveness
	spinner spinner.Model

	width int
}

// New builds the UI. ctx bounds every backend call made from it.
func New(ctx context.Context, backend Backend, br bridge.Bridge, opts Options) Model {
	defaults := DefaultOptions()
	if opts.ProbeQuery == "" {
		opts.ProbeQuery = defaults.ProbeQuery
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaults.PollInterval
	}
	if opts.RestartDelay <= 0 {
		opts.RestartDelay = defaults.RestartDelay
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(colorPrimary))

	return Model{
		ctx:     ctx,
		backend: backend,
		bridge:  br,
		opts:    opts,
		log:     logger.OrNop(opts.Logger),
		nav:     NewNavigator(),
		article: newArticleView(opts.TargetLanguage),
		compare: newCompareView(),
		spinner: sp,
	}
}

// Init probes the backend immediately and starts the poll loop
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		probeCmd(m.ctx, m.backend, m.opts.ProbeQuery),
		pollTickCmd(m.opts.PollInterval),
	)
}

// Navigator exposes the navigation layer
func (m Model) Navigator() *Navigator {
	return m.nav
}

// Online reports the result of the last liveness probe
func (m Model) Online() bool {
	return m.live.online
}
