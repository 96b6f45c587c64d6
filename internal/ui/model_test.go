package ui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/symmetry/internal/api"
	"github.com/ppiankov/symmetry/internal/bridge"
	"github.com/ppiankov/symmetry/internal/config"
	"github.com/ppiankov/symmetry/internal/model"
)

type fakeBackend struct {
	mu       sync.Mutex
	probes   int
	probeErr error
	titles   []string

	compare func(ctx context.Context) (*model.ComparisonResult, error)
}

func (f *fakeBackend) BaseURL() string { return testBaseURL }

func (f *fakeBackend) Probe(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return f.probeErr
}

func (f *fakeBackend) FetchArticle(_ context.Context, sourceURL string) (*model.ArticleFetchResult, error) {
	return &model.ArticleFetchResult{SourceArticle: "Laksa is a spicy noodle soup.", ArticleLanguages: []string{"en", "fr"}}, nil
}

func (f *fakeBackend) TranslateArticle(_ context.Context, title, language string) (*model.TranslationResult, error) {
	f.mu.Lock()
	f.titles = append(f.titles, title)
	f.mu.Unlock()
	return &model.TranslationResult{TranslatedArticle: "Le laksa est une soupe."}, nil
}

func (f *fakeBackend) CompareArticles(ctx context.Context, _, _, _, _ string) (*model.ComparisonResult, error) {
	if f.compare != nil {
		return f.compare(ctx)
	}
	return &model.ComparisonResult{LeftArticleArray: []string{"a"}, RightArticleArray: []string{"b"}}, nil
}

type fakeBridge struct {
	mu     sync.Mutex
	starts int
	result model.StartResult
}

func (f *fakeBridge) GetAppConfig(context.Context) (*config.AppConfig, error) {
	return nil, errors.New("not used")
}

func (f *fakeBridge) StartBackend(context.Context) model.StartResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.result
}

var _ bridge.Bridge = (*fakeBridge)(nil)
var _ Backend = (*api.Client)(nil)

func newTestModel(b *fakeBackend, br *fakeBridge) Model {
	return New(context.Background(), b, br, Options{
		PollInterval:   time.Hour,
		RestartDelay:   time.Millisecond,
		TargetLanguage: "fr",
	})
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

// await runs cmd, fanning out batches, and returns the first message of type T
func await[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	require.NotNil(t, cmd)

	ch := make(chan tea.Msg, 16)
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		go func() {
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, sub := range batch {
					if sub != nil {
						run(sub)
					}
				}
				return
			}
			ch <- msg
		}()
	}
	run(cmd)

	timeout := time.After(3 * time.Second)
	for {
		select {
		case msg := <-ch:
			if v, ok := msg.(T); ok {
				return v
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestInit_ProbesImmediately(t *testing.T) {
	b := &fakeBackend{probeErr: errors.New("connection refused")}
	m := newTestModel(b, &fakeBridge{})

	msg := await[probeResultMsg](t, m.Init())
	m, _ = update(t, m, msg)

	assert.Equal(t, 1, b.probes)
	assert.False(t, m.Online())
	assert.Contains(t, m.View(), "backend offline")
}

func TestPollTick_ProbesAndReschedules(t *testing.T) {
	b := &fakeBackend{}
	m := newTestModel(b, &fakeBridge{})

	_, cmd := update(t, m, pollTickMsg{})
	msg := await[probeResultMsg](t, cmd)
	assert.NoError(t, msg.err)

	m, _ = update(t, m, msg)
	assert.True(t, m.Online())
}

func TestStartBackend_OfflineThenRepoll(t *testing.T) {
	b := &fakeBackend{probeErr: errors.New("down")}
	br := &fakeBridge{result: model.StartResult{Success: true}}
	m := newTestModel(b, br)
	m, _ = update(t, m, probeResultMsg{err: b.probeErr})

	m, cmd := update(t, m, key(tea.KeyCtrlS))
	assert.True(t, m.live.starting)

	// a second press while the request is outstanding is ignored
	_, again := update(t, m, key(tea.KeyCtrlS))
	assert.Nil(t, again)

	started := await[startBackendMsg](t, cmd)
	assert.Equal(t, 1, br.starts)

	m, cmd = update(t, m, started)
	assert.False(t, m.live.starting)

	repoll := await[repollMsg](t, cmd)
	b.mu.Lock()
	b.probeErr = nil
	b.mu.Unlock()

	_, cmd = update(t, m, repoll)
	probe := await[probeResultMsg](t, cmd)
	m, _ = update(t, m, probe)
	assert.True(t, m.Online())
	assert.Empty(t, m.live.notice)
}

func TestStartBackend_FailureShown(t *testing.T) {
	br := &fakeBridge{result: model.StartResult{Success: false, Error: "spawn backend: no such file"}}
	m := newTestModel(&fakeBackend{}, br)
	m, _ = update(t, m, probeResultMsg{err: errors.New("down")})

	m, cmd := update(t, m, key(tea.KeyCtrlS))
	m, _ = update(t, m, await[startBackendMsg](t, cmd))

	assert.True(t, m.live.isError)
	assert.Contains(t, m.View(), "Backend start failed: spawn backend: no such file")
}

func TestStartBackend_IgnoredWhenOnline(t *testing.T) {
	br := &fakeBridge{}
	m := newTestModel(&fakeBackend{}, br)
	m, _ = update(t, m, probeResultMsg{})

	_, cmd := update(t, m, key(tea.KeyCtrlS))
	assert.Nil(t, cmd)
	assert.Zero(t, br.starts)
}

func TestStartBackend_IgnoredBeforeFirstProbe(t *testing.T) {
	br := &fakeBridge{}
	m := newTestModel(&fakeBackend{}, br)
	require.False(t, m.live.checked)

	m, cmd := update(t, m, key(tea.KeyCtrlS))
	assert.Nil(t, cmd)
	assert.False(t, m.live.starting)
	assert.Zero(t, br.starts)
}

func TestArticleFlow_HandoffToCompare(t *testing.T) {
	b := &fakeBackend{}
	m := newTestModel(b, &fakeBridge{})
	m.article.url.SetValue("https://en.wikipedia.org/wiki/Penang_laksa")

	m, cmd := update(t, m, key(tea.KeyEnter))
	assert.True(t, m.article.req.loading)

	// submit is disabled while loading
	_, dup := update(t, m, key(tea.KeyEnter))
	assert.Nil(t, dup)

	m, _ = update(t, m, await[articleFetchedMsg](t, cmd))
	require.NotNil(t, m.article.article)
	assert.Equal(t, articleFocusLanguage, m.article.focus)

	m, cmd = update(t, m, key(tea.KeyEnter))
	m, _ = update(t, m, await[translatedMsg](t, cmd))
	require.NotNil(t, m.article.translation)
	assert.Equal(t, []string{"Penang laksa"}, b.titles)

	m, _ = update(t, m, key(tea.KeyCtrlN))
	assert.Equal(t, ViewCompare, m.nav.Current())
	assert.Equal(t, "Laksa is a spicy noodle soup.", m.compare.left.Value())
	assert.Equal(t, "Le laksa est une soupe.", m.compare.right.Value())
	assert.Equal(t, "en", m.compare.leftLang.Value())
	assert.Equal(t, "fr", m.compare.rightLang.Value())

	_, ok := m.nav.Take()
	assert.False(t, ok, "payload consumed on arrival")
}

func TestArticleFlow_HandoffRequiresTranslation(t *testing.T) {
	m := newTestModel(&fakeBackend{}, &fakeBridge{})

	m, _ = update(t, m, key(tea.KeyCtrlN))
	assert.Equal(t, ViewArticle, m.nav.Current())
	assert.True(t, m.article.req.isError)
}

func compareReady(t *testing.T, b *fakeBackend) Model {
	t.Helper()
	m := newTestModel(b, &fakeBridge{})
	m.nav.NavigateWithPayload(ViewCompare, model.Handoff{
		SourceText:     "Laksa is a soup.",
		TranslatedText: "Le laksa est une soupe.",
		SourceURL:      "https://en.wikipedia.org/wiki/Laksa",
		TargetLanguage: "fr",
	})
	m.arrive()
	return m
}

func TestCompare_Success(t *testing.T) {
	m := compareReady(t, &fakeBackend{})

	m, cmd := update(t, m, key(tea.KeyCtrlR))
	m, _ = update(t, m, await[comparedMsg](t, cmd))

	require.NotNil(t, m.compare.result)
	assert.False(t, m.compare.req.loading)
	assert.Contains(t, m.View(), "No significant differences found.")
}

func TestCompare_CancelLeavesResultUnset(t *testing.T) {
	b := &fakeBackend{
		compare: func(ctx context.Context) (*model.ComparisonResult, error) {
			<-ctx.Done()
			return nil, api.Classify(ctx.Err(), 0)
		},
	}
	m := compareReady(t, b)
	m.compare.result = &model.ComparisonResult{LeftArticleArray: []string{"earlier pair"}}

	m, cmd := update(t, m, key(tea.KeyCtrlR))
	require.True(t, m.compare.req.loading)
	assert.Nil(t, m.compare.result, "a new submit discards the earlier result")

	m, _ = update(t, m, key(tea.KeyEsc))
	done := await[comparedMsg](t, cmd)
	m, _ = update(t, m, done)

	assert.Equal(t, "Comparison stopped by user.", m.compare.req.status)
	assert.False(t, m.compare.req.isError, "cancellation is not a failure")
	assert.False(t, m.compare.req.loading)
	assert.Nil(t, m.compare.result)
	assert.Nil(t, m.compare.cancel)
}

func TestCompare_FailedSubmitDropsEarlierResult(t *testing.T) {
	b := &fakeBackend{
		compare: func(context.Context) (*model.ComparisonResult, error) {
			return nil, &api.Error{Kind: api.KindHTTP, Status: 500, Detail: "boom"}
		},
	}
	m := compareReady(t, b)
	m.compare.result = &model.ComparisonResult{RightArticleArray: []string{"stale"}}

	m, cmd := update(t, m, key(tea.KeyCtrlR))
	m, _ = update(t, m, await[comparedMsg](t, cmd))

	assert.True(t, m.compare.req.isError)
	assert.Nil(t, m.compare.result)
	assert.NotContains(t, m.View(), "stale")
}

func TestCompare_ResponseRacingCancelIsDiscarded(t *testing.T) {
	m := compareReady(t, &fakeBackend{})

	m, cmd := update(t, m, key(tea.KeyCtrlR))
	m, _ = update(t, m, key(tea.KeyEsc))
	m, _ = update(t, m, await[comparedMsg](t, cmd))

	assert.Nil(t, m.compare.result)
	assert.Equal(t, "Comparison stopped by user.", m.compare.req.status)
}

func TestCompare_NotFoundMessage(t *testing.T) {
	b := &fakeBackend{
		compare: func(context.Context) (*model.ComparisonResult, error) {
			return nil, &api.Error{Kind: api.KindHTTP, Status: 404}
		},
	}
	m := compareReady(t, b)

	m, cmd := update(t, m, key(tea.KeyCtrlR))
	m, _ = update(t, m, await[comparedMsg](t, cmd))

	assert.True(t, m.compare.req.isError)
	assert.Contains(t, m.compare.req.status, "Comparison endpoint not found (404).")
}

func TestCompare_RequiresTexts(t *testing.T) {
	m := newTestModel(&fakeBackend{}, &fakeBridge{})
	m.nav.Navigate(ViewCompare)

	m, cmd := update(t, m, key(tea.KeyCtrlR))
	assert.Nil(t, cmd)
	assert.Equal(t, "Both texts are required.", m.compare.req.status)
}

func TestElapsedCounter(t *testing.T) {
	m := compareReady(t, &fakeBackend{
		compare: func(ctx context.Context) (*model.ComparisonResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})

	m, _ = update(t, m, key(tea.KeyCtrlR))
	seq := m.compare.req.seq

	m, cmd := update(t, m, elapsedTickMsg{view: ViewCompare, seq: seq})
	assert.Equal(t, 1, m.compare.req.elapsed)
	assert.NotNil(t, cmd, "ticks continue while loading")

	m, cmd = update(t, m, elapsedTickMsg{view: ViewCompare, seq: seq - 1})
	assert.Equal(t, 1, m.compare.req.elapsed, "stale tick ignored")
	assert.Nil(t, cmd)

	m, _ = update(t, m, comparedMsg{seq: seq, err: &api.Error{Kind: api.KindUnknown, Message: "x"}})
	assert.Zero(t, m.compare.req.elapsed)

	_, cmd = update(t, m, elapsedTickMsg{view: ViewCompare, seq: seq})
	assert.Nil(t, cmd, "no ticks once idle")
	m.compare.release()
}

func TestToggleView(t *testing.T) {
	m := newTestModel(&fakeBackend{}, &fakeBridge{})

	m, _ = update(t, m, key(tea.KeyCtrlT))
	assert.Equal(t, ViewCompare, m.nav.Current())
	assert.Contains(t, m.View(), "ctrl+r: compare")

	m, _ = update(t, m, key(tea.KeyCtrlT))
	assert.Equal(t, ViewArticle, m.nav.Current())
}
