package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ppiankov/symmetry/internal/bridge"
)

// probeCmd issues a lightweight article fetch; any answer means online
func probeCmd(ctx context.Context, b Backend, query string) tea.Cmd {
	return func() tea.Msg {
		return probeResultMsg{err: b.Probe(ctx, query)}
	}
}

func pollTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return pollTickMsg{} })
}

func repollCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return repollMsg{} })
}

func startBackendCmd(ctx context.Context, br bridge.Bridge) tea.Cmd {
	return func() tea.Msg {
		return startBackendMsg{result: br.StartBackend(ctx)}
	}
}

func elapsedTickCmd(v View, seq int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return elapsedTickMsg{view: v, seq: seq}
	})
}

func fetchArticleCmd(ctx context.Context, b Backend, seq int, sourceURL string) tea.Cmd {
	return func() tea.Msg {
		article, err := b.FetchArticle(ctx, sourceURL)
		return articleFetchedMsg{seq: seq, sourceURL: sourceURL, article: article, err: err}
	}
}

func translateCmd(ctx context.Context, b Backend, seq int, title, language string) tea.Cmd {
	return func() tea.Msg {
		result, err := b.TranslateArticle(ctx, title, language)
		return translatedMsg{seq: seq, language: language, result: result, err: err}
	}
}

func compareCmd(ctx context.Context, b Backend, seq int, textA, textB, languageA, languageB string) tea.Cmd {
	return func() tea.Msg {
		result, err := b.CompareArticles(ctx, textA, textB, languageA, languageB)
		return comparedMsg{seq: seq, result: result, err: err}
	}
}
