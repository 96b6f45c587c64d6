package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/ppiankov/symmetry/internal/model"
)

const (
	articleFocusURL = iota
	articleFocusLanguage
	articleFields
)

type articleView struct {
	url      textinput.Model
	language textinput.Model
	focus    int
	req      request
	op       Operation

	sourceURL   string
	article     *model.ArticleFetchResult
	translation *model.TranslationResult
	translated  string // language of translation
}

func newArticleView(targetLanguage string) articleView {
	url := textinput.New()
	url.Placeholder = "https://en.wikipedia.org/wiki/Laksa"
	url.Prompt = "URL:      "
	url.CharLimit = 2048
	url.Width = 60
	url.Focus()

	lang := textinput.New()
	lang.Placeholder = "fr"
	lang.Prompt = "Language: "
	lang.CharLimit = 16
	lang.Width = 10
	lang.SetValue(targetLanguage)

	return articleView{url: url, language: lang}
}

func (v *articleView) setFocus(i int) tea.Cmd {
	v.focus = i % articleFields
	v.url.Blur()
	v.language.Blur()
	if v.focus == articleFocusURL {
		return v.url.Focus()
	}
	return v.language.Focus()
}

func (v *articleView) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if v.focus == articleFocusURL {
		v.url, cmd = v.url.Update(msg)
	} else {
		v.language, cmd = v.language.Update(msg)
	}
	return cmd
}

// handoff builds the payload for the compare view; ok is false until both
// the article and its translation are loaded.
func (v *articleView) handoff() (model.Handoff, bool) {
	if v.article == nil || v.translation == nil {
		return model.Handoff{}, false
	}
	return model.Handoff{
		SourceText:     v.article.SourceArticle,
		TranslatedText: v.translation.TranslatedArticle,
		SourceURL:      v.sourceURL,
		TargetLanguage: v.translated,
	}, true
}

func (m Model) handleArticleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := &m.article

	switch msg.String() {
	case "tab":
		cmd := v.setFocus(v.focus + 1)
		return m, cmd
	case "shift+tab":
		cmd := v.setFocus(v.focus + articleFields - 1)
		return m, cmd
	case "enter":
		if v.req.loading {
			return m, nil
		}
		if v.focus == articleFocusURL {
			return m.submitFetch()
		}
		return m.submitTranslate()
	case "ctrl+n":
		h, ok := v.handoff()
		if !ok {
			v.req.fail("Fetch and translate an article before comparing.")
			return m, nil
		}
		m.nav.NavigateWithPayload(ViewCompare, h)
		cmd := m.arrive()
		return m, cmd
	}
	cmd := v.updateInputs(msg)
	return m, cmd
}

func (m Model) submitFetch() (tea.Model, tea.Cmd) {
	v := &m.article
	sourceURL := strings.TrimSpace(v.url.Value())
	if sourceURL == "" {
		v.req.fail("Enter an article URL.")
		return m, nil
	}

	seq := v.req.begin()
	v.op = OpArticleFetch
	v.article = nil
	v.translation = nil
	m.log.Debug("Fetching article", zap.String("url", sourceURL))

	return m, tea.Batch(
		fetchArticleCmd(m.ctx, m.backend, seq, sourceURL),
		elapsedTickCmd(ViewArticle, seq),
	)
}

func (m Model) submitTranslate() (tea.Model, tea.Cmd) {
	v := &m.article
	if v.article == nil {
		v.req.fail("Fetch an article first.")
		return m, nil
	}
	language := strings.ToLower(strings.TrimSpace(v.language.Value()))
	if language == "" {
		v.req.fail("Enter a target language code.")
		return m, nil
	}

	seq := v.req.begin()
	v.op = OpTranslation
	v.translation = nil
	title := model.SubjectFromURL(v.sourceURL)
	m.log.Debug("Translating article", zap.String("title", title), zap.String("language", language))

	return m, tea.Batch(
		translateCmd(m.ctx, m.backend, seq, title, language),
		elapsedTickCmd(ViewArticle, seq),
	)
}

func (m Model) handleArticleFetched(msg articleFetchedMsg) (tea.Model, tea.Cmd) {
	v := &m.article
	if msg.seq != v.req.seq {
		return m, nil
	}
	if msg.err != nil {
		v.req.fail(ErrorMessage(OpArticleFetch, msg.err, m.backend.BaseURL()))
		return m, nil
	}

	v.sourceURL = msg.sourceURL
	v.article = msg.article
	v.req.succeed("Article fetched. Enter a language and press enter to translate.")
	cmd := v.setFocus(articleFocusLanguage)
	return m, cmd
}

func (m Model) handleTranslated(msg translatedMsg) (tea.Model, tea.Cmd) {
	v := &m.article
	if msg.seq != v.req.seq {
		return m, nil
	}
	if msg.err != nil {
		v.req.fail(ErrorMessage(OpTranslation, msg.err, m.backend.BaseURL()))
		return m, nil
	}

	v.translation = msg.result
	v.translated = msg.language
	v.req.succeed("Translation ready. Press ctrl+n to compare.")
	return m, nil
}
