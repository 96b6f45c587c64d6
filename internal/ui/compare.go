package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/ppiankov/symmetry/internal/model"
)

const (
	compareFocusLeft = iota
	compareFocusLeftLang
	compareFocusRight
	compareFocusRightLang
	compareFields
)

type compareView struct {
	left      textarea.Model
	right     textarea.Model
	leftLang  textinput.Model
	rightLang textinput.Model
	focus     int
	req       request

	cancel   context.CancelFunc
	canceled bool

	sourceURL string
	result    *model.ComparisonResult
}

func newTextArea(placeholder string) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetHeight(8)
	ta.SetWidth(40)
	return ta
}

func newLangInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "Language: "
	ti.CharLimit = 16
	ti.Width = 10
	return ti
}

func newCompareView() compareView {
	v := compareView{
		left:      newTextArea("Source article text"),
		right:     newTextArea("Article text to compare against"),
		leftLang:  newLangInput("en"),
		rightLang: newLangInput("fr"),
	}
	v.left.Focus()
	return v
}

func (v *compareView) setWidth(total int) {
	w := (total - 6) / 2
	if w < 20 {
		w = 20
	}
	v.left.SetWidth(w)
	v.right.SetWidth(w)
}

func (v *compareView) setFocus(i int) tea.Cmd {
	v.focus = i % compareFields
	v.left.Blur()
	v.right.Blur()
	v.leftLang.Blur()
	v.rightLang.Blur()

	switch v.focus {
	case compareFocusLeft:
		return v.left.Focus()
	case compareFocusLeftLang:
		return v.leftLang.Focus()
	case compareFocusRight:
		return v.right.Focus()
	default:
		return v.rightLang.Focus()
	}
}

func (v *compareView) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch v.focus {
	case compareFocusLeft:
		v.left, cmd = v.left.Update(msg)
	case compareFocusLeftLang:
		v.leftLang, cmd = v.leftLang.Update(msg)
	case compareFocusRight:
		v.right, cmd = v.right.Update(msg)
	default:
		v.rightLang, cmd = v.rightLang.Update(msg)
	}
	return cmd
}

// fill loads a handoff into the form
func (v *compareView) fill(h model.Handoff) {
	v.left.SetValue(h.SourceText)
	v.right.SetValue(h.TranslatedText)
	v.leftLang.SetValue(model.LanguageFromURL(h.SourceURL))
	v.rightLang.SetValue(h.TargetLanguage)
	v.sourceURL = h.SourceURL
	v.result = nil
	v.req.status = ""
	v.req.isError = false
}

// release drops the per-submission cancel func
func (v *compareView) release() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// arrive consumes any payload left for the compare view
func (m *Model) arrive() tea.Cmd {
	h, ok := m.nav.Take()
	if !ok {
		return nil
	}
	m.compare.fill(h)
	m.log.Debug("Comparison handoff received", zap.String("url", h.SourceURL), zap.String("language", h.TargetLanguage))
	return m.compare.setFocus(compareFocusLeft)
}

func (m Model) handleCompareKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := &m.compare

	switch msg.String() {
	case "tab":
		cmd := v.setFocus(v.focus + 1)
		return m, cmd
	case "shift+tab":
		cmd := v.setFocus(v.focus + compareFields - 1)
		return m, cmd
	case "ctrl+r":
		if v.req.loading {
			return m, nil
		}
		return m.submitCompare()
	case "esc":
		if v.req.loading && !v.canceled {
			v.canceled = true
			m.log.Info("Comparison canceled by user")
			if v.cancel != nil {
				v.cancel()
			}
		}
		return m, nil
	}
	cmd := v.updateInputs(msg)
	return m, cmd
}

func (m Model) submitCompare() (tea.Model, tea.Cmd) {
	v := &m.compare
	textA := strings.TrimSpace(v.left.Value())
	textB := strings.TrimSpace(v.right.Value())
	langA := strings.ToLower(strings.TrimSpace(v.leftLang.Value()))
	langB := strings.ToLower(strings.TrimSpace(v.rightLang.Value()))

	if textA == "" || textB == "" {
		v.req.fail("Both texts are required.")
		return m, nil
	}
	if langA == "" || langB == "" {
		v.req.fail("Both languages are required.")
		return m, nil
	}

	v.release()
	ctx, cancel := context.WithCancel(m.ctx)
	v.cancel = cancel
	v.canceled = false
	v.result = nil
	seq := v.req.begin()

	return m, tea.Batch(
		compareCmd(ctx, m.backend, seq, textA, textB, langA, langB),
		elapsedTickCmd(ViewCompare, seq),
	)
}

func (m Model) handleCompared(msg comparedMsg) (tea.Model, tea.Cmd) {
	v := &m.compare
	if msg.seq != v.req.seq {
		return m, nil
	}

	canceled := v.canceled
	v.canceled = false
	v.release()

	err := msg.err
	if canceled {
		// a response that raced the cancel is discarded
		err = context.Canceled
	}

	switch {
	case isCanceled(err):
		v.req.succeed(ErrorMessage(OpComparison, err, m.backend.BaseURL()))
	case err != nil:
		v.req.fail(ErrorMessage(OpComparison, err, m.backend.BaseURL()))
	default:
		v.result = msg.result
		v.req.succeed("")
	}
	return m, nil
}
