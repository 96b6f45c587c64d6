package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.compare.setWidth(msg.Width)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case probeResultMsg:
		return m.handleProbe(msg)
	case pollTickMsg:
		return m, tea.Batch(
			probeCmd(m.ctx, m.backend, m.opts.ProbeQuery),
			pollTickCmd(m.opts.PollInterval),
		)
	case repollMsg:
		return m, probeCmd(m.ctx, m.backend, m.opts.ProbeQuery)
	case startBackendMsg:
		return m.handleStartBackend(msg)
	case elapsedTickMsg:
		return m.handleElapsed(msg)
	case articleFetchedMsg:
		return m.handleArticleFetched(msg)
	case translatedMsg:
		return m.handleTranslated(msg)
	case comparedMsg:
		return m.handleCompared(msg)
	}

	if m.nav.Current() == ViewCompare {
		cmd := m.compare.updateInputs(msg)
		return m, cmd
	}
	cmd := m.article.updateInputs(msg)
	return m, cmd
}

// handleKey processes global keys before handing the rest to the active view
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.compare.release()
		return m, tea.Quit
	case "ctrl+t":
		if m.nav.Current() == ViewArticle {
			m.nav.Navigate(ViewCompare)
			cmd := m.arrive()
			return m, cmd
		}
		m.nav.Navigate(ViewArticle)
		return m, nil
	case "ctrl+s":
		return m.requestStart()
	}

	if m.nav.Current() == ViewCompare {
		return m.handleCompareKey(msg)
	}
	return m.handleArticleKey(msg)
}

func (m Model) handleProbe(msg probeResultMsg) (tea.Model, tea.Cmd) {
	wasOnline := m.live.online
	m.live.checked = true
	m.live.online = msg.err == nil

	if m.live.online != wasOnline {
		m.log.Info("Backend liveness changed", zap.Bool("online", m.live.online), zap.Error(msg.err))
	}
	if m.live.online {
		m.live.starting = false
		m.live.notice = ""
		m.live.isError = false
	}
	return m, nil
}

// requestStart asks the host to (re)start the backend, only once a probe has
// found it offline
func (m Model) requestStart() (tea.Model, tea.Cmd) {
	if !m.live.checked || m.live.online || m.live.starting {
		return m, nil
	}
	m.live.starting = true
	m.live.notice = "Starting backend..."
	m.live.isError = false
	return m, startBackendCmd(m.ctx, m.bridge)
}

func (m Model) handleStartBackend(msg startBackendMsg) (tea.Model, tea.Cmd) {
	m.live.starting = false
	if msg.result.Success {
		m.live.notice = "Backend starting, checking again shortly..."
		m.live.isError = false
	} else {
		m.live.notice = "Backend start failed: " + msg.result.Error
		m.live.isError = true
		m.log.Warn("Backend start failed", zap.String("error", msg.result.Error))
	}
	return m, repollCmd(m.opts.RestartDelay)
}

func (m Model) handleElapsed(msg elapsedTickMsg) (tea.Model, tea.Cmd) {
	req := &m.article.req
	if msg.view == ViewCompare {
		req = &m.compare.req
	}
	if !req.loading || msg.seq != req.seq {
		return m, nil
	}
	req.elapsed++
	return m, elapsedTickCmd(msg.view, msg.seq)
}
