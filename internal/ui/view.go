package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const previewChars = 600

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n\n")

	if m.nav.Current() == ViewCompare {
		b.WriteString(m.compareBody())
	} else {
		b.WriteString(m.articleBody())
	}

	b.WriteString("\n\n")
	b.WriteString(InfoStyle.Render(m.help()))
	return b.String()
}

func (m Model) header() string {
	tabs := make([]string, 0, 2)
	for _, v := range []View{ViewArticle, ViewCompare} {
		if v == m.nav.Current() {
			tabs = append(tabs, ActiveTabStyle.Render(v.String()))
		} else {
			tabs = append(tabs, TabStyle.Render(v.String()))
		}
	}

	line := TitleStyle.Render("Symmetry") + "  " + strings.Join(tabs, " | ") + "  " + m.livenessBadge()
	if m.live.notice != "" {
		style := InfoStyle
		if m.live.isError {
			style = ErrorStyle
		}
		line += "\n" + style.Render(m.live.notice)
	}
	return line
}

func (m Model) livenessBadge() string {
	switch {
	case !m.live.checked:
		return InfoStyle.Render("● checking backend")
	case m.live.online:
		return OnlineStyle.Render("● backend online")
	default:
		return ErrorStyle.Render("● backend offline (ctrl+s to start)")
	}
}

func (m Model) status(req request, loadingText string) string {
	switch {
	case req.loading:
		return fmt.Sprintf("%s %s %ds", m.spinner.View(), loadingText, req.elapsed)
	case req.status == "":
		return ""
	case req.isError:
		return ErrorStyle.Render(req.status)
	default:
		return InfoStyle.Render(req.status)
	}
}

func (m Model) articleBody() string {
	v := m.article
	var b strings.Builder

	b.WriteString(v.url.View())
	b.WriteString("\n")
	b.WriteString(v.language.View())
	b.WriteString("\n\n")

	loading := "Fetching article..."
	if v.op == OpTranslation {
		loading = "Translating..."
	}
	if s := m.status(v.req, loading); s != "" {
		b.WriteString(s)
		b.WriteString("\n\n")
	}

	if v.article != nil {
		content := preview(v.article.SourceArticle)
		if len(v.article.ArticleLanguages) > 0 {
			content += "\n\n" + InfoStyle.Render("Available in: "+strings.Join(v.article.ArticleLanguages, ", "))
		}
		b.WriteString(BoxStyle.Render(content))
		b.WriteString("\n")
	}
	if v.translation != nil {
		b.WriteString(BoxStyle.Render(fmt.Sprintf("[%s]\n%s", v.translated, preview(v.translation.TranslatedArticle))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) compareBody() string {
	v := m.compare
	var b strings.Builder

	left := lipgloss.JoinVertical(lipgloss.Left, v.left.View(), v.leftLang.View())
	right := lipgloss.JoinVertical(lipgloss.Left, v.right.View(), v.rightLang.View())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
	b.WriteString("\n\n")

	if s := m.status(v.req, "Comparing... (esc to cancel)"); s != "" {
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	if v.result != nil {
		b.WriteString(BoxStyle.Render(ComparisonView(*v.result)))
	}
	return b.String()
}

func (m Model) help() string {
	if m.nav.Current() == ViewCompare {
		return "tab: next field • ctrl+r: compare • esc: cancel • ctrl+t: article view • ctrl+c: quit"
	}
	return "tab: next field • enter: fetch/translate • ctrl+n: send to compare • ctrl+t: compare view • ctrl+c: quit"
}

func preview(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= previewChars {
		return string(r)
	}
	return string(r[:previewChars]) + "…"
}
