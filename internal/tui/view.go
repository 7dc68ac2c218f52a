package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/synapsbranch/synapse/internal/api"
)

// canvasPaneRatio is the share of the width given to the canvas pane
// while it is open.
const canvasPaneRatio = 0.45

// View implements tea.Model.
// Uses AltScreen with a viewport for the scrollable transcript.
func (m *Model) View() tea.View {
	m.viewBuf.Reset()

	_, _ = m.viewBuf.WriteString(m.viewport.View())
	_, _ = m.viewBuf.WriteString("\n")

	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	// Input stays visible and editable in every state so the next
	// message can be typed while a reply streams.
	_, _ = m.viewBuf.WriteString(m.styles.Prompt.Render("> "))
	_, _ = m.viewBuf.WriteString(m.input.View())
	_, _ = m.viewBuf.WriteString("\n")

	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	_, _ = m.viewBuf.WriteString(m.renderStatusBar())

	v := tea.NewView(m.viewBuf.String())
	v.AltScreen = true
	return v
}

// transcriptWidth is the width left for chat text after the canvas pane
// takes its share.
func (m *Model) transcriptWidth() int {
	if !m.canvas.State().IsOpen {
		return m.width
	}
	w := m.width - int(float64(m.width)*canvasPaneRatio) - 1
	if w < 20 {
		w = 20
	}
	return w
}

// rebuildViewportContent reconstructs the viewport from store, canvas and
// overlay state. Called on every change ping and dimension change.
func (m *Model) rebuildViewportContent() {
	switch m.overlay {
	case OverlayBranches:
		m.viewport.SetContent(m.renderBranchOverlay())
		return
	case OverlayGraph:
		m.viewport.SetContent(m.renderGraphOverlay())
		return
	}

	transcript := m.renderTranscript()
	if st := m.canvas.State(); st.IsOpen {
		pane := m.renderCanvasPane(st.Content, st.Language)
		transcript = lipgloss.JoinHorizontal(lipgloss.Top, transcript, " ", pane)
	}
	m.viewport.SetContent(transcript)
}

func (m *Model) renderTranscript() string {
	var b strings.Builder

	_, _ = b.WriteString(m.styles.RenderBanner())
	_, _ = b.WriteString("\n")

	branch := m.store.Branch()
	_, _ = b.WriteString(m.styles.System.Render("on branch " + branch))
	_, _ = b.WriteString("\n\n")

	for _, msg := range m.store.View() {
		switch msg.Role {
		case api.RoleUser:
			_, _ = b.WriteString(m.styles.User.Render("You> "))
			_, _ = b.WriteString(msg.Content)
		case api.RoleAssistant:
			_, _ = b.WriteString(m.styles.Assistant.Render("Synapse> "))
			_, _ = b.WriteString(m.markdown.Render(msg.Content))
		}
		_, _ = b.WriteString("\n\n")
	}

	for _, n := range m.notices {
		switch n.role {
		case roleSystem:
			_, _ = b.WriteString(m.styles.System.Render(n.text))
		case roleError:
			_, _ = b.WriteString(m.styles.Error.Render("Error: " + n.text))
		}
		_, _ = b.WriteString("\n\n")
	}

	// Partial assistant reply.
	if streaming := m.store.StreamingText(); m.state == StateStreaming && streaming != "" {
		_, _ = b.WriteString(m.styles.Assistant.Render("Synapse> "))
		_, _ = b.WriteString(streaming)
		_, _ = b.WriteString("\n\n")
	}

	if m.state == StateThinking {
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(" Thinking...\n\n")
	}

	return lipgloss.NewStyle().Width(m.transcriptWidth()).Render(b.String())
}

// renderCanvasPane draws the canvas beside the transcript: a title bar
// with language, version position and writing indicator, then content.
func (m *Model) renderCanvasPane(content, language string) string {
	st := m.canvas.State()
	width := m.width - m.transcriptWidth() - 1
	if width < 20 {
		width = 20
	}

	title := "Canvas [" + language + "]"
	if st.VersionCount > 0 {
		title += fmt.Sprintf(" v%d/%d", st.VersionIndex+1, st.VersionCount)
	}
	if st.Dirty {
		title += " *"
	}
	if st.Writing {
		title += " " + m.spinner.View() + " writing"
	}

	var b strings.Builder
	_, _ = b.WriteString(m.styles.CanvasTitle.Render(title))
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(m.styles.Separator.Render(strings.Repeat("─", width)))
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(content)

	return m.styles.CanvasPane.Width(width).Render(b.String())
}

// renderBranchOverlay lists branches with message counts; digits switch.
func (m *Model) renderBranchOverlay() string {
	var b strings.Builder
	_, _ = b.WriteString(m.styles.Header.Render("Branches"))
	_, _ = b.WriteString("\n\n")

	branches := m.store.Branches()
	if len(branches) == 0 {
		_, _ = b.WriteString(m.styles.System.Render("No branches fetched yet."))
		_, _ = b.WriteString("\n")
	}
	current := m.store.Branch()
	for i, br := range branches {
		marker := "  "
		if br.Name == current {
			marker = m.styles.User.Render("* ")
		}
		line := fmt.Sprintf("%s[%d] %s (%d messages)", marker, i+1, br.Name, br.MessageCount)
		_, _ = b.WriteString(line)
		_, _ = b.WriteString("\n")
	}

	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(m.styles.System.Render("Press 1-9 to switch, esc to close."))
	return b.String()
}

// renderGraphOverlay draws the conversation tree as branch lanes.
func (m *Model) renderGraphOverlay() string {
	var b strings.Builder
	_, _ = b.WriteString(m.styles.Header.Render("Conversation graph"))
	_, _ = b.WriteString("\n\n")

	if m.graph == nil {
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(" Loading...")
		return b.String()
	}

	_, _ = b.WriteString(renderGraph(m.graph, m.store.Branch(), m.styles))
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(m.styles.System.Render("esc to close"))
	return b.String()
}

// renderSeparator returns a horizontal line separator.
func (m *Model) renderSeparator() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	return m.styles.Separator.Render(strings.Repeat("─", width))
}

// renderStatusBar returns state-appropriate keyboard shortcut help.
func (m *Model) renderStatusBar() string {
	var bindings []key.Binding
	switch m.state {
	case StateInput:
		bindings = []key.Binding{
			m.keys.Submit, m.keys.NewLine, m.keys.Canvas,
			m.keys.Branches, m.keys.Graph, m.keys.Quit,
		}
	case StateThinking, StateStreaming:
		bindings = []key.Binding{
			m.keys.EscCancel, m.keys.Cancel,
			m.keys.ScrollUp, m.keys.ScrollDown,
		}
	}
	return m.help.ShortHelpView(bindings)
}
