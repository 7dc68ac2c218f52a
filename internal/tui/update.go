package tui

import (
	"context"
	"errors"
	"fmt"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
)

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo // Bubble Tea Update requires type switch on all message types
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Viewport height: total - input - separators - help.
		inputHeight := m.input.Height() + promptLines
		fixedHeight := separatorLines + inputHeight + helpLines
		vpHeight := max(msg.Height-fixedHeight, minViewport)

		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(vpHeight)
		m.input.SetWidth(msg.Width - 4) // Room for "> " prompt
		m.help.SetWidth(msg.Width)
		m.markdown.UpdateWidth(m.transcriptWidth())

		m.rebuildViewportContent()
		return m, nil

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state == StateThinking || (m.state == StateStreaming && m.canvas.IsWriting()) {
			m.rebuildViewportContent()
		}
		return m, cmd

	case changedMsg:
		// The store or canvas mutated; pull fresh state and re-arm.
		if m.state == StateThinking && m.store.StreamingText() != "" {
			m.state = StateStreaming
		}
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, listenForChange(m.changeCh)

	case historyLoadedMsg:
		if msg.err != nil {
			m.addNotice(roleError, "Failed to load history: "+msg.err.Error())
		}
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, nil

	case graphLoadedMsg:
		if msg.err != nil {
			m.addNotice(roleError, "Failed to load graph: "+msg.err.Error())
			m.overlay = OverlayNone
		} else {
			m.graph = msg.graph
		}
		m.rebuildViewportContent()
		return m, nil

	case saveResultMsg:
		if msg.err != nil {
			m.addNotice(roleError, "Save failed: "+msg.err.Error())
		} else {
			st := m.canvas.State()
			m.addNotice(roleSystem, fmt.Sprintf("Saved canvas version %d/%d",
				st.VersionIndex+1, st.VersionCount))
		}
		m.rebuildViewportContent()
		return m, nil

	case streamStartedMsg:
		m.streamCancel = msg.cancel
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, listenForStream(msg.eventCh)

	case streamDoneMsg:
		m.state = StateInput
		m.cancelStream()
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, m.input.Focus()

	case streamErrorMsg:
		m.state = StateInput
		m.cancelStream()

		switch {
		case errors.Is(msg.err, context.Canceled):
			m.addNotice(roleSystem, "(Canceled)")
		case errors.Is(msg.err, context.DeadlineExceeded):
			m.addNotice(roleError, "Response timeout (>5 min). Try a shorter request.")
		default:
			m.addNotice(roleError, msg.err.Error())
		}
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, m.input.Focus()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
