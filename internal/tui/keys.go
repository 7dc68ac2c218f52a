package tui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// Slash command constants.
const (
	cmdHelp  = "/help"
	cmdClear = "/clear"
	cmdExit  = "/exit"
	cmdQuit  = "/quit"
)

// keyMap holds key bindings for help bar display.
type keyMap struct {
	Submit     key.Binding
	NewLine    key.Binding
	History    key.Binding
	Cancel     key.Binding
	Quit       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	EscCancel  key.Binding
	Canvas     key.Binding
	Save       key.Binding
	Undo       key.Binding
	Redo       key.Binding
	Branches   key.Binding
	Graph      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NewLine:    key.NewBinding(key.WithKeys("shift+enter"), key.WithHelp("s+enter", "newline")),
		History:    key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "history")),
		Cancel:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "cancel")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "exit")),
		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		EscCancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Canvas:     key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "canvas")),
		Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save version")),
		Undo:       key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "undo")),
		Redo:       key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "redo")),
		Branches:   key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "branches")),
		Graph:      key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "graph")),
	}
}

//nolint:gocyclo // Keyboard handler requires branching for all key combinations
func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	if k.Mod&tea.ModCtrl != 0 {
		switch k.Code {
		case 'c':
			return m.handleCtrlC()
		case 'd':
			return m, m.cleanup()
		case 'o':
			m.canvas.Toggle()
			return m, nil
		case 's':
			return m, m.saveCanvasVersion()
		case 'z':
			m.canvas.Undo()
			return m, nil
		case 'y':
			m.canvas.Redo()
			return m, nil
		case 'b':
			if m.overlay == OverlayBranches {
				m.overlay = OverlayNone
				m.rebuildViewportContent()
				return m, nil
			}
			m.overlay = OverlayBranches
			m.rebuildViewportContent()
			return m, nil
		case 'g':
			if m.overlay == OverlayGraph {
				m.overlay = OverlayNone
				m.rebuildViewportContent()
				return m, nil
			}
			m.overlay = OverlayGraph
			m.rebuildViewportContent()
			return m, m.loadGraph()
		}
	}

	// Digits pick a branch while the switcher is open.
	if m.overlay == OverlayBranches && k.Code >= '1' && k.Code <= '9' {
		return m.selectBranch(int(k.Code - '1'))
	}

	switch k.Code {
	case tea.KeyEnter:
		if m.state == StateInput && k.Mod&tea.ModShift == 0 {
			// Enter without Shift = submit; Shift+Enter falls through to
			// the textarea as a newline.
			return m.handleSubmit()
		}

	case tea.KeyUp:
		if m.state == StateInput && m.input.Line() == 0 {
			return m.navigateHistory(-1)
		}

	case tea.KeyDown:
		if m.state == StateInput && m.input.Line() == m.input.LineCount()-1 {
			return m.navigateHistory(1)
		}

	case tea.KeyEscape:
		if m.overlay != OverlayNone {
			m.overlay = OverlayNone
			m.rebuildViewportContent()
			return m, nil
		}
		if m.state == StateStreaming || m.state == StateThinking {
			m.cancelStream()
			m.state = StateInput
			return m, nil
		}

	case tea.KeyPgUp:
		m.viewport.PageUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.PageDown()
		return m, nil
	}

	// Pass keys to the textarea; typing stays available during streaming
	// so the next message can be prepared while the reply arrives.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleCtrlC() (tea.Model, tea.Cmd) {
	now := time.Now()

	// Double Ctrl+C within 1 second = quit.
	if now.Sub(m.lastCtrlC) < time.Second {
		return m, m.cleanup()
	}
	m.lastCtrlC = now

	switch m.state {
	case StateInput:
		m.input.Reset()
		return m, nil

	case StateThinking, StateStreaming:
		m.cancelStream()
		m.state = StateInput
		m.addNotice(roleSystem, "(Canceled)")
		m.rebuildViewportContent()
		return m, nil
	}

	return m, nil
}

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	if strings.HasPrefix(content, "/") {
		return m.handleSlashCommand(content)
	}

	// The store rejects overlapping sends; disable submit up front so the
	// user never sees the rejection.
	if m.store.Sending() {
		return m, nil
	}

	m.history = append(m.history, content)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.historyIdx = len(m.history)

	m.input.Reset()
	m.state = StateThinking
	m.rebuildViewportContent()

	return m, tea.Batch(
		m.spinner.Tick,
		m.startSend(content),
	)
}

func (m *Model) handleSlashCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case cmdHelp:
		m.addNotice(roleSystem,
			"Commands: "+cmdHelp+", "+cmdClear+", "+cmdExit+
				"\nShortcuts:\n  Enter: send  Shift+Enter: newline"+
				"\n  Ctrl+O: canvas  Ctrl+S: save version  Ctrl+Z/Y: undo/redo"+
				"\n  Ctrl+B: branches  Ctrl+G: graph"+
				"\n  Ctrl+C: cancel/clear  Ctrl+D: exit")
	case cmdClear:
		m.notices = nil
	case cmdExit, cmdQuit:
		return m, m.cleanup()
	default:
		m.addNotice(roleError, "Unknown command: "+cmd)
	}
	m.input.Reset()
	m.rebuildViewportContent()
	return m, nil
}

func (m *Model) selectBranch(idx int) (tea.Model, tea.Cmd) {
	branches := m.store.Branches()
	if idx < 0 || idx >= len(branches) {
		return m, nil
	}
	name := branches[idx].Name
	if err := m.store.SetBranch(name); err != nil {
		m.addNotice(roleError, fmt.Sprintf("switch branch: %v", err))
	} else {
		m.addNotice(roleSystem, "Switched to branch "+name)
	}
	m.overlay = OverlayNone
	m.rebuildViewportContent()
	return m, nil
}

func (m *Model) navigateHistory(delta int) (tea.Model, tea.Cmd) {
	if len(m.history) == 0 {
		return m, nil
	}

	m.historyIdx += delta
	if m.historyIdx < 0 {
		m.historyIdx = 0
	}
	if m.historyIdx > len(m.history) {
		m.historyIdx = len(m.history)
	}

	if m.historyIdx == len(m.history) {
		m.input.SetValue("")
	} else {
		m.input.SetValue(m.history[m.historyIdx])
		m.input.CursorEnd()
	}
	return m, nil
}

// cancelStream cancels the in-flight send context. The store clears its
// own flags when the stream loop observes the cancellation.
func (m *Model) cancelStream() {
	if m.streamCancel != nil {
		m.streamCancel()
		m.streamCancel = nil
	}
}

// cleanup cancels any active stream and returns the quit command. Closing
// the program mid-send cancels through the shared context; artifacts that
// finished their region persist regardless via the router's detached
// saves.
func (m *Model) cleanup() tea.Cmd {
	if m.ctxCancel != nil {
		m.ctxCancel()
		m.ctxCancel = nil
	}
	m.cancelStream()
	m.streamEventCh = nil
	return tea.Quit
}
