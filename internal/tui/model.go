// Package tui provides the Bubble Tea terminal interface for synapse:
// a chat transcript beside a live canvas pane, with branch switching and
// a conversation graph overlay.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/synapsbranch/synapse/internal/canvas"
	"github.com/synapsbranch/synapse/internal/conversation"
)

// State represents the TUI state machine.
type State int

// TUI state machine states.
const (
	StateInput     State = iota // Awaiting user input
	StateThinking               // Request sent, nothing received yet
	StateStreaming              // Streaming response
)

// Overlay selects which full-width overlay replaces the transcript.
type Overlay int

const (
	OverlayNone     Overlay = iota
	OverlayBranches         // branch switcher
	OverlayGraph            // conversation graph
)

// maxHistory bounds the input history.
const maxHistory = 100

// streamTimeout bounds a single send.
const streamTimeout = 5 * time.Minute

// Display role constants.
const (
	roleUser      = "user"
	roleAssistant = "assistant"
	roleSystem    = "system"
	roleError     = "error"
)

// Layout constants for viewport height calculation.
const (
	separatorLines = 2 // Above and below input
	helpLines      = 1 // Help bar height
	promptLines    = 1 // Prompt prefix line
	minViewport    = 3 // Minimum viewport height
)

// notice is a transient system or error line shown in the transcript.
type notice struct {
	role string
	text string
}

// Model is the Bubble Tea model for the synapse terminal interface.
type Model struct {
	// Input (textarea for multi-line support, Shift+Enter for newline)
	input      textarea.Model
	history    []string
	historyIdx int

	// State
	state     State
	overlay   Overlay
	lastCtrlC time.Time
	notices   []notice

	spinner spinner.Model
	viewBuf strings.Builder // Reusable buffer for View() to reduce allocations

	// Scrollable transcript viewport
	viewport viewport.Model

	// Help bar for keyboard shortcuts
	help help.Model
	keys keyMap

	// Stream management. The union event channel is re-armed after every
	// received event; changeCh carries store/canvas change pings.
	streamCancel  context.CancelFunc
	streamEventCh <-chan streamEvent
	changeCh      chan struct{}

	// Dependencies (direct, no interface)
	store     *conversation.Store
	canvas    *canvas.Session
	graph     *conversation.Graph // last fetched layout, nil until opened
	ctx       context.Context
	ctxCancel context.CancelFunc

	// Dimensions
	width  int
	height int

	styles Styles

	// Markdown rendering (nil = graceful degradation to plain text)
	markdown *markdownRenderer
}

// addNotice appends a transient transcript line.
func (m *Model) addNotice(role, text string) {
	m.notices = append(m.notices, notice{role: role, text: text})
}

// New creates a Model over a conversation store and canvas session.
//
// IMPORTANT: ctx MUST be the same context passed to tea.WithContext()
// to ensure consistent cancellation behavior.
func New(ctx context.Context, store *conversation.Store, cv *canvas.Session) (*Model, error) {
	if store == nil {
		return nil, errors.New("tui.New: store is required")
	}
	if cv == nil {
		return nil, errors.New("tui.New: canvas session is required")
	}
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}

	ctx, cancel := context.WithCancel(ctx)

	// Enter submits, Shift+Enter adds a newline.
	ta := textarea.New()
	ta.Placeholder = "Message the assistant..."
	ta.SetHeight(1)
	ta.SetWidth(120) // Updated on WindowSizeMsg
	ta.MaxWidth = 0
	ta.ShowLineNumbers = false

	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{
		Focused: cleanStyle,
		Blurred: cleanStyle,
	})
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	// Keys are routed explicitly in handleKey; the viewport's own
	// bindings would collide with textarea and history navigation.
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{}

	m := &Model{
		store:     store,
		canvas:    cv,
		ctx:       ctx,
		ctxCancel: cancel,
		input:     ta,
		spinner:   sp,
		viewport:  vp,
		help:      help.New(),
		keys:      newKeyMap(),
		styles:    DefaultStyles(),
		history:   make([]string, 0, maxHistory),
		changeCh:  make(chan struct{}, changeBufferSize),
		markdown:  newMarkdownRenderer(80),
		width:     80, // Until WindowSizeMsg arrives
	}

	// Both hooks feed the same ping channel; a dropped ping is fine
	// because any later ping triggers the same full re-render.
	store.SetOnChange(m.pingChange)
	cv.SetOnChange(m.pingChange)

	return m, nil
}

func (m *Model) pingChange() {
	select {
	case m.changeCh <- struct{}{}:
	default:
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.input.Focus(),
		m.loadHistory(),
		listenForChange(m.changeCh),
	)
}
