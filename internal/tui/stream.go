package tui

import (
	"context"
	"fmt"
	"log/slog"

	tea "charm.land/bubbletea/v2"

	"github.com/synapsbranch/synapse/internal/conversation"
)

// changeBufferSize absorbs bursts of store/canvas change pings between
// renders. Pings are collapsing, so overflow only costs a redundant
// redraw.
const changeBufferSize = 100

// streamEvent is a discriminated union for send-goroutine events. Exactly
// one field is set per event.
type streamEvent struct {
	err  error
	done bool
}

// Bubble Tea message types.
type streamStartedMsg struct {
	eventCh <-chan streamEvent
	cancel  context.CancelFunc
}

type streamDoneMsg struct{}

type streamErrorMsg struct {
	err error
}

// changedMsg signals that the store or canvas mutated and the view must
// be rebuilt.
type changedMsg struct{}

// historyLoadedMsg carries the result of the initial fetch.
type historyLoadedMsg struct {
	err error
}

// startSend creates a command that runs the send in its own goroutine.
// The store streams mutations through the OnChange ping channel while the
// goroutine is running; the union channel carries only the terminal
// event.
//
// Goroutine lifecycle: exits when the send returns, which the store
// guarantees on done frame, error frame, transport failure or context
// cancellation.
func (m *Model) startSend(content string) tea.Cmd {
	return func() tea.Msg {
		eventCh := make(chan streamEvent, 1)
		ctx, cancel := context.WithTimeout(m.ctx, streamTimeout)

		go func() {
			defer close(eventCh)

			// Panic recovery to prevent TUI lockup.
			defer func() {
				if r := recover(); r != nil {
					slog.Error("send panic recovered", "panic", r)
					select {
					case eventCh <- streamEvent{err: fmt.Errorf("send panic: %v", r)}:
					default:
					}
				}
			}()

			if err := m.store.Send(ctx, content); err != nil {
				eventCh <- streamEvent{err: err}
				return
			}
			eventCh <- streamEvent{done: true}
		}()

		return streamStartedMsg{eventCh: eventCh, cancel: cancel}
	}
}

// listenForStream waits for the terminal event of the running send.
func listenForStream(eventCh <-chan streamEvent) tea.Cmd {
	return func() tea.Msg {
		if eventCh == nil {
			return nil
		}
		event, ok := <-eventCh
		if !ok {
			return streamErrorMsg{err: fmt.Errorf("send ended without completion signal")}
		}
		if event.err != nil {
			return streamErrorMsg{err: event.err}
		}
		return streamDoneMsg{}
	}
}

// listenForChange waits for the next store/canvas change ping.
func listenForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

// loadHistory fetches messages and branches once at startup.
func (m *Model) loadHistory() tea.Cmd {
	return func() tea.Msg {
		if err := m.store.RefreshMessages(m.ctx); err != nil {
			return historyLoadedMsg{err: err}
		}
		if err := m.store.RefreshBranches(m.ctx); err != nil {
			return historyLoadedMsg{err: err}
		}
		return historyLoadedMsg{}
	}
}

// graphLoadedMsg carries the conversation graph for the overlay.
type graphLoadedMsg struct {
	graph *conversation.Graph
	err   error
}

// loadGraph fetches the cross-branch tree and lays it out.
func (m *Model) loadGraph() tea.Cmd {
	return func() tea.Msg {
		tree, err := m.store.FetchTree(m.ctx)
		if err != nil {
			return graphLoadedMsg{err: err}
		}
		return graphLoadedMsg{graph: conversation.Layout(tree)}
	}
}

// saveResultMsg carries the outcome of a canvas save.
type saveResultMsg struct {
	err error
}

// saveCanvasVersion persists the canvas content as a new version.
func (m *Model) saveCanvasVersion() tea.Cmd {
	return func() tea.Msg {
		return saveResultMsg{err: m.canvas.SaveVersion(m.ctx)}
	}
}
