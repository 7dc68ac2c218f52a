package conversation

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"github.com/synapsbranch/synapse/internal/api"
	"github.com/synapsbranch/synapse/internal/canvas"
	"github.com/synapsbranch/synapse/internal/log"
	"github.com/synapsbranch/synapse/internal/stream"
)

// Backend is the slice of the HTTP API the store depends on.
type Backend interface {
	ListMessages(ctx context.Context, conversationID string) ([]api.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	Fork(ctx context.Context, messageID, newBranchName, newContent string) (*api.Message, error)
	ListBranches(ctx context.Context, conversationID string) ([]api.Branch, error)
	FetchTree(ctx context.Context, conversationID string) (*api.Tree, error)
	StreamChat(ctx context.Context, req api.ChatRequest) iter.Seq2[api.Frame, error]
	CreateArtifact(ctx context.Context, req api.ArtifactRequest) (*api.ArtifactRef, error)
}

// Config carries Store dependencies.
type Config struct {
	Backend        Backend
	Canvas         *canvas.Session
	Logger         log.Logger
	ConversationID string
	Model          string
	Branch         string
}

// Store holds every message of one conversation across all branches and a
// branch cursor that filters them. It is safe for concurrent use; the
// OnChange hook lets a UI re-render after each mutation.
type Store struct {
	backend Backend
	canvas  *canvas.Session
	logger  log.Logger
	convID  string
	model   string

	mu        sync.Mutex
	messages  []api.Message
	branches  []api.Branch
	branch    string
	sending   bool
	streaming string
	onChange  func()
}

// NewStore builds a store positioned on the given branch (default "main").
// An invalid branch name falls back to the default.
func NewStore(cfg Config) *Store {
	if cfg.Backend == nil {
		panic("conversation: store requires a backend")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	branch, err := NormalizeBranch(cfg.Branch)
	if err != nil {
		branch = DefaultBranch
	}
	return &Store{
		backend: cfg.Backend,
		canvas:  cfg.Canvas,
		logger:  logger,
		convID:  cfg.ConversationID,
		model:   cfg.Model,
		branch:  branch,
	}
}

// SetOnChange registers a hook fired after every state mutation. The hook
// runs without the store lock held.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// ConversationID returns the conversation this store is bound to.
func (s *Store) ConversationID() string {
	return s.convID
}

// Branch returns the currently selected branch.
func (s *Store) Branch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.branch
}

// Branches returns the last fetched branch summaries.
func (s *Store) Branches() []api.Branch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Branch(nil), s.branches...)
}

// SetBranch moves the branch cursor. This is a pure view change: it never
// refetches, never touches the message slice and never disturbs an
// in-flight send.
func (s *Store) SetBranch(name string) error {
	branch, err := NormalizeBranch(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.branch = branch
	s.mu.Unlock()
	s.notify()
	return nil
}

// Messages returns a copy of every message across all branches.
func (s *Store) Messages() []api.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Message(nil), s.messages...)
}

// View returns the messages of the current branch in stored order.
func (s *Store) View() []api.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Store) viewLocked() []api.Message {
	var out []api.Message
	for _, m := range s.messages {
		if m.BranchName == s.branch {
			out = append(out, m)
		}
	}
	return out
}

// ResolveParent computes the parent for the next message on the current
// branch: the last message of the filtered view, nil when the branch is
// empty. Every send goes through this one function.
func (s *Store) ResolveParent() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := s.viewLocked()
	if len(view) == 0 {
		return nil
	}
	id := view[len(view)-1].ID
	return &id
}

// Sending reports whether a send is in flight.
func (s *Store) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// StreamingText returns the partial assistant reply accumulated so far,
// empty outside a send.
func (s *Store) StreamingText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// AppendText accumulates streamed chat text. It is the chat sink of the
// stream router and also feeds the canvas auto-open heuristic.
func (s *Store) AppendText(text string) {
	s.mu.Lock()
	s.streaming += text
	full := s.streaming
	s.mu.Unlock()
	if s.canvas != nil {
		s.canvas.AutoOpenFromStream(full)
	}
	s.notify()
}

// Send posts content on the current branch and consumes the response
// stream until done. The persisted user message arrives in the meta
// frame, chunk content is demultiplexed into chat and canvas channels,
// and the finalized assistant message arrives in the done frame. Returns
// ErrBusy while another send is in flight; callers disable their send
// control on Sending instead of queueing.
func (s *Store) Send(ctx context.Context, content string) error {
	return s.send(ctx, content, nil, false)
}

func (s *Store) send(ctx context.Context, content string, parentOverride *string, overrideParent bool) error {
	if s.convID == "" {
		return ErrNoConversation
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return ErrBusy
	}
	s.sending = true
	s.streaming = ""
	branch := s.branch
	s.mu.Unlock()
	s.notify()

	parent := parentOverride
	if !overrideParent {
		parent = s.ResolveParent()
	}

	var canvasCtx *api.CanvasContext
	if s.canvas != nil {
		s.canvas.ResetTurn()
		canvasCtx = s.canvas.Context()
	}

	req := api.ChatRequest{
		ConversationID: s.convID,
		Content:        content,
		ParentID:       parent,
		BranchName:     branch,
		Model:          s.model,
		CanvasContext:  canvasCtx,
	}

	router := stream.NewRouter(stream.RouterConfig{
		Chat:           s,
		Canvas:         s.canvasSink(),
		Saver:          s.backend,
		Logger:         s.logger,
		ConversationID: s.convID,
	})

	for frame, err := range s.backend.StreamChat(ctx, req) {
		if err != nil {
			router.Abort()
			s.endSend()
			return fmt.Errorf("chat stream: %w", err)
		}
		switch frame.Type {
		case api.FrameMeta:
			if frame.UserMessage != nil {
				s.appendMessage(*frame.UserMessage)
			}
		case api.FrameChunk:
			router.Consume(ctx, frame.Content)
		case api.FrameDone:
			router.Finish(ctx)
			if frame.AIMessage != nil {
				s.appendMessage(*frame.AIMessage)
			}
			s.endSend()
			s.logger.Debug("send complete",
				slog.String("conversation_id", s.convID),
				slog.String("branch", branch))
			return nil
		case api.FrameError:
			router.Abort()
			s.endSend()
			return fmt.Errorf("assistant error: %s", frame.Error)
		}
	}

	// Stream ended without a terminal frame.
	router.Abort()
	s.endSend()
	return api.ErrStreamClosed
}

func (s *Store) endSend() {
	s.mu.Lock()
	s.sending = false
	s.streaming = ""
	s.mu.Unlock()
	s.notify()
}

// canvasSink adapts the optional canvas session to the router interface.
func (s *Store) canvasSink() stream.Canvas {
	if s.canvas != nil {
		return s.canvas
	}
	return nopCanvas{}
}

type nopCanvas struct{}

func (nopCanvas) StartWriting(string)  {}
func (nopCanvas) AppendContent(string) {}
func (nopCanvas) StopWriting()         {}

// Fork copies the message onto a new branch, optionally with edited
// content, and moves the branch cursor there. The original branch keeps
// all of its messages.
func (s *Store) Fork(ctx context.Context, messageID, newBranch, newContent string) (*api.Message, error) {
	branch, err := NormalizeBranch(newBranch)
	if err != nil {
		return nil, err
	}
	if branch == DefaultBranch {
		return nil, fmt.Errorf("%w: cannot fork onto %q", ErrInvalidBranch, DefaultBranch)
	}

	forked, err := s.backend.Fork(ctx, messageID, branch, newContent)
	if err != nil {
		return nil, fmt.Errorf("fork message %s: %w", messageID, err)
	}

	s.appendMessage(*forked)
	if err := s.SetBranch(branch); err != nil {
		return nil, err
	}
	if err := s.RefreshBranches(ctx); err != nil {
		s.logger.Warn("failed to refresh branches after fork",
			slog.String("error", err.Error()))
	}
	return forked, nil
}

// Regenerate deletes an assistant reply and resends the user message that
// produced it, keeping the original parent linkage so the new reply lands
// in the same spot of the tree.
func (s *Store) Regenerate(ctx context.Context, messageID string) error {
	s.mu.Lock()
	var target *api.Message
	var targetIdx int
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			target = &s.messages[i]
			targetIdx = i
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return ErrMessageNotFound
	}
	if target.Role != api.RoleAssistant {
		s.mu.Unlock()
		return ErrNotAssistant
	}

	// The user message that prompted this reply sits right before it on
	// the same branch.
	var user *api.Message
	for i := targetIdx - 1; i >= 0; i-- {
		if s.messages[i].BranchName == target.BranchName {
			if s.messages[i].Role == api.RoleUser {
				user = &s.messages[i]
			}
			break
		}
	}
	if user == nil {
		s.mu.Unlock()
		return ErrMessageNotFound
	}
	content := user.Content
	parent := user.ParentID
	s.mu.Unlock()

	if err := s.backend.DeleteMessage(ctx, messageID); err != nil {
		return fmt.Errorf("delete message %s: %w", messageID, err)
	}
	s.removeMessage(messageID)

	return s.send(ctx, content, parent, true)
}

// RefreshMessages replaces the local message slice with the backend's
// cross-branch list.
func (s *Store) RefreshMessages(ctx context.Context) error {
	msgs, err := s.backend.ListMessages(ctx, s.convID)
	if err != nil {
		return fmt.Errorf("refresh messages: %w", err)
	}
	s.mu.Lock()
	s.messages = msgs
	s.mu.Unlock()
	s.notify()
	return nil
}

// RefreshBranches refetches the branch summaries.
func (s *Store) RefreshBranches(ctx context.Context) error {
	branches, err := s.backend.ListBranches(ctx, s.convID)
	if err != nil {
		return fmt.Errorf("refresh branches: %w", err)
	}
	s.mu.Lock()
	s.branches = branches
	s.mu.Unlock()
	s.notify()
	return nil
}

// FetchTree returns the cross-branch projection for visualization.
func (s *Store) FetchTree(ctx context.Context) (*api.Tree, error) {
	tree, err := s.backend.FetchTree(ctx, s.convID)
	if err != nil {
		return nil, fmt.Errorf("fetch tree: %w", err)
	}
	return tree, nil
}

func (s *Store) appendMessage(m api.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) removeMessage(id string) {
	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}
