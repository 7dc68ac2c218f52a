package canvas

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/synapsbranch/synapse/internal/api"
	"github.com/synapsbranch/synapse/internal/log"
)

// Mode selects how the canvas renders its content.
type Mode string

const (
	ModeCode    Mode = "code"
	ModePreview Mode = "preview"
	ModeSplit   Mode = "split"
)

// DefaultLanguage is assumed when nothing states the content language.
const DefaultLanguage = "javascript"

// Version is one entry of the append-only version log.
type Version struct {
	ID        string
	Content   string
	Language  string
	Timestamp time.Time
	Saved     bool // persisted to the backend
}

// Saver persists canvas versions through the backend artifact API.
type Saver interface {
	CreateArtifact(ctx context.Context, req api.ArtifactRequest) (*api.ArtifactRef, error)
	AppendArtifactVersion(ctx context.Context, artifactID string, req api.ArtifactRequest) (*api.ArtifactRef, error)
	GetArtifact(ctx context.Context, artifactID string) (*api.Artifact, error)
}

// State is a point-in-time copy of the session for rendering.
type State struct {
	IsOpen       bool
	Mode         Mode
	Content      string
	Language     string
	Writing      bool
	Dirty        bool
	ArtifactID   string
	VersionIndex int
	VersionCount int
}

// Config carries Session dependencies. Saver may be nil for a purely local
// session; AutoOpenThreshold of zero disables auto-opening from chat text.
type Config struct {
	Saver             Saver
	Logger            log.Logger
	WorkspaceID       string
	ConversationID    string
	AutoOpenThreshold int
}

// Session is the canvas state machine. The zero-value transitions are:
// closed until Open, Toggle or StartWriting; open sessions are idle except
// between StartWriting and StopWriting.
type Session struct {
	saver     Saver
	logger    log.Logger
	wsID      string
	convID    string
	threshold int

	mu          sync.Mutex
	isOpen      bool
	mode        Mode
	content     string
	language    string
	writing     bool
	dirty       bool
	autoOpened  bool
	artifactID  string
	versions    []Version
	current     int // index into versions, -1 when empty
	confirmLoad func() bool
	onChange    func()
}

// NewSession builds a closed session with an empty version log.
func NewSession(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		saver:     cfg.Saver,
		logger:    logger,
		wsID:      cfg.WorkspaceID,
		convID:    cfg.ConversationID,
		threshold: cfg.AutoOpenThreshold,
		mode:      ModeCode,
		language:  DefaultLanguage,
		current:   -1,
	}
}

// SetOnChange registers a hook fired after every state mutation. The hook
// runs without the session lock held.
func (s *Session) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// SetConfirmLoad registers the hook Load consults before discarding
// unsaved edits. Without a hook, Load refuses.
func (s *Session) SetConfirmLoad(fn func() bool) {
	s.mu.Lock()
	s.confirmLoad = fn
	s.mu.Unlock()
}

// State returns a copy of the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		IsOpen:       s.isOpen,
		Mode:         s.mode,
		Content:      s.content,
		Language:     s.language,
		Writing:      s.writing,
		Dirty:        s.dirty,
		ArtifactID:   s.artifactID,
		VersionIndex: s.current,
		VersionCount: len(s.versions),
	}
}

// Context reports the open canvas to the model alongside a chat request.
// Returns nil while the canvas is closed.
func (s *Session) Context() *api.CanvasContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isOpen {
		return nil
	}
	return &api.CanvasContext{
		IsOpen:   true,
		Content:  s.content,
		Language: s.language,
	}
}

// Open shows the canvas with the given content and records it as an
// unsaved version so the user can undo back to it later.
func (s *Session) Open(content, language string) {
	s.mu.Lock()
	if language == "" {
		language = DefaultLanguage
	}
	s.isOpen = true
	s.content = content
	s.language = language
	s.dirty = false
	s.appendVersion(content, language, false)
	s.mu.Unlock()
	s.notify()
}

// Close hides the canvas. Content and version log are retained.
func (s *Session) Close() {
	s.mu.Lock()
	s.isOpen = false
	s.mu.Unlock()
	s.notify()
}

// Toggle flips visibility without touching content.
func (s *Session) Toggle() {
	s.mu.Lock()
	s.isOpen = !s.isOpen
	s.mu.Unlock()
	s.notify()
}

// SetMode switches the render mode. Unknown modes are ignored.
func (s *Session) SetMode(mode Mode) {
	switch mode {
	case ModeCode, ModePreview, ModeSplit:
	default:
		return
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	s.notify()
}

// SetLanguage changes the language of the live content.
func (s *Session) SetLanguage(language string) {
	if language == "" {
		return
	}
	s.mu.Lock()
	s.language = language
	s.mu.Unlock()
	s.notify()
}

// UpdateContent replaces the live content with a user edit. While the
// model is writing, whoever writes last wins; there is no merging.
func (s *Session) UpdateContent(content string) {
	s.mu.Lock()
	s.content = content
	s.dirty = true
	s.mu.Unlock()
	s.notify()
}

// StartWriting puts the session into the AI-writing sub-state. A closed
// canvas opens, and the live content is cleared so each generated region
// starts from an empty buffer.
func (s *Session) StartWriting(language string) {
	s.mu.Lock()
	if language == "" {
		language = DefaultLanguage
	}
	s.isOpen = true
	s.writing = true
	s.content = ""
	s.language = language
	s.dirty = true
	s.mu.Unlock()
	s.notify()
}

// AppendContent adds streamed model output to the live content.
func (s *Session) AppendContent(chunk string) {
	s.mu.Lock()
	s.content += chunk
	s.mu.Unlock()
	s.notify()
}

// StopWriting leaves the AI-writing sub-state. The canvas stays open with
// whatever was written.
func (s *Session) StopWriting() {
	s.mu.Lock()
	s.writing = false
	s.mu.Unlock()
	s.notify()
}

// IsWriting reports whether the model is currently writing into the
// canvas.
func (s *Session) IsWriting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writing
}

// SaveVersion persists the live content to the backend and, on success,
// appends a saved entry to the version log. The first save creates the
// artifact; later saves append versions under it. On failure the log and
// index are unchanged.
func (s *Session) SaveVersion(ctx context.Context) error {
	if s.saver == nil {
		return ErrNoSaver
	}

	s.mu.Lock()
	content := s.content
	language := s.language
	artifactID := s.artifactID
	s.mu.Unlock()

	if content == "" {
		return ErrNothingToSave
	}

	req := api.ArtifactRequest{
		Content:        content,
		Language:       language,
		WorkspaceID:    s.wsID,
		ConversationID: s.convID,
	}

	var (
		ref *api.ArtifactRef
		err error
	)
	if artifactID == "" {
		ref, err = s.saver.CreateArtifact(ctx, req)
	} else {
		ref, err = s.saver.AppendArtifactVersion(ctx, artifactID, req)
	}
	if err != nil {
		return fmt.Errorf("save canvas version: %w", err)
	}

	s.mu.Lock()
	s.artifactID = ref.ArtifactID
	s.appendVersion(content, language, true)
	s.dirty = false
	s.mu.Unlock()
	s.notify()

	s.logger.Debug("saved canvas version",
		slog.String("artifact_id", ref.ArtifactID),
		slog.String("version_id", ref.VersionID))
	return nil
}

// Restore sets the live content to the version at index. Indices outside
// the log are ignored. The log itself is never truncated, so a restore
// can always be redone forward again.
func (s *Session) Restore(index int) {
	s.mu.Lock()
	if index < 0 || index >= len(s.versions) {
		s.mu.Unlock()
		return
	}
	v := s.versions[index]
	s.current = index
	s.content = v.Content
	s.language = v.Language
	s.dirty = false
	s.mu.Unlock()
	s.notify()
}

// Undo steps one version back, if there is one.
func (s *Session) Undo() {
	s.mu.Lock()
	index := s.current - 1
	s.mu.Unlock()
	s.Restore(index)
}

// Redo steps one version forward, if there is one.
func (s *Session) Redo() {
	s.mu.Lock()
	index := s.current + 1
	s.mu.Unlock()
	s.Restore(index)
}

// Versions returns a copy of the version log.
func (s *Session) Versions() []Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Version, len(s.versions))
	copy(out, s.versions)
	return out
}

// Load replaces the whole session state with an artifact fetched from the
// backend, positioned at its newest version. Unsaved edits block the load
// unless the confirmation hook approves discarding them.
func (s *Session) Load(ctx context.Context, artifactID string) error {
	if s.saver == nil {
		return ErrNoSaver
	}

	s.mu.Lock()
	dirty := s.dirty
	confirm := s.confirmLoad
	s.mu.Unlock()

	if dirty && (confirm == nil || !confirm()) {
		return ErrUnsavedEdits
	}

	art, err := s.saver.GetArtifact(ctx, artifactID)
	if err != nil {
		return fmt.Errorf("load artifact %s: %w", artifactID, err)
	}

	versions := make([]Version, 0, len(art.Versions))
	for _, v := range art.Versions {
		versions = append(versions, Version{
			ID:        v.ID,
			Content:   v.Content,
			Language:  v.Language,
			Timestamp: v.Timestamp,
			Saved:     true,
		})
	}

	s.mu.Lock()
	s.artifactID = art.ID
	s.versions = versions
	s.current = len(versions) - 1
	s.content = art.Content
	s.language = art.Language
	if s.language == "" {
		s.language = DefaultLanguage
	}
	s.isOpen = true
	s.writing = false
	s.dirty = false
	s.mu.Unlock()
	s.notify()

	s.logger.Debug("loaded artifact",
		slog.String("artifact_id", art.ID),
		slog.Int("versions", len(versions)))
	return nil
}

// ResetTurn re-arms auto-opening for the next assistant turn.
func (s *Session) ResetTurn() {
	s.mu.Lock()
	s.autoOpened = false
	s.mu.Unlock()
}

// AutoOpenFromStream inspects streamed chat text for a fenced code block
// at least as long as the configured threshold and opens the canvas with
// it. Fires at most once per turn and never while the canvas is already
// open. Reports whether it opened.
func (s *Session) AutoOpenFromStream(text string) bool {
	s.mu.Lock()
	armed := s.threshold > 0 && !s.autoOpened && !s.isOpen
	s.mu.Unlock()
	if !armed {
		return false
	}

	body, language, ok := extractFence(text, s.threshold)
	if !ok {
		return false
	}

	s.mu.Lock()
	s.autoOpened = true
	s.mu.Unlock()
	s.Open(body, language)
	return true
}

// appendVersion pushes an entry and makes it current. Caller holds the
// lock.
func (s *Session) appendVersion(content, language string, saved bool) {
	s.versions = append(s.versions, Version{
		ID:        uuid.NewString(),
		Content:   content,
		Language:  language,
		Timestamp: time.Now(),
		Saved:     saved,
	})
	s.current = len(s.versions) - 1
}

func (s *Session) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// extractFence finds the first ``` fenced code block in text whose body is
// at least min bytes long. An unclosed fence still counts once its body
// grows past the threshold, so the canvas can open while the block is
// still streaming.
func extractFence(text string, min int) (body, language string, ok bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", "", false
	}
	rest := text[start+3:]

	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return "", "", false
	}
	language = strings.TrimSpace(rest[:nl])
	if language == "" {
		language = DefaultLanguage
	}
	rest = rest[nl+1:]

	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	if len(rest) < min {
		return "", "", false
	}
	return rest, language, true
}
