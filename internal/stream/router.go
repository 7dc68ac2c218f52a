package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/synapsbranch/synapse/internal/api"
	"github.com/synapsbranch/synapse/internal/log"
)

// ChatSink receives the chat-channel text of a response as it streams in.
type ChatSink interface {
	AppendText(text string)
}

// Canvas receives the canvas-channel side of a response.
type Canvas interface {
	StartWriting(language string)
	AppendContent(chunk string)
	StopWriting()
}

// Saver persists a completed canvas region as an artifact.
type Saver interface {
	CreateArtifact(ctx context.Context, req api.ArtifactRequest) (*api.ArtifactRef, error)
}

// GeneratedArtifact records one canvas region persisted during a response.
type GeneratedArtifact struct {
	Ref      api.ArtifactRef
	Content  string
	Language string
}

// RouterConfig carries the sinks a Router forwards to. Chat and Canvas are
// required; Saver may be nil, in which case completed regions are not
// persisted.
type RouterConfig struct {
	Chat           ChatSink
	Canvas         Canvas
	Saver          Saver
	Logger         log.Logger
	ConversationID string
}

// Router feeds frame content through a Scanner and routes the resulting
// events to the chat and canvas sinks. Each completed canvas region is
// replaced in the chat text by a placeholder line and persisted in the
// background; Wait blocks until all persistence calls have returned.
//
// Consume and Finish must be called from a single goroutine, the one
// draining the response stream.
type Router struct {
	scanner *Scanner
	chat    ChatSink
	canvas  Canvas
	saver   Saver
	logger  log.Logger
	convID  string

	chatText  strings.Builder
	canvasBuf strings.Builder
	language  string

	wg        sync.WaitGroup
	mu        sync.Mutex
	artifacts []GeneratedArtifact
}

// NewRouter builds a router for a single response stream. Routers are not
// reusable across responses.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.Chat == nil {
		panic("stream: router requires a chat sink")
	}
	if cfg.Canvas == nil {
		panic("stream: router requires a canvas sink")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		scanner: NewScanner(),
		chat:    cfg.Chat,
		canvas:  cfg.Canvas,
		saver:   cfg.Saver,
		logger:  logger,
		convID:  cfg.ConversationID,
	}
}

// Consume routes the content of one chunk frame.
func (r *Router) Consume(ctx context.Context, text string) {
	r.dispatch(ctx, r.scanner.Write(text))
}

// Finish flushes the scanner once the stream has ended normally. An
// unterminated canvas region stays on the canvas side: writing stops, but
// no artifact is persisted and no placeholder is added to the chat text.
func (r *Router) Finish(ctx context.Context) {
	r.dispatch(ctx, r.scanner.Flush())
	if r.scanner.InCanvas() {
		r.canvas.StopWriting()
	}
}

// Abort ends routing after a stream error. Held bytes are dropped and an
// open canvas region stops writing.
func (r *Router) Abort() {
	if r.scanner.InCanvas() {
		r.canvas.StopWriting()
	}
}

// ChatText returns the accumulated chat-channel text, placeholders
// included.
func (r *Router) ChatText() string {
	return r.chatText.String()
}

// Artifacts returns the artifacts persisted so far. Call Wait first to
// cover regions still persisting in the background.
func (r *Router) Artifacts() []GeneratedArtifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]GeneratedArtifact, len(r.artifacts))
	copy(out, r.artifacts)
	return out
}

// Wait blocks until every background persistence call has returned.
func (r *Router) Wait() {
	r.wg.Wait()
}

func (r *Router) dispatch(ctx context.Context, events []Event) {
	for _, ev := range events {
		switch ev.Kind {
		case EventChatText:
			r.chatText.WriteString(ev.Text)
			r.chat.AppendText(ev.Text)
		case EventCanvasOpen:
			r.canvasBuf.Reset()
			r.language = ev.Language
			r.canvas.StartWriting(ev.Language)
		case EventCanvasText:
			r.canvasBuf.WriteString(ev.Text)
			r.canvas.AppendContent(ev.Text)
		case EventCanvasClose:
			r.canvas.StopWriting()
			r.finishRegion(ctx)
		}
	}
}

// finishRegion persists the completed region and drops a placeholder into
// the chat channel so the message keeps a stable reference to it.
func (r *Router) finishRegion(ctx context.Context) {
	content := r.canvasBuf.String()
	language := r.language
	r.canvasBuf.Reset()

	placeholder := Placeholder(language)
	r.chatText.WriteString(placeholder)
	r.chat.AppendText(placeholder)

	if r.saver == nil || content == "" {
		return
	}

	req := api.ArtifactRequest{
		ConversationID: r.convID,
		Language:       language,
		Content:        content,
	}

	// Persisting must not block the stream loop, and a stream cancelled
	// right after the region closed should still get its artifact saved.
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ref, err := r.saver.CreateArtifact(context.WithoutCancel(ctx), req)
		if err != nil {
			r.logger.Warn("failed to persist canvas artifact",
				slog.String("language", language),
				slog.String("error", err.Error()))
			return
		}
		r.mu.Lock()
		r.artifacts = append(r.artifacts, GeneratedArtifact{
			Ref:      *ref,
			Content:  content,
			Language: language,
		})
		r.mu.Unlock()
	}()
}

// Placeholder is the chat-text stand-in for a canvas region in the given
// language.
func Placeholder(language string) string {
	return fmt.Sprintf("\n\n[CANVAS_ARTIFACT:%s]\n\n", language)
}
