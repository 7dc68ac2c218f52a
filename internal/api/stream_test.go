package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/goleak"

	"github.com/synapsbranch/synapse/internal/api"
	"github.com/synapsbranch/synapse/internal/log"
	"github.com/synapsbranch/synapse/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func streamClient(t *testing.T, frames []api.Frame) *api.Client {
	t.Helper()
	srv := testutil.StreamServer(t, frames)
	return api.New(api.Config{BaseURL: srv.URL, Logger: log.NewNop()})
}

func collect(t *testing.T, c *api.Client) ([]api.Frame, error) {
	t.Helper()
	var out []api.Frame
	for frame, err := range c.StreamChat(context.Background(), api.ChatRequest{ConversationID: "conv-1"}) {
		if err != nil {
			return out, err
		}
		out = append(out, frame)
	}
	return out, nil
}

func TestStreamChatYieldsFramesInOrder(t *testing.T) {
	t.Parallel()

	user := api.Message{ID: "u1", Role: api.RoleUser, Content: "hi"}
	ai := api.Message{ID: "a1", Role: api.RoleAssistant, Content: "hello"}
	frames := []api.Frame{
		{Type: api.FrameMeta, UserMessage: &user},
		{Type: api.FrameChunk, Content: "hel"},
		{Type: api.FrameChunk, Content: "lo"},
		{Type: api.FrameDone, AIMessage: &ai},
	}

	got, err := collect(t, streamClient(t, frames))
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("frames = %d, want 4", len(got))
	}
	if got[0].Type != api.FrameMeta || got[0].UserMessage.ID != "u1" {
		t.Errorf("meta frame = %+v", got[0])
	}
	if got[1].Content+got[2].Content != "hello" {
		t.Errorf("chunks = %q %q", got[1].Content, got[2].Content)
	}
	if got[3].Type != api.FrameDone || got[3].AIMessage.ID != "a1" {
		t.Errorf("done frame = %+v", got[3])
	}
}

func TestStreamChatSkipsMalformedFrames(t *testing.T) {
	t.Parallel()

	chunk, _ := json.Marshal(api.Frame{Type: api.FrameChunk, Content: "ok"})
	done, _ := json.Marshal(api.Frame{Type: api.FrameDone})
	srv := testutil.RawStreamServer(t, []string{
		string(chunk),
		`{not json`,
		string(done),
	})
	c := api.New(api.Config{BaseURL: srv.URL, Logger: log.NewNop()})

	got, err := collect(t, c)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("frames = %d, want 2 (malformed skipped)", len(got))
	}
	if got[0].Content != "ok" || got[1].Type != api.FrameDone {
		t.Errorf("frames = %+v", got)
	}
}

func TestStreamChatWithoutTerminalFrame(t *testing.T) {
	t.Parallel()

	frames := []api.Frame{{Type: api.FrameChunk, Content: "half"}}
	got, err := collect(t, streamClient(t, frames))
	if !errors.Is(err, api.ErrStreamClosed) {
		t.Fatalf("err = %v, want ErrStreamClosed", err)
	}
	if len(got) != 1 {
		t.Errorf("frames before close = %d, want 1", len(got))
	}
}

func TestStreamChatStopsAfterErrorFrame(t *testing.T) {
	t.Parallel()

	frames := []api.Frame{
		{Type: api.FrameError, Error: "overloaded"},
		{Type: api.FrameChunk, Content: "never seen"},
	}
	got, err := collect(t, streamClient(t, frames))
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(got) != 1 || got[0].Type != api.FrameError {
		t.Fatalf("frames = %+v, want single error frame", got)
	}
}

func TestStreamChatEarlyBreakClosesStream(t *testing.T) {
	t.Parallel()

	frames := []api.Frame{
		{Type: api.FrameChunk, Content: "a"},
		{Type: api.FrameChunk, Content: "b"},
		{Type: api.FrameDone},
	}
	c := streamClient(t, frames)

	count := 0
	for _, err := range c.StreamChat(context.Background(), api.ChatRequest{}) {
		if err != nil {
			t.Fatal(err)
		}
		count++
		if count == 1 {
			break
		}
	}
	if count != 1 {
		t.Errorf("consumed %d frames, want 1", count)
	}
}
