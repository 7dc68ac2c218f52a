package canvas

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/synapsbranch/synapse/internal/api"
	"github.com/synapsbranch/synapse/internal/log"
)

type fakeSaver struct {
	creates  []api.ArtifactRequest
	appends  []api.ArtifactRequest
	appendID string
	artifact *api.Artifact
	err      error
}

func (f *fakeSaver) CreateArtifact(_ context.Context, req api.ArtifactRequest) (*api.ArtifactRef, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.creates = append(f.creates, req)
	return &api.ArtifactRef{ArtifactID: "art-1", VersionID: "ver-1"}, nil
}

func (f *fakeSaver) AppendArtifactVersion(_ context.Context, artifactID string, req api.ArtifactRequest) (*api.ArtifactRef, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.appendID = artifactID
	f.appends = append(f.appends, req)
	return &api.ArtifactRef{ArtifactID: artifactID, VersionID: "ver-2"}, nil
}

func (f *fakeSaver) GetArtifact(_ context.Context, artifactID string) (*api.Artifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.artifact == nil || f.artifact.ID != artifactID {
		return nil, api.ErrNotFound
	}
	return f.artifact, nil
}

func newTestSession(saver Saver) *Session {
	return NewSession(Config{
		Saver:             saver,
		Logger:            log.NewNop(),
		ConversationID:    "conv-1",
		AutoOpenThreshold: 20,
	})
}

func TestOpenRecordsUnsavedVersion(t *testing.T) {
	t.Parallel()

	s := newTestSession(nil)
	s.Open("hello", "python")

	st := s.State()
	if !st.IsOpen {
		t.Error("expected canvas to be open")
	}
	if st.Content != "hello" || st.Language != "python" {
		t.Errorf("content=%q language=%q", st.Content, st.Language)
	}
	if st.VersionCount != 1 || st.VersionIndex != 0 {
		t.Errorf("versions=%d index=%d, want 1 and 0", st.VersionCount, st.VersionIndex)
	}
	if v := s.Versions()[0]; v.Saved {
		t.Error("opening snapshot should be unsaved")
	}
}

func TestStartWritingClearsAndOpens(t *testing.T) {
	t.Parallel()

	s := newTestSession(nil)
	s.Open("old draft", "python")
	s.Close()

	s.StartWriting("go")
	if st := s.State(); !st.IsOpen || !st.Writing {
		t.Fatalf("after StartWriting: open=%v writing=%v", st.IsOpen, st.Writing)
	}
	if got := s.State().Content; got != "" {
		t.Fatalf("content not cleared: %q", got)
	}

	s.AppendContent("package main\n")
	s.AppendContent("func main() {")
	s.AppendContent("}\n")
	s.StopWriting()

	st := s.State()
	if st.Writing {
		t.Error("expected writing sub-state cleared")
	}
	want := "package main\nfunc main() {}\n"
	if st.Content != want {
		t.Errorf("content = %q, want %q", st.Content, want)
	}
	if st.Language != "go" {
		t.Errorf("language = %q, want %q", st.Language, "go")
	}
}

func TestSaveVersionCreatesThenAppends(t *testing.T) {
	t.Parallel()

	saver := &fakeSaver{}
	s := newTestSession(saver)
	ctx := context.Background()

	s.Open("v1", "go")
	if err := s.SaveVersion(ctx); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if len(saver.creates) != 1 {
		t.Fatalf("creates = %d, want 1", len(saver.creates))
	}

	st := s.State()
	if st.ArtifactID != "art-1" {
		t.Errorf("artifact id = %q, want %q", st.ArtifactID, "art-1")
	}
	if st.VersionCount != 2 || st.VersionIndex != 1 {
		t.Errorf("versions=%d index=%d, want 2 and 1", st.VersionCount, st.VersionIndex)
	}
	if st.Dirty {
		t.Error("save should clear the dirty flag")
	}

	s.UpdateContent("v2")
	if !s.State().Dirty {
		t.Fatal("edit should set the dirty flag")
	}
	if err := s.SaveVersion(ctx); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if len(saver.appends) != 1 || saver.appendID != "art-1" {
		t.Fatalf("appends=%d id=%q, want 1 under art-1", len(saver.appends), saver.appendID)
	}
	if got := s.State().VersionCount; got != 3 {
		t.Errorf("versions = %d, want 3", got)
	}
}

func TestSaveVersionFailureLeavesLogUnchanged(t *testing.T) {
	t.Parallel()

	saver := &fakeSaver{err: errors.New("backend down")}
	s := newTestSession(saver)
	s.Open("v1", "go")
	s.UpdateContent("v2")

	before := s.State()
	if err := s.SaveVersion(context.Background()); err == nil {
		t.Fatal("expected save to fail")
	}
	after := s.State()
	if after.VersionCount != before.VersionCount || after.VersionIndex != before.VersionIndex {
		t.Errorf("log changed on failure: %+v -> %+v", before, after)
	}
	if !after.Dirty {
		t.Error("dirty flag should survive a failed save")
	}
}

func TestSaveVersionGuards(t *testing.T) {
	t.Parallel()

	s := newTestSession(nil)
	s.Open("x", "go")
	if err := s.SaveVersion(context.Background()); !errors.Is(err, ErrNoSaver) {
		t.Errorf("err = %v, want ErrNoSaver", err)
	}

	s = newTestSession(&fakeSaver{})
	s.Open("", "go")
	if err := s.SaveVersion(context.Background()); !errors.Is(err, ErrNothingToSave) {
		t.Errorf("err = %v, want ErrNothingToSave", err)
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	t.Parallel()

	saver := &fakeSaver{}
	s := newTestSession(saver)
	ctx := context.Background()

	s.Open("first", "go")
	if err := s.SaveVersion(ctx); err != nil {
		t.Fatal(err)
	}
	s.UpdateContent("second")
	if err := s.SaveVersion(ctx); err != nil {
		t.Fatal(err)
	}

	s.Undo()
	if got := s.State().Content; got != "first" {
		t.Errorf("after undo: %q, want %q", got, "first")
	}
	s.Redo()
	if got := s.State().Content; got != "second" {
		t.Errorf("after redo: %q, want %q", got, "second")
	}

	// At the newest version a redo has nowhere to go.
	s.Redo()
	if got := s.State().Content; got != "second" {
		t.Errorf("redo past end changed content: %q", got)
	}
}

func TestRestoreOutOfBoundsIsNoOp(t *testing.T) {
	t.Parallel()

	s := newTestSession(nil)
	s.Open("only", "go")
	before := s.State()

	s.Restore(-1)
	s.Restore(5)

	after := s.State()
	if after.Content != before.Content || after.VersionIndex != before.VersionIndex {
		t.Errorf("state changed: %+v -> %+v", before, after)
	}
}

func TestLoadGuardsUnsavedEdits(t *testing.T) {
	t.Parallel()

	art := &api.Artifact{
		ID:       "art-9",
		Content:  "latest",
		Language: "python",
		Versions: []api.ArtifactVersion{
			{ID: "v1", Content: "old", Language: "python", Timestamp: time.Now().Add(-time.Hour)},
			{ID: "v2", Content: "latest", Language: "python", Timestamp: time.Now()},
		},
	}
	saver := &fakeSaver{artifact: art}
	ctx := context.Background()

	s := newTestSession(saver)
	s.Open("draft", "go")
	s.UpdateContent("unsaved work")

	if err := s.Load(ctx, "art-9"); !errors.Is(err, ErrUnsavedEdits) {
		t.Fatalf("load without confirm hook: %v, want ErrUnsavedEdits", err)
	}

	s.SetConfirmLoad(func() bool { return false })
	if err := s.Load(ctx, "art-9"); !errors.Is(err, ErrUnsavedEdits) {
		t.Fatalf("load with declining hook: %v, want ErrUnsavedEdits", err)
	}

	s.SetConfirmLoad(func() bool { return true })
	if err := s.Load(ctx, "art-9"); err != nil {
		t.Fatalf("load with approving hook: %v", err)
	}

	st := s.State()
	if st.Content != "latest" || st.ArtifactID != "art-9" {
		t.Errorf("loaded content=%q artifact=%q", st.Content, st.ArtifactID)
	}
	if st.VersionCount != 2 || st.VersionIndex != 1 {
		t.Errorf("versions=%d index=%d, want 2 and 1", st.VersionCount, st.VersionIndex)
	}
	if st.Dirty {
		t.Error("load should clear the dirty flag")
	}

	// A clean session loads without any hook at all.
	s2 := newTestSession(saver)
	if err := s2.Load(ctx, "art-9"); err != nil {
		t.Fatalf("clean load: %v", err)
	}
}

func TestAutoOpenFromStream(t *testing.T) {
	t.Parallel()

	long := "```python\n" + strings.Repeat("print(1)\n", 5) + "```"

	s := newTestSession(nil)
	if s.AutoOpenFromStream("no code here") {
		t.Error("opened without a fence")
	}
	if s.AutoOpenFromStream("```go\nx\n```") {
		t.Error("opened below the threshold")
	}
	if !s.AutoOpenFromStream(long) {
		t.Fatal("expected auto-open")
	}

	st := s.State()
	if !st.IsOpen || st.Language != "python" {
		t.Errorf("open=%v language=%q", st.IsOpen, st.Language)
	}
	if !strings.Contains(st.Content, "print(1)") {
		t.Errorf("content = %q", st.Content)
	}

	// Once per turn, and never while already open.
	if s.AutoOpenFromStream(long) {
		t.Error("opened twice in one turn")
	}
	s.Close()
	if s.AutoOpenFromStream(long) {
		t.Error("re-armed without ResetTurn")
	}
	s.ResetTurn()
	if !s.AutoOpenFromStream(long) {
		t.Error("expected auto-open after ResetTurn")
	}
}

func TestAutoOpenUnclosedFence(t *testing.T) {
	t.Parallel()

	s := newTestSession(nil)
	streaming := "here:\n```go\n" + strings.Repeat("fmt.Println()\n", 3)
	if !s.AutoOpenFromStream(streaming) {
		t.Fatal("expected auto-open on a still-streaming fence")
	}
	if got := s.State().Language; got != "go" {
		t.Errorf("language = %q, want %q", got, "go")
	}
}

func TestOnChangeFires(t *testing.T) {
	t.Parallel()

	s := newTestSession(nil)
	var fired int
	s.SetOnChange(func() { fired++ })

	s.Open("x", "go")
	s.AppendContent("y")
	s.Close()

	if fired != 3 {
		t.Errorf("hook fired %d times, want 3", fired)
	}
}
