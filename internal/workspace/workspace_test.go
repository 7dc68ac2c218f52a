package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/synapsbranch/synapse/internal/api"
)

type fakeBackend struct {
	workspaces    []api.Workspace
	conversations map[string][]api.Conversation
	lastListID    string
	deletedWS     []string
	deletedConv   []string
}

func (f *fakeBackend) ListWorkspaces(_ context.Context) ([]api.Workspace, error) {
	return f.workspaces, nil
}

func (f *fakeBackend) CreateWorkspace(_ context.Context, name, description string) (*api.Workspace, error) {
	ws := api.Workspace{ID: "ws-" + name, Name: name, Description: description}
	f.workspaces = append(f.workspaces, ws)
	return &ws, nil
}

func (f *fakeBackend) UpdateWorkspace(_ context.Context, id, name, description string) (*api.Workspace, error) {
	return &api.Workspace{ID: id, Name: name, Description: description}, nil
}

func (f *fakeBackend) DeleteWorkspace(_ context.Context, id string) error {
	f.deletedWS = append(f.deletedWS, id)
	return nil
}

func (f *fakeBackend) ListConversations(_ context.Context, workspaceID string) ([]api.Conversation, error) {
	f.lastListID = workspaceID
	return f.conversations[workspaceID], nil
}

func (f *fakeBackend) CreateConversation(_ context.Context, workspaceID, title string) (*api.Conversation, error) {
	return &api.Conversation{ID: "conv-1", WorkspaceID: workspaceID, Title: title}, nil
}

func (f *fakeBackend) DeleteConversation(_ context.Context, id string) error {
	f.deletedConv = append(f.deletedConv, id)
	return nil
}

func TestCreateSelectsNewWorkspace(t *testing.T) {
	t.Parallel()

	d := NewDirectory(&fakeBackend{})
	ws, err := d.Create(context.Background(), "research", "")
	if err != nil {
		t.Fatal(err)
	}
	if d.Current() != ws.ID {
		t.Errorf("current = %q, want %q", d.Current(), ws.ID)
	}

	if _, err := d.Create(context.Background(), "   ", ""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("blank name: %v, want ErrEmptyName", err)
	}
}

func TestDeleteSelectedFallsBackToStandalone(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{conversations: map[string][]api.Conversation{
		"":     {{ID: "c1", Title: "standalone"}},
		"ws-a": {{ID: "c2", WorkspaceID: "ws-a", Title: "inside"}},
	}}
	d := NewDirectory(backend)
	d.Select("ws-a")

	convs, err := d.Conversations(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 || convs[0].ID != "c2" {
		t.Errorf("workspace conversations = %v", convs)
	}

	if err := d.Delete(context.Background(), "ws-a"); err != nil {
		t.Fatal(err)
	}
	if d.Current() != "" {
		t.Errorf("current after delete = %q, want empty", d.Current())
	}

	convs, err = d.Conversations(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 || convs[0].ID != "c1" {
		t.Errorf("standalone conversations = %v", convs)
	}
	if backend.lastListID != "" {
		t.Errorf("listed workspace %q, want standalone", backend.lastListID)
	}
}

func TestNewConversationDefaultsTitle(t *testing.T) {
	t.Parallel()

	d := NewDirectory(&fakeBackend{})
	conv, err := d.NewConversation(context.Background(), "  ")
	if err != nil {
		t.Fatal(err)
	}
	if conv.Title != "New conversation" {
		t.Errorf("title = %q", conv.Title)
	}
}
