// Package workspace groups conversations into named workspaces and tracks
// which workspace and conversation are selected.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/synapsbranch/synapse/internal/api"
)

var (
	// ErrEmptyName is returned when a workspace or conversation is created
	// without a name.
	ErrEmptyName = errors.New("name must not be empty")
)

// Backend is the slice of the HTTP API the directory uses.
type Backend interface {
	ListWorkspaces(ctx context.Context) ([]api.Workspace, error)
	CreateWorkspace(ctx context.Context, name, description string) (*api.Workspace, error)
	UpdateWorkspace(ctx context.Context, id, name, description string) (*api.Workspace, error)
	DeleteWorkspace(ctx context.Context, id string) error
	ListConversations(ctx context.Context, workspaceID string) ([]api.Conversation, error)
	CreateConversation(ctx context.Context, workspaceID, title string) (*api.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
}

// Directory lists and manages workspaces and their conversations. The
// empty workspace ID addresses standalone conversations.
type Directory struct {
	backend Backend

	mu      sync.Mutex
	current string // selected workspace ID, empty for standalone
}

// NewDirectory builds a directory over the given backend.
func NewDirectory(backend Backend) *Directory {
	if backend == nil {
		panic("workspace: directory requires a backend")
	}
	return &Directory{backend: backend}
}

// Select makes the given workspace current. Empty selects the standalone
// area.
func (d *Directory) Select(workspaceID string) {
	d.mu.Lock()
	d.current = workspaceID
	d.mu.Unlock()
}

// Current returns the selected workspace ID.
func (d *Directory) Current() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Workspaces lists all workspaces.
func (d *Directory) Workspaces(ctx context.Context) ([]api.Workspace, error) {
	ws, err := d.backend.ListWorkspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return ws, nil
}

// Create adds a workspace and selects it.
func (d *Directory) Create(ctx context.Context, name, description string) (*api.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	ws, err := d.backend.CreateWorkspace(ctx, name, description)
	if err != nil {
		return nil, fmt.Errorf("create workspace %q: %w", name, err)
	}
	d.Select(ws.ID)
	return ws, nil
}

// Rename updates a workspace's name and description.
func (d *Directory) Rename(ctx context.Context, id, name, description string) (*api.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	ws, err := d.backend.UpdateWorkspace(ctx, id, name, description)
	if err != nil {
		return nil, fmt.Errorf("rename workspace %s: %w", id, err)
	}
	return ws, nil
}

// Delete removes a workspace. Deleting the selected workspace falls back
// to the standalone area.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if err := d.backend.DeleteWorkspace(ctx, id); err != nil {
		return fmt.Errorf("delete workspace %s: %w", id, err)
	}
	d.mu.Lock()
	if d.current == id {
		d.current = ""
	}
	d.mu.Unlock()
	return nil
}

// Conversations lists the conversations of the selected workspace, or the
// standalone conversations when none is selected.
func (d *Directory) Conversations(ctx context.Context) ([]api.Conversation, error) {
	convs, err := d.backend.ListConversations(ctx, d.Current())
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// NewConversation creates a conversation in the selected workspace.
func (d *Directory) NewConversation(ctx context.Context, title string) (*api.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New conversation"
	}
	conv, err := d.backend.CreateConversation(ctx, d.Current(), title)
	if err != nil {
		return nil, fmt.Errorf("create conversation %q: %w", title, err)
	}
	return conv, nil
}

// DeleteConversation removes a conversation.
func (d *Directory) DeleteConversation(ctx context.Context, id string) error {
	if err := d.backend.DeleteConversation(ctx, id); err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	return nil
}
