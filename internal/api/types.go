package api

import "time"

// Role values used by the backend for message attribution.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Workspace groups conversations and artifacts under one project.
type Workspace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Conversation is a chat thread. WorkspaceID is empty for standalone chats.
type Conversation struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Message is one node of a conversation's message forest.
//
// Every non-root message carries a ParentID referencing an existing message.
// BranchName is assigned at creation and never mutated; a fork creates a new
// message whose parent lives on another branch but whose own branch name
// differs.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	BranchName     string    `json:"branch_name"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	ParentID       *string   `json:"parent_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Branch summarizes one named line of history within a conversation.
type Branch struct {
	Name         string `json:"name"`
	MessageCount int    `json:"message_count"`
}

// TreeNode is the read-only projection of a message for visualization.
type TreeNode struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	BranchName string    `json:"branch_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// TreeEdge links a message to its parent. A fork is an edge whose endpoints
// carry different branch names.
type TreeEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Tree is the full cross-branch projection of one conversation.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
	Edges []TreeEdge `json:"edges"`
}

// ArtifactVersion is one persisted snapshot under an artifact.
type ArtifactVersion struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	Timestamp time.Time `json:"timestamp"`
}

// Artifact is a persisted canvas snapshot with its version history.
type Artifact struct {
	ID             string            `json:"id"`
	Content        string            `json:"content"`
	Language       string            `json:"language"`
	WorkspaceID    string            `json:"workspace_id,omitempty"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Versions       []ArtifactVersion `json:"versions"`
}

// ArtifactRequest is the payload for creating an artifact or appending a
// version under an existing one.
type ArtifactRequest struct {
	Content        string `json:"content"`
	Language       string `json:"language"`
	WorkspaceID    string `json:"workspace_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ArtifactRef identifies the artifact and version produced by a save.
type ArtifactRef struct {
	ArtifactID string `json:"artifact_id"`
	VersionID  string `json:"version_id"`
}

// CanvasContext carries the open canvas state alongside a chat request so
// the model can see what the user is editing.
type CanvasContext struct {
	IsOpen   bool   `json:"is_open"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

// ChatRequest is the payload for the streaming chat endpoint.
// ParentID is resolved by the caller as the last message of the currently
// filtered branch (nil when the branch is empty).
type ChatRequest struct {
	ConversationID string         `json:"conversation_id"`
	Content        string         `json:"content"`
	ParentID       *string        `json:"parent_id"`
	BranchName     string         `json:"branch_name"`
	Model          string         `json:"model"`
	CanvasContext  *CanvasContext `json:"canvas_context,omitempty"`
}

// Frame type discriminators emitted by the streaming chat endpoint.
const (
	FrameMeta  = "meta"  // carries the persisted user message
	FrameChunk = "chunk" // carries a content fragment
	FrameDone  = "done"  // carries the finalized assistant message
	FrameError = "error" // carries an error description
)

// Frame is one server-sent event from the streaming chat endpoint.
// Exactly one of the payload fields is set, selected by Type.
type Frame struct {
	Type        string   `json:"type"`
	UserMessage *Message `json:"user_message,omitempty"`
	Content     string   `json:"content,omitempty"`
	AIMessage   *Message `json:"ai_message,omitempty"`
	Error       string   `json:"error,omitempty"`
}
