package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// maxErrorBody bounds how much of an error response body is read into the
// returned error message.
const maxErrorBody = 4 << 10

// Config contains the settings for a backend client.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:8001".
	// The "/api" prefix is appended by the client.
	BaseURL string

	// Token is the bearer token attached to every request. Optional.
	Token string

	// Timeout applies to non-streaming requests. Zero means no timeout.
	// Streaming requests are bounded only by their context.
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing requests. Zero disables the
	// limiter.
	RequestsPerSecond float64

	// Logger for request diagnostics (nil = slog.Default).
	Logger *slog.Logger

	// HTTPClient overrides the underlying client. Optional; mainly for
	// tests. The configured Timeout is not applied to an injected client.
	HTTPClient *http.Client
}

// Client talks to the synapse backend REST and streaming endpoints.
// It is safe for concurrent use.
type Client struct {
	base    string
	token   string
	http    *http.Client
	stream  *http.Client // no client-level timeout; would kill long streams
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a backend client from cfg.
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/") + "/api",
		token:   cfg.Token,
		http:    httpClient,
		stream:  &http.Client{Transport: httpClient.Transport},
		limiter: limiter,
		logger:  logger,
	}
}

// do issues a JSON request and decodes the JSON response into out (ignored
// when out is nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s %s: %w", method, path,
			statusError(resp.StatusCode, strings.TrimSpace(string(excerpt))))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// Workspaces

// ListWorkspaces returns all workspaces visible to the caller.
func (c *Client) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	var out []Workspace
	if err := c.do(ctx, http.MethodGet, "/workspaces", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateWorkspace creates a workspace and returns the persisted record.
func (c *Client) CreateWorkspace(ctx context.Context, name, description string) (*Workspace, error) {
	in := map[string]string{"name": name, "description": description}
	var out Workspace
	if err := c.do(ctx, http.MethodPost, "/workspaces", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateWorkspace updates name and description of an existing workspace.
func (c *Client) UpdateWorkspace(ctx context.Context, id, name, description string) (*Workspace, error) {
	in := map[string]string{"name": name, "description": description}
	var out Workspace
	if err := c.do(ctx, http.MethodPut, "/workspaces/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteWorkspace removes a workspace and cascades to its conversations.
func (c *Client) DeleteWorkspace(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/workspaces/"+url.PathEscape(id), nil, nil)
}

// Conversations

// ListConversations returns conversations in a workspace, or standalone
// conversations when workspaceID is empty.
func (c *Client) ListConversations(ctx context.Context, workspaceID string) ([]Conversation, error) {
	path := "/conversations?standalone=true"
	if workspaceID != "" {
		path = "/conversations?workspace_id=" + url.QueryEscape(workspaceID)
	}
	var out []Conversation
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConversation creates a conversation, optionally inside a workspace.
func (c *Client) CreateConversation(ctx context.Context, workspaceID, title string) (*Conversation, error) {
	in := map[string]string{"title": title}
	if workspaceID != "" {
		in["workspace_id"] = workspaceID
	}
	var out Conversation
	if err := c.do(ctx, http.MethodPost, "/conversations", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a conversation and all of its messages.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/conversations/"+url.PathEscape(id), nil, nil)
}

// Messages and branches

// ListMessages returns every message of a conversation across all branches.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	var out []Message
	path := "/messages?conversation_id=" + url.QueryEscape(conversationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteMessage removes a single message. Used by regenerate-response.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+url.PathEscape(id), nil, nil)
}

// Fork creates a new message under messageID on a new branch, diverging
// history at that point. The original branch is never mutated.
func (c *Client) Fork(ctx context.Context, messageID, newBranchName, newContent string) (*Message, error) {
	in := map[string]string{
		"new_branch_name": newBranchName,
		"new_content":     newContent,
	}
	var out Message
	path := "/messages/" + url.PathEscape(messageID) + "/fork"
	if err := c.do(ctx, http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBranches returns the branch summaries of a conversation.
func (c *Client) ListBranches(ctx context.Context, conversationID string) ([]Branch, error) {
	var out []Branch
	path := "/conversations/" + url.PathEscape(conversationID) + "/branches"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchTree returns the full cross-branch tree projection of a conversation.
func (c *Client) FetchTree(ctx context.Context, conversationID string) (*Tree, error) {
	var out Tree
	path := "/conversations/" + url.PathEscape(conversationID) + "/tree"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Canvas artifacts

// CreateArtifact persists new canvas content as a fresh artifact.
func (c *Client) CreateArtifact(ctx context.Context, req ArtifactRequest) (*ArtifactRef, error) {
	var out ArtifactRef
	if err := c.do(ctx, http.MethodPost, "/canvas", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AppendArtifactVersion adds a version under an existing artifact.
func (c *Client) AppendArtifactVersion(ctx context.Context, artifactID string, req ArtifactRequest) (*ArtifactRef, error) {
	var out ArtifactRef
	path := "/canvas/" + url.PathEscape(artifactID) + "/versions"
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetArtifact fetches an artifact with its full version list.
func (c *Client) GetArtifact(ctx context.Context, artifactID string) (*Artifact, error) {
	var out Artifact
	if err := c.do(ctx, http.MethodGet, "/canvas/"+url.PathEscape(artifactID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
