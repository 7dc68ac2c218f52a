package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/synapsbranch/synapse/internal/log"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Token: "secret", Logger: log.NewNop()})
}

func TestClientAttachesBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]Workspace{})
	}))

	if _, err := c.ListWorkspaces(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer secret")
	}
}

func TestClientStatusErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, want: ErrUnauthorized},
		{name: "not found", status: http.StatusNotFound, want: ErrNotFound},
		{name: "server error", status: http.StatusInternalServerError, want: ErrServer},
		{name: "bad gateway", status: http.StatusBadGateway, want: ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			_, err := c.ListWorkspaces(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestListConversationsQueries(t *testing.T) {
	t.Parallel()

	var gotQuery string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode([]Conversation{})
	}))
	ctx := context.Background()

	if _, err := c.ListConversations(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if gotQuery != "standalone=true" {
		t.Errorf("standalone query = %q", gotQuery)
	}

	if _, err := c.ListConversations(ctx, "ws-1"); err != nil {
		t.Fatal(err)
	}
	if gotQuery != "workspace_id=ws-1" {
		t.Errorf("workspace query = %q", gotQuery)
	}
}

func TestForkPostsToMessageEndpoint(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Message{ID: "m3", BranchName: "alt"})
	}))

	forked, err := c.Fork(context.Background(), "m2", "alt", "edited")
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/messages/m2/fork" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["new_branch_name"] != "alt" || gotBody["new_content"] != "edited" {
		t.Errorf("body = %v", gotBody)
	}
	if forked.ID != "m3" {
		t.Errorf("forked = %+v", forked)
	}
}

func TestArtifactEndpoints(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/canvas", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ArtifactRef{ArtifactID: "a1", VersionID: "v1"})
	})
	mux.HandleFunc("POST /api/canvas/a1/versions", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ArtifactRef{ArtifactID: "a1", VersionID: "v2"})
	})
	mux.HandleFunc("GET /api/canvas/a1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(Artifact{ID: "a1", Content: "x", Language: "go"})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	ref, err := c.CreateArtifact(ctx, ArtifactRequest{Content: "x", Language: "go"})
	if err != nil {
		t.Fatal(err)
	}
	if ref.ArtifactID != "a1" || ref.VersionID != "v1" {
		t.Errorf("create ref = %+v", ref)
	}

	ref, err = c.AppendArtifactVersion(ctx, "a1", ArtifactRequest{Content: "y", Language: "go"})
	if err != nil {
		t.Fatal(err)
	}
	if ref.VersionID != "v2" {
		t.Errorf("append ref = %+v", ref)
	}

	art, err := c.GetArtifact(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if art.Content != "x" || art.Language != "go" {
		t.Errorf("artifact = %+v", art)
	}
}
