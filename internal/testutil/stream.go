package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/synapsbranch/synapse/internal/api"
)

// StreamServer starts a backend that answers POST /api/chat/stream with
// the given frames as server-sent events. The server closes with the
// test.
func StreamServer(t *testing.T, frames []api.Frame) *httptest.Server {
	t.Helper()

	lines := make([]string, 0, len(frames))
	for _, frame := range frames {
		data, err := json.Marshal(frame)
		if err != nil {
			t.Fatalf("marshal frame: %v", err)
		}
		lines = append(lines, string(data))
	}
	return RawStreamServer(t, lines)
}

// RawStreamServer is StreamServer for pre-encoded data lines, letting a
// test serve malformed payloads.
func RawStreamServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer does not support flushing")
			return
		}
		for _, line := range lines {
			if _, err := w.Write([]byte("data: " + line + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
