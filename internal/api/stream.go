package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
)

// dataPrefix marks the payload line of a server-sent event.
const dataPrefix = "data: "

// StreamChat opens the streaming chat endpoint and yields frames in arrival
// order as a Go 1.23 iterator:
//
//	for frame, err := range client.StreamChat(ctx, req) {
//	    if err != nil { ... }
//	    switch frame.Type { ... }
//	}
//
// The iterator terminates after yielding a done or error frame, on transport
// failure (yielded as a non-nil error), or when the caller breaks out of the
// loop. Malformed frames are logged and skipped; they never abort the
// stream. The connection is closed on all exit paths.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		body, err := c.openStream(ctx, req)
		if err != nil {
			yield(Frame{}, err)
			return
		}
		defer body.Close()

		reader := bufio.NewReaderSize(body, 64<<10)
		sawTerminal := false

		for {
			line, err := readLine(reader)
			if err != nil {
				if errors.Is(err, io.EOF) {
					if !sawTerminal {
						yield(Frame{}, ErrStreamClosed)
					}
					return
				}
				if ctx.Err() != nil {
					yield(Frame{}, ctx.Err())
					return
				}
				yield(Frame{}, fmt.Errorf("reading stream: %w", err))
				return
			}

			payload, ok := strings.CutPrefix(line, dataPrefix)
			if !ok {
				// Blank separator lines and SSE comments carry no data.
				continue
			}

			var frame Frame
			if err := json.Unmarshal([]byte(payload), &frame); err != nil {
				// One bad frame must not poison the rest of the stream.
				c.logger.Warn("skipping malformed stream frame", "error", err)
				continue
			}

			if !yield(frame, nil) {
				return
			}

			if frame.Type == FrameDone || frame.Type == FrameError {
				sawTerminal = true
				return
			}
		}
	}
}

// openStream issues the streaming POST and returns the response body.
func (c *Client) openStream(ctx context.Context, chatReq ChatRequest) (io.ReadCloser, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	data, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/stream", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("building stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opening chat stream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, fmt.Errorf("chat stream: %w",
			statusError(resp.StatusCode, strings.TrimSpace(string(excerpt))))
	}

	return resp.Body, nil
}

// readLine reads one line and returns it without the trailing newline.
// A final unterminated line is returned before EOF is reported.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
