package stream

import (
	"strings"
)

const (
	openMarker  = "<canvas"
	closeMarker = "</canvas>"
)

// EventKind identifies what a scanner event carries.
type EventKind int

const (
	// EventChatText is plain chat text outside any canvas region.
	EventChatText EventKind = iota
	// EventCanvasOpen marks the start of a canvas region.
	EventCanvasOpen
	// EventCanvasText is code inside the current canvas region.
	EventCanvasText
	// EventCanvasClose marks the end of the current canvas region.
	EventCanvasClose
)

// Event is a single classified piece of the token stream.
type Event struct {
	Kind     EventKind
	Text     string
	Language string
}

// Scanner splits a token stream into chat and canvas events. It keeps a
// small holdback buffer so markers split across Write calls are still
// recognized: the sequence of events is the same no matter how the input
// is chunked. Scanner is not safe for concurrent use.
type Scanner struct {
	inCanvas bool
	held     string
}

// NewScanner returns a scanner in chat mode with an empty holdback buffer.
func NewScanner() *Scanner {
	return &Scanner{}
}

// InCanvas reports whether the scanner is currently inside a canvas region.
func (s *Scanner) InCanvas() bool {
	return s.inCanvas
}

// Write feeds the next chunk of stream text to the scanner and returns the
// events it can classify so far. Bytes that could still turn out to be part
// of a marker are held until the next Write or Flush.
func (s *Scanner) Write(chunk string) []Event {
	data := s.held + chunk
	s.held = ""

	var events []Event
	for data != "" {
		var done bool
		if s.inCanvas {
			data, done = s.scanCanvas(data, &events)
		} else {
			data, done = s.scanChat(data, &events)
		}
		if done {
			break
		}
	}
	return events
}

// Flush releases whatever the scanner is still holding back. Held chat
// bytes turn out not to be a marker once the stream ends, so they are
// emitted as chat text; inside an unterminated canvas region they belong
// to the canvas. Flush does not close an open region.
func (s *Scanner) Flush() []Event {
	if s.held == "" {
		return nil
	}
	held := s.held
	s.held = ""
	kind := EventChatText
	if s.inCanvas {
		kind = EventCanvasText
	}
	return []Event{{Kind: kind, Text: held}}
}

// scanChat consumes data while outside a canvas region. It returns the
// remaining input and whether the caller should stop until more data
// arrives.
func (s *Scanner) scanChat(data string, events *[]Event) (string, bool) {
	idx := strings.Index(data, openMarker)
	if idx < 0 {
		safe, held := splitPartial(data, openMarker)
		if safe != "" {
			*events = append(*events, Event{Kind: EventChatText, Text: safe})
		}
		s.held = held
		return "", true
	}

	rest := data[idx+len(openMarker):]
	if rest == "" {
		// Marker name complete but the attribute list has not arrived.
		s.emitChat(events, data[:idx])
		s.held = data[idx:]
		return "", true
	}
	if !isSpace(rest[0]) {
		// Something like "<canvasser": not a marker, keep it as chat and
		// rescan the remainder for a later real marker.
		s.emitChat(events, data[:idx+len(openMarker)])
		return rest, false
	}

	end := strings.IndexByte(rest, '>')
	if end < 0 {
		s.emitChat(events, data[:idx])
		s.held = data[idx:]
		return "", true
	}

	lang := attrValue(rest[:end], "lang")
	if lang == "" {
		// A canvas tag without a language is ordinary chat text.
		s.emitChat(events, data[:idx+len(openMarker)+end+1])
		return rest[end+1:], false
	}

	s.emitChat(events, data[:idx])
	*events = append(*events, Event{Kind: EventCanvasOpen, Language: lang})
	s.inCanvas = true
	return rest[end+1:], false
}

// scanCanvas consumes data while inside a canvas region.
func (s *Scanner) scanCanvas(data string, events *[]Event) (string, bool) {
	idx := strings.Index(data, closeMarker)
	if idx < 0 {
		safe, held := splitPartial(data, closeMarker)
		if safe != "" {
			*events = append(*events, Event{Kind: EventCanvasText, Text: safe})
		}
		s.held = held
		return "", true
	}

	if idx > 0 {
		*events = append(*events, Event{Kind: EventCanvasText, Text: data[:idx]})
	}
	*events = append(*events, Event{Kind: EventCanvasClose})
	s.inCanvas = false
	return data[idx+len(closeMarker):], false
}

func (s *Scanner) emitChat(events *[]Event, text string) {
	if text != "" {
		*events = append(*events, Event{Kind: EventChatText, Text: text})
	}
}

// splitPartial separates data into a safe part and a trailing suffix that
// is a proper prefix of marker and therefore might complete on the next
// chunk. Only the last len(marker)-1 bytes can be such a suffix.
func splitPartial(data, marker string) (safe, held string) {
	start := len(data) - len(marker) + 1
	if start < 0 {
		start = 0
	}
	for i := start; i < len(data); i++ {
		if data[i] != marker[0] {
			continue
		}
		if strings.HasPrefix(marker, data[i:]) {
			return data[:i], data[i:]
		}
	}
	return data, ""
}

// attrValue reads the double-quoted value of name from a marker attribute
// list such as ` lang="python"`.
func attrValue(attrs, name string) string {
	key := name + `="`
	idx := strings.Index(attrs, key)
	if idx < 0 {
		return ""
	}
	rest := attrs[idx+len(key):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return rest[:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
