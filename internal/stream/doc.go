// Package stream demultiplexes the chat token stream into its chat-text
// and canvas-code channels.
//
// The model embeds canvas regions inline in the response text using
// <canvas lang="LANG"> ... </canvas> markers. Scanner is an incremental
// state machine that classifies every byte of the stream as exactly one of
// chat or canvas, holding back any trailing bytes that could be the prefix
// of a marker so tags split across network frames are still detected.
// Router drives the scanner over incoming frame content and forwards the
// classified text to injected chat and canvas sinks, persisting each
// completed canvas region as an artifact in the background.
package stream
