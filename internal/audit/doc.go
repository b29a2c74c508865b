// Package audit dispatches verification events to a sink off the request
// path.
//
// The engine decides which events to emit; this package only buffers and
// delivers them. A full buffer either drops the event and counts it, or
// blocks the emitter until there is room or its context ends.
package audit
