// Package transcript accumulates streamed transcript fragments into an
// ordered history of conversational turns.
package transcript

import (
	"strings"
	"sync"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	// Caller is the person on the line.
	Caller Speaker = "caller"
	// Assistant is the remote model.
	Assistant Speaker = "assistant"
)

// Label returns the display name used when rendering a transcript.
func (s Speaker) Label() string {
	switch s {
	case Caller:
		return "Caller"
	case Assistant:
		return "Assistant"
	default:
		return string(s)
	}
}

// Turn is one complete utterance. Turns are never modified after they
// enter the history.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Aggregator collects partial fragments per speaker and commits them as
// turns when the remote side signals the end of a turn.
//
// Mutations are expected from a single goroutine; the lock only makes
// concurrent reads (dashboards, reports) safe.
type Aggregator struct {
	mu sync.RWMutex

	pendingCaller    strings.Builder
	pendingAssistant strings.Builder
	history          []Turn
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// AppendCallerDelta appends a caller fragment.
func (a *Aggregator) AppendCallerDelta(text string) {
	a.mu.Lock()
	a.pendingCaller.WriteString(text)
	a.mu.Unlock()
}

// AppendAssistantDelta appends an assistant fragment.
func (a *Aggregator) AppendAssistantDelta(text string) {
	a.mu.Lock()
	a.pendingAssistant.WriteString(text)
	a.mu.Unlock()
}

// CommitTurn moves the pending buffers into the history, caller first,
// skipping empty ones, and returns the turns it appended.
func (a *Aggregator) CommitTurn() []Turn {
	a.mu.Lock()
	defer a.mu.Unlock()

	var committed []Turn
	if a.pendingCaller.Len() > 0 {
		committed = append(committed, Turn{Speaker: Caller, Text: a.pendingCaller.String()})
	}
	if a.pendingAssistant.Len() > 0 {
		committed = append(committed, Turn{Speaker: Assistant, Text: a.pendingAssistant.String()})
	}
	a.pendingCaller.Reset()
	a.pendingAssistant.Reset()

	a.history = append(a.history, committed...)
	return committed
}

// Pending returns the uncommitted caller and assistant text.
func (a *Aggregator) Pending() (caller, assistant string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pendingCaller.String(), a.pendingAssistant.String()
}

// History returns a copy of the committed turns in order.
func (a *Aggregator) History() []Turn {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]Turn, len(a.history))
	copy(out, a.history)
	return out
}

// Len returns the number of committed turns.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.history)
}

// Text renders the committed history as "Speaker: text" lines.
func (a *Aggregator) Text() string {
	return Format(a.History())
}

// Reset discards pending fragments and history.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pendingCaller.Reset()
	a.pendingAssistant.Reset()
	a.history = nil
}

// Format renders turns as "Speaker: text" lines.
func Format(turns []Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.Speaker.Label())
		b.WriteString(": ")
		b.WriteString(t.Text)
	}
	return b.String()
}
