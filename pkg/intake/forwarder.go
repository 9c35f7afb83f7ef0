package intake

import (
	"context"
	"sync"
)

// FollowUp is a follow-up email request issued by the model.
type FollowUp struct {
	To      string         `json:"to"`
	Subject string         `json:"subject,omitempty"`
	Body    string         `json:"body,omitempty"`
	Record  ClientRecord   `json:"record"`
	Args    map[string]any `json:"args,omitempty"`
}

// FollowUpForwarder delivers follow-up requests outside the call.
type FollowUpForwarder interface {
	Forward(ctx context.Context, f FollowUp) error
}

// ForwarderFunc adapts a function to FollowUpForwarder.
type ForwarderFunc func(ctx context.Context, f FollowUp) error

// Forward implements FollowUpForwarder.
func (fn ForwarderFunc) Forward(ctx context.Context, f FollowUp) error {
	return fn(ctx, f)
}

// RecordingForwarder captures follow-ups in memory for testing.
type RecordingForwarder struct {
	mu sync.Mutex

	// Err, if set, is returned by Forward.
	Err error

	forwarded []FollowUp
}

// Forward implements FollowUpForwarder.
func (r *RecordingForwarder) Forward(_ context.Context, f FollowUp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forwarded = append(r.forwarded, f)
	return r.Err
}

// Forwarded returns a copy of the captured follow-ups.
func (r *RecordingForwarder) Forwarded() []FollowUp {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FollowUp(nil), r.forwarded...)
}

// Compile-time interface checks.
var (
	_ FollowUpForwarder = (*RecordingForwarder)(nil)
	_ FollowUpForwarder = ForwarderFunc(nil)
)
