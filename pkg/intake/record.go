// Package intake holds the structured case data collected during a call and
// the dispatcher that applies the model's tool calls to it.
package intake

import (
	"sync"
	"time"
)

// ClientRecord accumulates the fields extracted by tool calls. Later
// writes to the same field replace earlier ones.
type ClientRecord struct {
	Name               string   `json:"name,omitempty"`
	Email              string   `json:"email,omitempty"`
	Phone              string   `json:"phone,omitempty"`
	CaseSummary        string   `json:"caseSummary,omitempty"`
	RequestedDocuments []string `json:"requestedDocuments,omitempty"`
	Appointment        string   `json:"appointment,omitempty"`
}

// Urgency is the urgency flag of the current call.
type Urgency struct {
	Urgent    bool      `json:"isUrgent"`
	Reason    string    `json:"urgencyReason,omitempty"`
	FlaggedAt time.Time `json:"flaggedAt,omitempty"`
}

// State is the intake state of one call: the client record plus the
// urgency flag.
type State struct {
	mu      sync.RWMutex
	record  ClientRecord
	urgency Urgency
}

// NewState creates an empty state.
func NewState() *State {
	return &State{}
}

// Record returns a copy of the client record.
func (s *State) Record() ClientRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := s.record
	r.RequestedDocuments = append([]string(nil), s.record.RequestedDocuments...)
	return r
}

// Urgency returns the urgency flag.
func (s *State) Urgency() Urgency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.urgency
}

// Update applies fn to the record under the state lock.
func (s *State) Update(fn func(r *ClientRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.record)
}

// FlagUrgent marks the call urgent. A later flag replaces the reason.
func (s *State) FlagUrgent(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urgency = Urgency{Urgent: true, Reason: reason, FlaggedAt: time.Now()}
}

// FlagUrgentOnce marks the call urgent unless it already is, and reports
// whether it changed anything.
func (s *State) FlagUrgentOnce(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.urgency.Urgent {
		return false
	}
	s.urgency = Urgency{Urgent: true, Reason: reason, FlaggedAt: time.Now()}
	return true
}

// Reset clears the record and the urgency flag.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = ClientRecord{}
	s.urgency = Urgency{}
}
