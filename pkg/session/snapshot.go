package session

import (
	"time"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/intake"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/report"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/settings"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/transcript"
)

// Snapshot is a point-in-time view of the current call.
type Snapshot struct {
	ID               string              `json:"id,omitempty"`
	State            State               `json:"state"`
	StartedAt        time.Time           `json:"startedAt"`
	EndedAt          time.Time           `json:"endedAt"`
	Error            string              `json:"error,omitempty"`
	Urgency          intake.Urgency      `json:"urgency"`
	Record           intake.ClientRecord `json:"record"`
	Transcript       []transcript.Turn   `json:"transcript"`
	PendingCaller    string              `json:"pendingCaller,omitempty"`
	PendingAssistant string              `json:"pendingAssistant,omitempty"`
	PendingPlayback  int                 `json:"pendingPlayback"`
	Report           *report.Report      `json:"report,omitempty"`
}

// Snapshot returns the current view of the call.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	caller, assistant := c.transcript.Pending()
	snap := Snapshot{
		ID:               c.id,
		State:            c.state,
		StartedAt:        c.startedAt,
		EndedAt:          c.endedAt,
		Error:            c.errReason,
		Urgency:          c.intake.Urgency(),
		Record:           c.intake.Record(),
		Transcript:       c.transcript.History(),
		PendingCaller:    caller,
		PendingAssistant: assistant,
		Report:           c.report,
	}
	if c.res != nil && !c.res.torn && c.res.sched != nil {
		snap.PendingPlayback = c.res.sched.Pending()
	}
	return snap
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the reason of the last failure, or "".
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateError {
		return ""
	}
	return c.errReason
}

// Transcript returns the committed turns of the current call.
func (c *Controller) Transcript() []transcript.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.History()
}

// Record returns the client record of the current call.
func (c *Controller) Record() intake.ClientRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intake.Record()
}

// Report returns the last generated report, or nil.
func (c *Controller) Report() *report.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// Settings returns the settings the current call was started with.
func (c *Controller) Settings() settings.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.Clone()
}

// Subscribe returns a stream of snapshots published on every state,
// transcript or record change, and a function that cancels the
// subscription. Slow subscribers miss snapshots rather than blocking the
// call. The stream is closed by Close.
func (c *Controller) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberQueue
	}
	ch := make(chan Snapshot, buffer)

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		close(ch)
		return ch, func() {}
	}

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			close(sub)
			delete(c.subs, id)
		}
	}
}

func (c *Controller) broadcastLocked() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if len(c.subs) == 0 {
		return
	}

	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
