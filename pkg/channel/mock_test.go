package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

func drain(ch <-chan Event) []Event {
	var out []Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestMock_SimulateError(t *testing.T) {
	m := NewMock()
	m.SimulateOpen()
	m.SimulateError(NewAPIError(1011, "internal"))

	events := drain(m.Events())
	want := []string{"opened", "error", "closed"}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if EventName(ev) != want[i] {
			t.Errorf("event %d = %s, want %s", i, EventName(ev), want[i])
		}
	}
	if c := events[2].(Closed); c.Reason != "internal" {
		t.Errorf("Closed.Reason = %q", c.Reason)
	}
}

func TestMock_EmitAfterCloseDropped(t *testing.T) {
	m := NewMock()
	m.SimulateClose(Closed{Code: 1000})
	m.SimulateOpen()
	m.SimulateClose(Closed{Code: 1000})

	if events := drain(m.Events()); len(events) != 1 {
		t.Errorf("got %d events, want 1", len(events))
	}
}

func TestMock_CloseIdempotent(t *testing.T) {
	m := NewMock()
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if m.Closes() != 2 {
		t.Errorf("Closes() = %d, want 2", m.Closes())
	}
	drain(m.Events())

	if err := m.SendAudio(audioio.Encode([]byte{0, 0}, 16000)); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("SendAudio() after Close error = %v", err)
	}
}

func TestMock_Captures(t *testing.T) {
	m := NewMock()
	m.SendAudio(audioio.Encode([]byte{0, 0}, 16000))
	m.SendToolResult("c1", "end_call", map[string]any{"result": "ok"})

	if len(m.Sent()) != 1 {
		t.Errorf("Sent() = %d packets, want 1", len(m.Sent()))
	}
	res := m.Results()
	if len(res) != 1 || res[0].ID != "c1" || res[0].Name != "end_call" {
		t.Errorf("Results() = %+v", res)
	}
}

func TestMockDialer(t *testing.T) {
	d := &MockDialer{}
	if d.Last() != nil {
		t.Error("Last() should be nil before Connect")
	}

	ch, err := d.Connect(context.Background(), SessionConfig{SystemPrompt: "p"})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if d.Last() != ch {
		t.Error("Last() is not the returned channel")
	}
	if d.Last().Config.SystemPrompt != "p" {
		t.Error("session config not captured")
	}

	d.Err = errors.New("boom")
	if _, err := d.Connect(context.Background(), SessionConfig{}); err == nil {
		t.Error("Connect() expected error")
	}
}
