package channel

import (
	"context"
	"sync"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

// ToolResult is an acknowledgement captured by Mock.
type ToolResult struct {
	ID     string
	Name   string
	Result map[string]any
}

// Mock is an in-memory Channel for testing.
type Mock struct {
	mu sync.Mutex
	*stream

	closed bool

	// Configurable behavior
	SendAudioFunc      func(p audioio.Packet) error
	SendToolResultFunc func(id, name string, result map[string]any) error
	CloseFunc          func() error

	// Captured calls for assertions
	AudioSent   []audioio.Packet
	ToolResults []ToolResult
	CloseCalls  int

	// Config is the session configuration the mock was opened with.
	Config SessionConfig
}

// NewMock creates a new Mock channel.
func NewMock() *Mock {
	return &Mock{stream: newStream(DefaultEventBuffer)}
}

// Events implements Channel.
func (m *Mock) Events() <-chan Event {
	return m.events
}

// SendAudio implements Channel.
func (m *Mock) SendAudio(p audioio.Packet) error {
	if m.SendAudioFunc != nil {
		if err := m.SendAudioFunc(p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrConnectionClosed
	}
	m.AudioSent = append(m.AudioSent, p)
	return nil
}

// SendToolResult implements Channel.
func (m *Mock) SendToolResult(id, name string, result map[string]any) error {
	if m.SendToolResultFunc != nil {
		if err := m.SendToolResultFunc(id, name, result); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ToolResults = append(m.ToolResults, ToolResult{ID: id, Name: name, Result: result})
	return nil
}

// Close implements Channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.CloseCalls++
	first := !m.closed
	m.closed = true
	m.mu.Unlock()

	if first {
		m.shutdown()
		m.finish(Closed{Reason: "closed locally"})
	}
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Emit delivers an event as if it came from the remote side.
func (m *Mock) Emit(ev Event) {
	m.emit(ev)
}

// SimulateOpen delivers Opened.
func (m *Mock) SimulateOpen() {
	m.Emit(Opened{})
}

// SimulateAudio delivers one chunk of PCM16 audio.
func (m *Mock) SimulateAudio(pcm []byte, sampleRate int) {
	m.Emit(AudioChunk{Packet: audioio.Encode(pcm, sampleRate)})
}

// SimulateToolCall delivers a single tool call.
func (m *Mock) SimulateToolCall(id, name string, args map[string]any) {
	m.Emit(ToolCalls{Calls: []ToolCall{{ID: id, Name: name, Args: args}}})
}

// SimulateError delivers an ErrorEvent followed by Closed and closes the
// event stream, like a transport failure.
func (m *Mock) SimulateError(err error) {
	m.Emit(ErrorEvent{Err: err})
	m.SimulateClose(Closed{Code: 1011, Reason: Reason(err)})
}

// SimulateClose delivers Closed and closes the event stream.
func (m *Mock) SimulateClose(closed Closed) {
	m.finish(closed)
}

// Sent returns a copy of the captured audio packets.
func (m *Mock) Sent() []audioio.Packet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audioio.Packet(nil), m.AudioSent...)
}

// Results returns a copy of the captured tool results.
func (m *Mock) Results() []ToolResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ToolResult(nil), m.ToolResults...)
}

// Closes returns how many times Close was called.
func (m *Mock) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CloseCalls
}

// MockDialer hands out Mock channels.
type MockDialer struct {
	mu sync.Mutex

	// ConnectFunc, if set, replaces the default behavior.
	ConnectFunc func(ctx context.Context, cfg SessionConfig) (Channel, error)

	// Err, if set, is returned by Connect.
	Err error

	// Channels are the mocks handed out, in order.
	Channels []*Mock
}

// Connect implements Dialer.
func (d *MockDialer) Connect(ctx context.Context, cfg SessionConfig) (Channel, error) {
	if d.ConnectFunc != nil {
		return d.ConnectFunc(ctx, cfg)
	}
	if d.Err != nil {
		return nil, d.Err
	}
	m := NewMock()
	m.Config = cfg

	d.mu.Lock()
	d.Channels = append(d.Channels, m)
	d.mu.Unlock()
	return m, nil
}

// Last returns the most recently opened mock, or nil.
func (d *MockDialer) Last() *Mock {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Channels) == 0 {
		return nil
	}
	return d.Channels[len(d.Channels)-1]
}

// Compile-time interface checks.
var (
	_ Channel = (*Mock)(nil)
	_ Channel = (*wsChannel)(nil)
	_ Channel = (*genaiChannel)(nil)
	_ Dialer  = (*MockDialer)(nil)
	_ Dialer  = (*WSDialer)(nil)
	_ Dialer  = (*GenAIDialer)(nil)
	_ Dialer  = DialerFunc(nil)
)
