package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

// WSDialer opens Gemini Live sessions over a raw websocket.
type WSDialer struct {
	config Config
	logger *slog.Logger
}

// NewWSDialer creates a websocket dialer.
func NewWSDialer(opts ...Option) (*WSDialer, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultLiveURL
	}
	return &WSDialer{
		config: cfg,
		logger: cfg.Logger.With("component", "channel.websocket"),
	}, nil
}

// Connect dials the endpoint and sends the session setup. Opened is
// delivered once the service acknowledges the setup.
func (d *WSDialer) Connect(ctx context.Context, cfg SessionConfig) (Channel, error) {
	u, err := url.Parse(d.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("channel: invalid URL: %w", err)
	}
	q := u.Query()
	q.Set("key", d.config.APIKey)
	u.RawQuery = q.Encode()

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	dialer := websocket.Dialer{
		HandshakeTimeout: d.config.Timeout,
	}

	d.logger.Info("connecting to Gemini Live", "model", d.config.Model)

	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, NewConnectionError(
				fmt.Sprintf("dial failed with status %d", resp.StatusCode),
				NewAPIError(resp.StatusCode, http.StatusText(resp.StatusCode)),
				resp.StatusCode >= 500,
			)
		}
		return nil, NewConnectionError("dial failed", err, true)
	}

	c := &wsChannel{
		conn:   conn,
		config: d.config,
		logger: d.logger,
		stream: newStream(d.config.EventBuffer),
	}
	c.state.Store(int32(StateConnecting))

	if err := c.writeJSON(buildSetup(d.config.Model, cfg)); err != nil {
		conn.Close()
		return nil, NewConnectionError("setup failed", err, true)
	}

	go c.handleMessages()
	return c, nil
}

type wsChannel struct {
	conn   *websocket.Conn
	config Config
	logger *slog.Logger
	*stream

	wsMu  sync.Mutex
	state atomic.Int32

	messagesReceived atomic.Int64
}

// Events implements Channel.
func (c *wsChannel) Events() <-chan Event {
	return c.events
}

// State returns the connection state.
func (c *wsChannel) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// SendAudio implements Channel.
func (c *wsChannel) SendAudio(p audioio.Packet) error {
	if c.State() != StateConnected {
		return ErrNotConnected
	}
	var msg liveRealtimeInputMessage
	msg.RealtimeInput.Audio = liveBlob{MIMEType: p.MIMEType, Data: p.Data}
	return c.writeJSON(msg)
}

// SendToolResult implements Channel.
func (c *wsChannel) SendToolResult(id, name string, result map[string]any) error {
	if c.State() == StateClosed {
		return ErrConnectionClosed
	}
	var msg liveToolResponseMessage
	msg.ToolResponse.FunctionResponses = []liveFunctionResponse{{
		ID:       id,
		Name:     name,
		Response: result,
	}}
	return c.writeJSON(msg)
}

func (c *wsChannel) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.isShutdown() {
		return ErrConnectionClosed
	}
	if c.config.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Close sends a close frame and tears the connection down.
func (c *wsChannel) Close() error {
	c.wsMu.Lock()
	first := c.shutdown()
	if first {
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			deadline,
		)
	}
	c.wsMu.Unlock()

	if !first {
		return nil
	}
	c.state.Store(int32(StateClosed))
	c.logger.Info("disconnected from Gemini Live")
	return c.conn.Close()
}

func (c *wsChannel) handleMessages() {
	closed := Closed{Code: websocket.CloseNormalClosure}
	defer func() {
		c.state.Store(int32(StateClosed))
		c.finish(closed)
	}()

	for {
		if c.config.ReadTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.isShutdown() {
				closed.Reason = "closed locally"
				return
			}
			closed = c.readFailure(err)
			return
		}

		c.messagesReceived.Add(1)

		var msg liveServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("failed to parse message", "error", err)
			continue
		}

		if msg.SetupComplete != nil {
			c.state.Store(int32(StateConnected))
			c.logger.Info("Gemini Live session ready")
		}
		if msg.ToolCallCancellation != nil {
			c.logger.Debug("tool calls cancelled", "ids", msg.ToolCallCancellation.IDs)
		}
		if msg.GoAway != nil {
			c.logger.Warn("server will close the session soon", "time_left", msg.GoAway.TimeLeft)
		}

		for _, ev := range liveEvents(msg) {
			if !c.emit(ev) {
				return
			}
		}
	}
}

// readFailure maps a read error to the closing events. Normal closures
// produce only Closed; anything else is reported as an ErrorEvent first.
func (c *wsChannel) readFailure(err error) Closed {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		closed := Closed{Code: ce.Code, Reason: ce.Text}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.logger.Info("connection closed by server", "code", ce.Code, "reason", ce.Text)
			return closed
		}
		c.logger.Error("session closed with error", "code", ce.Code, "reason", ce.Text)
		c.emit(ErrorEvent{Err: NewAPIError(ce.Code, ce.Text)})
		return closed
	}

	c.logger.Error("read error", "error", err)
	c.emit(ErrorEvent{Err: NewConnectionError("read failed", err, true)})
	return Closed{Code: websocket.CloseAbnormalClosure, Reason: err.Error()}
}
