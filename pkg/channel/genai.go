package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"google.golang.org/genai"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

// GenAIDialer opens Gemini Live sessions through the genai SDK.
type GenAIDialer struct {
	config Config
	logger *slog.Logger
}

// NewGenAIDialer creates an SDK-backed dialer.
func NewGenAIDialer(opts ...Option) (*GenAIDialer, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &GenAIDialer{
		config: cfg,
		logger: cfg.Logger.With("component", "channel.genai"),
	}, nil
}

// Connect opens a Live session. Opened is delivered once the service
// acknowledges the setup.
func (d *GenAIDialer) Connect(ctx context.Context, cfg SessionConfig) (Channel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     d.config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: d.config.HTTPClient,
	})
	if err != nil {
		return nil, NewConnectionError("create client", err, false)
	}

	d.logger.Info("connecting to Gemini Live", "model", d.config.Model)

	session, err := client.Live.Connect(ctx, strings.TrimPrefix(d.config.Model, "models/"), liveConnectConfig(cfg))
	if err != nil {
		return nil, NewConnectionError("dial failed", err, true)
	}

	c := &genaiChannel{
		session: session,
		logger:  d.logger,
		stream:  newStream(d.config.EventBuffer),
	}
	c.state.Store(int32(StateConnecting))
	go c.handleMessages()
	return c, nil
}

func liveConnectConfig(cfg SessionConfig) *genai.LiveConnectConfig {
	voice := cfg.VoicePersonaName
	if voice == "" {
		voice = DefaultVoice
	}

	lc := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
	if cfg.SystemPrompt != "" {
		lc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: cfg.SystemPrompt}}}
	}
	if len(cfg.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(cfg.Tools))
		for _, t := range cfg.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGenAISchema(t.Parameters),
			})
		}
		lc.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	if cfg.Transcription.Input {
		lc.InputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	if cfg.Transcription.Output {
		lc.OutputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	return lc
}

func toGenAISchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		Items:       toGenAISchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toGenAISchema(p)
		}
	}
	return out
}

type genaiChannel struct {
	session *genai.Session
	logger  *slog.Logger
	*stream

	state atomic.Int32
}

// Events implements Channel.
func (c *genaiChannel) Events() <-chan Event {
	return c.events
}

// SendAudio implements Channel.
func (c *genaiChannel) SendAudio(p audioio.Packet) error {
	if ConnectionState(c.state.Load()) != StateConnected {
		return ErrNotConnected
	}
	pcm, err := audioio.DecodeBytes(p.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	err = c.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: pcm, MIMEType: p.MIMEType},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// SendToolResult implements Channel.
func (c *genaiChannel) SendToolResult(id, name string, result map[string]any) error {
	if c.isShutdown() {
		return ErrConnectionClosed
	}
	err := c.session.SendToolResponse(genai.LiveToolResponseInput{
		FunctionResponses: []*genai.FunctionResponse{{
			ID:       id,
			Name:     name,
			Response: result,
		}},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Close implements Channel.
func (c *genaiChannel) Close() error {
	if !c.shutdown() {
		return nil
	}
	c.state.Store(int32(StateClosed))
	c.logger.Info("disconnected from Gemini Live")
	return c.session.Close()
}

func (c *genaiChannel) handleMessages() {
	closed := Closed{Code: websocket.CloseNormalClosure}
	defer func() {
		c.state.Store(int32(StateClosed))
		c.finish(closed)
	}()

	for {
		msg, err := c.session.Receive()
		if err != nil {
			if c.isShutdown() {
				closed.Reason = "closed locally"
				return
			}
			closed = c.receiveFailure(err)
			return
		}

		if msg.SetupComplete != nil {
			c.state.Store(int32(StateConnected))
			c.logger.Info("Gemini Live session ready")
		}
		if msg.GoAway != nil {
			c.logger.Warn("server will close the session soon")
		}

		for _, ev := range genaiEvents(msg) {
			if !c.emit(ev) {
				return
			}
		}
	}
}

func (c *genaiChannel) receiveFailure(err error) Closed {
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

	c.logger.Error("receive error", "error", err)
	c.emit(ErrorEvent{Err: NewConnectionError("receive failed", err, true)})
	return Closed{Code: websocket.CloseAbnormalClosure, Reason: err.Error()}
}

// genaiEvents splits an SDK message into events, in the same order as the
// websocket transport.
func genaiEvents(msg *genai.LiveServerMessage) []Event {
	var events []Event

	if msg.SetupComplete != nil {
		events = append(events, Opened{})
	}

	if msg.ToolCall != nil && len(msg.ToolCall.FunctionCalls) > 0 {
		calls := make([]ToolCall, 0, len(msg.ToolCall.FunctionCalls))
		for _, fc := range msg.ToolCall.FunctionCalls {
			if fc == nil {
				continue
			}
			calls = append(calls, ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
		}
		events = append(events, ToolCalls{Calls: calls})
	}

	sc := msg.ServerContent
	if sc == nil {
		return events
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		events = append(events, InputTranscript{Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		events = append(events, OutputTranscript{Text: sc.OutputTranscription.Text})
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part == nil || part.InlineData == nil || !isAudio(part.InlineData.MIMEType) {
				continue
			}
			events = append(events, AudioChunk{
				Packet: audioio.Encode(part.InlineData.Data, rateOrDefault(part.InlineData.MIMEType)),
			})
		}
	}
	if sc.Interrupted {
		events = append(events, Interrupted{})
	}
	if sc.TurnComplete {
		events = append(events, TurnComplete{})
	}
	return events
}

func rateOrDefault(mimeType string) int {
	if r, ok := audioio.ParseRate(mimeType); ok {
		return r
	}
	return audioio.PlaybackSampleRate
}
