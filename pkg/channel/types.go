package channel

import (
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

// SessionConfig is sent when a session is opened.
type SessionConfig struct {
	// AudioOutputFormat is the requested response audio, e.g. "audio/pcm;rate=24000".
	AudioOutputFormat string

	// VoicePersonaName selects a prebuilt voice (e.g. "Kore", "Puck").
	VoicePersonaName string

	// SystemPrompt is the persona and task instruction.
	SystemPrompt string

	// Tools are the functions the model may call.
	Tools []ToolDeclaration

	// Transcription selects which sides of the conversation are transcribed.
	Transcription TranscriptionModes
}

// TranscriptionModes selects transcript streams.
type TranscriptionModes struct {
	Input  bool
	Output bool
}

// ToolDeclaration describes a function the model may call.
type ToolDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Schema is the OpenAPI subset used for tool parameters.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// Schema types.
const (
	TypeObject  = "OBJECT"
	TypeString  = "STRING"
	TypeArray   = "ARRAY"
	TypeBoolean = "BOOLEAN"
	TypeNumber  = "NUMBER"
	TypeInteger = "INTEGER"
)

// Event is an inbound channel event. The concrete types below are the
// complete set.
type Event interface {
	eventName() string
}

// Opened is delivered once the remote side accepted the session.
type Opened struct{}

// AudioChunk carries a block of synthesized speech.
type AudioChunk struct {
	Packet audioio.Packet
}

// InputTranscript is a partial transcript fragment of the caller.
type InputTranscript struct {
	Text string
}

// OutputTranscript is a partial transcript fragment of the assistant.
type OutputTranscript struct {
	Text string
}

// ToolCall is one function invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolCalls carries the function calls of one server message, in order.
type ToolCalls struct {
	Calls []ToolCall
}

// Interrupted signals the caller started speaking over the assistant.
type Interrupted struct{}

// TurnComplete signals the model finished its turn.
type TurnComplete struct{}

// ErrorEvent reports a session failure. Closed follows.
type ErrorEvent struct {
	Err error
}

// Closed is the final event of a session.
type Closed struct {
	Code   int
	Reason string
}

func (Opened) eventName() string           { return "opened" }
func (AudioChunk) eventName() string       { return "audio" }
func (InputTranscript) eventName() string  { return "input_transcript" }
func (OutputTranscript) eventName() string { return "output_transcript" }
func (ToolCalls) eventName() string        { return "tool_calls" }
func (Interrupted) eventName() string      { return "interrupted" }
func (TurnComplete) eventName() string     { return "turn_complete" }
func (ErrorEvent) eventName() string       { return "error" }
func (Closed) eventName() string           { return "closed" }

// EventName returns a short stable name for logging and metrics.
func EventName(ev Event) string {
	if ev == nil {
		return "nil"
	}
	return ev.eventName()
}
