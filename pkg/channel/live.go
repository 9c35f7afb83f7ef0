package channel

import (
	"strings"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

// Gemini Live wire format. Outbound messages use the proto JSON
// (camelCase) field names.

type liveSetupMessage struct {
	Setup liveSetup `json:"setup"`
}

type liveSetup struct {
	Model                    string               `json:"model"`
	GenerationConfig         liveGenerationConfig `json:"generationConfig"`
	SystemInstruction        *liveContent         `json:"systemInstruction,omitempty"`
	Tools                    []liveTool           `json:"tools,omitempty"`
	InputAudioTranscription  *struct{}            `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}            `json:"outputAudioTranscription,omitempty"`
}

type liveGenerationConfig struct {
	ResponseModalities []string          `json:"responseModalities"`
	SpeechConfig       *liveSpeechConfig `json:"speechConfig,omitempty"`
}

type liveSpeechConfig struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voiceName"`
		} `json:"prebuiltVoiceConfig"`
	} `json:"voiceConfig"`
}

type liveContent struct {
	Parts []livePart `json:"parts"`
}

type livePart struct {
	Text       string    `json:"text,omitempty"`
	InlineData *liveBlob `json:"inlineData,omitempty"`
}

type liveBlob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type liveTool struct {
	FunctionDeclarations []ToolDeclaration `json:"functionDeclarations"`
}

type liveRealtimeInputMessage struct {
	RealtimeInput struct {
		Audio liveBlob `json:"audio"`
	} `json:"realtimeInput"`
}

type liveToolResponseMessage struct {
	ToolResponse struct {
		FunctionResponses []liveFunctionResponse `json:"functionResponses"`
	} `json:"toolResponse"`
}

type liveFunctionResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// liveServerMessage is one inbound frame. Exactly one top-level field is
// normally set.
type liveServerMessage struct {
	SetupComplete *struct{} `json:"setupComplete"`
	ServerContent *struct {
		ModelTurn           *liveContent       `json:"modelTurn"`
		TurnComplete        bool               `json:"turnComplete"`
		Interrupted         bool               `json:"interrupted"`
		GenerationComplete  bool               `json:"generationComplete"`
		InputTranscription  *liveTranscription `json:"inputTranscription"`
		OutputTranscription *liveTranscription `json:"outputTranscription"`
	} `json:"serverContent"`
	ToolCall *struct {
		FunctionCalls []struct {
			ID   string         `json:"id"`
			Name string         `json:"name"`
			Args map[string]any `json:"args"`
		} `json:"functionCalls"`
	} `json:"toolCall"`
	ToolCallCancellation *struct {
		IDs []string `json:"ids"`
	} `json:"toolCallCancellation"`
	GoAway *struct {
		TimeLeft string `json:"timeLeft"`
	} `json:"goAway"`
}

type liveTranscription struct {
	Text string `json:"text"`
}

// modelPath returns the model name in "models/<name>" form.
func modelPath(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

func buildSetup(model string, cfg SessionConfig) liveSetupMessage {
	setup := liveSetup{
		Model: modelPath(model),
		GenerationConfig: liveGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}

	voice := cfg.VoicePersonaName
	if voice == "" {
		voice = DefaultVoice
	}
	setup.GenerationConfig.SpeechConfig = &liveSpeechConfig{}
	setup.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = voice

	if cfg.SystemPrompt != "" {
		setup.SystemInstruction = &liveContent{Parts: []livePart{{Text: cfg.SystemPrompt}}}
	}
	if len(cfg.Tools) > 0 {
		setup.Tools = []liveTool{{FunctionDeclarations: cfg.Tools}}
	}
	if cfg.Transcription.Input {
		setup.InputAudioTranscription = &struct{}{}
	}
	if cfg.Transcription.Output {
		setup.OutputAudioTranscription = &struct{}{}
	}
	return liveSetupMessage{Setup: setup}
}

// liveEvents splits one server message into events, in the order tool
// calls, input transcript, output transcript, audio, interrupted, turn
// complete.
func liveEvents(msg liveServerMessage) []Event {
	var events []Event

	if msg.SetupComplete != nil {
		events = append(events, Opened{})
	}

	if msg.ToolCall != nil && len(msg.ToolCall.FunctionCalls) > 0 {
		calls := make([]ToolCall, 0, len(msg.ToolCall.FunctionCalls))
		for _, fc := range msg.ToolCall.FunctionCalls {
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
			if part.InlineData == nil || !isAudio(part.InlineData.MIMEType) {
				continue
			}
			events = append(events, AudioChunk{Packet: audioio.Packet{
				Data:     part.InlineData.Data,
				MIMEType: part.InlineData.MIMEType,
			}})
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

func isAudio(mimeType string) bool {
	return mimeType == "" || strings.HasPrefix(mimeType, "audio/")
}
