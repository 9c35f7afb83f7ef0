package channel

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildSetup(t *testing.T) {
	cfg := SessionConfig{
		VoicePersonaName: "Puck",
		SystemPrompt:     "You are an intake assistant.",
		Tools: []ToolDeclaration{{
			Name:        "flag_case_as_urgent",
			Description: "Flag the case",
			Parameters: &Schema{
				Type:       TypeObject,
				Properties: map[string]*Schema{"reason": {Type: TypeString}},
				Required:   []string{"reason"},
			},
		}},
		Transcription: TranscriptionModes{Input: true, Output: true},
	}

	data, err := json.Marshal(buildSetup("gemini-live", cfg))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got := string(data)

	for _, want := range []string{
		`"model":"models/gemini-live"`,
		`"responseModalities":["AUDIO"]`,
		`"voiceName":"Puck"`,
		`"systemInstruction":{"parts":[{"text":"You are an intake assistant."}]}`,
		`"functionDeclarations":[{"name":"flag_case_as_urgent"`,
		`"required":["reason"]`,
		`"inputAudioTranscription":{}`,
		`"outputAudioTranscription":{}`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("setup missing %s\n%s", want, got)
		}
	}
}

func TestBuildSetup_Defaults(t *testing.T) {
	data, _ := json.Marshal(buildSetup("models/x", SessionConfig{}))
	got := string(data)

	if !strings.Contains(got, `"model":"models/x"`) {
		t.Errorf("model prefix doubled: %s", got)
	}
	if !strings.Contains(got, `"voiceName":"`+DefaultVoice+`"`) {
		t.Errorf("default voice missing: %s", got)
	}
	for _, absent := range []string{"tools", "systemInstruction", "inputAudioTranscription"} {
		if strings.Contains(got, absent) {
			t.Errorf("unexpected %s in %s", absent, got)
		}
	}
}

func TestLiveEvents(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "setup complete",
			raw:  `{"setupComplete":{}}`,
			want: []string{"opened"},
		},
		{
			name: "full server content in fixed order",
			raw: `{"serverContent":{
				"turnComplete":true,
				"interrupted":true,
				"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"AAA="}},{"text":"thinking"}]},
				"outputTranscription":{"text":"Hello"},
				"inputTranscription":{"text":"Hi"}
			}}`,
			want: []string{"input_transcript", "output_transcript", "audio", "interrupted", "turn_complete"},
		},
		{
			name: "tool call",
			raw:  `{"toolCall":{"functionCalls":[{"id":"a","name":"x","args":{}},{"id":"b","name":"y"}]}}`,
			want: []string{"tool_calls"},
		},
		{
			name: "empty transcripts ignored",
			raw:  `{"serverContent":{"inputTranscription":{"text":""}}}`,
			want: nil,
		},
		{
			name: "non audio inline data ignored",
			raw:  `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"image/png","data":"AAA="}}]}}}`,
			want: nil,
		},
		{
			name: "go away only",
			raw:  `{"goAway":{"timeLeft":"10s"}}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg liveServerMessage
			if err := json.Unmarshal([]byte(tt.raw), &msg); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			events := liveEvents(msg)
			if len(events) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(events), len(tt.want))
			}
			for i, ev := range events {
				if EventName(ev) != tt.want[i] {
					t.Errorf("event %d = %s, want %s", i, EventName(ev), tt.want[i])
				}
			}
		})
	}
}

func TestLiveEvents_ToolCallFields(t *testing.T) {
	var msg liveServerMessage
	raw := `{"toolCall":{"functionCalls":[{"id":"call-1","name":"flag_case_as_urgent","args":{"reason":"court date"}}]}}`
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	calls := liveEvents(msg)[0].(ToolCalls).Calls
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	c := calls[0]
	if c.ID != "call-1" || c.Name != "flag_case_as_urgent" || c.Args["reason"] != "court date" {
		t.Errorf("call = %+v", c)
	}
}
