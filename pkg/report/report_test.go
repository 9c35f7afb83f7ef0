package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/intake"
)

func TestRetrying(t *testing.T) {
	transient := Retryable(errors.New("503 unavailable"))
	permanent := errors.New("400 bad request")

	tests := []struct {
		name      string
		failures  []error
		attempts  int
		wantCalls int
		wantErr   bool
	}{
		{"first try succeeds", nil, 3, 1, false},
		{"recovers after transient failures", []error{transient, transient}, 3, 3, false},
		{"gives up after max attempts", []error{transient, transient, transient, transient}, 3, 3, true},
		{"permanent error not retried", []error{permanent}, 3, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			gen := GeneratorFunc(func(ctx context.Context, req Request) (*Report, error) {
				calls++
				if calls <= len(tt.failures) {
					return nil, tt.failures[calls-1]
				}
				return &Report{Summary: "ok"}, nil
			})

			r := NewRetrying(gen, RetryConfig{MaxAttempts: tt.attempts, BaseDelay: time.Millisecond})
			rep, err := r.Generate(context.Background(), Request{Transcript: "x"})

			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil || rep.Summary != "ok" {
				t.Errorf("Generate() = %+v, %v", rep, err)
			}
		})
	}
}

func TestRetrying_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, req Request) (*Report, error) {
		calls++
		cancel()
		return nil, Retryable(errors.New("timeout"))
	})

	r := NewRetrying(gen, RetryConfig{MaxAttempts: 5, BaseDelay: time.Second})
	if _, err := r.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(errors.New("x")) {
		t.Error("plain error retryable")
	}
	if !IsRetryable(fmt.Errorf("wrap: %w", Retryable(errors.New("x")))) {
		t.Error("wrapped retryable not detected")
	}
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", genai.APIError{Code: 429, Message: "quota"}, true},
		{"server error", genai.APIError{Code: 503, Message: "unavailable"}, true},
		{"bad request", genai.APIError{Code: 400, Message: "invalid"}, false},
		{"transport", errors.New("connection reset"), true},
		{"cancelled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(classify(tt.err)); got != tt.want {
				t.Errorf("IsRetryable(classify()) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseReport(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
		summary string
	}{
		{"plain JSON", `{"summary":"Rear-end collision","urgency":"low"}`, nil, "Rear-end collision"},
		{"fenced", "```json\n{\"summary\":\"Eviction\"}\n```", nil, "Eviction"},
		{"empty", "  ", ErrEmptyResponse, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := parseReport(tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("parseReport() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || rep.Summary != tt.summary {
				t.Errorf("parseReport() = %+v, %v", rep, err)
			}
		})
	}

	if _, err := parseReport("not json"); err == nil {
		t.Error("parseReport(garbage) expected error")
	}
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt(Request{
		Record: intake.ClientRecord{
			Name:               "Ana Ruiz",
			RequestedDocuments: []string{"police report"},
		},
		Transcript: "Caller: I was rear-ended.",
		IsUrgent:   true,
		Reason:     "court date",
	})

	for _, want := range []string{"Ana Ruiz", "Email: (not provided)", "police report", "Flagged urgent: court date", "Caller: I was rear-ended."} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	if _, err := NewGeminiGenerator(context.Background(), GeminiConfig{}); err == nil {
		t.Error("expected error without API key")
	}
}
