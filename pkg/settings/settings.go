// Package settings holds the operator-editable call settings and their
// on-disk store.
package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Settings configures the assistant for new calls. A session captures a
// copy at start; later edits apply to the next call only.
type Settings struct {
	ID       string    `json:"id"`
	Revision int       `json:"revision"`
	Updated  time.Time `json:"updated_at"`

	// PersonaName is how the assistant introduces itself.
	PersonaName string `json:"persona_name"`

	// VoiceName is the prebuilt voice used for synthesized speech.
	VoiceName string `json:"voice_name"`

	// FirmName is the law firm the line belongs to.
	FirmName string `json:"firm_name"`

	// OpeningLine is spoken at the start of every call.
	OpeningLine string `json:"opening_line"`

	// ClosingLine is spoken before the call ends.
	ClosingLine string `json:"closing_line"`

	// UrgencyKeywords flag a case urgent when the caller says them.
	UrgencyKeywords []string `json:"urgency_keywords"`

	// ResponseDelayMs is the pause inserted before the assistant starts
	// speaking after silence.
	ResponseDelayMs int `json:"response_delay_ms"`
}

// Default returns the factory settings.
func Default() Settings {
	return Settings{
		PersonaName: "Alex",
		VoiceName:   "Kore",
		FirmName:    "the firm",
		OpeningLine: "Thank you for calling. My name is Alex, and I'll help get your case started. May I have your name?",
		ClosingLine: "Thank you. Someone from our office will follow up with you shortly.",
		UrgencyKeywords: []string{
			"court date", "hearing", "arrested", "eviction", "deadline",
			"custody", "restraining order", "statute of limitations",
		},
		ResponseDelayMs: 300,
	}
}

// ValidationError reports an invalid settings field.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("settings: invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError returns true if err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// MaxResponseDelay bounds ResponseDelayMs.
const MaxResponseDelay = 5 * time.Second

// Validate checks the settings.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.PersonaName) == "" {
		return &ValidationError{Field: "persona_name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(s.VoiceName) == "" {
		return &ValidationError{Field: "voice_name", Reason: "must not be empty"}
	}
	if s.ResponseDelayMs < 0 {
		return &ValidationError{Field: "response_delay_ms", Reason: "must not be negative"}
	}
	if s.ResponseDelay() > MaxResponseDelay {
		return &ValidationError{Field: "response_delay_ms", Reason: fmt.Sprintf("must be at most %d", MaxResponseDelay.Milliseconds())}
	}
	for i, kw := range s.UrgencyKeywords {
		if strings.TrimSpace(kw) == "" {
			return &ValidationError{Field: fmt.Sprintf("urgency_keywords[%d]", i), Reason: "must not be empty"}
		}
	}
	return nil
}

// ResponseDelay returns ResponseDelayMs as a duration.
func (s Settings) ResponseDelay() time.Duration {
	return time.Duration(s.ResponseDelayMs) * time.Millisecond
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	s.UrgencyKeywords = append([]string(nil), s.UrgencyKeywords...)
	return s
}

// MatchUrgency returns the first urgency keyword contained in text,
// ignoring case.
func (s Settings) MatchUrgency(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, kw := range s.UrgencyKeywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k != "" && strings.Contains(lower, k) {
			return kw, true
		}
	}
	return "", false
}

// SystemPrompt builds the instruction sent when a session opens.
func (s Settings) SystemPrompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, the intake assistant answering the phone for %s. ", s.PersonaName, s.FirmName)
	b.WriteString("You are warm, calm and concise. You collect the information an attorney needs to evaluate a new case. ")
	b.WriteString("You never give legal advice and never promise an outcome.\n\n")

	if s.OpeningLine != "" {
		fmt.Fprintf(&b, "Begin the call by saying: %q\n", s.OpeningLine)
	}
	if s.ClosingLine != "" {
		fmt.Fprintf(&b, "When the intake is complete, end with: %q\n", s.ClosingLine)
	}

	b.WriteString(`
Collect, in a natural order:
- the caller's full name, phone number and email
- what happened, when and where, and who else is involved
- any documents the caller already has

Use the tools as you go:
- update_client_info whenever the caller gives or corrects contact details
- update_case_details with a short running summary of the matter
- request_documents for anything the firm will need
- book_appointment once a consultation time is agreed
- send_follow_up_email when the caller asks for written next steps
`)

	if len(s.UrgencyKeywords) > 0 {
		fmt.Fprintf(&b, "- flag_case_as_urgent immediately if the caller mentions %s, or any other imminent deadline or safety risk\n",
			strings.Join(s.UrgencyKeywords, ", "))
	} else {
		b.WriteString("- flag_case_as_urgent immediately for any imminent deadline or safety risk\n")
	}

	b.WriteString("\nKeep each reply to one or two sentences and ask one question at a time.")
	return b.String()
}
