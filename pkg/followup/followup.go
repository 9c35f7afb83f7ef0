// Package followup delivers the follow-up emails requested during a call.
package followup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/intake"
)

// DefaultSubject is used when the model gave none.
const DefaultSubject = "Next steps for your case"

// LogForwarder only logs follow-ups. It is used when no mail account is
// configured.
type LogForwarder struct {
	logger *slog.Logger
}

// NewLogForwarder creates a LogForwarder.
func NewLogForwarder(logger *slog.Logger) *LogForwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogForwarder{logger: logger.With("component", "followup.log")}
}

// Forward implements intake.FollowUpForwarder.
func (l *LogForwarder) Forward(_ context.Context, f intake.FollowUp) error {
	l.logger.Info("follow-up requested", "to", f.To, "subject", subject(f), "documents", len(f.Record.RequestedDocuments))
	return nil
}

func subject(f intake.FollowUp) string {
	if f.Subject != "" {
		return f.Subject
	}
	return DefaultSubject
}

// body returns the model's body, or one composed from the record.
func body(f intake.FollowUp) string {
	if f.Body != "" {
		return f.Body
	}

	var b strings.Builder
	name := f.Record.Name
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\nThank you for speaking with us today.\n", name)
	if f.Record.CaseSummary != "" {
		fmt.Fprintf(&b, "\nWhat we understood: %s\n", f.Record.CaseSummary)
	}
	if len(f.Record.RequestedDocuments) > 0 {
		b.WriteString("\nPlease send us the following documents:\n")
		for _, d := range f.Record.RequestedDocuments {
			fmt.Fprintf(&b, "  - %s\n", d)
		}
	}
	if f.Record.Appointment != "" {
		fmt.Fprintf(&b, "\nYour consultation is booked for %s.\n", f.Record.Appointment)
	}
	b.WriteString("\nWe will be in touch shortly.\n")
	return b.String()
}

var _ intake.FollowUpForwarder = (*LogForwarder)(nil)
