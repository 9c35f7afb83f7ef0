// Package report turns a finished intake call into a structured case
// report for the attorney.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/intake"
)

// Sentinel errors for the report package.
var (
	// ErrEmptyTranscript indicates there is nothing to report on.
	ErrEmptyTranscript = errors.New("report: transcript is empty")

	// ErrEmptyResponse indicates the model returned no content.
	ErrEmptyResponse = errors.New("report: empty response")
)

// Request is the input for one report.
type Request struct {
	Record     intake.ClientRecord
	Transcript string
	IsUrgent   bool
	Reason     string
}

// Report is the structured case report.
type Report struct {
	ClientName           string    `json:"clientName"`
	CaseType             string    `json:"caseType"`
	Summary              string    `json:"summary"`
	KeyFacts             []string  `json:"keyFacts"`
	Urgency              string    `json:"urgency"`
	UrgencyReason        string    `json:"urgencyReason,omitempty"`
	RecommendedDocuments []string  `json:"recommendedDocuments,omitempty"`
	NextSteps            []string  `json:"nextSteps"`
	GeneratedAt          time.Time `json:"generatedAt"`
}

// Generator produces a report from a finished call.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Report, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (*Report, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (*Report, error) {
	return f(ctx, req)
}

// retryableError marks a failure as transient.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as transient so Retrying tries again.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable returns true if err was marked with Retryable.
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
