package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/internal/httpc"
)

// DefaultModel is the model used for reports.
const DefaultModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini generator.
type GeminiConfig struct {
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// GeminiGenerator generates reports with a single JSON-mode Gemini call.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	logger *slog.Logger
	now    func() time.Time
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("report: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpc.Client
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("report: create client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		model:  cfg.Model,
		logger: cfg.Logger.With("component", "report.gemini"),
		now:    time.Now,
	}, nil
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Report, error) {
	if strings.TrimSpace(req.Transcript) == "" {
		return nil, ErrEmptyTranscript
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(req)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    reportSchema(),
	})
	if err != nil {
		return nil, classify(err)
	}

	rep, err := parseReport(resp.Text())
	if err != nil {
		return nil, err
	}
	if req.IsUrgent {
		rep.Urgency = "high"
		if rep.UrgencyReason == "" {
			rep.UrgencyReason = req.Reason
		}
	}
	rep.GeneratedAt = g.now()

	g.logger.Info("report generated", "model", g.model, "duration", time.Since(start))
	return rep, nil
}

const systemInstruction = `You prepare intake reports for attorneys at a law firm.
Summarise only what the caller actually said. Do not invent facts, give
legal advice or predict outcomes. Use plain professional English.`

func buildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("Prepare a case intake report from this call.\n\n")
	b.WriteString("Collected client data:\n")
	r := req.Record
	fmt.Fprintf(&b, "- Name: %s\n- Email: %s\n- Phone: %s\n", orNone(r.Name), orNone(r.Email), orNone(r.Phone))
	fmt.Fprintf(&b, "- Case summary: %s\n", orNone(r.CaseSummary))
	if len(r.RequestedDocuments) > 0 {
		fmt.Fprintf(&b, "- Requested documents: %s\n", strings.Join(r.RequestedDocuments, ", "))
	}
	if r.Appointment != "" {
		fmt.Fprintf(&b, "- Appointment: %s\n", r.Appointment)
	}
	if req.IsUrgent {
		fmt.Fprintf(&b, "- Flagged urgent: %s\n", orNone(req.Reason))
	}

	b.WriteString("\nTranscript:\n")
	b.WriteString(req.Transcript)
	b.WriteString("\n\nSet urgency to one of low, medium or high.")
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(not provided)"
	}
	return s
}

func reportSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	list := &genai.Schema{Type: genai.TypeArray, Items: str}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"clientName":           str,
			"caseType":             str,
			"summary":              str,
			"keyFacts":             list,
			"urgency":              {Type: genai.TypeString, Enum: []string{"low", "medium", "high"}},
			"urgencyReason":        str,
			"recommendedDocuments": list,
			"nextSteps":            list,
		},
		Required: []string{"caseType", "summary", "keyFacts", "urgency", "nextSteps"},
	}
}

// parseReport decodes the model output, tolerating a fenced code block.
func parseReport(text string) (*Report, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var rep Report
	if err := json.Unmarshal([]byte(text), &rep); err != nil {
		return nil, fmt.Errorf("report: parse response: %w", err)
	}
	return &rep, nil
}

// classify marks rate limits, server errors and transport failures as
// retryable.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	default:
		return Retryable(fmt.Errorf("report: request failed: %w", err))
	}

	wrapped := fmt.Errorf("report: API error %d: %w", code, err)
	if code == http.StatusTooManyRequests || code >= 500 {
		return Retryable(wrapped)
	}
	return wrapped
}

var _ Generator = (*GeminiGenerator)(nil)
