package followup

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/intake"
)

// GmailConfig configures the Gmail forwarder.
type GmailConfig struct {
	// CredentialsPath is the OAuth client JSON downloaded from the Google
	// Cloud console.
	CredentialsPath string

	// TokenPath is the stored OAuth token. Refreshed tokens are written
	// back to it.
	TokenPath string

	// Sender is the From address.
	Sender string

	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// GmailForwarder sends follow-ups through the Gmail API.
type GmailForwarder struct {
	service *gmail.Service
	sender  string
	logger  *slog.Logger
}

// NewGmailForwarder loads credentials and token and creates the Gmail
// service.
func NewGmailForwarder(ctx context.Context, cfg GmailConfig) (*GmailForwarder, error) {
	if cfg.CredentialsPath == "" || cfg.TokenPath == "" {
		return nil, errors.New("followup: credentials and token paths are required")
	}

	data, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("followup: read credentials: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(data, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("followup: parse credentials: %w", err)
	}

	token, err := loadToken(cfg.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("followup: load token: %w", err)
	}

	ts := &savingTokenSource{
		base: oauthConfig.TokenSource(ctx, token),
		path: cfg.TokenPath,
		last: token.AccessToken,
	}
	service, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("followup: create gmail service: %w", err)
	}

	return newGmailForwarder(service, cfg.Sender, cfg.Logger), nil
}

func newGmailForwarder(service *gmail.Service, sender string, logger *slog.Logger) *GmailForwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &GmailForwarder{
		service: service,
		sender:  sender,
		logger:  logger.With("component", "followup.gmail"),
	}
}

// Forward implements intake.FollowUpForwarder.
func (g *GmailForwarder) Forward(ctx context.Context, f intake.FollowUp) error {
	raw, err := buildMessage(g.sender, f)
	if err != nil {
		return err
	}

	msg, err := g.service.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("followup: send: %w", err)
	}

	g.logger.Info("follow-up sent", "to", f.To, "message_id", msg.Id)
	return nil
}

// buildMessage renders an RFC 5322 plain-text message.
func buildMessage(sender string, f intake.FollowUp) ([]byte, error) {
	to, err := mail.ParseAddress(f.To)
	if err != nil {
		return nil, fmt.Errorf("followup: invalid recipient %q: %w", f.To, err)
	}

	var b strings.Builder
	if sender != "" {
		from, err := mail.ParseAddress(sender)
		if err != nil {
			return nil, fmt.Errorf("followup: invalid sender %q: %w", sender, err)
		}
		fmt.Fprintf(&b, "From: %s\r\n", from.String())
	}
	fmt.Fprintf(&b, "To: %s\r\n", to.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject(f)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body(f), "\n", "\r\n"))
	return []byte(b.String()), nil
}

// savingTokenSource writes refreshed tokens back to disk.
type savingTokenSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := saveToken(s.path, tok); err != nil {
			slog.Default().Warn("failed to save refreshed token", "path", s.path, "error", err)
		}
	}
	return tok, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

var _ intake.FollowUpForwarder = (*GmailForwarder)(nil)
