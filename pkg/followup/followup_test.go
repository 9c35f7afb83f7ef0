package followup

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/intake"
)

func TestBuildMessage(t *testing.T) {
	raw, err := buildMessage("Intake Desk <intake@firm.example>", intake.FollowUp{
		To: "ana@example.com",
		Record: intake.ClientRecord{
			Name:               "Ana",
			RequestedDocuments: []string{"police report"},
			Appointment:        "Monday 10am",
		},
	})
	if err != nil {
		t.Fatalf("buildMessage() error = %v", err)
	}

	msg := string(raw)
	for _, want := range []string{
		"From: \"Intake Desk\" <intake@firm.example>\r\n",
		"To: <ana@example.com>\r\n",
		"Subject: " + DefaultSubject + "\r\n",
		"Hi Ana,",
		"  - police report",
		"booked for Monday 10am",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q\n%s", want, msg)
		}
	}
}

func TestBuildMessage_InvalidRecipient(t *testing.T) {
	if _, err := buildMessage("", intake.FollowUp{To: "not an address"}); err == nil {
		t.Error("expected error for invalid recipient")
	}
}

func TestBody_UsesModelBody(t *testing.T) {
	f := intake.FollowUp{Body: "Custom body", Record: intake.ClientRecord{Name: "Ana"}}
	if got := body(f); got != "Custom body" {
		t.Errorf("body() = %q", got)
	}
}

func TestGmailForwarder_Forward(t *testing.T) {
	var got gmail.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/users/me/messages/send") {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer srv.Close()

	svc, err := gmail.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	fwd := newGmailForwarder(svc, "intake@firm.example", nil)
	err = fwd.Forward(context.Background(), intake.FollowUp{To: "ana@example.com", Subject: "Documents"})
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	raw, err := base64.URLEncoding.DecodeString(got.Raw)
	if err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	if !strings.Contains(string(raw), "Subject: Documents") {
		t.Errorf("raw message = %s", raw)
	}
}

func TestNewGmailForwarder_MissingPaths(t *testing.T) {
	if _, err := NewGmailForwarder(context.Background(), GmailConfig{}); err == nil {
		t.Error("expected error without paths")
	}
	_, err := NewGmailForwarder(context.Background(), GmailConfig{
		CredentialsPath: filepath.Join(t.TempDir(), "missing.json"),
		TokenPath:       filepath.Join(t.TempDir(), "token.json"),
	})
	if err == nil {
		t.Error("expected error for missing credentials file")
	}
}

type staticSource struct{ tok *oauth2.Token }

func (s staticSource) Token() (*oauth2.Token, error) { return s.tok, nil }

func TestSavingTokenSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens", "token.json")
	tok := &oauth2.Token{AccessToken: "new", Expiry: time.Now().Add(time.Hour)}

	ts := &savingTokenSource{base: staticSource{tok}, path: path, last: "old"}
	if _, err := ts.Token(); err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	saved, err := loadToken(path)
	if err != nil {
		t.Fatalf("loadToken() error = %v", err)
	}
	if saved.AccessToken != "new" {
		t.Errorf("saved token = %q", saved.AccessToken)
	}
}

func TestLogForwarder(t *testing.T) {
	if err := NewLogForwarder(nil).Forward(context.Background(), intake.FollowUp{To: "a@b.c"}); err != nil {
		t.Errorf("Forward() error = %v", err)
	}
}
