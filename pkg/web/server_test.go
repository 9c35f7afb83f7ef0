package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/intake"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/metrics"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/report"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/session"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/settings"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/transcript"
)

// fakeController records calls and returns canned results.
type fakeController struct {
	mu        sync.Mutex
	snap      session.Snapshot
	started   []settings.Settings
	startErr  error
	endErr    error
	report    *report.Report
	reportErr error
}

func (f *fakeController) Start(_ context.Context, s settings.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, s)
	f.snap.State = session.StateConnecting
	return nil
}

func (f *fakeController) End() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.endErr != nil {
		return f.endErr
	}
	f.snap.State = session.StateEnded
	return nil
}

func (f *fakeController) GenerateReport(context.Context) (*report.Report, error) {
	return f.report, f.reportErr
}

func (f *fakeController) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeController) Subscribe(int) (<-chan session.Snapshot, func()) {
	ch := make(chan session.Snapshot)
	return ch, func() {}
}

func newTestServer(t *testing.T, ctrl *fakeController) (*Server, *settings.Store) {
	t.Helper()
	store, err := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	m := metrics.New("test")
	m.SessionStarted()
	srv := NewServer(Config{Metrics: m.Handler(), Logger: slog.New(slog.DiscardHandler)}, ctrl, store)
	return srv, store
}

func do(t *testing.T, srv *Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestStatus(t *testing.T) {
	ctrl := &fakeController{snap: session.Snapshot{
		ID:      "abc",
		State:   session.StateError,
		Error:   "session ended",
		Urgency: intake.Urgency{Urgent: true, Reason: "keyword: eviction"},
	}}
	srv, _ := newTestServer(t, ctrl)

	resp, body := do(t, srv, http.MethodGet, "/api/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["state"] != "error" || got["error"] != "session ended" || got["id"] != "abc" {
		t.Errorf("body = %s", body)
	}
	urgency, _ := got["urgency"].(map[string]any)
	if urgency["isUrgent"] != true {
		t.Errorf("urgency = %v", got["urgency"])
	}
}

func TestTranscriptAndRecord(t *testing.T) {
	ctrl := &fakeController{snap: session.Snapshot{
		Transcript: []transcript.Turn{
			{Speaker: transcript.Caller, Text: "Hi"},
			{Speaker: transcript.Assistant, Text: "Hello"},
		},
		PendingCaller: "I was",
		Record:        intake.ClientRecord{Name: "Jane Roe"},
	}}
	srv, _ := newTestServer(t, ctrl)

	_, body := do(t, srv, http.MethodGet, "/api/transcript", nil)
	var tr TranscriptResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(tr.Turns) != 2 || tr.Text != "Caller: Hi\nAssistant: Hello" || tr.PendingCaller != "I was" {
		t.Errorf("transcript = %+v", tr)
	}

	_, body = do(t, srv, http.MethodGet, "/api/record", nil)
	var rec RecordResponse
	if err := json.Unmarshal(body, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Record.Name != "Jane Roe" {
		t.Errorf("record = %+v", rec)
	}
}

func TestEmptyTranscriptIsArray(t *testing.T) {
	srv, _ := newTestServer(t, &fakeController{})
	_, body := do(t, srv, http.MethodGet, "/api/transcript", nil)
	if !strings.Contains(string(body), `"turns":[]`) {
		t.Errorf("body = %s", body)
	}
}

func TestStartCallUsesStoredSettings(t *testing.T) {
	ctrl := &fakeController{}
	srv, store := newTestServer(t, ctrl)

	next := store.Get()
	next.PersonaName = "Sam"
	if _, err := store.Update(next); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	resp, _ := do(t, srv, http.MethodPost, "/api/call/start", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	if len(ctrl.started) != 1 || ctrl.started[0].PersonaName != "Sam" {
		t.Errorf("started with %+v", ctrl.started)
	}
}

func TestCallErrors(t *testing.T) {
	tests := []struct {
		name      string
		ctrl      *fakeController
		path      string
		wantCode  int
		wantError string
	}{
		{
			name:     "already running",
			ctrl:     &fakeController{startErr: session.ErrAlreadyRunning},
			path:     "/api/call/start",
			wantCode: http.StatusConflict,
		},
		{
			name:      "preflight",
			ctrl:      &fakeController{startErr: &session.StartError{Phase: session.PhasePreflight, Reason: "Network is unreachable"}},
			path:      "/api/call/start",
			wantCode:  http.StatusServiceUnavailable,
			wantError: "Network is unreachable",
		},
		{
			name:      "device",
			ctrl:      &fakeController{startErr: &session.StartError{Phase: session.PhaseDevice, Reason: "No microphone was found"}},
			path:      "/api/call/start",
			wantCode:  http.StatusBadGateway,
			wantError: "No microphone was found",
		},
		{
			name:     "end while processing",
			ctrl:     &fakeController{endErr: session.ErrProcessing},
			path:     "/api/call/end",
			wantCode: http.StatusConflict,
		},
		{
			name:     "no generator",
			ctrl:     &fakeController{reportErr: session.ErrNoGenerator},
			path:     "/api/call/report",
			wantCode: http.StatusNotImplemented,
		},
		{
			name:      "generation failed",
			ctrl:      &fakeController{reportErr: errors.New("report: empty response")},
			path:      "/api/call/report",
			wantCode:  http.StatusBadGateway,
			wantError: "report: empty response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.ctrl)
			resp, body := do(t, srv, http.MethodPost, tt.path, nil)
			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.wantCode, body)
			}
			var got map[string]string
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("unmarshal %s: %v", body, err)
			}
			if got["error"] == "" {
				t.Error("missing error message")
			}
			if tt.wantError != "" && got["error"] != tt.wantError {
				t.Errorf("error = %q, want %q", got["error"], tt.wantError)
			}
		})
	}
}

func TestEndAndReport(t *testing.T) {
	ctrl := &fakeController{report: &report.Report{CaseType: "Family Law"}}
	srv, _ := newTestServer(t, ctrl)

	resp, body := do(t, srv, http.MethodPost, "/api/call/end", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"state":"ended"`) {
		t.Errorf("end: %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodPost, "/api/call/report", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"caseType":"Family Law"`) {
		t.Errorf("report: %d %s", resp.StatusCode, body)
	}
}

func TestSettings(t *testing.T) {
	srv, store := newTestServer(t, &fakeController{})

	resp, body := do(t, srv, http.MethodGet, "/api/settings", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d", resp.StatusCode)
	}
	var cur settings.Settings
	if err := json.Unmarshal(body, &cur); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cur.PersonaName != settings.Default().PersonaName {
		t.Errorf("PersonaName = %q", cur.PersonaName)
	}

	cur.FirmName = "Roe & Partners"
	resp, body = do(t, srv, http.MethodPut, "/api/settings", cur)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d (%s)", resp.StatusCode, body)
	}
	if store.Get().FirmName != "Roe & Partners" {
		t.Errorf("store FirmName = %q", store.Get().FirmName)
	}

	cur.ResponseDelayMs = -5
	resp, body = do(t, srv, http.MethodPut, "/api/settings", cur)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid PUT status = %d, want 400 (%s)", resp.StatusCode, body)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	r, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	r.Body.Close()
	if r.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed PUT status = %d, want 400", r.StatusCode)
	}
}

func TestMetricsAndIndex(t *testing.T) {
	srv, _ := newTestServer(t, &fakeController{})

	resp, body := do(t, srv, http.MethodGet, "/metrics", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "test_sessions_active 1") {
		t.Errorf("metrics: %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodGet, "/", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "/ws/events") {
		t.Errorf("index: %d", resp.StatusCode)
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	srv, _ := newTestServer(t, &fakeController{})
	resp, _ := do(t, srv, http.MethodGet, "/ws/events", nil)
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", resp.StatusCode)
	}
}
