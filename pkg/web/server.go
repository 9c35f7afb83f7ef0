// Package web serves the operator dashboard: the call controls, the live
// transcript and intake record, the firm settings and the metrics endpoint.
package web

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/hub"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/report"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/session"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/settings"
)

//go:embed static/index.html
var indexHTML []byte

// Default configuration values.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 5 * time.Second
)

// Controller is the call controller driven by the dashboard.
type Controller interface {
	Start(ctx context.Context, s settings.Settings) error
	End() error
	GenerateReport(ctx context.Context) (*report.Report, error)
	Snapshot() session.Snapshot
	Subscribe(buffer int) (<-chan session.Snapshot, func())
}

// SettingsStore persists the firm settings.
type SettingsStore interface {
	Get() settings.Settings
	Update(next settings.Settings) (settings.Settings, error)
}

// Config configures the dashboard server.
type Config struct {
	// Addr is the listen address. Default ":8080".
	Addr string

	// Metrics, if set, is served at /metrics.
	Metrics http.Handler

	// ShutdownTimeout bounds graceful shutdown. Default 5s.
	ShutdownTimeout time.Duration

	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	cfg    Config
	ctrl   Controller
	store  SettingsStore
	events *hub.Hub
	logger *slog.Logger
}

// NewServer creates a dashboard for ctrl and store.
func NewServer(cfg Config, ctrl Controller, store SettingsStore) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		ctrl:   ctrl,
		store:  store,
		events: hub.New("events", cfg.Logger),
		logger: cfg.Logger.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Intake Dashboard",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	// CORS for local development
	app.Use(cors.New())

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/transcript", s.handleTranscript)
	api.Get("/record", s.handleRecord)
	api.Post("/call/start", s.handleStartCall)
	api.Post("/call/end", s.handleEndCall)
	api.Post("/call/report", s.handleReport)
	api.Get("/settings", s.handleGetSettings)
	api.Put("/settings", s.handleUpdateSettings)

	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the event hub that feeds /ws/events.
func (s *Server) Hub() *hub.Hub {
	return s.events
}

// Run serves until ctx is cancelled. Controller snapshots are published
// to websocket clients while it runs.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.events.Run(ctx)
	go s.pump(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", s.cfg.Addr)
		errCh <- s.app.Listen(s.cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := s.app.ShutdownWithTimeout(s.cfg.ShutdownTimeout); err != nil {
		s.logger.Warn("dashboard shutdown", "error", err)
	}
	<-s.events.Done()
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// pump publishes controller snapshots to the hub.
func (s *Server) pump(ctx context.Context) {
	snaps, unsubscribe := s.ctrl.Subscribe(0)
	defer unsubscribe()

	s.events.Publish(EventSnapshot, s.ctrl.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if err := s.events.Publish(EventSnapshot, snap); err != nil {
				s.logger.Warn("failed to publish snapshot", "error", err)
			}
		}
	}
}

// handleError renders errors as {"error": "..."}.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
