// Intake - real-time voice intake assistant for a law firm.
// Streams a caller's microphone to Gemini Live, plays the spoken replies,
// records the client's details through tool calls and serves an operator
// dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/internal/config"
	applog "github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/internal/log"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/capture"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/channel"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/followup"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/metrics"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/playback"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/recording"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/report"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/session"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/settings"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/web"
)

// reachabilityURL is checked before every call.
const reachabilityURL = "https://generativelanguage.googleapis.com"

type options struct {
	config.Config
	autostart bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(2)
	}

	applog.Init(opts.LogLevel)
	logger := applog.Component("intake")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, applog.L()); err != nil {
		logger.Error("intake exited", "error", err)
		os.Exit(1)
	}
}

// parseFlags loads the environment and applies command line overrides.
func parseFlags() (options, error) {
	cfg, err := config.Load()
	if err != nil {
		return options{}, err
	}

	channelName := flag.String("channel", cfg.Channel, "Live transport: genai or websocket")
	captureName := flag.String("capture", cfg.Capture, "Caller audio source: malgo, rtp or mock")
	rtpAddr := flag.String("rtp-addr", cfg.RTPAddr, "UDP address for RTP capture")
	httpAddr := flag.String("http", cfg.HTTPAddr, "Dashboard listen address")
	settingsPath := flag.String("settings", cfg.SettingsPath, "Settings file")
	recordDir := flag.String("record-dir", cfg.RecordDir, "Directory for call recordings (empty disables)")
	model := flag.String("model", cfg.Model, "Live model")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	autostart := flag.Bool("autostart", false, "Start a call immediately")
	flag.Parse()

	cfg.Channel, cfg.Capture, cfg.RTPAddr = *channelName, *captureName, *rtpAddr
	cfg.HTTPAddr, cfg.SettingsPath, cfg.RecordDir = *httpAddr, *settingsPath, *recordDir
	cfg.Model, cfg.LogLevel = *model, *logLevel
	if *debug {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return options{}, err
	}
	return options{Config: cfg, autostart: *autostart}, nil
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	mainLog := applog.Component("intake")

	store, err := settings.NewStore(opts.SettingsPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	mainLog.Info("settings loaded", "path", store.Path(), "persona", store.Get().PersonaName)

	m := metrics.New("intake")

	deps, err := buildDeps(ctx, opts, m, logger)
	if err != nil {
		return err
	}

	cfg := session.DefaultConfig()
	cfg.SettleDelay = opts.SettleDelay
	cfg.Logger = logger

	ctrl, err := session.NewController(cfg, deps)
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}
	defer ctrl.Close()

	srv := web.NewServer(web.Config{
		Addr:    opts.HTTPAddr,
		Metrics: m.Handler(),
		Logger:  logger,
	}, ctrl, store)

	if opts.autostart {
		if err := ctrl.Start(ctx, store.Get()); err != nil {
			mainLog.Error("autostart failed", "error", err)
		}
	}

	err = srv.Run(ctx)
	mainLog.Info("shutting down")
	return err
}

// buildDeps selects the transport, audio devices and post-call services
// from the configuration.
func buildDeps(ctx context.Context, opts options, m *metrics.Metrics, logger *slog.Logger) (session.Deps, error) {
	deps := session.Deps{
		Metrics: m,
		Preflight: []session.Check{
			session.RequireCredentials(opts.APIKey),
			session.RequireReachable(reachabilityURL, 5*time.Second),
		},
		NewDestination: func(cfg playback.Config, logger *slog.Logger) (playback.Destination, error) {
			dest, err := playback.NewOtoDestination(cfg, logger)
			if err != nil {
				return nil, err
			}
			return dest, nil
		},
	}

	chOpts := []channel.Option{
		channel.WithAPIKey(opts.APIKey),
		channel.WithModel(opts.Model),
		channel.WithLogger(logger),
	}
	switch {
	case opts.APIKey == "":
		// Calls are refused by the credentials preflight; the dashboard
		// still runs so the operator sees why.
		logger.Warn("GEMINI_API_KEY is not set, calls cannot start")
		deps.Dialer = channel.DialerFunc(func(context.Context, channel.SessionConfig) (channel.Channel, error) {
			return nil, channel.ErrMissingAPIKey
		})
	case opts.Channel == "websocket":
		d, err := channel.NewWSDialer(chOpts...)
		if err != nil {
			return deps, fmt.Errorf("create websocket dialer: %w", err)
		}
		deps.Dialer = d
	default:
		d, err := channel.NewGenAIDialer(chOpts...)
		if err != nil {
			return deps, fmt.Errorf("create genai dialer: %w", err)
		}
		deps.Dialer = d
	}

	switch opts.Capture {
	case "rtp":
		deps.OpenDevice = capture.RTPOpener(opts.RTPAddr)
	case "mock":
		deps.OpenDevice = func(cfg capture.Config, logger *slog.Logger) (capture.Device, error) {
			return capture.NewMockDevice(cfg, logger, capture.WithInterval(cfg.FrameDuration())), nil
		}
	default:
		deps.OpenDevice = capture.OpenMalgo
	}

	if opts.GmailEnabled() {
		g, err := followup.NewGmailForwarder(ctx, followup.GmailConfig{
			CredentialsPath: opts.GmailCredentials,
			TokenPath:       opts.GmailToken,
			Sender:          opts.GmailSender,
			Logger:          logger,
		})
		if err != nil {
			return deps, fmt.Errorf("create gmail forwarder: %w", err)
		}
		deps.Forwarder = g
	} else {
		logger.Info("gmail not configured, follow-up emails are logged only")
		deps.Forwarder = followup.NewLogForwarder(logger)
	}

	if opts.APIKey != "" {
		g, err := report.NewGeminiGenerator(ctx, report.GeminiConfig{
			APIKey: opts.APIKey,
			Model:  opts.ReportModel,
			Logger: logger,
		})
		if err != nil {
			return deps, fmt.Errorf("create report generator: %w", err)
		}
		retryCfg := report.DefaultRetryConfig()
		retryCfg.Logger = logger
		deps.Reports = report.NewRetrying(g, retryCfg)
	}

	if opts.RecordDir != "" {
		newRecorder := recording.Dir(opts.RecordDir, logger)
		deps.Recorder = func(id string) (session.Recorder, error) {
			r, err := newRecorder(id)
			if err != nil {
				return nil, err
			}
			return r, nil
		}
	}

	return deps, nil
}
