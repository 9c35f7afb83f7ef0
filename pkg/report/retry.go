package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Default retry settings.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
)

// RetryConfig configures Retrying.
type RetryConfig struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int

	// BaseDelay is the first backoff; it doubles on every retry.
	BaseDelay time.Duration

	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Logger:      slog.Default(),
	}
}

// Retrying retries transient failures of the wrapped generator with
// exponential backoff.
type Retrying struct {
	next   Generator
	cfg    RetryConfig
	logger *slog.Logger
}

// NewRetrying wraps next.
func NewRetrying(next Generator, cfg RetryConfig) *Retrying {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Retrying{
		next:   next,
		cfg:    cfg,
		logger: cfg.Logger.With("component", "report.retry"),
	}
}

// Generate implements Generator. Only errors marked Retryable are retried.
func (r *Retrying) Generate(ctx context.Context, req Request) (*Report, error) {
	backoff := retry.WithMaxRetries(uint64(r.cfg.MaxAttempts-1), retry.NewExponential(r.cfg.BaseDelay))

	var (
		out     *Report
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		rep, err := r.next.Generate(ctx, req)
		if err != nil {
			if IsRetryable(err) {
				r.logger.Warn("report generation failed, retrying", "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		out = rep
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ Generator = (*Retrying)(nil)
