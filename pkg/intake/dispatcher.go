package intake

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultForwardTimeout bounds a single follow-up delivery.
const DefaultForwardTimeout = 30 * time.Second

// Call is one function invocation requested by the model.
type Call struct {
	ID   string
	Name string
	Args map[string]any
}

// Ack is the acknowledgement returned to the model for a call.
type Ack struct {
	ID     string
	Name   string
	Result map[string]any

	// Recognized reports whether the name matched a known tool.
	Recognized bool
	// Err is the local handling error, if any. It is logged and never
	// sent to the model.
	Err error
}

// OK is the literal result every call is acknowledged with.
func OK() map[string]any {
	return map[string]any{"result": "ok"}
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// Forwarder receives send_follow_up_email calls. Nil drops them.
	Forwarder FollowUpForwarder

	// ForwardTimeout bounds each forward.
	ForwardTimeout time.Duration

	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// Dispatcher maps tool calls onto intake state mutations.
type Dispatcher struct {
	handlers  map[string]Handler
	forwarder FollowUpForwarder
	timeout   time.Duration
	logger    *slog.Logger

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher for the intake tools.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ForwardTimeout <= 0 {
		cfg.ForwardTimeout = DefaultForwardTimeout
	}

	d := &Dispatcher{
		handlers:  make(map[string]Handler),
		forwarder: cfg.Forwarder,
		timeout:   cfg.ForwardTimeout,
		logger:    cfg.Logger.With("component", "intake.dispatcher"),
	}
	for _, t := range Tools() {
		if t.Handler != nil {
			d.handlers[t.Declaration.Name] = t.Handler
		}
	}
	d.handlers[ToolSendFollowUpEmail] = d.forward
	return d
}

// Dispatch applies call to s and returns its acknowledgement. It always
// returns exactly one Ack carrying call.ID and never panics.
func (d *Dispatcher) Dispatch(s *State, call Call) (ack Ack) {
	ack = Ack{ID: call.ID, Name: call.Name, Result: OK()}

	h, ok := d.handlers[call.Name]
	if !ok {
		d.logger.Warn("unknown tool call acknowledged as no-op", "name", call.Name, "id", call.ID)
		return ack
	}
	ack.Recognized = true

	defer func() {
		if r := recover(); r != nil {
			ack.Err = fmt.Errorf("intake: %s panicked: %v", call.Name, r)
			d.logger.Error("tool handler panicked", "name", call.Name, "id", call.ID, "panic", r)
		}
	}()

	if err := h(s, call.Args); err != nil {
		ack.Err = err
		d.logger.Warn("tool call not applied", "name", call.Name, "id", call.ID, "error", err)
		return ack
	}

	d.logger.Info("tool call applied", "name", call.Name, "id", call.ID)
	return ack
}

// Wait blocks until in-flight follow-up forwards have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// forward hands the follow-up to the forwarder in the background.
func (d *Dispatcher) forward(s *State, args map[string]any) error {
	if d.forwarder == nil {
		d.logger.Warn("no follow-up forwarder configured")
		return nil
	}

	record := s.Record()
	f := FollowUp{
		To:      stringArg(args, "email"),
		Subject: stringArg(args, "subject"),
		Body:    stringArg(args, "body"),
		Record:  record,
		Args:    args,
	}
	if f.To == "" {
		f.To = record.Email
	}
	if f.To == "" {
		return ErrNoRecipient
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.forwarder.Forward(ctx, f); err != nil {
			d.logger.Error("follow-up forward failed", "to", f.To, "error", err)
			return
		}
		d.logger.Info("follow-up forwarded", "to", f.To)
	}()
	return nil
}
