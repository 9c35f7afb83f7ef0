package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/capture"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/channel"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/intake"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/playback"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/report"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/settings"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/transcript"
)

// reasonSessionEnded is reported when the remote side closes an active call.
const reasonSessionEnded = "session ended"

// Controller owns the lifecycle of one call at a time.
type Controller struct {
	cfg        Config
	deps       Deps
	logger     *slog.Logger
	dispatcher *intake.Dispatcher
	decoder    *audioio.Decoder

	mu         sync.Mutex
	state      State
	id         string
	settings   settings.Settings
	startedAt  time.Time
	endedAt    time.Time
	errReason  string
	transcript *transcript.Aggregator
	intake     *intake.State
	report     *report.Report
	res        *resources
	closed     bool

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

// resources are everything a single call acquires. They are released
// exactly once by teardownLocked.
type resources struct {
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time

	device   capture.Device
	stage    *capture.Stage
	frames   <-chan audioio.Frame
	sched    *playback.Scheduler
	ch       channel.Channel
	recorder Recorder
	sendQ    chan audioio.Frame

	loop bool
	done chan struct{}
	torn bool
}

// NewController creates a controller in the IDLE state.
func NewController(cfg Config, deps Deps) (*Controller, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := deps.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:    cfg,
		deps:   deps,
		logger: cfg.Logger.With("component", "session"),
		dispatcher: intake.NewDispatcher(intake.DispatcherConfig{
			Forwarder: deps.Forwarder,
			Logger:    cfg.Logger,
		}),
		decoder:    audioio.NewDecoder(cfg.Playback.SampleRate, cfg.Playback.Channels, cfg.Logger),
		state:      StateIdle,
		transcript: transcript.NewAggregator(),
		intake:     intake.NewState(),
		subs:       make(map[int]chan Snapshot),
	}
	return c, nil
}

// Start begins a new call with s. It returns once the channel is
// connected; the call becomes ACTIVE when the remote side accepts the
// session. A failure leaves the controller in ERROR with every acquired
// resource released.
func (c *Controller) Start(ctx context.Context, s settings.Settings) error {
	c.mu.Lock()
	err := c.startableLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	for _, check := range c.deps.Preflight {
		if err := check(ctx); err != nil {
			se := &StartError{Phase: PhasePreflight, Reason: reason(err), Cause: err}
			c.mu.Lock()
			if c.startableLocked() == nil {
				c.errReason = se.Reason
				c.transitionLocked(StateError)
				c.broadcastLocked()
			}
			c.mu.Unlock()
			return se
		}
	}

	c.mu.Lock()
	if err := c.startableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	res := &resources{started: time.Now(), done: make(chan struct{})}
	res.ctx, res.cancel = context.WithCancel(context.Background())
	c.res = res
	c.id = uuid.NewString()
	c.settings = s.Clone()
	c.startedAt = res.started
	c.endedAt = time.Time{}
	c.errReason = ""
	c.report = nil
	c.transcript = transcript.NewAggregator()
	c.intake = intake.NewState()
	c.transitionLocked(StateConnecting)
	c.deps.Metrics.SessionStarted()
	c.broadcastLocked()
	logger := c.logger.With("session_id", c.id)
	s = c.settings
	c.mu.Unlock()

	dev, err := c.deps.OpenDevice(c.cfg.Capture, c.cfg.Logger)
	if err != nil {
		return c.failStart(res, PhaseDevice, err)
	}
	if !c.attach(res, func() { res.device = dev }) {
		dev.Close()
		return ErrCancelled
	}

	pcfg := c.cfg.Playback
	pcfg.ResponseDelay = s.ResponseDelay()
	dest, err := c.deps.NewDestination(pcfg, c.cfg.Logger)
	if err != nil {
		return c.failStart(res, PhasePlayback, err)
	}
	sched := playback.NewScheduler(dest, pcfg, c.cfg.Logger)
	sched.OnPendingChange = c.deps.Metrics.SetPendingPlayback
	if !c.attach(res, func() { res.sched = sched }) {
		sched.Teardown()
		return ErrCancelled
	}

	ch, err := c.deps.Dialer.Connect(ctx, channel.SessionConfig{
		AudioOutputFormat: audioio.MIMEType(pcfg.SampleRate),
		VoicePersonaName:  s.VoiceName,
		SystemPrompt:      s.SystemPrompt(),
		Tools:             intake.Declarations(),
		Transcription:     channel.TranscriptionModes{Input: true, Output: true},
	})
	if err != nil {
		return c.failStart(res, PhaseChannel, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.res != res || res.torn {
		ch.Close()
		return ErrCancelled
	}
	res.ch = ch
	res.sendQ = make(chan audioio.Frame, c.cfg.SendQueue)
	res.loop = true
	go c.run(res)

	logger.Info("call connecting", "voice", s.VoiceName, "persona", s.PersonaName)
	return nil
}

func (c *Controller) startableLocked() error {
	if c.closed {
		return ErrClosed
	}
	switch c.state {
	case StateProcessing:
		return ErrProcessing
	case StateConnecting, StateActive:
		return ErrAlreadyRunning
	}
	return nil
}

// attach runs fn under the lock if res is still the live call.
func (c *Controller) attach(res *resources, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.res != res || res.torn {
		return false
	}
	fn()
	return true
}

func (c *Controller) failStart(res *resources, phase string, err error) error {
	se := &StartError{Phase: phase, Reason: reason(err), Cause: err}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.res != res || res.torn {
		return ErrCancelled
	}
	c.failLocked(res, se.Reason)
	return se
}

// End stops the current call. It is a no-op when no call is running and
// is rejected while the call is being processed.
func (c *Controller) End() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateProcessing:
		return ErrProcessing
	case StateConnecting, StateActive:
		c.transitionLocked(StateEnded)
		c.teardownLocked(c.res)
		c.broadcastLocked()
	}
	return nil
}

// BeginProcessing moves a finished or active call to PROCESSING. An
// active call is torn down first.
func (c *Controller) BeginProcessing() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateActive:
		c.transitionLocked(StateProcessing)
		c.teardownLocked(c.res)
	case StateEnded:
		c.transitionLocked(StateProcessing)
	default:
		return fmt.Errorf("%w: cannot process a call in state %s", ErrInvalidState, c.state)
	}
	c.broadcastLocked()
	return nil
}

// CompleteProcessing moves a PROCESSING call to ENDED.
func (c *Controller) CompleteProcessing() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateProcessing {
		return fmt.Errorf("%w: no call is being processed (state %s)", ErrInvalidState, c.state)
	}
	c.transitionLocked(StateEnded)
	c.broadcastLocked()
	return nil
}

// GenerateReport produces the case report for the current call. The call
// is PROCESSING while the report is generated and ENDED afterwards, also
// when generation fails.
func (c *Controller) GenerateReport(ctx context.Context) (*report.Report, error) {
	if c.deps.Reports == nil {
		return nil, ErrNoGenerator
	}
	if err := c.BeginProcessing(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	urgency := c.intake.Urgency()
	req := report.Request{
		Record:     c.intake.Record(),
		Transcript: transcript.Format(c.transcript.History()),
		IsUrgent:   urgency.Urgent,
		Reason:     urgency.Reason,
	}
	logger := c.logger.With("session_id", c.id)
	c.mu.Unlock()

	rep, err := c.deps.Reports.Generate(ctx, req)
	c.deps.Metrics.Report(err)
	if err != nil {
		logger.Warn("report generation failed", "error", err)
	} else {
		logger.Info("report generated", "case_type", rep.CaseType, "urgency", rep.Urgency)
		c.mu.Lock()
		c.report = rep
		c.mu.Unlock()
	}

	if cerr := c.CompleteProcessing(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// Close ends any running call, waits for background work and closes all
// subscriptions. The controller cannot be started again.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	res := c.res
	wait := false
	if res != nil {
		if c.state.Running() {
			c.transitionLocked(StateEnded)
		}
		c.teardownLocked(res)
		c.broadcastLocked()
		wait = res.loop
	}
	c.mu.Unlock()

	if wait {
		<-res.done
	}
	c.dispatcher.Wait()

	c.subMu.Lock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.subMu.Unlock()

	c.logger.Info("session controller closed")
	return nil
}

// run is the orchestration loop of one call. It is the only consumer of
// the channel's events and the captured frames.
func (c *Controller) run(res *resources) {
	var sender sync.WaitGroup
	sender.Add(1)
	go func() {
		defer sender.Done()
		c.send(res)
	}()

	var settle *time.Timer
	defer func() {
		if settle != nil {
			settle.Stop()
		}
		close(res.sendQ)
		sender.Wait()
		close(res.done)
	}()

	events := res.ch.Events()
	var (
		frames  <-chan audioio.Frame
		settleC <-chan time.Time
	)
	for {
		select {
		case <-res.ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				events = nil
				ev = channel.Closed{Reason: "event stream closed"}
			}
			if c.handleEvent(res, ev) {
				settle = time.NewTimer(c.cfg.SettleDelay)
				settleC = settle.C
			}

		case <-settleC:
			settleC = nil
			frames = c.prime(res)

		case f, ok := <-frames:
			if !ok {
				frames = nil
				continue
			}
			c.forward(res, f)
		}
	}
}

// send drains the outbound queue. Failures drop the frame.
func (c *Controller) send(res *resources) {
	for f := range res.sendQ {
		if err := res.ch.SendAudio(audioio.EncodeFrame(f)); err != nil {
			c.deps.Metrics.FrameDropped("send_failed")
			c.logger.Debug("dropping outbound frame", "error", err)
			continue
		}
		c.deps.Metrics.FrameSent()
	}
}

// prime queues the silence priming frame and returns the capture stream,
// which starts flowing after it.
func (c *Controller) prime(res *resources) <-chan audioio.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.res != res || res.torn || res.stage == nil {
		return nil
	}
	c.enqueueLocked(res, audioio.Silence(c.cfg.PrimingDuration, res.stage.Config().SampleRate))
	c.logger.Debug("priming frame queued", "duration", c.cfg.PrimingDuration)
	return res.frames
}

func (c *Controller) forward(res *resources, f audioio.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.res != res || res.torn {
		return
	}
	c.enqueueLocked(res, f)
	if res.recorder != nil {
		res.recorder.Write(f)
	}
}

func (c *Controller) enqueueLocked(res *resources, f audioio.Frame) {
	select {
	case res.sendQ <- f:
	default:
		c.deps.Metrics.FrameDropped("queue_full")
		c.logger.Debug("send queue full, dropping frame")
	}
}

// handleEvent applies one inbound event. It reports whether the event
// opened the call, which starts the settle timer.
func (c *Controller) handleEvent(res *resources, ev channel.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.res != res || res.torn {
		return false
	}

	switch e := ev.(type) {
	case channel.Opened:
		opened := c.openedLocked(res)
		c.broadcastLocked()
		return opened

	case channel.AudioChunk:
		buf, err := c.decoder.DecodePacket(e.Packet)
		c.deps.Metrics.AudioChunk(err != nil)
		res.sched.Enqueue(buf)

	case channel.InputTranscript:
		c.transcript.AppendCallerDelta(e.Text)
		c.broadcastLocked()

	case channel.OutputTranscript:
		c.transcript.AppendAssistantDelta(e.Text)
		c.broadcastLocked()

	case channel.ToolCalls:
		c.toolCallsLocked(res, e.Calls)
		c.broadcastLocked()

	case channel.Interrupted:
		res.sched.Interrupt()
		c.deps.Metrics.Interruption()
		c.logger.Debug("caller interrupted playback")

	case channel.TurnComplete:
		if len(c.commitLocked()) > 0 {
			c.broadcastLocked()
		}

	case channel.ErrorEvent:
		c.failLocked(res, reason(e.Err))

	case channel.Closed:
		c.logger.Info("channel closed", "code", e.Code, "reason", e.Reason)
		switch c.state {
		case StateActive:
			c.failLocked(res, reasonSessionEnded)
			return false
		case StateProcessing, StateEnded, StateError:
		default:
			c.transitionLocked(StateEnded)
		}
		c.teardownLocked(res)
		c.broadcastLocked()

	default:
		c.logger.Debug("ignoring channel event", "event", channel.EventName(ev))
	}
	return false
}

func (c *Controller) openedLocked(res *resources) bool {
	if c.state != StateConnecting {
		return false
	}

	stage := capture.NewStage(c.cfg.Capture, c.cfg.Logger)
	frames, err := stage.Start(res.device)
	if err != nil {
		c.failLocked(res, reason(err))
		return false
	}
	res.stage = stage
	res.frames = frames

	if c.deps.Recorder != nil {
		rec, err := c.deps.Recorder(c.id)
		if err != nil {
			c.logger.Warn("call recording unavailable", "error", err)
		} else {
			res.recorder = rec
		}
	}

	c.transitionLocked(StateActive)
	return true
}

func (c *Controller) toolCallsLocked(res *resources, calls []channel.ToolCall) {
	for _, call := range calls {
		id := call.ID
		if id == "" {
			id = uuid.NewString()
		}
		ack := c.dispatcher.Dispatch(c.intake, intake.Call{ID: id, Name: call.Name, Args: call.Args})
		c.deps.Metrics.ToolCall(ack.Name, ack.Recognized)

		if err := res.ch.SendToolResult(ack.ID, ack.Name, ack.Result); err != nil {
			c.logger.Warn("failed to acknowledge tool call", "name", ack.Name, "id", ack.ID, "error", err)
		}
	}
}

// commitLocked commits the pending turns and scans caller turns for
// urgency keywords.
func (c *Controller) commitLocked() []transcript.Turn {
	turns := c.transcript.CommitTurn()
	for _, t := range turns {
		c.deps.Metrics.Turn(string(t.Speaker))
		if t.Speaker != transcript.Caller {
			continue
		}
		if kw, ok := c.settings.MatchUrgency(t.Text); ok {
			if c.intake.FlagUrgentOnce("keyword: " + kw) {
				c.logger.Info("case flagged urgent", "keyword", kw)
			}
		}
	}
	return turns
}

func (c *Controller) failLocked(res *resources, why string) {
	c.errReason = why
	c.transitionLocked(StateError)
	c.logger.Error("call failed", "reason", why)
	c.teardownLocked(res)
	c.broadcastLocked()
}

func (c *Controller) transitionLocked(to State) {
	if c.state == to {
		return
	}
	c.logger.Info("call state changed", "from", c.state, "to", to, "session_id", c.id)
	c.state = to
}

// teardownLocked releases res. The channel is closed before the device is
// released. It is idempotent.
func (c *Controller) teardownLocked(res *resources) {
	if res == nil || res.torn {
		return
	}
	res.torn = true

	if res.recorder != nil {
		if err := res.recorder.Stop(); err != nil {
			c.logger.Warn("failed to stop recorder", "error", err)
		}
	}
	res.cancel()
	if res.ch != nil {
		if err := res.ch.Close(); err != nil {
			c.logger.Debug("channel close failed", "error", err)
		}
	}
	if res.stage != nil {
		res.stage.Stop()
	}
	if res.device != nil {
		if err := res.device.Close(); err != nil {
			c.logger.Debug("device close failed", "error", err)
		}
	}
	if res.sched != nil {
		if err := res.sched.Teardown(); err != nil {
			c.logger.Debug("playback teardown failed", "error", err)
		}
	}

	c.commitLocked()
	c.endedAt = time.Now()

	outcome := "ended"
	if c.state == StateError {
		outcome = "error"
	}
	c.deps.Metrics.SessionFinished(outcome, c.endedAt.Sub(res.started))
	c.logger.Info("call resources released",
		"session_id", c.id,
		"outcome", outcome,
		"duration", c.endedAt.Sub(res.started),
	)
}
