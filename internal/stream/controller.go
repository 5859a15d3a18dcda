package stream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Device is the capture collaborator contract consumed by the controller. The
// device owns the physical audio buffer; the controller only reads snapshots
// and issues purge commands.
type Device interface {
	// RequestPermission may suspend (OS prompt). A false return is a decline,
	// not an error.
	RequestPermission(ctx context.Context) (bool, error)
	// Start begins capture. onBufferReady is invoked from the device's own
	// goroutine whenever new audio lands; it must stay cheap.
	Start(onBufferReady func()) error
	Stop()
	// Samples returns a snapshot of the buffered audio, oldest first.
	Samples() []float32
	// RelativeEnergy returns the energy trace, one reading per 100ms, newest
	// last, scaled to the loudest frame seen.
	RelativeEnergy() []float32
	// EnergyLookbackWindowSize is the number of trace readings the device's
	// voice-activity detection needs to look back over.
	EnergyLookbackWindowSize() int
	// Purge drops all but the last keepLast samples.
	Purge(keepLast int)
}

// Progress is one intermediate decode result delivered mid-pass.
type Progress struct {
	Text       string
	Tokens     []int
	Fallbacks  int
	AvgLogProb *float64
}

// ProgressFunc is invoked on every intermediate result; VerdictAbort tells
// the engine to abandon the current decode.
type ProgressFunc func(Progress) Verdict

// Result is the final output of one transcription pass.
type Result struct {
	Segments []Segment
}

// Engine decodes a snapshot of buffered samples into timestamped segments.
// It may internally retry (fallbacks) and must honor the progress verdict.
type Engine interface {
	Transcribe(ctx context.Context, samples []float32, onProgress ProgressFunc) (Result, error)
}

// Observer receives the previous and new state after each mutation batch. It
// is called synchronously and must not block or re-enter the controller.
type Observer func(prev, curr State)

// Config tunes the streaming loop.
type Config struct {
	SampleRate                int
	RequiredTailSegments      int
	GateOnSilence             bool
	SilenceThreshold          float32
	CompressionCheckWindow    int
	CompressionRatioThreshold float64
	LogProbThreshold          *float64
	PollInterval              time.Duration
}

// DefaultConfig returns loop tuning suitable for 16kHz dictation.
func DefaultConfig() Config {
	return Config{
		SampleRate:                16000,
		RequiredTailSegments:      2,
		SilenceThreshold:          0.3,
		CompressionCheckWindow:    60,
		CompressionRatioThreshold: 2.4,
		PollInterval:              100 * time.Millisecond,
	}
}

// Controller drives the streaming loop. One goroutine owns the State; the
// capture callback touches only the energy trace, so every other mutation is
// serialized by construction. Stop is terminal for the session: a restart
// means a fresh controller.
type Controller struct {
	cfg      config
	device   Device
	engine   Engine
	observer Observer
	log      *slog.Logger

	mu    sync.Mutex
	state State

	wake     chan struct{}
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
	err      error
}

// config is Config with derived values resolved once.
type config struct {
	Config
	earlyStop EarlyStop
}

// NewController wires the loop against its collaborators. A nil observer or
// logger is safe.
func NewController(cfg Config, device Device, engine Engine, observer Observer, logger *slog.Logger) *Controller {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	if cfg.RequiredTailSegments <= 0 {
		cfg.RequiredTailSegments = DefaultConfig().RequiredTailSegments
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Controller{
		cfg: config{
			Config: cfg,
			earlyStop: EarlyStop{
				CompressionCheckWindow:    cfg.CompressionCheckWindow,
				CompressionRatioThreshold: cfg.CompressionRatioThreshold,
				LogProbThreshold:          cfg.LogProbThreshold,
			},
		},
		device:   device,
		engine:   engine,
		observer: observer,
		log:      logger,
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Recording reports whether the streaming loop is live.
func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Recording
}

// Done is closed when the streaming loop has exited, whether by Stop, context
// cancellation, or a pass failure.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Err reports why the loop exited. It is nil for a clean Stop and only
// meaningful once Done is closed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Start requests capture permission and launches the streaming loop. A
// denied permission is a decline, not an error: it logs and leaves the
// controller idle. Calling Start on a live controller is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	// Claim the start slot before touching the device so a concurrent Start
	// cannot launch a second loop.
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	granted, err := c.device.RequestPermission(ctx)
	if err != nil {
		c.releaseStart()
		return fmt.Errorf("request capture permission: %w", err)
	}
	if !granted {
		c.log.Warn("capture permission denied, staying idle")
		c.releaseStart()
		return nil
	}

	// The callback holds the done channel, not the controller: after
	// teardown it degrades to a no-op instead of reviving the session.
	done := c.done
	if err := c.device.Start(func() { c.onBufferReady(done) }); err != nil {
		c.releaseStart()
		return fmt.Errorf("start capture: %w", err)
	}

	c.mu.Lock()
	prev := c.state.Clone()
	c.state.Recording = true
	curr := c.state.Clone()
	c.mu.Unlock()
	c.emit(prev, curr)

	go c.run(ctx)
	return nil
}

// releaseStart gives the start slot back after a Start attempt that did not
// launch the loop.
func (c *Controller) releaseStart() {
	c.mu.Lock()
	c.started = false
	c.mu.Unlock()
}

// Stop requests cooperative shutdown. An in-flight pass runs to completion
// (or to its own early-stop trigger) before the loop observes the request.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// onBufferReady refreshes the energy trace and nudges the loop. This is the
// only state mutation outside the loop goroutine; it touches a field the
// loop reads exactly once, at pass start.
func (c *Controller) onBufferReady(done chan struct{}) {
	select {
	case <-done:
		return
	default:
	}

	energy := c.device.RelativeEnergy()
	c.mu.Lock()
	c.state.BufferEnergy = append(c.state.BufferEnergy[:0], energy...)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// run executes passes until stop, cancellation, or a pass failure. Idle
// waiting is wake-driven with a poll fallback so the gating latency floor
// stays at the poll interval.
func (c *Controller) run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.finish(ctx.Err())
			return
		case <-c.stopCh:
			c.finish(nil)
			return
		case <-c.wake:
		case <-ticker.C:
		}

		if err := c.pass(ctx); err != nil {
			c.log.Error("transcription pass failed", "error", err.Error())
			c.finish(err)
			return
		}
	}
}

// pass runs one gate -> transcribe -> reconcile -> retain cycle. A gate
// decline returns nil: insufficient or silent audio is normal, not an error.
func (c *Controller) pass(ctx context.Context) error {
	samples := c.device.Samples()

	c.mu.Lock()
	lastSize := c.state.LastBufferSize
	energy := append([]float32(nil), c.state.BufferEnergy...)
	c.mu.Unlock()

	if !ShouldTranscribe(
		len(samples),
		lastSize,
		c.cfg.SampleRate,
		energy,
		c.cfg.GateOnSilence,
		c.cfg.SilenceThreshold,
	) {
		return nil
	}

	c.mu.Lock()
	prev := c.state.Clone()
	c.state.CurrentText = ""
	c.state.CurrentFallbacks = 0
	c.mu.Unlock()

	result, err := c.engine.Transcribe(ctx, samples, c.onProgress)
	if err != nil {
		return fmt.Errorf("transcribe %d samples: %w", len(samples), err)
	}

	c.mu.Lock()
	rec := Reconcile(
		result.Segments,
		c.cfg.RequiredTailSegments,
		c.state.ConfirmedSegments,
		c.state.ConfirmedThrough,
	)
	c.state.ConfirmedSegments = append(c.state.ConfirmedSegments, rec.Confirmed...)
	c.state.UnconfirmedSegments = rec.Unconfirmed
	c.state.ConfirmedThrough = rec.Watermark
	c.state.UnconfirmedText = joinSegmentText(rec.Unconfirmed)
	c.state.LastBufferSize = len(samples)
	c.mu.Unlock()

	keep := RetainSamples(rec.Unconfirmed, c.device.EnergyLookbackWindowSize(), c.cfg.SampleRate)
	c.device.Purge(keep)

	// The purge may have shrunk the buffer below what this pass consumed;
	// without the clamp the next gate computation would go negative.
	remaining := len(c.device.Samples())
	c.mu.Lock()
	if c.state.LastBufferSize > remaining {
		c.state.LastBufferSize = remaining
	}
	curr := c.state.Clone()
	c.mu.Unlock()

	if rec.Advanced {
		c.log.Debug("confirmed advanced",
			"watermark", rec.Watermark,
			"new_segments", len(rec.Confirmed),
			"unconfirmed", len(rec.Unconfirmed),
		)
	}
	c.emit(prev, curr)
	return nil
}

// onProgress tracks the in-flight hypothesis and consults the early-stop
// heuristic. The engine invokes it synchronously from within Transcribe, so
// it runs on the loop goroutine.
func (c *Controller) onProgress(p Progress) Verdict {
	c.mu.Lock()
	previous := c.state.CurrentText
	if len(p.Text) < len(previous) && p.Fallbacks <= c.state.CurrentFallbacks {
		// Shrinking text without a fallback means the engine dropped a
		// hypothesis rather than correcting it; keep it for the audit trail.
		c.state.DiscardedText = append(c.state.DiscardedText, previous)
	}
	c.state.CurrentText = p.Text
	c.state.CurrentFallbacks = p.Fallbacks
	c.mu.Unlock()

	return c.cfg.earlyStop.Consult(p.Tokens, p.AvgLogProb)
}

// finish flips the recording flag on loop exit so observers never see a
// recording state with no loop behind it, then tears the session down.
func (c *Controller) finish(cause error) {
	c.device.Stop()

	c.mu.Lock()
	prev := c.state.Clone()
	c.state.Recording = false
	c.err = cause
	curr := c.state.Clone()
	c.mu.Unlock()
	c.emit(prev, curr)

	if cause != nil {
		c.log.Info("streaming loop ended", "error", cause.Error())
	} else {
		c.log.Info("streaming loop ended")
	}
	close(c.done)
}

// emit notifies the observer outside the state lock.
func (c *Controller) emit(prev, curr State) {
	if c.observer == nil {
		return
	}
	c.observer(prev, curr)
}

func joinSegmentText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}
