// Package session owns one streaming transcription lifecycle: the capture
// device, the incremental decode loop, confirmed-text output, and the IPC
// control surface for a foreground run.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/murmurapp/murmur/internal/config"
	"github.com/murmurapp/murmur/internal/fsm"
	"github.com/murmurapp/murmur/internal/ipc"
	"github.com/murmurapp/murmur/internal/output"
	"github.com/murmurapp/murmur/internal/stream"
	"github.com/murmurapp/murmur/internal/transcript"
)

// Result is the complete lifecycle output returned by one Run invocation.
type Result struct {
	SessionID  string
	State      fsm.State
	Transcript string
	Segments   int
	Watermark  float64
	Declined   bool
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Controller drives the streaming loop through its lifecycle states and
// mirrors confirmed text into the configured sink as it lands.
type Controller struct {
	logger *slog.Logger
	ctrl   *stream.Controller
	sink   *output.Sink
	opts   transcript.Options
	id     string

	mu    sync.RWMutex
	state fsm.State
}

// NewController wires a session around its collaborators. A nil sink or
// logger is safe.
func NewController(
	cfg config.Config,
	device stream.Device,
	engine stream.Engine,
	sink *output.Sink,
	logger *slog.Logger,
) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Controller{
		logger: logger,
		sink:   sink,
		opts: transcript.Options{
			TrailingSpace:       cfg.Transcript.TrailingSpace,
			CapitalizeSentences: cfg.Transcript.CapitalizeSentences,
		},
		id:    uuid.NewString(),
		state: fsm.StateIdle,
	}
	c.ctrl = stream.NewController(streamConfig(cfg.Stream), device, engine, c.observe, logger)
	return c
}

// streamConfig maps file configuration onto loop configuration, keeping the
// loop defaults for anything left unset.
func streamConfig(cfg config.StreamConfig) stream.Config {
	sc := stream.DefaultConfig()
	if cfg.RequiredTailSegments > 0 {
		sc.RequiredTailSegments = cfg.RequiredTailSegments
	}
	sc.GateOnSilence = cfg.GateOnSilence
	if cfg.SilenceThreshold > 0 {
		sc.SilenceThreshold = cfg.SilenceThreshold
	}
	if cfg.CompressionCheckWindow > 0 {
		sc.CompressionCheckWindow = cfg.CompressionCheckWindow
	}
	if cfg.CompressionRatioThreshold > 0 {
		sc.CompressionRatioThreshold = cfg.CompressionRatioThreshold
	}
	sc.LogProbThreshold = cfg.LogProbThreshold
	if cfg.PollIntervalMS > 0 {
		sc.PollInterval = time.Duration(cfg.PollIntervalMS) * time.Millisecond
	}
	return sc
}

// ID returns the session identifier used in log correlation.
func (c *Controller) ID() string {
	return c.id
}

// State returns the current lifecycle state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// transition applies one lifecycle event to the session state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Run executes one session from start to stop or failure. Context
// cancellation counts as a clean stop: it is how a foreground run ends on
// interrupt.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{SessionID: c.id, StartedAt: time.Now()}

	if err := c.transition(fsm.EventStart); err != nil {
		result.State = c.State()
		result.Err = err
		result.FinishedAt = time.Now()
		return result
	}

	c.logger.Info("session start", "session_id", c.id)

	if err := c.ctrl.Start(ctx); err != nil {
		_ = c.transition(fsm.EventFail)
		result.State = c.State()
		result.Err = err
		result.FinishedAt = time.Now()
		return result
	}

	if !c.ctrl.Recording() {
		// Permission was declined; the loop never started.
		_ = c.transition(fsm.EventFail)
		_ = c.transition(fsm.EventReset)
		result.State = c.State()
		result.Declined = true
		result.FinishedAt = time.Now()
		return result
	}

	<-c.ctrl.Done()

	loopErr := c.ctrl.Err()
	if loopErr != nil && !errors.Is(loopErr, context.Canceled) {
		_ = c.transition(fsm.EventFail)
		result.Err = loopErr
	} else {
		_ = c.transition(fsm.EventStop)
	}

	snap := c.ctrl.Snapshot()
	result.State = c.State()
	result.Transcript = transcript.Assemble(snap.ConfirmedSegments, c.opts)
	result.Segments = len(snap.ConfirmedSegments)
	result.Watermark = snap.ConfirmedThrough
	result.FinishedAt = time.Now()
	return result
}

// Handle serves IPC commands for the active session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		snap := c.ctrl.Snapshot()
		return ipc.Response{
			OK:         true,
			State:      string(c.State()),
			Message:    "status",
			Transcript: transcript.Assemble(snap.ConfirmedSegments, c.opts),
			Pending:    snap.UnconfirmedText,
			Confirmed:  len(snap.ConfirmedSegments),
			Watermark:  snap.ConfirmedThrough,
		}
	case "transcript":
		snap := c.ctrl.Snapshot()
		return ipc.Response{
			OK:         true,
			State:      string(c.State()),
			Transcript: transcript.Assemble(snap.ConfirmedSegments, c.opts),
			Pending:    snap.UnconfirmedText,
		}
	case "stop":
		return c.requestStop()
	default:
		return ipc.Response{
			OK:    false,
			State: string(c.State()),
			Error: fmt.Sprintf("unknown command: %s", req.Command),
		}
	}
}

// requestStop asks the loop to wind down when state permits it.
func (c *Controller) requestStop() ipc.Response {
	state := c.State()
	if state != fsm.StateRecording {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot stop from state %s", state)}
	}

	c.ctrl.Stop()
	return ipc.Response{OK: true, State: string(state), Message: "stop requested"}
}

// observe receives one state mutation batch from the loop and forwards any
// newly confirmed text to the sink. Confirmed segments are append-only, so
// the delta is exactly the tail the previous snapshot lacked. Deltas are
// mid-sentence fragments, so sentence capitalization applies only to the
// whole-transcript views, never here.
func (c *Controller) observe(prev, curr stream.State) {
	fresh := stream.NewlyConfirmed(prev, curr)
	if len(fresh) == 0 || c.sink == nil {
		return
	}

	text := transcript.Assemble(fresh, transcript.Options{TrailingSpace: c.opts.TrailingSpace})
	if text == "" {
		return
	}
	if err := c.sink.Write(text); err != nil {
		c.logger.Error("write confirmed text", "session_id", c.id, "error", err.Error())
	}
}
