package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const chunkSizeBytes = 640 // 20ms @ 16kHz mono s16

// Pulse captures 16kHz mono s16 audio from one selected source into a
// sample buffer. The record stream's write callback normalizes PCM to
// float32 and nudges the consumer after every accepted frame.
type Pulse struct {
	log    *slog.Logger
	source Source
	buf    *sampleBuffer

	mu      sync.Mutex
	client  *pulse.Client
	stream  *pulse.RecordStream
	onReady func()
	pending []byte
	stopped bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewPulse returns an unstarted capture device bound to the selected source.
func NewPulse(source Source, logger *slog.Logger) *Pulse {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pulse{
		log:    logger.With("component", "capture.pulse", "source", source.ID),
		source: source,
		buf:    newSampleBuffer(),
		stopCh: make(chan struct{}),
	}
}

// Source returns capture metadata for logging and diagnostics.
func (p *Pulse) Source() Source {
	return p.source
}

// RequestPermission probes the Pulse server. Linux has no capture prompt, so
// a reachable server is a grant; an unreachable one is an error rather than
// a decline.
func (p *Pulse) RequestPermission(_ context.Context) (bool, error) {
	client, err := newPulseClient()
	if err != nil {
		return false, fmt.Errorf("connect pulse server: %w", err)
	}
	client.Close()
	return true, nil
}

// Start connects and begins streaming into the buffer. onBufferReady is
// invoked from the Pulse client goroutine after each accepted frame.
func (p *Pulse) Start(onBufferReady func()) error {
	client, err := newPulseClient()
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}

	source, err := client.SourceByID(p.source.ID)
	if err != nil {
		client.Close()
		return fmt.Errorf("resolve source %q: %w", p.source.ID, err)
	}

	writer := pulse.NewWriter(writerFunc(p.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(chunkSizeBytes),
		pulse.RecordMediaName("murmur transcription"),
	)
	if err != nil {
		client.Close()
		return fmt.Errorf("create pulse record stream: %w", err)
	}

	p.mu.Lock()
	p.client = client
	p.stream = stream
	p.onReady = onBufferReady
	p.mu.Unlock()

	stream.Start()
	p.log.Info("capture started", "description", p.source.Description)
	return nil
}

// Stop halts the stream exactly once. Buffered samples stay readable after
// stop so a final pass can still drain them.
func (p *Pulse) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)

		p.mu.Lock()
		p.stopped = true
		stream := p.stream
		client := p.client
		p.mu.Unlock()

		if stream != nil {
			stream.Stop()
			stream.Close()
		}
		if client != nil {
			client.Close()
		}
		p.log.Info("capture stopped")
	})
}

// Samples returns a snapshot of the buffered audio, oldest first.
func (p *Pulse) Samples() []float32 {
	return p.buf.Samples()
}

// RelativeEnergy returns the per-100ms energy trace, newest last.
func (p *Pulse) RelativeEnergy() []float32 {
	return p.buf.RelativeEnergy()
}

// EnergyLookbackWindowSize is the number of trace readings voice-activity
// decisions need to look back over.
func (p *Pulse) EnergyLookbackWindowSize() int {
	return defaultEnergyLookback
}

// Purge drops all but the last keepLast samples.
func (p *Pulse) Purge(keepLast int) {
	p.buf.Purge(keepLast)
}

// onPCM receives raw s16le frames from Pulse, normalizes them to float32,
// and appends them to the buffer. A frame may split a sample across writes;
// the odd byte carries over to the next call.
func (p *Pulse) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	select {
	case <-p.stopCh:
		return 0, io.EOF
	default:
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return 0, io.EOF
	}
	raw := make([]byte, 0, len(p.pending)+len(buffer))
	raw = append(raw, p.pending...)
	raw = append(raw, buffer...)
	whole := len(raw) &^ 1
	p.pending = append(p.pending[:0], raw[whole:]...)
	onReady := p.onReady
	p.mu.Unlock()

	p.buf.Append(decodeS16LE(raw[:whole]))
	if onReady != nil {
		onReady()
	}
	return len(buffer), nil
}

// decodeS16LE converts little-endian signed 16-bit PCM to [-1, 1) float32.
func decodeS16LE(raw []byte) []float32 {
	samples := make([]float32, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		v := int16(uint16(raw[i]) | uint16(raw[i+1])<<8)
		samples = append(samples, float32(v)/32768)
	}
	return samples
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
