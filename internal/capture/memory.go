package capture

import (
	"context"
	"sync"
)

// Memory is an in-process capture device fed by the caller. It backs tests
// and the stub pipeline with the same buffer and energy semantics as the
// Pulse device.
type Memory struct {
	buf *sampleBuffer

	mu      sync.Mutex
	granted bool
	started bool
	stopped bool
	onReady func()
}

// NewMemory returns a device that grants permission and buffers whatever is
// fed into it.
func NewMemory() *Memory {
	return &Memory{buf: newSampleBuffer(), granted: true}
}

// DenyPermission makes the next RequestPermission decline.
func (m *Memory) DenyPermission() {
	m.mu.Lock()
	m.granted = false
	m.mu.Unlock()
}

func (m *Memory) RequestPermission(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.granted, nil
}

func (m *Memory) Start(onBufferReady func()) error {
	m.mu.Lock()
	m.started = true
	m.onReady = onBufferReady
	m.mu.Unlock()
	return nil
}

func (m *Memory) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

// Feed appends samples and fires the buffer-ready callback, the way a
// capture goroutine would. Feeding a stopped device is a no-op.
func (m *Memory) Feed(samples []float32) {
	m.mu.Lock()
	if m.stopped || !m.started {
		m.mu.Unlock()
		return
	}
	onReady := m.onReady
	m.mu.Unlock()

	m.buf.Append(samples)
	if onReady != nil {
		onReady()
	}
}

func (m *Memory) Samples() []float32 {
	return m.buf.Samples()
}

func (m *Memory) RelativeEnergy() []float32 {
	return m.buf.RelativeEnergy()
}

func (m *Memory) EnergyLookbackWindowSize() int {
	return defaultEnergyLookback
}

func (m *Memory) Purge(keepLast int) {
	m.buf.Purge(keepLast)
}

// Started reports whether Start has been called.
func (m *Memory) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Stopped reports whether Stop has been called.
func (m *Memory) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}
