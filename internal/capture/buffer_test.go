package capture

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func constantFrame(value float32, n int) []float32 {
	frame := make([]float32, n)
	for i := range frame {
		frame[i] = value
	}
	return frame
}

func TestSampleBufferEnergyTrace(t *testing.T) {
	buf := newSampleBuffer()

	// One loud frame, one quiet frame, one silent frame.
	buf.Append(constantFrame(0.8, energyUnitSamples))
	buf.Append(constantFrame(0.2, energyUnitSamples))
	buf.Append(constantFrame(0, energyUnitSamples))

	energy := buf.RelativeEnergy()
	require.Len(t, energy, 3)
	require.InDelta(t, 1.0, energy[0], 1e-5, "loudest frame defines full scale")
	require.InDelta(t, 0.25, energy[1], 1e-5)
	require.InDelta(t, 0.0, energy[2], 1e-5)
	require.Equal(t, 3*energyUnitSamples, buf.Len())
}

func TestSampleBufferPartialFrameCarriesOver(t *testing.T) {
	buf := newSampleBuffer()

	buf.Append(constantFrame(0.5, energyUnitSamples/2))
	require.Empty(t, buf.RelativeEnergy(), "no reading until a full frame accumulates")

	buf.Append(constantFrame(0.5, energyUnitSamples/2))
	require.Len(t, buf.RelativeEnergy(), 1)
}

func TestSampleBufferSilenceOnlyTraceIsZero(t *testing.T) {
	buf := newSampleBuffer()
	buf.Append(constantFrame(0, 2*energyUnitSamples))

	for _, reading := range buf.RelativeEnergy() {
		if reading != 0 {
			t.Fatalf("silent capture produced reading %v", reading)
		}
	}
}

func TestSampleBufferPurge(t *testing.T) {
	buf := newSampleBuffer()
	buf.Append(constantFrame(0.5, 4*energyUnitSamples))

	buf.Purge(energyUnitSamples)
	require.Equal(t, energyUnitSamples, buf.Len())
	require.Len(t, buf.RelativeEnergy(), 1, "readings covering purged audio retire with it")

	buf.Purge(10 * energyUnitSamples)
	require.Equal(t, energyUnitSamples, buf.Len(), "purge never grows the buffer")

	buf.Purge(-5)
	require.Zero(t, buf.Len())
}

func TestSampleBufferSnapshotDoesNotAlias(t *testing.T) {
	buf := newSampleBuffer()
	buf.Append([]float32{0.1, 0.2})

	snap := buf.Samples()
	snap[0] = 9
	require.Equal(t, float32(0.1), buf.Samples()[0])
}

func TestDecodeS16LE(t *testing.T) {
	raw := []byte{
		0x00, 0x00, // 0
		0xff, 0x7f, // 32767
		0x00, 0x80, // -32768
	}
	samples := decodeS16LE(raw)
	require.Len(t, samples, 3)
	require.Equal(t, float32(0), samples[0])
	require.InDelta(t, 1.0, samples[1], 1e-4)
	require.Equal(t, float32(-1), samples[2])
}

func TestWriterFuncDelegatesWrite(t *testing.T) {
	called := false
	writer := writerFunc(func(b []byte) (int, error) {
		called = true
		require.Equal(t, []byte{1, 2, 3}, b)
		return len(b), nil
	})

	n, err := writer.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.True(t, called)
}
