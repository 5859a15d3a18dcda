package capture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryFeedsBufferAndSignals(t *testing.T) {
	dev := NewMemory()

	granted, err := dev.RequestPermission(context.Background())
	require.NoError(t, err)
	require.True(t, granted)

	signals := 0
	require.NoError(t, dev.Start(func() { signals++ }))

	dev.Feed(constantFrame(0.5, energyUnitSamples))
	dev.Feed(constantFrame(0.5, energyUnitSamples))

	require.Equal(t, 2, signals)
	require.Equal(t, 2*energyUnitSamples, len(dev.Samples()))
	require.Len(t, dev.RelativeEnergy(), 2)
	require.Positive(t, dev.EnergyLookbackWindowSize())
}

func TestMemoryFeedAfterStopIsDropped(t *testing.T) {
	dev := NewMemory()
	require.NoError(t, dev.Start(nil))

	dev.Feed(constantFrame(0.5, 100))
	dev.Stop()
	dev.Feed(constantFrame(0.5, 100))

	require.True(t, dev.Stopped())
	require.Equal(t, 100, len(dev.Samples()))
}

func TestMemoryFeedBeforeStartIsDropped(t *testing.T) {
	dev := NewMemory()
	dev.Feed(constantFrame(0.5, 100))
	require.Empty(t, dev.Samples())
}

func TestMemoryDenyPermission(t *testing.T) {
	dev := NewMemory()
	dev.DenyPermission()

	granted, err := dev.RequestPermission(context.Background())
	require.NoError(t, err)
	require.False(t, granted)
}
