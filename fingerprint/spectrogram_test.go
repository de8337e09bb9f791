package fingerprint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpectrogramTooShortReturnsNil(t *testing.T) {
	p := Default()
	samples := make([]float32, p.WindowSize-1)
	assert.Nil(t, Spectrogram(samples, p))
}

func TestSpectrogramFrameCountAndBins(t *testing.T) {
	p := Default()
	p.WindowSize = 16
	p.HopSize = 8
	samples := make([]float32, 40)

	spec := Spectrogram(samples, p)

	wantFrames := 1 + (40-16)/8
	assert.Len(t, spec, wantFrames)
	for _, row := range spec {
		assert.Len(t, row, p.FreqBins())
	}
}

func TestSpectrogramSilenceSitsAtFloor(t *testing.T) {
	p := Default()
	p.WindowSize = 16
	p.HopSize = 16
	samples := make([]float32, 16)

	spec := Spectrogram(samples, p)
	require := assert.New(t)
	require.Len(spec, 1)
	for _, v := range spec[0] {
		require.InDelta(20*math.Log10(epsilon), v, 1e-4)
	}
}

func TestHannWindowEndpointsAreZero(t *testing.T) {
	w := hannWindow(8)
	assert.InDelta(t, 0, w[0], 1e-9)
	assert.InDelta(t, 0, w[len(w)-1], 1e-9)
}

func TestHannWindowIsSymmetric(t *testing.T) {
	w := hannWindow(9)
	for i := 0; i < len(w)/2; i++ {
		assert.InDelta(t, w[i], w[len(w)-1-i], 1e-9)
	}
}
