package fingerprint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessRejectsInvalidInput(t *testing.T) {
	p := Default()

	_, err := Preprocess(PCMInput{Samples: []float64{1}, SampleRate: 0, Channels: 1}, p)
	assert.Error(t, err)

	_, err = Preprocess(PCMInput{Samples: []float64{1}, SampleRate: 44100, Channels: 0}, p)
	assert.Error(t, err)

	_, err = Preprocess(PCMInput{Samples: nil, SampleRate: 44100, Channels: 1}, p)
	assert.Error(t, err)
}

func TestPreprocessIsDeterministic(t *testing.T) {
	p := Default()
	samples := make([]float64, 4410)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 44100)
	}
	in := PCMInput{Samples: samples, SampleRate: 44100, Channels: 1, BitDepth: 0}

	first, err := Preprocess(in, p)
	require.NoError(t, err)
	second, err := Preprocess(in, p)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDownmixAveragesChannels(t *testing.T) {
	stereo := []float64{1, -1, 0.5, 0.5}
	mono := downmix(stereo, 2)
	assert.Equal(t, []float64{0, 0.5}, mono)
}

func TestNormalizeToF32IntegerDivisor(t *testing.T) {
	out := normalizeToF32([]float64{16384, -32768}, 16)
	assert.InDelta(t, 0.5, out[0], 1e-6)
	assert.InDelta(t, -1.0, out[1], 1e-6)
}

func TestNormalizeToF32FloatPeakNeverClips(t *testing.T) {
	out := normalizeToF32([]float64{3, -6, 1.5}, 0)
	for _, v := range out {
		assert.LessOrEqual(t, math.Abs(float64(v)), 1.0)
	}
}

// A linear-phase (symmetric) low-pass filter delays every frequency
// component by the same amount, so filtering a unit impulse should
// produce a kernel symmetric about its center tap.
func TestSincLowPassIsSymmetric(t *testing.T) {
	impulse := make([]float64, 63)
	impulse[31] = 1
	out := sincLowPass(impulse, 44100, 5000)

	for i := 0; i < len(out)/2; i++ {
		assert.InDelta(t, out[i], out[len(out)-1-i], 1e-9)
	}
}

func TestResampleLinearPhaseSameRateIsNoOp(t *testing.T) {
	samples := []float64{0.1, 0.2, 0.3, 0.4}
	out, err := resampleLinearPhase(samples, 11025, 11025)
	require.NoError(t, err)
	assert.Equal(t, samples, out)
}

func TestResampleLinearPhaseShortensLongerRate(t *testing.T) {
	samples := make([]float64, 44100)
	out, err := resampleLinearPhase(samples, 44100, 11025)
	require.NoError(t, err)
	assert.InDelta(t, 11025, len(out), 5)
}
