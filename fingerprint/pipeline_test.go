package fingerprint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpengine/apperr"
)

func toneSamples(freq float64, sampleRate, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return samples
}

func TestProcessShortAudioReturnsNilWithoutError(t *testing.T) {
	p := Default()
	pcm := PCMInput{
		Samples:    toneSamples(440, 44100, 100),
		SampleRate: 44100,
		Channels:   1,
	}

	fps, err := Process(pcm, 7, p)
	require.NoError(t, err)
	assert.Nil(t, fps)
}

func TestProcessTagsFingerprintsWithSongID(t *testing.T) {
	p := Default()
	pcm := PCMInput{
		Samples:    toneSamples(440, 44100, 44100*3),
		SampleRate: 44100,
		Channels:   1,
	}

	fps, err := Process(pcm, 42, p)
	require.NoError(t, err)
	for _, fp := range fps {
		assert.EqualValues(t, 42, fp.SongID)
	}
}

func TestProcessChunkedOffsetsAnchorIndices(t *testing.T) {
	p := Default()
	samples := toneSamples(440, 44100, 44100*3)

	chunks := []Chunk{
		{PCM: PCMInput{Samples: samples, SampleRate: 44100, Channels: 1}, StartFrame: 0},
		{PCM: PCMInput{Samples: samples, SampleRate: 44100, Channels: 1}, StartFrame: 1000},
	}

	fps, err := ProcessChunked(chunks, 1, p)
	require.NoError(t, err)
	require.NotEmpty(t, fps)

	var sawOffset bool
	for _, fp := range fps {
		if fp.AnchorTIdx >= 1000 {
			sawOffset = true
			break
		}
	}
	assert.True(t, sawOffset, "expected at least one fingerprint anchored into the second chunk's offset range")
}

func TestProcessChunkedWrapsFailureAsInternalNumeric(t *testing.T) {
	p := Default()
	chunks := []Chunk{
		{PCM: PCMInput{Samples: []float64{1, 2, 3}, SampleRate: 0, Channels: 1}},
	}

	_, err := ProcessChunked(chunks, 1, p)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InternalNumeric))
}
