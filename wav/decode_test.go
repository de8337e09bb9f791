package wav

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	audio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpengine/apperr"
)

func writeTestWAV(t *testing.T, samples []int, sampleRate, channels, bitDepth int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := gowav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:   samples,
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

func TestReadWavInfoRoundTripsSamplesAndDuration(t *testing.T) {
	samples := make([]int, 8820) // 0.2s at 44100Hz mono
	for i := range samples {
		samples[i] = int(16000 * math.Sin(2*math.Pi*440*float64(i)/44100))
	}
	path := writeTestWAV(t, samples, 44100, 1, 16)

	info, err := ReadWavInfo(path)
	require.NoError(t, err)

	assert.Equal(t, 44100, info.PCM.SampleRate)
	assert.Equal(t, 1, info.PCM.Channels)
	assert.Equal(t, 16, info.PCM.BitDepth)
	assert.Len(t, info.PCM.Samples, len(samples))
	assert.InDelta(t, 0.2, info.Duration, 0.01)
}

func TestReadWavInfoMissingFile(t *testing.T) {
	_, err := ReadWavInfo(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.DecodeFailure))
}

func TestGetMetadataMissingFileIsDecodeFailure(t *testing.T) {
	_, err := GetMetadata(filepath.Join(t.TempDir(), "missing.mp3"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.DecodeFailure))
}
