package wav

import (
	"os"

	"github.com/go-audio/wav"

	"fpengine/apperr"
	"fpengine/fingerprint"
)

// Info bundles a decoded WAV file's PCM samples with the facts
// fingerprint.Preprocess needs about their representation.
type Info struct {
	PCM      fingerprint.PCMInput
	Duration float64 // seconds
}

// ReadWavInfo decodes a 16-bit PCM WAV file (as produced by
// ConvertToWAV or ExtractChunkAsWAV) into an Info ready for
// fingerprint.Preprocess. It uses go-audio/wav rather than shelling
// out to ffmpeg a second time per chunk.
func ReadWavInfo(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.DecodeFailure, "failed to open wav file", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, apperr.New(apperr.DecodeFailure, "not a valid WAV container")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, apperr.Wrap(apperr.DecodeFailure, "failed to decode wav PCM", err)
	}

	channels := int(dec.NumChans)
	sampleRate := int(dec.SampleRate)
	bitDepth := int(dec.BitDepth)
	if channels <= 0 || sampleRate <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "wav header reports non-positive channels or sample rate")
	}

	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v)
	}

	duration := float64(len(samples)) / float64(channels) / float64(sampleRate)

	return &Info{
		PCM: fingerprint.PCMInput{
			Samples:    samples,
			SampleRate: sampleRate,
			Channels:   channels,
			BitDepth:   bitDepth,
		},
		Duration: duration,
	}, nil
}
