package fingerprint

import (
	"fmt"
	"log"
	"time"

	"fpengine/apperr"
	"fpengine/models"
)

// Process runs the full stage 1-4 pipeline (spec.md §2) over one
// in-memory PCM buffer and returns its fingerprints tagged with
// songID. songID is 0 for a query; the matcher never looks at it.
//
// Per spec.md §4.2, audio shorter than one window produces zero
// fingerprints and no error — not an InternalNumeric failure.
func Process(pcm PCMInput, songID uint64, p Params) ([]models.Fingerprint, error) {
	samples, err := Preprocess(pcm, p)
	if err != nil {
		return nil, err
	}

	spectrogram := Spectrogram(samples, p)
	if len(spectrogram) == 0 {
		return nil, nil
	}

	peaks := ExtractPeaks(spectrogram, p)
	fps := Hash(peaks, p)
	for i := range fps {
		fps[i].SongID = songID
	}

	return fps, nil
}

// Chunk is one bounded-duration slice of PCM plus the frame offset (in
// Params.HopSize units) at which it starts within the full track. It
// mirrors the teacher's ffmpeg-chunked file handling but works on
// already-decoded PCM so ProcessChunked has no I/O of its own.
type Chunk struct {
	PCM        PCMInput
	StartFrame uint32 // time index, in STFT frames, where this chunk begins
}

// ProcessChunked fingerprints a long recording in bounded memory by
// running Process over each chunk independently and offsetting the
// resulting anchor indices back into the track's own frame numbering.
// It generalizes the teacher's FingerprintAudioChunked, which existed
// only for its audiobook profile; SPEC_FULL keeps chunking available
// for any track long enough to benefit; see SPEC_FULL.md §8.
func ProcessChunked(chunks []Chunk, songID uint64, p Params) ([]models.Fingerprint, error) {
	var all []models.Fingerprint

	for i, c := range chunks {
		start := time.Now()
		fps, err := Process(c.PCM, songID, p)
		if err != nil {
			return nil, apperr.Wrap(apperr.InternalNumeric, fmt.Sprintf("chunk %d failed", i), err)
		}

		for j := range fps {
			fps[j].AnchorTIdx += c.StartFrame
		}

		all = append(all, fps...)
		log.Printf("[fingerprint] chunk %d: %d fingerprints in %s", i, len(fps), time.Since(start))
	}

	return all, nil
}
