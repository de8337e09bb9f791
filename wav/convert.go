// Package wav handles everything between "bytes the caller handed us"
// and "PCM the fingerprint package can consume": container conversion
// via ffmpeg, WAV decoding, and tag metadata — all of it outside the
// core's scope per spec.md §1 ("the core ... does not decode container
// formats or perform network I/O").
package wav

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fpengine/apperr"
)

// ConvertToWAV converts an input audio file of any container ffmpeg
// understands into 16-bit PCM mono WAV at 44100 Hz. This is a decode
// step, distinct from the canonical-rate preprocessing spec.md §4.1
// describes, which happens later in fingerprint.Preprocess.
func ConvertToWAV(inputFilePath string) (string, error) {
	if _, err := os.Stat(inputFilePath); err != nil {
		return "", apperr.Wrap(apperr.InvalidInput, "input file does not exist", err)
	}

	fileExt := filepath.Ext(inputFilePath)
	if fileExt != ".wav" {
		defer os.Remove(inputFilePath)
	}

	outputFile := strings.TrimSuffix(inputFilePath, fileExt) + ".wav"

	// ffmpeg can't edit a file in place; write to a temp path and rename.
	tmpFile := filepath.Join(filepath.Dir(outputFile), "tmp_"+filepath.Base(outputFile))
	defer os.Remove(tmpFile)

	cmd := exec.Command(
		"ffmpeg", "-y",
		"-i", inputFilePath,
		"-c", "pcm_s16le",
		"-ar", "44100",
		"-ac", "1",
		tmpFile,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", apperr.Wrap(apperr.DecodeFailure, fmt.Sprintf("ffmpeg conversion failed: %s", output), err)
	}

	if err := os.Rename(tmpFile, outputFile); err != nil {
		return "", apperr.Wrap(apperr.DecodeFailure, "failed to finalize converted file", err)
	}

	return outputFile, nil
}

// ExtractChunkAsWAV extracts a time segment from any ffmpeg-readable
// audio file into a small temporary 16-bit PCM mono WAV, bounding
// memory use to durationSec regardless of the source file's length.
func ExtractChunkAsWAV(inputPath string, startSec, durationSec float64) (string, error) {
	if err := os.MkdirAll("tmp", 0o755); err != nil {
		return "", apperr.Wrap(apperr.DecodeFailure, "failed to create tmp dir", err)
	}

	outputFile := filepath.Join("tmp", fmt.Sprintf("chunk_%d_%.0f.wav", time.Now().UnixNano(), startSec))

	cmd := exec.Command(
		"ffmpeg", "-y",
		"-ss", fmt.Sprintf("%.3f", startSec),
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-i", inputPath,
		"-c", "pcm_s16le",
		"-ar", "44100",
		"-ac", "1",
		outputFile,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", apperr.Wrap(apperr.DecodeFailure, fmt.Sprintf("ffmpeg chunk extraction failed: %s", output), err)
	}

	return outputFile, nil
}

// GetAudioDuration returns the duration in seconds of any audio file
// ffprobe can read.
func GetAudioDuration(inputPath string) (float64, error) {
	cmd := exec.Command(
		"ffprobe",
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inputPath,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, apperr.Wrap(apperr.DecodeFailure, "ffprobe duration query failed", err)
	}

	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, apperr.Wrap(apperr.DecodeFailure, "ffprobe returned a non-numeric duration", err)
	}
	return d, nil
}
