package fingerprint

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const epsilon = 1e-10

// Spectrogram computes a dB-scaled short-time magnitude spectrogram
// from the canonical mono f32 buffer (spec.md §4.2). T is
// 1 + max(0, (N-window_size)/hop_size); if the buffer is shorter than
// one window, it returns an empty (zero-row) spectrogram.
func Spectrogram(samples []float32, p Params) [][]float32 {
	n := len(samples)
	if n < p.WindowSize {
		return nil
	}

	window := hannWindow(p.WindowSize)
	frameCount := 1 + (n-p.WindowSize)/p.HopSize
	bins := p.FreqBins()

	spectrogram := make([][]float32, frameCount)
	frame := make([]float64, p.WindowSize)

	for t := 0; t < frameCount; t++ {
		start := t * p.HopSize
		for i := 0; i < p.WindowSize; i++ {
			frame[i] = float64(samples[start+i]) * window[i]
		}

		spectrum := fft.FFTReal(frame)

		row := make([]float32, bins)
		for f := 0; f < bins; f++ {
			mag := cmplx.Abs(spectrum[f])
			row[f] = float32(20 * math.Log10(math.Max(mag, epsilon)))
		}
		spectrogram[t] = row
	}

	return spectrogram
}

// hannWindow returns the Hann window of length n:
// w[i] = 0.5 * (1 - cos(2*pi*i/(n-1))).
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}
