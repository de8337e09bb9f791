package fingerprint

import (
	"math"

	"fpengine/apperr"
)

// PCMInput is arbitrary decoded PCM as delivered by the wav package:
// interleaved samples at the source's own sample rate, channel count,
// and bit depth. BitDepth is the number of bits of the original
// integer representation (16, 24, 32); a BitDepth of 0 means Samples
// already holds float PCM that may exceed [-1, 1].
type PCMInput struct {
	Samples    []float64
	SampleRate int
	Channels   int
	BitDepth   int
}

// Preprocess converts arbitrary PCM into the canonical mono f32 buffer
// at Params.SampleRate required by Spectrogram (spec.md §4.1).
func Preprocess(in PCMInput, p Params) ([]float32, error) {
	if in.SampleRate <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "sample rate must be positive")
	}
	if in.Channels <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "channel count must be positive")
	}
	if len(in.Samples) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "empty PCM buffer")
	}

	mono := downmix(in.Samples, in.Channels)

	resampled, err := resampleLinearPhase(mono, in.SampleRate, p.SampleRate)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "resample failed", err)
	}

	return normalizeToF32(resampled, in.BitDepth), nil
}

// downmix averages interleaved channel samples into a single mono
// stream (spec.md §4.1 step 1).
func downmix(interleaved []float64, channels int) []float64 {
	if channels == 1 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out
	}

	n := len(interleaved) / channels
	mono := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += interleaved[base+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

// resampleLinearPhase resamples mono audio from srcRate to dstRate.
// It runs a symmetric (hence linear-phase) Hann-windowed sinc low-pass
// filter at the Nyquist of the lower of the two rates to prevent
// aliasing, then reads the filtered signal on the destination time
// grid with linear interpolation. Both stages are purely deterministic
// functions of the input.
func resampleLinearPhase(samples []float64, srcRate, dstRate int) ([]float64, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "sample rates must be positive")
	}
	if dstRate == srcRate {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out, nil
	}

	cutoff := float64(dstRate) / 2
	if srcRate < dstRate {
		cutoff = float64(srcRate) / 2
	}
	filtered := sincLowPass(samples, float64(srcRate), cutoff)

	ratio := float64(srcRate) / float64(dstRate)
	outN := int(float64(len(filtered)) / ratio)
	out := make([]float64, outN)
	for i := range out {
		srcPos := float64(i) * ratio
		lo := int(math.Floor(srcPos))
		frac := srcPos - float64(lo)
		hi := lo + 1
		var a, b float64
		if lo >= 0 && lo < len(filtered) {
			a = filtered[lo]
		}
		if hi >= 0 && hi < len(filtered) {
			b = filtered[hi]
		}
		out[i] = a + (b-a)*frac
	}
	return out, nil
}

// sincLowPass applies a symmetric windowed-sinc FIR low-pass filter.
// The kernel is symmetric about its center tap, so the filter is
// linear-phase by construction: every frequency component is delayed
// by the same number of samples, (len(kernel)-1)/2.
func sincLowPass(samples []float64, sampleRate, cutoff float64) []float64 {
	const taps = 63 // odd length keeps a single center tap
	kernel := make([]float64, taps)
	center := taps / 2
	fc := cutoff / sampleRate // normalized cutoff, cycles/sample

	var sum float64
	for i := 0; i < taps; i++ {
		n := float64(i - center)
		var sinc float64
		if n == 0 {
			sinc = 2 * fc
		} else {
			sinc = math.Sin(2*math.Pi*fc*n) / (math.Pi * n)
		}
		// Hann window keeps the kernel's tails from ringing.
		window := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(taps-1))
		kernel[i] = sinc * window
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum // unity DC gain
	}

	out := make([]float64, len(samples))
	for i := range samples {
		var acc float64
		for k := 0; k < taps; k++ {
			srcIdx := i + k - center
			if srcIdx < 0 || srcIdx >= len(samples) {
				continue
			}
			acc += samples[srcIdx] * kernel[k]
		}
		out[i] = acc
	}
	return out
}

// normalizeToF32 converts resampled float64 PCM to the canonical f32
// buffer, normalized so the maximum absolute sample is <= 1.0
// (spec.md §4.1 step 3).
func normalizeToF32(samples []float64, bitDepth int) []float32 {
	var divisor float64
	if bitDepth > 0 {
		divisor = math.Exp2(float64(bitDepth - 1))
	} else {
		peak := 0.0
		for _, s := range samples {
			if a := math.Abs(s); a > peak {
				peak = a
			}
		}
		divisor = math.Max(1.0, peak)
	}

	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s / divisor)
	}
	return out
}
