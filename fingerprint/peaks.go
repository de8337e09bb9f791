package fingerprint

import (
	"math"

	"fpengine/models"
)

// ExtractPeaks reduces a dB spectrogram to a sparse, reproducible set
// of local maxima (spec.md §4.3). A cell is a peak only if it equals
// the maximum over its clipped 20x20 (half-size 10x10) neighborhood and
// clears the amplitude floor; ties within a neighborhood are resolved
// by keeping only the smallest (t, f) that attains the maximum, which
// falls out naturally from scanning each neighborhood in row-major
// order and never overwriting on an equal value.
//
// Output is ordered by t_idx ascending, then f_idx ascending, because
// the outer scan itself runs in that order.
func ExtractPeaks(spectrogram [][]float32, p Params) []models.Peak {
	T := len(spectrogram)
	if T == 0 {
		return nil
	}
	F := len(spectrogram[0])

	var peaks []models.Peak
	for t := 0; t < T; t++ {
		for f := 0; f < F; f++ {
			val := spectrogram[t][f]
			if float64(val) < p.MinAmplitudeDB {
				continue
			}

			t0 := maxInt(0, t-p.NeighborHalfT)
			t1 := minInt(T-1, t+p.NeighborHalfT)
			f0 := maxInt(0, f-p.NeighborHalfF)
			f1 := minInt(F-1, f+p.NeighborHalfF)

			maxVal := float32(-math.MaxFloat32)
			maxT, maxF := t0, f0
			for tt := t0; tt <= t1; tt++ {
				row := spectrogram[tt]
				for ff := f0; ff <= f1; ff++ {
					if row[ff] > maxVal {
						maxVal = row[ff]
						maxT, maxF = tt, ff
					}
				}
			}

			if maxT == t && maxF == f {
				peaks = append(peaks, models.Peak{TimeIdx: uint32(t), FreqIdx: uint16(f)})
			}
		}
	}

	return peaks
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
