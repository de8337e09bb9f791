package fingerprint

import "fpengine/models"

const (
	f1Bits = 12
	f2Bits = 10
	dtBits = 10
)

// Hash emits combinatorial fingerprints from an ordered peak list
// (spec.md §4.4). For each anchor it walks later peaks in order and
// pairs with the first FanValue whose time delta falls in
// [TargetZoneStart, TargetZoneStart+TargetZoneLen). Peaks must already
// be sorted by (t_idx, f_idx) ascending, as ExtractPeaks guarantees.
func Hash(peaks []models.Peak, p Params) []models.Fingerprint {
	var out []models.Fingerprint

	for i, anchor := range peaks {
		paired := 0
		for j := i + 1; j < len(peaks) && paired < p.FanValue; j++ {
			target := peaks[j]
			dt := int64(target.TimeIdx) - int64(anchor.TimeIdx)

			if dt < int64(p.TargetZoneStart) {
				continue
			}
			if dt >= int64(p.TargetZoneStart+p.TargetZoneLen) {
				break
			}

			out = append(out, models.Fingerprint{
				Hash:       packHash(anchor, target),
				AnchorTIdx: anchor.TimeIdx,
			})
			paired++
		}
	}

	return out
}

// packHash implements the exact bit layout f1:12|f2:10|dt:10 (spec.md
// §4.4). Masking (rather than range-checking) the frequency bins and
// delta means overflowing field widths wrap instead of panicking.
func packHash(anchor, target models.Peak) uint32 {
	f1 := uint32(anchor.FreqIdx) & (1<<f1Bits - 1)
	f2 := uint32(target.FreqIdx) & (1<<f2Bits - 1)
	dt := uint32(target.TimeIdx-anchor.TimeIdx) & (1<<dtBits - 1)
	return (f1 << (f2Bits + dtBits)) | (f2 << dtBits) | dt
}

// UnpackHash reverses packHash, returning (f1, f2, dt). It exists for
// the hash-packing round-trip property test and for debugging tools.
func UnpackHash(hash uint32) (f1, f2, dt uint32) {
	dt = hash & (1<<dtBits - 1)
	f2 = (hash >> dtBits) & (1<<f2Bits - 1)
	f1 = (hash >> (f2Bits + dtBits)) & (1<<f1Bits - 1)
	return
}
