package fingerprint

// Params is the system's bit-exact parameter block (spec.md §6). Every
// value here must be identical between ingestion and query — the whole
// point of the pipeline is that equivalent acoustic input produces
// bit-identical hashes regardless of which path produced it.
//
// Unlike the teacher's FingerprintConfig, which offered a music vs.
// audiobook profile, this block has exactly one valid value: Default().
// Accepting a Params argument (rather than hardcoding the constants in
// every function) keeps the pipeline testable without letting two
// halves of the system silently drift onto different constants.
type Params struct {
	SampleRate      int     // canonical sample rate after preprocessing, Hz
	WindowSize      int     // FFT window size in samples
	HopSize         int     // samples between successive frames
	MinAmplitudeDB  float64 // peak floor, dB
	NeighborHalfT   int     // peak neighborhood half-size, time frames
	NeighborHalfF   int     // peak neighborhood half-size, frequency bins
	TargetZoneStart int     // frames after the anchor where pairing may begin
	TargetZoneLen   int     // width of the pairing window, frames
	FanValue        int     // max targets paired per anchor
	MinAbsMatches   int     // score floor for a candidate to be reported
	TopK            int     // default number of candidates returned
}

// Default returns the parameter block spec.md §6 fixes as the system's
// constants. Ingestion and query must both call Default() — never
// construct a Params literal by hand outside of tests.
func Default() Params {
	return Params{
		SampleRate:      11025,
		WindowSize:      4096,
		HopSize:         1024,
		MinAmplitudeDB:  -70,
		NeighborHalfT:   10,
		NeighborHalfF:   10,
		TargetZoneStart: 1,
		TargetZoneLen:   100,
		FanValue:        15,
		MinAbsMatches:   2,
		TopK:            1,
	}
}

// FreqBins returns F = window_size/2 + 1, the number of retained FFT bins.
func (p Params) FreqBins() int {
	return p.WindowSize/2 + 1
}
