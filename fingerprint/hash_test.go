package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fpengine/models"
)

func TestPackHashUnpackHashRoundTrip(t *testing.T) {
	cases := []struct {
		anchor, target models.Peak
	}{
		{models.Peak{TimeIdx: 10, FreqIdx: 2048}, models.Peak{TimeIdx: 50, FreqIdx: 1000}},
		{models.Peak{TimeIdx: 0, FreqIdx: 0}, models.Peak{TimeIdx: 1023, FreqIdx: 0}},
		{models.Peak{TimeIdx: 5, FreqIdx: 4095}, models.Peak{TimeIdx: 5 + 1023, FreqIdx: 1023}},
	}

	for _, c := range cases {
		hash := packHash(c.anchor, c.target)
		f1, f2, dt := UnpackHash(hash)

		assert.Equal(t, uint32(c.anchor.FreqIdx)&0xFFF, f1)
		assert.Equal(t, uint32(c.target.FreqIdx)&0x3FF, f2)
		assert.Equal(t, uint32(c.target.TimeIdx-c.anchor.TimeIdx)&0x3FF, dt)
	}
}

func TestHashRespectsTargetZoneAndFanValue(t *testing.T) {
	p := Default()

	// One anchor, many candidate targets spread across and outside the
	// target zone; only those inside [TargetZoneStart, TargetZoneStart+TargetZoneLen)
	// should ever be paired, and never more than FanValue of them.
	peaks := []models.Peak{{TimeIdx: 0, FreqIdx: 100}}
	for dt := 1; dt <= 200; dt++ {
		peaks = append(peaks, models.Peak{TimeIdx: uint32(dt), FreqIdx: uint16(200 + dt)})
	}

	fps := Hash(peaks, p)

	var fromFirstAnchor int
	for _, fp := range fps {
		_, _, dt := UnpackHash(fp.Hash)
		assert.GreaterOrEqual(t, int(dt), p.TargetZoneStart)
		assert.Less(t, int(dt), p.TargetZoneStart+p.TargetZoneLen)
		if fp.AnchorTIdx == 0 {
			fromFirstAnchor++
		}
	}
	// every peak past the first can itself become an anchor for later
	// peaks, so only the pairs anchored at t=0 are bounded by FanValue.
	assert.LessOrEqual(t, fromFirstAnchor, p.FanValue)
}

func TestHashIsDeterministic(t *testing.T) {
	p := Default()
	peaks := []models.Peak{
		{TimeIdx: 0, FreqIdx: 100},
		{TimeIdx: 5, FreqIdx: 200},
		{TimeIdx: 40, FreqIdx: 300},
	}

	first := Hash(peaks, p)
	second := Hash(peaks, p)

	assert.Equal(t, first, second)
}
