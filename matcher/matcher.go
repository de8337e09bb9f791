// Package matcher implements the histogram-alignment matching
// algorithm of spec.md §4.6: given a query's fingerprints, recover the
// best-aligned reference track and its offset from a small, noisy set
// of hash collisions against the index.
package matcher

import (
	"context"
	"errors"
	"sort"

	"fpengine/apperr"
	"fpengine/fingerprint"
	"fpengine/models"
	"fpengine/store"
)

// Matcher binds an Index to the parameter block its fingerprints were
// built with. Cache is optional; a nil Cache simply skips memoization.
type Matcher struct {
	idx   store.Index
	p     fingerprint.Params
	cache *Cache
}

// New builds a Matcher. cache may be nil.
func New(idx store.Index, p fingerprint.Params, cache *Cache) *Matcher {
	return &Matcher{idx: idx, p: p, cache: cache}
}

type deltaScore struct {
	delta int64
	score int
}

// Match runs the last steps of the query state machine of spec.md
// §4.6: index_looked_up -> scored -> {match_found, no_match}. query is
// already hashed (the caller ran fingerprint.Process); Match only
// performs the index lookup and histogram scoring.
func (m *Matcher) Match(ctx context.Context, query []models.Fingerprint) ([]models.MatchCandidate, error) {
	if len(query) == 0 {
		return nil, nil
	}

	if m.cache != nil {
		if cached, ok := m.cache.Get(ctx, query); ok {
			return cached, nil
		}
	}

	queryAnchors := make(map[uint32][]uint32, len(query))
	hashSet := make(map[uint32]struct{}, len(query))
	for _, fp := range query {
		queryAnchors[fp.Hash] = append(queryAnchors[fp.Hash], fp.AnchorTIdx)
		hashSet[fp.Hash] = struct{}{}
	}

	occs, err := m.idx.Lookup(ctx, hashSet)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Wrap(apperr.Timeout, "index lookup exceeded deadline", err)
		}
		return nil, err
	}

	// song_id -> delta -> count, one inner delta map per candidate song.
	histogram := make(map[uint64]map[int64]int)
	for _, occ := range occs {
		for _, anchorQ := range queryAnchors[occ.Hash] {
			delta := int64(occ.AnchorTIdx) - int64(anchorQ)
			byDelta, ok := histogram[occ.SongID]
			if !ok {
				byDelta = make(map[int64]int)
				histogram[occ.SongID] = byDelta
			}
			byDelta[delta]++
		}
	}

	best := make(map[uint64]deltaScore, len(histogram))
	for songID, byDelta := range histogram {
		var b deltaScore
		first := true
		for delta, count := range byDelta {
			switch {
			case first:
				b = deltaScore{delta, count}
				first = false
			case count > b.score:
				b = deltaScore{delta, count}
			case count == b.score && absInt64(delta) < absInt64(b.delta):
				b = deltaScore{delta, count}
			}
		}
		best[songID] = b
	}

	candidates := make([]models.MatchCandidate, 0, len(best))
	for songID, b := range best {
		if b.score < m.p.MinAbsMatches {
			continue
		}
		candidates = append(candidates, models.MatchCandidate{
			SongID:        songID,
			Score:         b.score,
			OffsetSeconds: float64(b.delta) * float64(m.p.HopSize) / float64(m.p.SampleRate),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].SongID < candidates[j].SongID
	})

	topK := m.p.TopK
	if topK <= 0 {
		topK = 1
	}
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	if m.cache != nil {
		m.cache.Set(ctx, query, candidates)
	}

	return candidates, nil
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
