package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpengine/apperr"
	"fpengine/fingerprint"
	"fpengine/models"
	"fpengine/store"
)

// fakeIndex is a minimal in-memory store.Index stub so matcher tests
// never need a real SQLite or Mongo backend.
type fakeIndex struct {
	occs    []store.Occurrence
	tracks  map[uint64]models.Track
	lookErr error
}

func (f *fakeIndex) PutTrack(ctx context.Context, t models.Track) (uint64, error) { return 0, nil }
func (f *fakeIndex) PutFingerprints(ctx context.Context, songID uint64, fps []models.Fingerprint) error {
	return nil
}
func (f *fakeIndex) DeleteTrack(ctx context.Context, songID uint64) error { return nil }

func (f *fakeIndex) Lookup(ctx context.Context, hashes map[uint32]struct{}) ([]store.Occurrence, error) {
	if f.lookErr != nil {
		return nil, f.lookErr
	}
	var out []store.Occurrence
	for _, o := range f.occs {
		if _, ok := hashes[o.Hash]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeIndex) GetTrack(ctx context.Context, songID uint64) (models.Track, error) {
	return f.tracks[songID], nil
}
func (f *fakeIndex) GetAllTracks(ctx context.Context) ([]models.Track, error) { return nil, nil }
func (f *fakeIndex) TotalSongs(ctx context.Context) (int, error)              { return len(f.tracks), nil }
func (f *fakeIndex) TotalFingerprints(ctx context.Context) (int, error)       { return len(f.occs), nil }
func (f *fakeIndex) Close() error                                            { return nil }

func TestMatchEmptyQueryReturnsNil(t *testing.T) {
	idx := &fakeIndex{}
	m := New(idx, fingerprint.Default(), nil)

	out, err := m.Match(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestMatchPicksHighestScoringDelta(t *testing.T) {
	p := fingerprint.Default()
	p.MinAbsMatches = 1

	idx := &fakeIndex{
		occs: []store.Occurrence{
			// song 1 aligns three hashes at delta=5, one at delta=99 (noise)
			{Hash: 1, SongID: 1, AnchorTIdx: 5},
			{Hash: 2, SongID: 1, AnchorTIdx: 6},
			{Hash: 3, SongID: 1, AnchorTIdx: 7},
			{Hash: 4, SongID: 1, AnchorTIdx: 103},
		},
	}
	m := New(idx, p, nil)

	query := []models.Fingerprint{
		{Hash: 1, AnchorTIdx: 0},
		{Hash: 2, AnchorTIdx: 1},
		{Hash: 3, AnchorTIdx: 2},
		{Hash: 4, AnchorTIdx: 4},
	}

	out, err := m.Match(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.EqualValues(t, 1, out[0].SongID)
	assert.Equal(t, 3, out[0].Score)
}

func TestMatchFiltersBelowMinAbsMatches(t *testing.T) {
	p := fingerprint.Default()
	p.MinAbsMatches = 5

	idx := &fakeIndex{
		occs: []store.Occurrence{
			{Hash: 1, SongID: 1, AnchorTIdx: 5},
		},
	}
	m := New(idx, p, nil)

	out, err := m.Match(context.Background(), []models.Fingerprint{{Hash: 1, AnchorTIdx: 0}})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMatchTopKTruncatesAndOrdersBySongIDOnTie(t *testing.T) {
	p := fingerprint.Default()
	p.MinAbsMatches = 1
	p.TopK = 1

	idx := &fakeIndex{
		occs: []store.Occurrence{
			{Hash: 1, SongID: 5, AnchorTIdx: 0},
			{Hash: 1, SongID: 2, AnchorTIdx: 0},
		},
	}
	m := New(idx, p, nil)

	out, err := m.Match(context.Background(), []models.Fingerprint{{Hash: 1, AnchorTIdx: 0}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	// both songs tie at score 1; the lower song_id wins the final ranking
	assert.EqualValues(t, 2, out[0].SongID)
}

func TestMatchTranslatesDeadlineExceededToTimeout(t *testing.T) {
	idx := &fakeIndex{lookErr: context.DeadlineExceeded}
	m := New(idx, fingerprint.Default(), nil)

	_, err := m.Match(context.Background(), []models.Fingerprint{{Hash: 1, AnchorTIdx: 0}})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Timeout))
}

// A store backend wraps its own errors before returning them (as
// sqlitestore.Lookup does, with Kind IndexUnavailable) — Match must
// still recognize the underlying deadline through that wrapper.
func TestMatchTranslatesDeadlineExceededEvenWhenPrewrapped(t *testing.T) {
	idx := &fakeIndex{lookErr: apperr.Wrap(apperr.IndexUnavailable, "hash lookup failed", context.DeadlineExceeded)}
	m := New(idx, fingerprint.Default(), nil)

	_, err := m.Match(context.Background(), []models.Fingerprint{{Hash: 1, AnchorTIdx: 0}})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Timeout))
}
