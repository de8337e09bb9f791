package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpengine/apperr"
	"fpengine/models"
	"fpengine/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutTrackAssignsIncreasingSongIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := s.PutTrack(ctx, models.Track{Title: "a", Artist: "x", SourceType: "file", SourceID: "a.wav"})
	require.NoError(t, err)
	id2, err := s.PutTrack(ctx, models.Track{Title: "b", Artist: "y", SourceType: "file", SourceID: "b.wav"})
	require.NoError(t, err)

	assert.Greater(t, id2, id1)
}

func TestPutTrackDuplicateSourceIsRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	track := models.Track{Title: "a", Artist: "x", SourceType: "file", SourceID: "dup.wav"}
	_, err := s.PutTrack(ctx, track)
	require.NoError(t, err)

	_, err = s.PutTrack(ctx, track)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.DuplicateTrack))
}

func TestPutFingerprintsAndLookupRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	songID, err := s.PutTrack(ctx, models.Track{Title: "a", Artist: "x", SourceType: "file", SourceID: "a.wav"})
	require.NoError(t, err)

	fps := []models.Fingerprint{
		{Hash: 10, AnchorTIdx: 1},
		{Hash: 20, AnchorTIdx: 2},
	}
	require.NoError(t, s.PutFingerprints(ctx, songID, fps))

	occs, err := s.Lookup(ctx, map[uint32]struct{}{10: {}, 20: {}, 999: {}})
	require.NoError(t, err)
	require.Len(t, occs, 2)
	for _, o := range occs {
		assert.Equal(t, songID, o.SongID)
	}
}

func TestDeleteTrackCascadesFingerprintsAndRejectsUnknownID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	songID, err := s.PutTrack(ctx, models.Track{Title: "a", Artist: "x", SourceType: "file", SourceID: "a.wav"})
	require.NoError(t, err)
	require.NoError(t, s.PutFingerprints(ctx, songID, []models.Fingerprint{{Hash: 1, AnchorTIdx: 0}}))

	require.NoError(t, s.DeleteTrack(ctx, songID))

	occs, err := s.Lookup(ctx, map[uint32]struct{}{1: {}})
	require.NoError(t, err)
	assert.Empty(t, occs)

	err = s.DeleteTrack(ctx, songID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestGetTrackNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetTrack(context.Background(), 12345)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestTotalsReflectInsertedData(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	songID, err := s.PutTrack(ctx, models.Track{Title: "a", Artist: "x", SourceType: "file", SourceID: "a.wav"})
	require.NoError(t, err)
	require.NoError(t, s.PutFingerprints(ctx, songID, []models.Fingerprint{
		{Hash: 1, AnchorTIdx: 0}, {Hash: 2, AnchorTIdx: 1},
	}))

	songs, err := s.TotalSongs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, songs)

	fps, err := s.TotalFingerprints(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fps)
}

func TestGetAllTracksOrderedBySongID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.PutTrack(ctx, models.Track{Title: "a", Artist: "x", SourceType: "file", SourceID: "a.wav"})
	require.NoError(t, err)
	_, err = s.PutTrack(ctx, models.Track{Title: "b", Artist: "y", SourceType: "file", SourceID: "b.wav"})
	require.NoError(t, err)

	tracks, err := s.GetAllTracks(ctx)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Less(t, tracks[0].SongID, tracks[1].SongID)
}

var _ store.Index = (*Store)(nil)
