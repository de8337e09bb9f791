// Package store defines the durable fingerprint index contract
// (spec.md §4.5) and its two backends: store/sqlitestore (the default,
// grounded on the teacher's own mattn/go-sqlite3 dependency) and
// store/mongostore (grounded on the teacher's otherwise-unused
// go.mongodb.org/mongo-driver dependency), selected at startup via
// STORE_BACKEND.
package store

import (
	"context"

	"fpengine/models"
)

// Occurrence is one stored hit for a queried hash: which track it
// belongs to and where its anchor sits in that track's own frame
// numbering.
type Occurrence struct {
	Hash       uint32
	SongID     uint64
	AnchorTIdx uint32
}

// Index is the durable, concurrent-reader mapping hash -> occurrences,
// plus per-track bulk insert and cascading delete (spec.md §4.5).
// Implementations must guarantee:
//   - PutFingerprints is atomic per track: readers see either none or
//     all of a track's fingerprints, never a partial set.
//   - DeleteTrack removes the track and every fingerprint referencing
//     it, atomically.
//
// Lookup is not guaranteed to run alongside writes: sqlitestore uses a
// single connection, so a Lookup waits until an open PutFingerprints
// transaction for any track has finished.
type Index interface {
	// PutTrack inserts a new track and returns its song_id. It returns
	// an *apperr.Error with Kind apperr.DuplicateTrack if
	// (SourceType, SourceID) already exists.
	PutTrack(ctx context.Context, t models.Track) (uint64, error)

	// PutFingerprints atomically appends fingerprints for songID.
	PutFingerprints(ctx context.Context, songID uint64, fps []models.Fingerprint) error

	// DeleteTrack removes a track and all its fingerprints. Returns an
	// *apperr.Error with Kind apperr.NotFound for an unknown songID.
	DeleteTrack(ctx context.Context, songID uint64) error

	// Lookup returns every stored occurrence of any hash in hashes.
	Lookup(ctx context.Context, hashes map[uint32]struct{}) ([]Occurrence, error)

	GetTrack(ctx context.Context, songID uint64) (models.Track, error)
	GetAllTracks(ctx context.Context) ([]models.Track, error)

	TotalSongs(ctx context.Context) (int, error)
	TotalFingerprints(ctx context.Context) (int, error)

	Close() error
}
