// Package models holds the fixed-shape value records shared across the
// fingerprinting pipeline, the store, and the matcher. None of these
// types carry behavior of their own — they are moved between stages,
// never mutated in place by more than one owner at a time.
package models

import "time"

// Peak is a single local maximum of a spectrogram: a candidate
// spectral landmark. TimeIdx/FreqIdx are frame/bin indices; callers
// that need physical units convert with the same params used to build
// the spectrogram.
type Peak struct {
	TimeIdx uint32
	FreqIdx uint16
}

// Fingerprint is a hashed peak pair. SongID is zero until the
// fingerprint is attached to a track at ingest time; a query's
// fingerprints keep it at zero.
type Fingerprint struct {
	Hash       uint32
	AnchorTIdx uint32
	SongID     uint64
}

// Track is the reference song metadata owned by the external
// collaborator that resolves IDs to title/artist/album/cover/video.
// The core only needs SongID and the (SourceType, SourceID) identity
// pair to detect duplicate ingestion.
type Track struct {
	SongID      uint64
	Title       string
	Artist      string
	Album       string
	DurationMs  int64
	SourceType  string
	SourceID    string
	CoverURL    string
	ReleaseDate string
	SpotifyURL  string
	YoutubeURL  string
	YoutubeID   string
	CreatedAt   time.Time
}

// MatchCandidate is one scored alignment produced by the matcher.
type MatchCandidate struct {
	SongID        uint64
	Score         int
	OffsetSeconds float64
}

// IngestTask describes one asynchronous ingestion job. SourceLocator is
// the local path of the audio file to ingest; the engine opens it
// directly, and URLs or external IDs are not resolved.
type IngestTask struct {
	ID            string
	SourceLocator string
	Title         string
	Artist        string
	Status        IngestStatus
	SongID        uint64
	FingerprintN  int
	Err           string
	CreatedAt     time.Time
	FinishedAt    time.Time
}

// IngestStatus is the lifecycle state of an IngestTask.
type IngestStatus string

const (
	IngestQueued   IngestStatus = "queued"
	IngestRunning  IngestStatus = "running"
	IngestDone     IngestStatus = "done"
	IngestFailed   IngestStatus = "failed"
	IngestDupe     IngestStatus = "already_present"
)
