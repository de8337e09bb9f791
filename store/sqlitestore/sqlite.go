// Package sqlitestore is the default Index backend: a single SQLite
// file accessed through database/sql and the teacher's own
// mattn/go-sqlite3 driver, with the same two tables spec.md §6 lays
// out. No ORM — raw SQL, the way the teacher's own db package (not
// retained in the examples pack, but implied by its go-sqlite3
// dependency) would have written it.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	sqlite3 "github.com/mattn/go-sqlite3"

	"fpengine/apperr"
	"fpengine/models"
	"fpengine/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS tracks (
	song_id      INTEGER PRIMARY KEY AUTOINCREMENT,
	title        TEXT NOT NULL,
	artist       TEXT NOT NULL,
	album        TEXT,
	duration_ms  INTEGER,
	source_type  TEXT NOT NULL,
	source_id    TEXT NOT NULL,
	cover_url    TEXT,
	release_date TEXT,
	spotify_url  TEXT,
	youtube_url  TEXT,
	youtube_id   TEXT,
	created_at   DATETIME NOT NULL,
	UNIQUE(source_type, source_id)
);

CREATE TABLE IF NOT EXISTS fingerprints (
	hash          INTEGER NOT NULL,
	song_id       INTEGER NOT NULL REFERENCES tracks(song_id) ON DELETE CASCADE,
	anchor_t_idx  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fingerprints_hash ON fingerprints(hash);
CREATE INDEX IF NOT EXISTS idx_fingerprints_song_id ON fingerprints(song_id);
`

// Store implements store.Index over a SQLite file.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) a SQLite database at path and ensures its
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, apperr.Wrap(apperr.IndexUnavailable, "failed to open sqlite database", err)
	}
	db.SetMaxOpenConns(1) // single-writer discipline (spec.md §5); sqlite serializes writes anyway

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.IndexUnavailable, "failed to migrate sqlite schema", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) PutTrack(ctx context.Context, t models.Track) (uint64, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tracks (title, artist, album, duration_ms, source_type, source_id,
			cover_url, release_date, spotify_url, youtube_url, youtube_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Artist, t.Album, t.DurationMs, t.SourceType, t.SourceID,
		t.CoverURL, t.ReleaseDate, t.SpotifyURL, t.YoutubeURL, t.YoutubeID, t.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return 0, apperr.Wrap(apperr.DuplicateTrack, fmt.Sprintf("track (%s,%s) already exists", t.SourceType, t.SourceID), err)
		}
		return 0, apperr.Wrap(apperr.IndexUnavailable, "failed to insert track", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Wrap(apperr.IndexUnavailable, "failed to read inserted song_id", err)
	}
	return uint64(id), nil
}

// PutFingerprints inserts all fingerprints for songID inside a single
// transaction, so readers never observe a partially-inserted track.
func (s *Store) PutFingerprints(ctx context.Context, songID uint64, fps []models.Fingerprint) error {
	if len(fps) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.IndexUnavailable, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO fingerprints (hash, song_id, anchor_t_idx) VALUES (?, ?, ?)`)
	if err != nil {
		return apperr.Wrap(apperr.IndexUnavailable, "failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, fp := range fps {
		if _, err := stmt.ExecContext(ctx, fp.Hash, songID, fp.AnchorTIdx); err != nil {
			return apperr.Wrap(apperr.IndexUnavailable, "failed to insert fingerprint", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.IndexUnavailable, "failed to commit fingerprint batch", err)
	}
	return nil
}

func (s *Store) DeleteTrack(ctx context.Context, songID uint64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE song_id = ?`, songID)
	if err != nil {
		return apperr.Wrap(apperr.IndexUnavailable, "failed to delete track", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.IndexUnavailable, "failed to read delete result", err)
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, fmt.Sprintf("no track with song_id %d", songID))
	}
	return nil
}

func (s *Store) Lookup(ctx context.Context, hashes map[uint32]struct{}) ([]store.Occurrence, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	placeholders := make([]any, 0, len(hashes))
	query := "SELECT hash, song_id, anchor_t_idx FROM fingerprints WHERE hash IN ("
	for h := range hashes {
		if len(placeholders) > 0 {
			query += ","
		}
		query += "?"
		placeholders = append(placeholders, h)
	}
	query += ")"

	rows, err := s.db.QueryContext(ctx, query, placeholders...)
	if err != nil {
		return nil, apperr.Wrap(apperr.IndexUnavailable, "hash lookup failed", err)
	}
	defer rows.Close()

	var out []store.Occurrence
	for rows.Next() {
		var o store.Occurrence
		if err := rows.Scan(&o.Hash, &o.SongID, &o.AnchorTIdx); err != nil {
			return nil, apperr.Wrap(apperr.IndexUnavailable, "failed to scan occurrence row", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) GetTrack(ctx context.Context, songID uint64) (models.Track, error) {
	var t models.Track
	row := s.db.QueryRowContext(ctx, `
		SELECT song_id, title, artist, album, duration_ms, source_type, source_id,
			cover_url, release_date, spotify_url, youtube_url, youtube_id, created_at
		FROM tracks WHERE song_id = ?`, songID)

	if err := scanTrack(row, &t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, apperr.New(apperr.NotFound, fmt.Sprintf("no track with song_id %d", songID))
		}
		return t, apperr.Wrap(apperr.IndexUnavailable, "failed to read track", err)
	}
	return t, nil
}

func (s *Store) GetAllTracks(ctx context.Context) ([]models.Track, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT song_id, title, artist, album, duration_ms, source_type, source_id,
			cover_url, release_date, spotify_url, youtube_url, youtube_id, created_at
		FROM tracks ORDER BY song_id`)
	if err != nil {
		return nil, apperr.Wrap(apperr.IndexUnavailable, "failed to list tracks", err)
	}
	defer rows.Close()

	var out []models.Track
	for rows.Next() {
		var t models.Track
		if err := scanTrack(rows, &t); err != nil {
			return nil, apperr.Wrap(apperr.IndexUnavailable, "failed to scan track row", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) TotalSongs(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&n); err != nil {
		return 0, apperr.Wrap(apperr.IndexUnavailable, "failed to count tracks", err)
	}
	return n, nil
}

func (s *Store) TotalFingerprints(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fingerprints`).Scan(&n); err != nil {
		return 0, apperr.Wrap(apperr.IndexUnavailable, "failed to count fingerprints", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(row scanner, t *models.Track) error {
	return row.Scan(
		&t.SongID, &t.Title, &t.Artist, &t.Album, &t.DurationMs, &t.SourceType, &t.SourceID,
		&t.CoverURL, &t.ReleaseDate, &t.SpotifyURL, &t.YoutubeURL, &t.YoutubeID, &t.CreatedAt,
	)
}

var _ store.Index = (*Store)(nil)
