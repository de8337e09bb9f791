// Package mongostore is the alternate Index backend for deployments
// that already run MongoDB, selected via STORE_BACKEND=mongo. It gives
// the teacher's go.mongodb.org/mongo-driver dependency — present in
// its go.mod but unused in the retrieved source — a concrete home.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fpengine/apperr"
	"fpengine/models"
	"fpengine/store"
)

// trackDoc and fingerprintDoc mirror the relational schema of spec.md
// §6 as two collections instead of two tables.
type trackDoc struct {
	SongID      uint64    `bson:"song_id"`
	Title       string    `bson:"title"`
	Artist      string    `bson:"artist"`
	Album       string    `bson:"album"`
	DurationMs  int64     `bson:"duration_ms"`
	SourceType  string    `bson:"source_type"`
	SourceID    string    `bson:"source_id"`
	CoverURL    string    `bson:"cover_url"`
	ReleaseDate string    `bson:"release_date"`
	SpotifyURL  string    `bson:"spotify_url"`
	YoutubeURL  string    `bson:"youtube_url"`
	YoutubeID   string    `bson:"youtube_id"`
	CreatedAt   time.Time `bson:"created_at"`
}

type fingerprintDoc struct {
	Hash       uint32 `bson:"hash"`
	SongID     uint64 `bson:"song_id"`
	AnchorTIdx uint32 `bson:"anchor_t_idx"`
}

type counterDoc struct {
	ID  string `bson:"_id"`
	Seq uint64 `bson:"seq"`
}

// Store implements store.Index over a MongoDB database.
type Store struct {
	client       *mongo.Client
	tracks       *mongo.Collection
	fingerprints *mongo.Collection
	counters     *mongo.Collection
}

// Open connects to uri and ensures indexes exist on the tracks and
// fingerprints collections.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperr.Wrap(apperr.IndexUnavailable, "failed to connect to mongo", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, apperr.Wrap(apperr.IndexUnavailable, "mongo ping failed", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:       client,
		tracks:       db.Collection("tracks"),
		fingerprints: db.Collection("fingerprints"),
		counters:     db.Collection("counters"),
	}

	if _, err := s.tracks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "source_type", Value: 1}, {Key: "source_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, apperr.Wrap(apperr.IndexUnavailable, "failed to create track unique index", err)
	}

	if _, err := s.fingerprints.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "hash", Value: 1}}},
		{Keys: bson.D{{Key: "song_id", Value: 1}}},
	}); err != nil {
		return nil, apperr.Wrap(apperr.IndexUnavailable, "failed to create fingerprint indexes", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// nextSongID increments a single counters document atomically. Mongo
// has no auto-increment primitive, so song_id is minted this way
// rather than relying on ObjectID, keeping it a uint64 as spec.md §3
// requires.
func (s *Store) nextSongID(ctx context.Context) (uint64, error) {
	var doc counterDoc
	err := s.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": "song_id"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, apperr.Wrap(apperr.IndexUnavailable, "failed to mint song_id", err)
	}
	return doc.Seq, nil
}

func (s *Store) PutTrack(ctx context.Context, t models.Track) (uint64, error) {
	songID, err := s.nextSongID(ctx)
	if err != nil {
		return 0, err
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	doc := trackDoc{
		SongID: songID, Title: t.Title, Artist: t.Artist, Album: t.Album,
		DurationMs: t.DurationMs, SourceType: t.SourceType, SourceID: t.SourceID,
		CoverURL: t.CoverURL, ReleaseDate: t.ReleaseDate, SpotifyURL: t.SpotifyURL,
		YoutubeURL: t.YoutubeURL, YoutubeID: t.YoutubeID, CreatedAt: t.CreatedAt,
	}

	if _, err := s.tracks.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, apperr.Wrap(apperr.DuplicateTrack, fmt.Sprintf("track (%s,%s) already exists", t.SourceType, t.SourceID), err)
		}
		return 0, apperr.Wrap(apperr.IndexUnavailable, "failed to insert track", err)
	}
	return songID, nil
}

// PutFingerprints runs the batch insert inside a session transaction
// so a reader never observes a partial set for songID (spec.md §4.5).
func (s *Store) PutFingerprints(ctx context.Context, songID uint64, fps []models.Fingerprint) error {
	if len(fps) == 0 {
		return nil
	}

	docs := make([]interface{}, len(fps))
	for i, fp := range fps {
		docs[i] = fingerprintDoc{Hash: fp.Hash, SongID: songID, AnchorTIdx: fp.AnchorTIdx}
	}

	session, err := s.client.StartSession()
	if err != nil {
		return apperr.Wrap(apperr.IndexUnavailable, "failed to start mongo session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		_, err := s.fingerprints.InsertMany(sc, docs)
		return nil, err
	})
	if err != nil {
		return apperr.Wrap(apperr.IndexUnavailable, "failed to insert fingerprint batch", err)
	}
	return nil
}

func (s *Store) DeleteTrack(ctx context.Context, songID uint64) error {
	session, err := s.client.StartSession()
	if err != nil {
		return apperr.Wrap(apperr.IndexUnavailable, "failed to start mongo session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := s.tracks.DeleteOne(sc, bson.M{"song_id": songID})
		if err != nil {
			return nil, err
		}
		if res.DeletedCount == 0 {
			return nil, apperr.New(apperr.NotFound, fmt.Sprintf("no track with song_id %d", songID))
		}
		_, err = s.fingerprints.DeleteMany(sc, bson.M{"song_id": songID})
		return nil, err
	})
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return err
		}
		return apperr.Wrap(apperr.IndexUnavailable, "failed to delete track", err)
	}
	return nil
}

func (s *Store) Lookup(ctx context.Context, hashes map[uint32]struct{}) ([]store.Occurrence, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	list := make([]uint32, 0, len(hashes))
	for h := range hashes {
		list = append(list, h)
	}

	cur, err := s.fingerprints.Find(ctx, bson.M{"hash": bson.M{"$in": list}})
	if err != nil {
		return nil, apperr.Wrap(apperr.IndexUnavailable, "hash lookup failed", err)
	}
	defer cur.Close(ctx)

	var out []store.Occurrence
	for cur.Next(ctx) {
		var doc fingerprintDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, apperr.Wrap(apperr.IndexUnavailable, "failed to decode occurrence", err)
		}
		out = append(out, store.Occurrence{Hash: doc.Hash, SongID: doc.SongID, AnchorTIdx: doc.AnchorTIdx})
	}
	return out, cur.Err()
}

func (s *Store) GetTrack(ctx context.Context, songID uint64) (models.Track, error) {
	var doc trackDoc
	err := s.tracks.FindOne(ctx, bson.M{"song_id": songID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Track{}, apperr.New(apperr.NotFound, fmt.Sprintf("no track with song_id %d", songID))
		}
		return models.Track{}, apperr.Wrap(apperr.IndexUnavailable, "failed to read track", err)
	}
	return trackFromDoc(doc), nil
}

func (s *Store) GetAllTracks(ctx context.Context) ([]models.Track, error) {
	cur, err := s.tracks.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "song_id", Value: 1}}))
	if err != nil {
		return nil, apperr.Wrap(apperr.IndexUnavailable, "failed to list tracks", err)
	}
	defer cur.Close(ctx)

	var out []models.Track
	for cur.Next(ctx) {
		var doc trackDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, apperr.Wrap(apperr.IndexUnavailable, "failed to decode track", err)
		}
		out = append(out, trackFromDoc(doc))
	}
	return out, cur.Err()
}

func (s *Store) TotalSongs(ctx context.Context) (int, error) {
	n, err := s.tracks.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, apperr.Wrap(apperr.IndexUnavailable, "failed to count tracks", err)
	}
	return int(n), nil
}

func (s *Store) TotalFingerprints(ctx context.Context) (int, error) {
	n, err := s.fingerprints.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, apperr.Wrap(apperr.IndexUnavailable, "failed to count fingerprints", err)
	}
	return int(n), nil
}

func trackFromDoc(doc trackDoc) models.Track {
	return models.Track{
		SongID: doc.SongID, Title: doc.Title, Artist: doc.Artist, Album: doc.Album,
		DurationMs: doc.DurationMs, SourceType: doc.SourceType, SourceID: doc.SourceID,
		CoverURL: doc.CoverURL, ReleaseDate: doc.ReleaseDate, SpotifyURL: doc.SpotifyURL,
		YoutubeURL: doc.YoutubeURL, YoutubeID: doc.YoutubeID, CreatedAt: doc.CreatedAt,
	}
}

var _ store.Index = (*Store)(nil)
