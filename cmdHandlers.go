package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/buger/jsonparser"
	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"fpengine/matcher"
	"fpengine/store"
	"fpengine/store/mongostore"
	"fpengine/store/sqlitestore"
	"fpengine/wav"
)

const audioDir = "songs"

// openIndex opens the configured storage backend.
func openIndex(ctx context.Context, cfg Config) (store.Index, error) {
	switch cfg.StoreBackend {
	case "mongo":
		return mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return sqlitestore.Open(cfg.SQLitePath)
	}
}

// openCache builds a match cache if REDIS_ADDR is configured; nil
// otherwise, in which case the matcher simply skips memoization.
func openCache(cfg Config) *matcher.Cache {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return matcher.NewCache(rdb, cfg.CacheTTL)
}

func newEngineFromConfig(ctx context.Context, cfg Config) (*Engine, store.Index, error) {
	idx, err := openIndex(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewEngine(idx, openCache(cfg), cfg.Workers), idx, nil
}

// find fingerprints filePath synchronously and prints ranked matches.
func find(cfg Config, filePath string) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MatchTimeout)
	defer cancel()

	engine, idx, err := newEngineFromConfig(ctx, cfg)
	if err != nil {
		fmt.Println("error opening index:", err)
		return
	}
	defer idx.Close()

	log.Printf("[find] fingerprinting %s", filePath)
	start := time.Now()
	candidates, err := engine.MatchFile(ctx, filePath)
	if err != nil {
		fmt.Println("error matching file:", err)
		return
	}

	if len(candidates) == 0 {
		color.Yellow("\nno match found.")
		fmt.Printf("search took: %s\n", time.Since(start))
		return
	}

	fmt.Println("matches:")
	for _, cand := range candidates {
		track, err := engine.GetTrack(ctx, cand.SongID)
		if err != nil {
			continue
		}
		fmt.Printf("\t- %s by %s, score: %d, offset: %.2fs\n",
			track.Title, track.Artist, cand.Score, cand.OffsetSeconds)
	}
	fmt.Printf("\nsearch took: %s\n", time.Since(start))
	best := candidates[0]
	bestTrack, _ := engine.GetTrack(ctx, best.SongID)
	color.Green("\nfinal prediction: %s by %s, score: %d\n", bestTrack.Title, bestTrack.Artist, best.Score)
}

// save fingerprints path and registers it as a new track. If path is a
// directory, every file in it is ingested concurrently through a small
// worker pool, mirroring the teacher's directory-ingest verb.
func save(cfg Config, path string) {
	ctx := context.Background()

	engine, idx, err := newEngineFromConfig(ctx, cfg)
	if err != nil {
		fmt.Println("error opening index:", err)
		return
	}
	defer idx.Close()

	info, err := os.Stat(path)
	if err != nil {
		fmt.Println("error reading path:", err)
		return
	}

	if !info.IsDir() {
		if err := saveEntry(ctx, engine, path); err != nil {
			fmt.Println("error:", err)
		}
		return
	}

	var filePaths []string
	filepath.Walk(path, func(fp string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			filePaths = append(filePaths, fp)
		}
		return nil
	})

	processFilesConcurrently(ctx, engine, filePaths, cfg.Workers)
}

// processFilesConcurrently ingests filePaths with an errgroup bounded
// to workers concurrent goroutines, reporting a final tally.
func processFilesConcurrently(ctx context.Context, engine *Engine, filePaths []string, workers int64) {
	if len(filePaths) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(workers))

	var successCount, errorCount int32
	for _, fp := range filePaths {
		fp := fp
		g.Go(func() error {
			if err := saveEntry(gctx, engine, fp); err != nil {
				color.Red("error: %v\n", err)
				atomic.AddInt32(&errorCount, 1)
			} else {
				atomic.AddInt32(&successCount, 1)
			}
			return nil
		})
	}
	g.Wait()

	fmt.Printf("\nprocessed %d files: %d successful, %d failed\n", len(filePaths), successCount, errorCount)
}

// sidecarMetadata reads a `<file>.json` sidecar next to filePath, if
// one exists, and pulls its title/artist/album fields without
// unmarshaling a full struct. Ingestion treats a missing or malformed
// sidecar as informational: embedded tags and the filename remain the
// fallback sources.
func sidecarMetadata(filePath string) (title, artist, album string) {
	data, err := os.ReadFile(filePath + ".json")
	if err != nil {
		return "", "", ""
	}

	if v, err := jsonparser.GetString(data, "title"); err == nil {
		title = v
	}
	if v, err := jsonparser.GetString(data, "artist"); err == nil {
		artist = v
	}
	if v, err := jsonparser.GetString(data, "album"); err == nil {
		album = v
	}
	return title, artist, album
}

func saveEntry(ctx context.Context, engine *Engine, filePath string) error {
	title, artist, album := sidecarMetadata(filePath)

	if title == "" || artist == "" {
		if meta, err := wav.GetMetadata(filePath); err == nil {
			if title == "" && meta.Title != "" {
				title = meta.Title
			}
			if artist == "" && meta.Artist != "" {
				artist = meta.Artist
			}
			if album == "" && meta.Album != "" {
				album = meta.Album
			}
		}
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}
	if artist == "" {
		artist = "unknown"
	}

	songID, fpCount, err := engine.IngestFileWithAlbum(ctx, filePath, title, artist, album)
	if err != nil {
		return fmt.Errorf("failed to process '%s': %v", filePath, err)
	}

	color.Green("indexed '%s' by '%s' (songID=%d, %d fingerprints)\n", title, artist, songID, fpCount)
	return nil
}

// erase removes every track and fingerprint from the configured index,
// and optionally the source audio files on disk.
func erase(cfg Config, wipeFiles bool) {
	ctx := context.Background()

	idx, err := openIndex(ctx, cfg)
	if err != nil {
		fmt.Println("error opening index:", err)
		return
	}
	defer idx.Close()

	tracks, err := idx.GetAllTracks(ctx)
	if err != nil {
		fmt.Println("error listing tracks:", err)
		return
	}

	for _, t := range tracks {
		if err := idx.DeleteTrack(ctx, t.SongID); err != nil {
			fmt.Printf("error deleting track %d: %v\n", t.SongID, err)
		}
	}
	fmt.Printf("erased %d tracks\n", len(tracks))

	if !wipeFiles {
		return
	}

	err = filepath.Walk(audioDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".wav", ".m4a", ".mp3", ".flac", ".ogg":
			return os.Remove(path)
		}
		return nil
	})
	if err != nil {
		fmt.Printf("error cleaning files in %s: %v\n", audioDir, err)
		return
	}
	fmt.Println("audio files cleared")
}

// stats prints the current index size.
func stats(cfg Config) {
	ctx := context.Background()

	idx, err := openIndex(ctx, cfg)
	if err != nil {
		fmt.Println("error opening index:", err)
		return
	}
	defer idx.Close()

	totalSongs, err := idx.TotalSongs(ctx)
	if err != nil {
		fmt.Println("error reading stats:", err)
		return
	}
	totalFP, err := idx.TotalFingerprints(ctx)
	if err != nil {
		fmt.Println("error reading stats:", err)
		return
	}

	fmt.Printf("tracks: %d\nfingerprints: %d\n", totalSongs, totalFP)
}

// runServeCmd wires an engine from cfg and blocks serving HTTP.
func runServeCmd(cfg Config) {
	ctx := context.Background()

	engine, idx, err := newEngineFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("error opening index: %v", err)
	}
	defer idx.Close()

	if err := runServe(cfg, engine); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
