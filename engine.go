package main

import (
	"context"
	"math"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"fpengine/apperr"
	"fpengine/fingerprint"
	"fpengine/matcher"
	"fpengine/metrics"
	"fpengine/models"
	"fpengine/store"
	"fpengine/wav"
)

const (
	chunkDurationSec = 300.0 // 5 minutes per chunk, bounds ingest memory on long tracks
	chunkOverlapSec  = 5.0   // small overlap avoids losing peak pairs that straddle chunk boundaries
)

// Engine is the process-wide binding of a fingerprint store to the
// fixed parameter block, plus the bounded worker pool that backs async
// ingestion (spec.md §5).
type Engine struct {
	idx    store.Index
	params fingerprint.Params
	match  *matcher.Matcher
	sem    *semaphore.Weighted
	tasks  sync.Map // task ID -> *models.IngestTask
}

// NewEngine wires idx and an optional cache into an Engine with a
// worker pool sized to workers concurrent in-flight ingestions.
func NewEngine(idx store.Index, cache *matcher.Cache, workers int64) *Engine {
	p := fingerprint.Default()
	return &Engine{
		idx:    idx,
		params: p,
		match:  matcher.New(idx, p, cache),
		sem:    semaphore.NewWeighted(workers),
	}
}

// EnqueueIngest starts a background ingestion task and returns
// immediately; callers poll GetTask for its effect (spec.md §6
// Ingestion API: 202 Accepted with a task ID).
func (e *Engine) EnqueueIngest(sourcePath, title, artist string) *models.IngestTask {
	task := &models.IngestTask{
		ID:            uuid.NewString(),
		SourceLocator: sourcePath,
		Title:         title,
		Artist:        artist,
		Status:        models.IngestQueued,
		CreatedAt:     time.Now(),
	}
	e.tasks.Store(task.ID, task)

	go e.runIngest(task)

	return task
}

func (e *Engine) runIngest(task *models.IngestTask) {
	ctx := context.Background()
	if err := e.sem.Acquire(ctx, 1); err != nil {
		task.Status = models.IngestFailed
		task.Err = err.Error()
		return
	}
	defer e.sem.Release(1)

	task.Status = models.IngestRunning
	start := time.Now()
	songID, n, err := e.IngestFile(ctx, task.SourceLocator, task.Title, task.Artist)
	task.FinishedAt = time.Now()
	metrics.IngestDuration.Observe(task.FinishedAt.Sub(start).Seconds())

	if err != nil {
		if apperr.Is(err, apperr.DuplicateTrack) {
			task.Status = models.IngestDupe
			metrics.IngestTotal.WithLabelValues("duplicate").Inc()
		} else {
			task.Status = models.IngestFailed
			metrics.IngestTotal.WithLabelValues("error").Inc()
		}
		task.Err = err.Error()
		return
	}

	task.Status = models.IngestDone
	task.SongID = songID
	task.FingerprintN = n
	metrics.IngestTotal.WithLabelValues("done").Inc()
	metrics.IngestFingerprintsPerTrack.Observe(float64(n))
}

// GetTask returns the current state of a previously enqueued task.
func (e *Engine) GetTask(id string) (*models.IngestTask, bool) {
	v, ok := e.tasks.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*models.IngestTask), true
}

// IngestFile fingerprints path (any container ffmpeg can decode) and
// stores it as a new track. A cancelled or failed ingestion leaves the
// index unchanged: the track row is removed again on any failure after
// PutTrack succeeded.
func (e *Engine) IngestFile(ctx context.Context, path, title, artist string) (uint64, int, error) {
	return e.IngestFileWithAlbum(ctx, path, title, artist, "")
}

// IngestFileWithAlbum is IngestFile with an optional album tag, used by
// callers that already resolved one (a JSON sidecar, embedded tags).
func (e *Engine) IngestFileWithAlbum(ctx context.Context, path, title, artist, album string) (uint64, int, error) {
	wavPath, err := wav.ConvertToWAV(path)
	if err != nil {
		return 0, 0, err
	}

	dur, err := wav.GetAudioDuration(wavPath)
	if err != nil {
		return 0, 0, err
	}

	songID, err := e.idx.PutTrack(ctx, models.Track{
		Title:      title,
		Artist:     artist,
		Album:      album,
		DurationMs: int64(dur * 1000),
		SourceType: "file",
		SourceID:   path,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return 0, 0, err
	}

	chunks, err := buildChunks(wavPath, dur, e.params)
	if err != nil {
		e.idx.DeleteTrack(ctx, songID)
		return 0, 0, err
	}

	fps, err := fingerprint.ProcessChunked(chunks, songID, e.params)
	if err != nil {
		e.idx.DeleteTrack(ctx, songID)
		return 0, 0, err
	}

	if err := e.idx.PutFingerprints(ctx, songID, fps); err != nil {
		e.idx.DeleteTrack(ctx, songID)
		return 0, 0, err
	}

	return songID, len(fps), nil
}

// buildChunks splits a WAV file into fingerprint.Chunks. Tracks under
// one chunk's duration are processed whole; longer ones are split with
// a small overlap and each chunk's StartFrame anchors it back into the
// track's own frame numbering.
func buildChunks(wavPath string, duration float64, p fingerprint.Params) ([]fingerprint.Chunk, error) {
	if duration <= chunkDurationSec {
		info, err := wav.ReadWavInfo(wavPath)
		if err != nil {
			return nil, err
		}
		return []fingerprint.Chunk{{PCM: info.PCM, StartFrame: 0}}, nil
	}

	step := chunkDurationSec - chunkOverlapSec
	var chunks []fingerprint.Chunk
	for start := 0.0; start < duration; start += step {
		dur := chunkDurationSec
		if start+dur > duration {
			dur = duration - start
		}
		if dur <= 0 {
			break
		}

		chunkPath, err := wav.ExtractChunkAsWAV(wavPath, start, dur)
		if err != nil {
			return nil, err
		}

		info, err := wav.ReadWavInfo(chunkPath)
		os.Remove(chunkPath)
		if err != nil {
			return nil, err
		}

		startFrame := uint32(math.Round(start * float64(p.SampleRate) / float64(p.HopSize)))
		chunks = append(chunks, fingerprint.Chunk{PCM: info.PCM, StartFrame: startFrame})
	}
	return chunks, nil
}

// MatchFile fingerprints a query file and runs it through the matcher.
func (e *Engine) MatchFile(ctx context.Context, path string) ([]models.MatchCandidate, error) {
	wavPath, err := wav.ConvertToWAV(path)
	if err != nil {
		return nil, err
	}

	info, err := wav.ReadWavInfo(wavPath)
	if err != nil {
		return nil, err
	}

	fps, err := fingerprint.Process(info.PCM, 0, e.params)
	if err != nil {
		return nil, err
	}
	if len(fps) == 0 {
		return nil, nil
	}

	return e.match.Match(ctx, fps)
}

func (e *Engine) Stats(ctx context.Context) (int, error) {
	return e.idx.TotalSongs(ctx)
}

func (e *Engine) DeleteTrack(ctx context.Context, songID uint64) error {
	return e.idx.DeleteTrack(ctx, songID)
}

func (e *Engine) GetTrack(ctx context.Context, songID uint64) (models.Track, error) {
	return e.idx.GetTrack(ctx, songID)
}

func (e *Engine) GetAllTracks(ctx context.Context) ([]models.Track, error) {
	return e.idx.GetAllTracks(ctx)
}
