package main

import (
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fpengine/apperr"
	"fpengine/metrics"
	"fpengine/models"
)

// statusFor maps an apperr.Kind to the HTTP status spec.md §6 assigns
// its API surface.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidInput, apperr.DecodeFailure:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.DuplicateTrack:
		return http.StatusConflict
	case apperr.Timeout:
		return http.StatusGatewayTimeout
	case apperr.IndexUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	c.JSON(statusFor(kind), gin.H{"error": err.Error()})
}

// saveUpload writes an incoming multipart file to a temp path under
// tmp/ and returns that path; the caller owns cleanup.
func saveUpload(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	dst := filepath.Join("tmp", uuid.NewString()+filepath.Ext(fh.Filename))
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", apperr.Wrap(apperr.InvalidInput, "failed to save upload", err)
	}
	return dst, nil
}

type ingestResponse struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
}

// handleIngest accepts a multipart file plus title/artist fields and
// enqueues it for async fingerprinting (spec.md §6 Ingestion API).
func (a *api) handleIngest(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		writeErr(c, apperr.Wrap(apperr.InvalidInput, "missing file field", err))
		return
	}

	path, err := saveUpload(c, fh)
	if err != nil {
		writeErr(c, err)
		return
	}

	title := c.PostForm("title")
	artist := c.PostForm("artist")

	task := a.engine.EnqueueIngest(path, title, artist)
	c.JSON(http.StatusAccepted, ingestResponse{TaskID: task.ID, Status: string(task.Status)})
}

type taskResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	SongID       uint64 `json:"songId,omitempty"`
	Fingerprints int    `json:"fingerprints,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (a *api) handleIngestStatus(c *gin.Context) {
	task, ok := a.engine.GetTask(c.Param("taskID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task id"})
		return
	}

	c.JSON(http.StatusOK, taskResponse{
		ID:           task.ID,
		Status:       string(task.Status),
		SongID:       task.SongID,
		Fingerprints: task.FingerprintN,
		Error:        task.Err,
	})
}

// matchResponse is the query API's response envelope (spec.md §6):
// success/match_found are always present; the rest are only populated
// on a match.
type matchResponse struct {
	Success    bool    `json:"success"`
	MatchFound bool    `json:"match_found"`
	SongID     uint64  `json:"song_id,omitempty"`
	Score      int     `json:"score,omitempty"`
	Timestamp  int64   `json:"timestamp,omitempty"`
	Title      string  `json:"title,omitempty"`
	Artist     string  `json:"artist,omitempty"`
	Album      string  `json:"album,omitempty"`
	CoverArt   string  `json:"coverArt,omitempty"`
	YoutubeID  string  `json:"youtubeId,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// handleMatch fingerprints an uploaded query clip synchronously and
// returns the best-aligned candidate, bounded by MatchTimeout (spec.md
// §6 Match API, §4.6 Timeout handling).
func (a *api) handleMatch(c *gin.Context) {
	fh, err := c.FormFile("audio_data")
	if err != nil {
		writeErr(c, apperr.Wrap(apperr.InvalidInput, "missing audio_data field", err))
		return
	}

	path, err := saveUpload(c, fh)
	if err != nil {
		writeErr(c, err)
		return
	}
	defer os.Remove(path)

	ctx, cancel := a.withMatchTimeout(c)
	defer cancel()

	start := time.Now()
	candidates, err := a.engine.MatchFile(ctx, path)
	metrics.MatchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MatchTotal.WithLabelValues("error").Inc()
		writeErr(c, err)
		return
	}

	if len(candidates) == 0 {
		metrics.MatchTotal.WithLabelValues("no_match").Inc()
		c.JSON(http.StatusOK, matchResponse{Success: true, MatchFound: false})
		return
	}

	best := candidates[0]
	track, err := a.engine.GetTrack(ctx, best.SongID)
	if err != nil {
		metrics.MatchTotal.WithLabelValues("error").Inc()
		writeErr(c, err)
		return
	}
	metrics.MatchTotal.WithLabelValues("found").Inc()

	timestamp := int64(best.OffsetSeconds)
	if timestamp < 0 {
		timestamp = 0
	}

	c.JSON(http.StatusOK, matchResponse{
		Success:    true,
		MatchFound: true,
		SongID:     best.SongID,
		Score:      best.Score,
		Timestamp:  timestamp,
		Title:      track.Title,
		Artist:     track.Artist,
		Album:      track.Album,
		CoverArt:   track.CoverURL,
		YoutubeID:  track.YoutubeID,
	})
}

type statsResponse struct {
	TotalTracks int `json:"song_count"`
}

func (a *api) handleStats(c *gin.Context) {
	n, err := a.engine.Stats(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	metrics.IndexSize.WithLabelValues("tracks").Set(float64(n))
	c.JSON(http.StatusOK, statsResponse{TotalTracks: n})
}

func trackEntry(t models.Track) gin.H {
	return gin.H{
		"songId":     t.SongID,
		"title":      t.Title,
		"artist":     t.Artist,
		"album":      t.Album,
		"durationMs": t.DurationMs,
	}
}

func (a *api) handleListTracks(c *gin.Context) {
	tracks, err := a.engine.GetAllTracks(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}

	out := make([]gin.H, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, trackEntry(t))
	}
	c.JSON(http.StatusOK, gin.H{"tracks": out})
}

func (a *api) handleDeleteTrack(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("songID"), 10, 64)
	if err != nil {
		writeErr(c, apperr.Wrap(apperr.InvalidInput, "songID must be a positive integer", err))
		return
	}

	if err := a.engine.DeleteTrack(c.Request.Context(), id); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
