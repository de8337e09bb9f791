package matcher

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"fpengine/metrics"
	"fpengine/models"
)

// Cache memoizes Matcher.Match results for a short TTL, keyed by the
// exact (hash, anchor) set of the query. Bursty duplicate queries —
// the same few seconds of audio submitted twice in quick succession by
// a flaky client — hit Redis instead of re-scanning the index.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache wraps an existing redis client. ttl of 0 disables expiry
// (not recommended; callers should pass a short TTL, e.g. 5s).
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) key(query []models.Fingerprint) string {
	pairs := make([][2]uint64, len(query))
	for i, fp := range query {
		pairs[i] = [2]uint64{uint64(fp.Hash), uint64(fp.AnchorTIdx)}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, p := range pairs {
		binary.LittleEndian.PutUint64(buf, p[0])
		h.Write(buf)
		binary.LittleEndian.PutUint64(buf, p[1])
		h.Write(buf)
	}

	return fmt.Sprintf("match:%x", h.Sum64())
}

// Get returns a cached candidate list, if present and unexpired.
func (c *Cache) Get(ctx context.Context, query []models.Fingerprint) ([]models.MatchCandidate, bool) {
	data, err := c.rdb.Get(ctx, c.key(query)).Bytes()
	if err != nil {
		metrics.CacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	var out []models.MatchCandidate
	if err := json.Unmarshal(data, &out); err != nil {
		slog.Warn("discarding corrupt cache entry", "error", err)
		metrics.CacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheTotal.WithLabelValues("hit").Inc()
	return out, true
}

// Set stores candidates under the query's cache key. Failures are
// logged, never surfaced — the cache is strictly an optimization.
func (c *Cache) Set(ctx context.Context, query []models.Fingerprint, candidates []models.MatchCandidate) {
	data, err := json.Marshal(candidates)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(query), data, c.ttl).Err(); err != nil {
		slog.Warn("cache write failed", "error", err)
	}
}
