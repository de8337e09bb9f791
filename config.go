package main

import (
	"os"
	"strconv"
	"time"
)

// Config holds everything that varies between deployments. Everything
// else — the fingerprint parameter block — is a compile-time constant
// per spec.md §6 and never belongs here.
type Config struct {
	StoreBackend string // "sqlite" (default) or "mongo"
	SQLitePath   string
	MongoURI     string
	MongoDB      string

	RedisAddr string // empty disables the match cache
	CacheTTL  time.Duration

	Port         string
	Workers      int64
	MatchTimeout time.Duration
}

func loadConfig() Config {
	return Config{
		StoreBackend: getEnv("STORE_BACKEND", "sqlite"),
		SQLitePath:   getEnv("SQLITE_PATH", "fingerprints.db"),
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getEnv("MONGO_DB", "fpengine"),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Second),

		Port:         getEnv("PORT", "5000"),
		Workers:      getEnvInt64("INGEST_WORKERS", 4),
		MatchTimeout: getEnvDuration("MATCH_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
