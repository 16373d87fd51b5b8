package constants

import "time"

const (
	BoardRefreshInterval = 15 * time.Minute
)

const (
	ExternalAPITimeout = 15 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// OpenDota's free tier allows 60 calls per minute and every player
	// refresh costs two.
	MaxConcurrentFetches = 4
)
