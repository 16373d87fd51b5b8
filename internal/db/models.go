package db

import (
	"time"
)

type TrackedPlayer struct {
	PlayerID      int64
	Label         string
	Ruleset       string
	AnchorMatchID int64
	AnchorMmr     int64
	PersonaName   string
	Avatar        string
	RankTier      *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type RecalibrationWindow struct {
	ID           string
	PlayerID     int64
	StartMatchID int64
	EndMatchID   int64
	CreatedAt    time.Time
}

type MatchList struct {
	PlayerID   int64
	RankedOnly bool
	Payload    []byte
	MatchCount int64
	FetchedAt  time.Time
}
