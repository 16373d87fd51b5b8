package domain

import (
	"dota-mmr-tracker/internal/mmr"
	"time"
)

type TrackedPlayer struct {
	PlayerID      int64
	Label         string
	Ruleset       string
	AnchorMatchID int64
	AnchorMMR     int
	PersonaName   string // from the OpenDota profile, empty until first fetch
	Avatar        string
	RankTier      *int
	Recalibration []RecalibrationWindow
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type RecalibrationWindow struct {
	ID        string // nanoid
	PlayerID  int64
	Start     int64
	End       int64
	CreatedAt time.Time
}

type MatchList struct {
	PlayerID   int64
	RankedOnly bool
	Payload    []byte // raw OpenDota JSON array
	MatchCount int
	FetchedAt  time.Time
}

// PlayerConfig resolves the stored player into engine input.
func (p TrackedPlayer) PlayerConfig() (mmr.PlayerConfig, error) {
	rs, err := mmr.LookupRuleset(p.Ruleset)
	if err != nil {
		return mmr.PlayerConfig{}, err
	}

	windows := make([]mmr.RecalibrationWindow, len(p.Recalibration))
	for i, w := range p.Recalibration {
		windows[i] = mmr.RecalibrationWindow{Start: w.Start, End: w.End}
	}

	cfg := mmr.PlayerConfig{
		PlayerID:      p.PlayerID,
		Anchor:        mmr.Anchor{MatchID: p.AnchorMatchID, Rating: p.AnchorMMR},
		Recalibration: windows,
		Ruleset:       rs,
	}
	if err := cfg.Validate(); err != nil {
		return mmr.PlayerConfig{}, err
	}
	return cfg, nil
}

// DisplayName prefers the Steam persona, then the configured label.
func (p TrackedPlayer) DisplayName() string {
	switch {
	case p.PersonaName != "":
		return p.PersonaName
	case p.Label != "":
		return p.Label
	default:
		return ""
	}
}
