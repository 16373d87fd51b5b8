package mmr

import "fmt"

// Anchor is the one match at which a player's rating is known.
type Anchor struct {
	MatchID int64 `yaml:"match_id" json:"match_id"`
	Rating  int   `yaml:"mmr" json:"mmr"`
}

// Unanchored is the anchor of a player with no known rating: every recorded
// match lies after it and the walk starts from zero.
var Unanchored = Anchor{}

// IsUnanchored reports whether a is the Unanchored sentinel.
func (a Anchor) IsUnanchored() bool {
	return a == Unanchored
}

// RecalibrationWindow is an inclusive match id range scored with the
// recalibration magnitude.
type RecalibrationWindow struct {
	Start int64 `yaml:"start" json:"start"`
	End   int64 `yaml:"end" json:"end"`
}

func (w RecalibrationWindow) Contains(matchID int64) bool {
	return w.Start <= matchID && matchID <= w.End
}

// PlayerConfig is the static input of a reconstruction. The engine never
// modifies it.
type PlayerConfig struct {
	PlayerID      int64                 `yaml:"player_id" json:"player_id"`
	Anchor        Anchor                `yaml:"anchor" json:"anchor"`
	Recalibration []RecalibrationWindow `yaml:"recalibration" json:"recalibration"`
	Ruleset       Ruleset               `yaml:"-" json:"ruleset"`
}

// DefaultPlayerConfig returns the configuration of a freshly tracked player.
func DefaultPlayerConfig(playerID int64) PlayerConfig {
	rs, _ := LookupRuleset(DefaultRuleset)
	return PlayerConfig{
		PlayerID: playerID,
		Anchor:   Unanchored,
		Ruleset:  rs,
	}
}

func (c PlayerConfig) IsRecalibrating(matchID int64) bool {
	for _, w := range c.Recalibration {
		if w.Contains(matchID) {
			return true
		}
	}
	return false
}

func (c PlayerConfig) Validate() error {
	if c.Anchor.MatchID < 0 {
		return fmt.Errorf("%w: match id %d is negative", ErrInvalidAnchor, c.Anchor.MatchID)
	}
	for _, w := range c.Recalibration {
		if w.End < w.Start {
			return fmt.Errorf("%w: [%d, %d]", ErrInvalidWindow, w.Start, w.End)
		}
	}
	return c.Ruleset.Validate()
}
