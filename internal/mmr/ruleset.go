package mmr

import (
	"fmt"
	"slices"
	"time"
)

// LobbyTypeRanked is the OpenDota lobby type of ranked matchmaking.
const LobbyTypeRanked = 7

// Ruleset names accepted by LookupRuleset.
const (
	RulesetRankedLegacy = "ranked-legacy"
	RulesetRanked       = "ranked"
	RulesetAllLobbies   = "all-lobbies"
)

// DefaultRuleset is used for players that do not name a ruleset.
const DefaultRuleset = RulesetRanked

// ScoringCutover separates the legacy magnitude table from the flat current one.
var ScoringCutover = time.Date(2023, time.January, 23, 0, 0, 0, 0, time.UTC)

// MagnitudeTable holds the legacy per-match magnitudes.
type MagnitudeTable struct {
	Solo  int `yaml:"solo" json:"solo"`
	Party int `yaml:"party" json:"party"`
}

// Ruleset parameterizes ScoreRule. A zero EpochCutover means every match is
// scored with the legacy table.
type Ruleset struct {
	Name             string         `yaml:"name" json:"name"`
	RestrictToRanked bool           `yaml:"restrict_to_ranked" json:"restrict_to_ranked"`
	EpochCutover     time.Time      `yaml:"epoch_cutover" json:"epoch_cutover"`
	Legacy           MagnitudeTable `yaml:"legacy" json:"legacy"`
	Current          int            `yaml:"current" json:"current"`
	Recalibration    int            `yaml:"recalibration" json:"recalibration"`
	LegacyFloor      int            `yaml:"legacy_floor" json:"legacy_floor"`
}

var rulesets = map[string]Ruleset{
	RulesetRankedLegacy: {
		Name:             RulesetRankedLegacy,
		RestrictToRanked: true,
		Legacy:           MagnitudeTable{Solo: 30, Party: 20},
		Current:          25,
		Recalibration:    75,
	},
	RulesetRanked: {
		Name:             RulesetRanked,
		RestrictToRanked: true,
		EpochCutover:     ScoringCutover,
		Legacy:           MagnitudeTable{Solo: 30, Party: 20},
		Current:          25,
		Recalibration:    75,
	},
	RulesetAllLobbies: {
		Name:          RulesetAllLobbies,
		EpochCutover:  ScoringCutover,
		Legacy:        MagnitudeTable{Solo: 30, Party: 20},
		Current:       25,
		Recalibration: 75,
	},
}

// LookupRuleset returns the named ruleset. An empty name selects DefaultRuleset.
func LookupRuleset(name string) (Ruleset, error) {
	if name == "" {
		name = DefaultRuleset
	}
	rs, ok := rulesets[name]
	if !ok {
		return Ruleset{}, fmt.Errorf("%w: unknown ruleset %q", ErrInvalidRuleset, name)
	}
	return rs, nil
}

// RulesetNames lists the known ruleset names in sorted order.
func RulesetNames() []string {
	names := make([]string, 0, len(rulesets))
	for name := range rulesets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate reports whether every magnitude is usable.
func (rs Ruleset) Validate() error {
	switch {
	case rs.Legacy.Solo <= 0 || rs.Legacy.Party <= 0:
		return fmt.Errorf("%w: legacy magnitudes must be positive", ErrInvalidRuleset)
	case rs.Current <= 0:
		return fmt.Errorf("%w: current magnitude must be positive", ErrInvalidRuleset)
	case rs.Recalibration <= 0:
		return fmt.Errorf("%w: recalibration magnitude must be positive", ErrInvalidRuleset)
	}
	return nil
}

// IsLegacy reports whether a match started before the epoch cutover.
func (rs Ruleset) IsLegacy(m MatchRecord) bool {
	if rs.EpochCutover.IsZero() {
		return true
	}
	return m.StartTime < rs.EpochCutover.Unix()
}

func (rs Ruleset) counts(m MatchRecord) bool {
	if !rs.RestrictToRanked {
		return true
	}
	return m.LobbyType != nil && *m.LobbyType == LobbyTypeRanked
}

func (rs Ruleset) magnitude(recalibrating, legacy, solo bool) int {
	switch {
	case recalibrating:
		return rs.Recalibration
	case legacy && solo:
		return rs.Legacy.Solo
	case legacy:
		return rs.Legacy.Party
	default:
		return rs.Current
	}
}

// clamp floors legacy-epoch ratings; current-epoch ratings pass through.
func (rs Ruleset) clamp(rating int, m MatchRecord) int {
	if rs.IsLegacy(m) {
		return max(rs.LegacyFloor, rating)
	}
	return rating
}
