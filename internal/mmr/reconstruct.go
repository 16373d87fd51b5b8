package mmr

import (
	"cmp"
	"fmt"
	"slices"
)

// Reconstruct walks the anchor rating backward and forward across the match
// history and returns a copy of matches sorted by match id with Rating set on
// every record. The input slice is left untouched.
//
// Every record carries the rating held after its own delta, so the anchor
// match carries the anchor rating. The backward walk undoes one delta per
// step; the forward walk applies one.
//
// Duplicate match ids are rejected with ErrDuplicateMatchID.
func Reconstruct(cfg PlayerConfig, matches []MatchRecord) ([]MatchRecord, error) {
	if len(matches) == 0 {
		return []MatchRecord{}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateMatches(matches); err != nil {
		return nil, err
	}

	out := slices.Clone(matches)
	slices.SortFunc(out, func(a, b MatchRecord) int {
		return cmp.Compare(a.MatchID, b.MatchID)
	})

	// first index strictly after the anchor
	split := slices.IndexFunc(out, func(m MatchRecord) bool {
		return m.MatchID > cfg.Anchor.MatchID
	})
	if split < 0 {
		split = len(out)
	}

	rs := cfg.Ruleset

	rating := cfg.Anchor.Rating
	for i := split - 1; i >= 0; i-- {
		m := &out[i]
		m.Rating = ratingPtr(rating)
		rating = rs.clamp(rating-Score(cfg, *m), *m)
	}

	rating = cfg.Anchor.Rating
	for i := split; i < len(out); i++ {
		m := &out[i]
		rating = rs.clamp(rating+Score(cfg, *m), *m)
		m.Rating = ratingPtr(rating)
	}

	return out, nil
}

func validateMatches(matches []MatchRecord) error {
	seen := make(map[int64]struct{}, len(matches))
	for i, m := range matches {
		if m.MatchID <= 0 {
			return &ValidationError{Index: i, MatchID: m.MatchID, Field: "match_id", Reason: "must be positive"}
		}
		if m.PlayerSlot < 0 {
			return &ValidationError{Index: i, MatchID: m.MatchID, Field: "player_slot", Reason: "must not be negative"}
		}
		if _, ok := seen[m.MatchID]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateMatchID, m.MatchID)
		}
		seen[m.MatchID] = struct{}{}
	}
	return nil
}

func ratingPtr(v int) *int {
	return &v
}

// Summary is the latest point of a reconstructed history.
type Summary struct {
	MatchID int64 `json:"match_id"`
	Rating  int   `json:"mmr"`
	Matches int   `json:"matches"`
}

// Summarize returns the last match of a history produced by Reconstruct.
// It reports false for an empty history.
func Summarize(history []MatchRecord) (Summary, bool) {
	if len(history) == 0 {
		return Summary{}, false
	}
	last := history[len(history)-1]
	s := Summary{MatchID: last.MatchID, Matches: len(history)}
	if last.Rating != nil {
		s.Rating = *last.Rating
	}
	return s, true
}
