package mmr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMatch     = errors.New("invalid match record")
	ErrDuplicateMatchID = errors.New("duplicate match id")
	ErrInvalidAnchor    = errors.New("invalid anchor")
	ErrInvalidWindow    = errors.New("invalid recalibration window")
	ErrInvalidRuleset   = errors.New("invalid ruleset")
)

// ValidationError describes a match record that cannot be scored. Index is the
// position in the input list, or -1 when the record was decoded on its own.
type ValidationError struct {
	Index   int
	MatchID int64
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.MatchID != 0 {
		return fmt.Sprintf("match %d (index %d): %s: %s", e.MatchID, e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("match at index %d: %s: %s", e.Index, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidMatch
}
