package mmr

// Score returns the signed rating change one match contributed, or zero when
// the ruleset does not count the match.
func Score(cfg PlayerConfig, m MatchRecord) int {
	rs := cfg.Ruleset
	if !rs.counts(m) {
		return 0
	}

	magnitude := rs.magnitude(cfg.IsRecalibrating(m.MatchID), rs.IsLegacy(m), m.IsSolo())
	if m.IsWinner() {
		return magnitude
	}
	return -magnitude
}

// Outcome labels a match for display.
type Outcome string

const (
	OutcomeWin        Outcome = "win"
	OutcomeLoss       Outcome = "loss"
	OutcomeLeftSafely Outcome = "left_safely"
	OutcomeAbandoned  Outcome = "abandoned"
)

// Classify distinguishes the two kinds of leave that Score folds into a loss.
func Classify(m MatchRecord) Outcome {
	switch {
	case m.LeaverStatus == 1:
		return OutcomeLeftSafely
	case m.LeaverStatus > 1:
		return OutcomeAbandoned
	case m.IsWinner():
		return OutcomeWin
	default:
		return OutcomeLoss
	}
}
