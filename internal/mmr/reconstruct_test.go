package mmr

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratings(t *testing.T, history []MatchRecord) map[int64]int {
	t.Helper()
	out := make(map[int64]int, len(history))
	for _, m := range history {
		require.NotNil(t, m.Rating, "match %d has no rating", m.MatchID)
		out[m.MatchID] = *m.Rating
	}
	return out
}

func randomHistory(r *rand.Rand, n int) []MatchRecord {
	slots := []int{0, 1, 2, 3, 4, 128, 129, 130, 131, 132}
	lobbies := []int{LobbyTypeRanked, LobbyTypeRanked, LobbyTypeRanked, 0, 1}
	leaves := []int{0, 0, 0, 0, 0, 0, 1, 2, 3}

	matches := make([]MatchRecord, 0, n)
	id := int64(5_000_000_000)
	start := ScoringCutover.Unix() - int64(n/2)*3600
	for range n {
		id += 1 + r.Int64N(1000)
		start += 3600
		matches = append(matches, newMatch(id,
			func(m *MatchRecord) { m.PlayerSlot = slots[r.IntN(len(slots))] },
			func(m *MatchRecord) { m.RadiantWin = r.IntN(2) == 0 },
			inLobby(lobbies[r.IntN(len(lobbies))]),
			inParty(1+r.IntN(5)),
			leaver(leaves[r.IntN(len(leaves))]),
			startedAt(start),
		))
	}
	return matches
}

func TestReconstruct_Scenario(t *testing.T) {
	cfg := configFor(t, RulesetRanked, Anchor{MatchID: 100, Rating: 1000})
	matches := []MatchRecord{
		newMatch(101, lost(), inParty(2)),
		newMatch(99, won()),
		newMatch(100, won()),
	}

	history, err := Reconstruct(cfg, matches)
	require.NoError(t, err)

	require.Len(t, history, 3)
	assert.Equal(t, int64(99), history[0].MatchID)
	assert.Equal(t, int64(100), history[1].MatchID)
	assert.Equal(t, int64(101), history[2].MatchID)

	got := ratings(t, history)
	assert.Equal(t, 970, got[99])
	assert.Equal(t, 1000, got[100])
	assert.Equal(t, 980, got[101])
}

func TestReconstruct_AnchorFidelity(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	matches := randomHistory(r, 200)

	for _, idx := range []int{0, 1, 57, 120, 199} {
		anchor := Anchor{MatchID: matches[idx].MatchID, Rating: 3210}
		cfg := configFor(t, RulesetRanked, anchor)

		history, err := Reconstruct(cfg, matches)
		require.NoError(t, err)
		assert.Equal(t, 3210, ratings(t, history)[anchor.MatchID])
	}
}

func TestReconstruct_StepConsistency(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	matches := randomHistory(r, 300)
	anchor := Anchor{MatchID: matches[150].MatchID, Rating: 50000}
	window := RecalibrationWindow{Start: matches[40].MatchID, End: matches[60].MatchID}

	for _, ruleset := range RulesetNames() {
		t.Run(ruleset, func(t *testing.T) {
			cfg := configFor(t, ruleset, anchor, window)
			history, err := Reconstruct(cfg, matches)
			require.NoError(t, err)

			for i := 1; i < len(history); i++ {
				prev, next := history[i-1], history[i]
				step := *next.Rating - *prev.Rating
				// both sides report the rating after each match, so the step
				// between neighbours is always the later match's score
				assert.Equal(t, Score(cfg, next), step, "between %d and %d", prev.MatchID, next.MatchID)
			}
		})
	}
}

func TestReconstruct_Idempotent(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	matches := randomHistory(r, 100)
	cfg := configFor(t, RulesetAllLobbies, Anchor{MatchID: matches[30].MatchID, Rating: 2500})

	first, err := Reconstruct(cfg, matches)
	require.NoError(t, err)
	second, err := Reconstruct(cfg, first)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReconstruct_InputOrderInvariant(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 9))
	matches := randomHistory(r, 120)
	cfg := configFor(t, RulesetRanked, Anchor{MatchID: matches[80].MatchID, Rating: 4100})

	want, err := Reconstruct(cfg, matches)
	require.NoError(t, err)

	for range 5 {
		shuffled := make([]MatchRecord, len(matches))
		copy(shuffled, matches)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := Reconstruct(cfg, shuffled)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReconstruct_NonCountingMatches(t *testing.T) {
	cfg := configFor(t, RulesetRanked, Anchor{MatchID: 3, Rating: 2000})
	matches := []MatchRecord{
		newMatch(1, won()),
		newMatch(2, lost(), inLobby(0)),
		newMatch(3, won()),
		newMatch(4, won(), noLobby()),
		newMatch(5, lost()),
	}

	history, err := Reconstruct(cfg, matches)
	require.NoError(t, err)

	got := ratings(t, history)
	assert.Equal(t, 2000, got[3])
	assert.Equal(t, 1970, got[2])
	assert.Equal(t, got[2], got[1], "unranked match 2 moves nothing")
	assert.Equal(t, 2000, got[4], "match without lobby type moves nothing")
	assert.Equal(t, 1970, got[5])
}

func TestReconstruct_Clamping(t *testing.T) {
	t.Run("legacy losses forward never go negative", func(t *testing.T) {
		cfg := configFor(t, RulesetRanked, Anchor{Rating: 50})
		var matches []MatchRecord
		for id := int64(1); id <= 6; id++ {
			matches = append(matches, newMatch(id, lost()))
		}

		history, err := Reconstruct(cfg, matches)
		require.NoError(t, err)

		got := ratings(t, history)
		assert.Equal(t, 20, got[1])
		for id := int64(2); id <= 6; id++ {
			assert.Equal(t, 0, got[id])
		}
	})

	t.Run("legacy wins backward never go negative", func(t *testing.T) {
		cfg := configFor(t, RulesetRanked, Anchor{MatchID: 10, Rating: 20})
		var matches []MatchRecord
		for id := int64(1); id <= 10; id++ {
			matches = append(matches, newMatch(id, won()))
		}

		history, err := Reconstruct(cfg, matches)
		require.NoError(t, err)

		for id, rating := range ratings(t, history) {
			assert.GreaterOrEqual(t, rating, 0, "match %d", id)
		}
		assert.Equal(t, 20, ratings(t, history)[10])
		assert.Equal(t, 0, ratings(t, history)[9])
	})

	t.Run("current epoch has no floor", func(t *testing.T) {
		cfg := configFor(t, RulesetRanked, Anchor{Rating: 30})
		matches := []MatchRecord{
			newMatch(1, lost(), startedAt(currentStart)),
			newMatch(2, lost(), startedAt(currentStart)),
			newMatch(3, lost(), inParty(3), startedAt(currentStart)),
		}

		history, err := Reconstruct(cfg, matches)
		require.NoError(t, err)

		got := ratings(t, history)
		assert.Equal(t, 5, got[1])
		assert.Equal(t, -20, got[2])
		assert.Equal(t, -45, got[3])
	})
}

func TestReconstruct_Recalibration(t *testing.T) {
	window := RecalibrationWindow{Start: 2, End: 3}
	cfg := configFor(t, RulesetRanked, Anchor{Rating: 1000}, window)
	matches := []MatchRecord{
		newMatch(1, won(), inParty(2)),
		newMatch(2, won(), inParty(2)),
		newMatch(3, lost(), startedAt(currentStart)),
		newMatch(4, won(), startedAt(currentStart)),
	}

	history, err := Reconstruct(cfg, matches)
	require.NoError(t, err)

	got := ratings(t, history)
	assert.Equal(t, 1020, got[1])
	assert.Equal(t, 1095, got[2])
	assert.Equal(t, 1020, got[3])
	assert.Equal(t, 1045, got[4])
}

func TestReconstruct_Anchors(t *testing.T) {
	matches := []MatchRecord{
		newMatch(10, won()),
		newMatch(20, lost()),
		newMatch(30, won(), inParty(2)),
	}

	t.Run("unanchored walks forward from zero", func(t *testing.T) {
		cfg := configFor(t, RulesetRanked, Unanchored)
		history, err := Reconstruct(cfg, matches)
		require.NoError(t, err)

		got := ratings(t, history)
		assert.Equal(t, 30, got[10])
		assert.Equal(t, 0, got[20])
		assert.Equal(t, 20, got[30])
	})

	t.Run("anchor between matches", func(t *testing.T) {
		cfg := configFor(t, RulesetRanked, Anchor{MatchID: 25, Rating: 500})
		history, err := Reconstruct(cfg, matches)
		require.NoError(t, err)

		got := ratings(t, history)
		assert.Equal(t, 500, got[20])
		assert.Equal(t, 530, got[10])
		assert.Equal(t, 520, got[30])
	})

	t.Run("anchor after every match", func(t *testing.T) {
		cfg := configFor(t, RulesetRanked, Anchor{MatchID: 1000, Rating: 700})
		history, err := Reconstruct(cfg, matches)
		require.NoError(t, err)

		got := ratings(t, history)
		assert.Equal(t, 700, got[30])
		assert.Equal(t, 680, got[20])
		assert.Equal(t, 710, got[10])
	})

	t.Run("anchor at the largest match id", func(t *testing.T) {
		cfg := configFor(t, RulesetRankedLegacy, Anchor{MatchID: math.MaxInt64, Rating: 1000})
		history, err := Reconstruct(cfg, []MatchRecord{newMatch(1, won()), newMatch(2, won())})
		require.NoError(t, err)

		got := ratings(t, history)
		assert.Equal(t, 1000, got[2])
		assert.Equal(t, 970, got[1])
	})
}

func TestReconstruct_DoesNotMutateInput(t *testing.T) {
	cfg := configFor(t, RulesetRanked, Anchor{MatchID: 2, Rating: 100})
	matches := []MatchRecord{newMatch(3, won()), newMatch(1, lost()), newMatch(2, won())}

	_, err := Reconstruct(cfg, matches)
	require.NoError(t, err)

	assert.Equal(t, []int64{3, 1, 2}, []int64{matches[0].MatchID, matches[1].MatchID, matches[2].MatchID})
	for _, m := range matches {
		assert.Nil(t, m.Rating)
	}
}

func TestReconstruct_Errors(t *testing.T) {
	valid := configFor(t, RulesetRanked, Anchor{MatchID: 2, Rating: 100})

	t.Run("empty list is a no-op", func(t *testing.T) {
		history, err := Reconstruct(valid, nil)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("duplicate match id", func(t *testing.T) {
		matches := []MatchRecord{newMatch(1), newMatch(2), newMatch(1)}
		_, err := Reconstruct(valid, matches)
		assert.ErrorIs(t, err, ErrDuplicateMatchID)
		for _, m := range matches {
			assert.Nil(t, m.Rating)
		}
	})

	t.Run("non-positive match id", func(t *testing.T) {
		matches := []MatchRecord{newMatch(5), newMatch(0)}
		_, err := Reconstruct(valid, matches)
		require.ErrorIs(t, err, ErrInvalidMatch)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, 1, verr.Index)
		assert.Equal(t, "match_id", verr.Field)
	})

	t.Run("negative player slot", func(t *testing.T) {
		_, err := Reconstruct(valid, []MatchRecord{newMatch(5, func(m *MatchRecord) { m.PlayerSlot = -1 })})
		assert.ErrorIs(t, err, ErrInvalidMatch)
	})

	t.Run("negative anchor", func(t *testing.T) {
		cfg := configFor(t, RulesetRanked, Anchor{MatchID: -1})
		_, err := Reconstruct(cfg, []MatchRecord{newMatch(1)})
		assert.ErrorIs(t, err, ErrInvalidAnchor)
	})

	t.Run("inverted recalibration window", func(t *testing.T) {
		cfg := configFor(t, RulesetRanked, Unanchored, RecalibrationWindow{Start: 10, End: 5})
		_, err := Reconstruct(cfg, []MatchRecord{newMatch(1)})
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("zero ruleset", func(t *testing.T) {
		_, err := Reconstruct(PlayerConfig{}, []MatchRecord{newMatch(1)})
		assert.ErrorIs(t, err, ErrInvalidRuleset)
	})
}

func TestSummarize(t *testing.T) {
	_, ok := Summarize(nil)
	assert.False(t, ok)

	cfg := configFor(t, RulesetRanked, Unanchored)
	history, err := Reconstruct(cfg, []MatchRecord{newMatch(7, won()), newMatch(3, won())})
	require.NoError(t, err)

	s, ok := Summarize(history)
	require.True(t, ok)
	assert.Equal(t, Summary{MatchID: 7, Rating: 60, Matches: 2}, s)
}

func BenchmarkReconstruct(b *testing.B) {
	r := rand.New(rand.NewPCG(4, 4))
	matches := randomHistory(r, 2000)
	rs, _ := LookupRuleset(RulesetRanked)
	cfg := PlayerConfig{Anchor: Anchor{MatchID: matches[1000].MatchID, Rating: 4000}, Ruleset: rs}

	for b.Loop() {
		if _, err := Reconstruct(cfg, matches); err != nil {
			b.Fatal(err)
		}
	}
}
