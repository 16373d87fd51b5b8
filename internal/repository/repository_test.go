package repository

import (
	"context"
	"database/sql"
	"dota-mmr-tracker/internal/config"
	"dota-mmr-tracker/internal/database"
	"dota-mmr-tracker/internal/db"
	"dota-mmr-tracker/internal/domain"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := database.New(&config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

func newRepos(t *testing.T) (*PlayerRepository, *MatchRepository) {
	sqlDB := openTestDB(t)
	queries := db.New(sqlDB)
	return NewPlayerRepository(sqlDB, queries, zerolog.Nop()), NewMatchRepository(queries, zerolog.Nop())
}

func TestPlayerRepository_RoundTrip(t *testing.T) {
	players, _ := newRepos(t)
	ctx := context.Background()

	player := &domain.TrackedPlayer{
		PlayerID:      431892272,
		Label:         "a mysterious person",
		Ruleset:       "ranked-legacy",
		AnchorMatchID: 6515528703,
		AnchorMMR:     760,
		Recalibration: []domain.RecalibrationWindow{
			{Start: 6900000000, End: 6900001000},
			{Start: 6000000000, End: 6000000100},
		},
	}
	require.NoError(t, players.Upsert(ctx, player))

	got, err := players.Get(ctx, 431892272)
	require.NoError(t, err)
	assert.Equal(t, "a mysterious person", got.Label)
	assert.Equal(t, int64(6515528703), got.AnchorMatchID)
	assert.Equal(t, 760, got.AnchorMMR)
	assert.Nil(t, got.RankTier)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)

	require.Len(t, got.Recalibration, 2)
	assert.Equal(t, int64(6000000000), got.Recalibration[0].Start, "windows come back ordered by start")
	assert.Len(t, got.Recalibration[0].ID, 21)

	cfg, err := got.PlayerConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsRecalibrating(6900000500))
	assert.Equal(t, 760, cfg.Anchor.Rating)
}

func TestPlayerRepository_UpsertReplacesWindows(t *testing.T) {
	players, _ := newRepos(t)
	ctx := context.Background()

	player := domain.TrackedPlayer{
		PlayerID:      7,
		Ruleset:       "ranked",
		Recalibration: []domain.RecalibrationWindow{{Start: 1, End: 5}},
	}
	require.NoError(t, players.Upsert(ctx, &player))

	first, err := players.Get(ctx, 7)
	require.NoError(t, err)

	player.Recalibration = nil
	player.Label = "renamed"
	require.NoError(t, players.Upsert(ctx, &player))

	got, err := players.Get(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, got.Recalibration)
	assert.Equal(t, "renamed", got.Label)
	assert.Equal(t, first.CreatedAt.Unix(), got.CreatedAt.Unix(), "created_at survives an upsert")
}

func TestPlayerRepository_ListAndBatch(t *testing.T) {
	players, _ := newRepos(t)
	ctx := context.Background()

	batch := []domain.TrackedPlayer{
		{PlayerID: 30, Ruleset: "ranked"},
		{PlayerID: 10, Ruleset: "all-lobbies", Recalibration: []domain.RecalibrationWindow{{Start: 2, End: 3}}},
		{PlayerID: 20, Ruleset: "ranked-legacy"},
	}
	require.NoError(t, players.UpsertBatch(ctx, batch))
	require.NoError(t, players.UpsertBatch(ctx, nil))

	list, err := players.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{10, 20, 30}, []int64{list[0].PlayerID, list[1].PlayerID, list[2].PlayerID})
	assert.Len(t, list[0].Recalibration, 1)
}

func TestPlayerRepository_Profile(t *testing.T) {
	players, _ := newRepos(t)
	ctx := context.Background()

	require.NoError(t, players.Upsert(ctx, &domain.TrackedPlayer{PlayerID: 1, Ruleset: "ranked"}))

	tier := 54
	require.NoError(t, players.UpdateProfile(ctx, 1, "mystery", "https://example.invalid/a.jpg", &tier))

	got, err := players.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "mystery", got.PersonaName)
	assert.Equal(t, "mystery", got.DisplayName())
	require.NotNil(t, got.RankTier)
	assert.Equal(t, 54, *got.RankTier)

	require.NoError(t, players.Upsert(ctx, got))
	again, err := players.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "mystery", again.PersonaName, "upsert keeps profile fields")
}

func TestPlayerRepository_NotFound(t *testing.T) {
	players, _ := newRepos(t)
	ctx := context.Background()

	_, err := players.Get(ctx, 404)
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	assert.ErrorIs(t, players.Delete(ctx, 404), ErrPlayerNotFound)
}

func TestPlayerRepository_Delete(t *testing.T) {
	players, _ := newRepos(t)
	ctx := context.Background()

	require.NoError(t, players.Upsert(ctx, &domain.TrackedPlayer{
		PlayerID:      5,
		Ruleset:       "ranked",
		Recalibration: []domain.RecalibrationWindow{{Start: 1, End: 2}},
	}))
	require.NoError(t, players.Delete(ctx, 5))

	_, err := players.Get(ctx, 5)
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	list, err := players.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMatchRepository(t *testing.T) {
	_, matches := newRepos(t)
	ctx := context.Background()

	cached, err := matches.Get(ctx, 1, true)
	require.NoError(t, err)
	assert.Nil(t, cached)

	refresh, err := matches.ShouldRefresh(ctx, 1, true, time.Hour)
	require.NoError(t, err)
	assert.True(t, refresh)

	payload := []byte(`[{"match_id": 1, "player_slot": 0, "radiant_win": true, "start_time": 1}]`)
	require.NoError(t, matches.Put(ctx, &domain.MatchList{
		PlayerID:   1,
		RankedOnly: true,
		Payload:    payload,
		MatchCount: 1,
		FetchedAt:  time.Now().UTC(),
	}))

	cached, err = matches.Get(ctx, 1, true)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.JSONEq(t, string(payload), string(cached.Payload))
	assert.Equal(t, 1, cached.MatchCount)

	other, err := matches.Get(ctx, 1, false)
	require.NoError(t, err)
	assert.Nil(t, other, "lobby filters are cached separately")

	refresh, err = matches.ShouldRefresh(ctx, 1, true, time.Hour)
	require.NoError(t, err)
	assert.False(t, refresh)

	refresh, err = matches.ShouldRefresh(ctx, 1, true, 0)
	require.NoError(t, err)
	assert.True(t, refresh)

	require.NoError(t, matches.DeleteForPlayer(ctx, 1))
	cached, err = matches.Get(ctx, 1, true)
	require.NoError(t, err)
	assert.Nil(t, cached)
}
