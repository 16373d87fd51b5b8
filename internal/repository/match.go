package repository

import (
	"context"
	"database/sql"
	"dota-mmr-tracker/internal/db"
	"dota-mmr-tracker/internal/domain"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// MatchRepository caches raw OpenDota match lists so reconstruction can be
// replayed without another fetch.
type MatchRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewMatchRepository(queries *db.Queries, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		queries: queries,
		logger:  logger,
	}
}

// Get returns the cached list, or nil when nothing is cached.
func (r *MatchRepository) Get(ctx context.Context, playerID int64, rankedOnly bool) (*domain.MatchList, error) {
	row, err := r.queries.GetMatchList(ctx, db.GetMatchListParams{
		PlayerID:   playerID,
		RankedOnly: rankedOnly,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &domain.MatchList{
		PlayerID:   row.PlayerID,
		RankedOnly: row.RankedOnly,
		Payload:    row.Payload,
		MatchCount: int(row.MatchCount),
		FetchedAt:  row.FetchedAt,
	}, nil
}

func (r *MatchRepository) Put(ctx context.Context, list *domain.MatchList) error {
	err := r.queries.UpsertMatchList(ctx, db.UpsertMatchListParams{
		PlayerID:   list.PlayerID,
		RankedOnly: list.RankedOnly,
		Payload:    list.Payload,
		MatchCount: int64(list.MatchCount),
		FetchedAt:  list.FetchedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to store match list of %d: %w", list.PlayerID, err)
	}
	return nil
}

func (r *MatchRepository) ShouldRefresh(ctx context.Context, playerID int64, rankedOnly bool, ttl time.Duration) (bool, error) {
	fetchedAt, err := r.queries.GetMatchListFetchedAt(ctx, db.GetMatchListFetchedAtParams{
		PlayerID:   playerID,
		RankedOnly: rankedOnly,
	})
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Debug().Int64("player_id", playerID).Msg("no cached matches, should refresh")
		return true, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Int64("player_id", playerID).Msg("failed to read cache age")
		return false, err
	}

	age := time.Since(fetchedAt)
	shouldRefresh := age > ttl
	r.logger.Debug().
		Int64("player_id", playerID).
		Time("fetched_at", fetchedAt).
		Dur("age", age).
		Dur("ttl", ttl).
		Bool("should_refresh", shouldRefresh).
		Msg("checking if matches should refresh")

	return shouldRefresh, nil
}

func (r *MatchRepository) DeleteForPlayer(ctx context.Context, playerID int64) error {
	return r.queries.DeleteMatchLists(ctx, playerID)
}
