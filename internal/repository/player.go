package repository

import (
	"context"
	"database/sql"
	"dota-mmr-tracker/internal/constants"
	"dota-mmr-tracker/internal/db"
	"dota-mmr-tracker/internal/domain"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

var ErrPlayerNotFound = errors.New("player is not tracked")

type PlayerRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *PlayerRepository) Get(ctx context.Context, playerID int64) (*domain.TrackedPlayer, error) {
	row, err := r.queries.GetTrackedPlayer(ctx, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, playerID)
	}
	if err != nil {
		return nil, err
	}

	windows, err := r.queries.ListRecalibrationWindows(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recalibration windows: %w", err)
	}

	player := toDomainPlayer(row, windows)
	return &player, nil
}

func (r *PlayerRepository) List(ctx context.Context) ([]domain.TrackedPlayer, error) {
	rows, err := r.queries.ListTrackedPlayers(ctx)
	if err != nil {
		return nil, err
	}

	players := make([]domain.TrackedPlayer, len(rows))
	for i, row := range rows {
		windows, err := r.queries.ListRecalibrationWindows(ctx, row.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("failed to list recalibration windows of %d: %w", row.PlayerID, err)
		}
		players[i] = toDomainPlayer(row, windows)
	}
	return players, nil
}

// Upsert stores the player and replaces its recalibration windows. Profile
// fields are left alone; they belong to UpdateProfile.
func (r *PlayerRepository) Upsert(ctx context.Context, player *domain.TrackedPlayer) error {
	return r.UpsertBatch(ctx, []domain.TrackedPlayer{*player})
}

func (r *PlayerRepository) UpsertBatch(ctx context.Context, players []domain.TrackedPlayer) error {
	if len(players) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	now := time.Now().UTC()

	for i := 0; i < len(players); i += constants.DBBatchSize {
		end := min(i+constants.DBBatchSize, len(players))

		for _, player := range players[i:end] {
			if err := upsertPlayer(ctx, qtx, player, now); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit players: %w", err)
	}

	r.logger.Debug().Int("count", len(players)).Msg("tracked players upserted")
	return nil
}

func upsertPlayer(ctx context.Context, qtx *db.Queries, player domain.TrackedPlayer, now time.Time) error {
	createdAt := player.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	err := qtx.UpsertTrackedPlayer(ctx, db.UpsertTrackedPlayerParams{
		PlayerID:      player.PlayerID,
		Label:         player.Label,
		Ruleset:       player.Ruleset,
		AnchorMatchID: player.AnchorMatchID,
		AnchorMmr:     int64(player.AnchorMMR),
		CreatedAt:     createdAt,
		UpdatedAt:     now,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert player %d: %w", player.PlayerID, err)
	}

	if err := qtx.DeleteRecalibrationWindows(ctx, player.PlayerID); err != nil {
		return fmt.Errorf("failed to clear recalibration windows of %d: %w", player.PlayerID, err)
	}

	for _, w := range player.Recalibration {
		id := w.ID
		if id == "" {
			id, err = gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate nanoid: %w", err)
			}
		}

		err := qtx.InsertRecalibrationWindow(ctx, db.InsertRecalibrationWindowParams{
			ID:           id,
			PlayerID:     player.PlayerID,
			StartMatchID: w.Start,
			EndMatchID:   w.End,
			CreatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("failed to insert recalibration window of %d: %w", player.PlayerID, err)
		}
	}
	return nil
}

func (r *PlayerRepository) UpdateProfile(ctx context.Context, playerID int64, personaName, avatar string, rankTier *int) error {
	var tier *int64
	if rankTier != nil {
		v := int64(*rankTier)
		tier = &v
	}

	err := r.queries.UpdatePlayerProfile(ctx, db.UpdatePlayerProfileParams{
		PersonaName: personaName,
		Avatar:      avatar,
		RankTier:    tier,
		UpdatedAt:   time.Now().UTC(),
		PlayerID:    playerID,
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("player_id", playerID).Msg("failed to update profile")
		return err
	}
	return nil
}

func (r *PlayerRepository) Delete(ctx context.Context, playerID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	if err := qtx.DeleteRecalibrationWindows(ctx, playerID); err != nil {
		return fmt.Errorf("failed to delete recalibration windows: %w", err)
	}
	deleted, err := qtx.DeleteTrackedPlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %d", ErrPlayerNotFound, playerID)
	}

	return tx.Commit()
}

func toDomainPlayer(row db.TrackedPlayer, windows []db.RecalibrationWindow) domain.TrackedPlayer {
	player := domain.TrackedPlayer{
		PlayerID:      row.PlayerID,
		Label:         row.Label,
		Ruleset:       row.Ruleset,
		AnchorMatchID: row.AnchorMatchID,
		AnchorMMR:     int(row.AnchorMmr),
		PersonaName:   row.PersonaName,
		Avatar:        row.Avatar,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.RankTier != nil {
		tier := int(*row.RankTier)
		player.RankTier = &tier
	}

	for _, w := range windows {
		player.Recalibration = append(player.Recalibration, domain.RecalibrationWindow{
			ID:        w.ID,
			PlayerID:  w.PlayerID,
			Start:     w.StartMatchID,
			End:       w.EndMatchID,
			CreatedAt: w.CreatedAt,
		})
	}
	return player
}
