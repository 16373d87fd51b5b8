package service

import (
	"context"
	"dota-mmr-tracker/internal/config"
	"dota-mmr-tracker/internal/constants"
	"dota-mmr-tracker/internal/domain"
	"dota-mmr-tracker/internal/repository"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

var ErrInvalidPlayerID = errors.New("player id must be positive")

// PlayerService manages the set of tracked players.
type PlayerService struct {
	players *repository.PlayerRepository
	matches *repository.MatchRepository
	cfg     *config.Config
	logger  zerolog.Logger
}

func NewPlayerService(players *repository.PlayerRepository, matches *repository.MatchRepository, cfg *config.Config, logger zerolog.Logger) *PlayerService {
	return &PlayerService{players: players, matches: matches, cfg: cfg, logger: logger}
}

func (s *PlayerService) List(ctx context.Context) ([]domain.TrackedPlayer, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.players.List(ctx)
}

func (s *PlayerService) Get(ctx context.Context, playerID int64) (*domain.TrackedPlayer, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.players.Get(ctx, playerID)
}

// Track starts tracking a player, or replaces the configuration of one
// already tracked.
func (s *PlayerService) Track(ctx context.Context, entry config.PlayerEntry) (*domain.TrackedPlayer, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	player, err := s.toTracked(entry)
	if err != nil {
		return nil, err
	}

	if err := s.players.Upsert(ctx, &player); err != nil {
		s.logger.Error().Err(err).Int64("player_id", entry.PlayerID).Msg("failed to track player")
		return nil, fmt.Errorf("failed to track player: %w", err)
	}

	s.logger.Info().
		Int64("player_id", player.PlayerID).
		Str("ruleset", player.Ruleset).
		Int64("anchor_match_id", player.AnchorMatchID).
		Msg("player tracked")

	return s.players.Get(ctx, player.PlayerID)
}

func (s *PlayerService) Untrack(ctx context.Context, playerID int64) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.players.Delete(ctx, playerID); err != nil {
		return err
	}
	if err := s.matches.DeleteForPlayer(ctx, playerID); err != nil {
		s.logger.Warn().Err(err).Int64("player_id", playerID).Msg("failed to drop cached matches")
	}

	s.logger.Info().Int64("player_id", playerID).Msg("player untracked")
	return nil
}

// Seed upserts every player listed in the players file. A missing file is not
// an error.
func (s *PlayerService) Seed(ctx context.Context, path string) error {
	entries, err := config.LoadPlayers(path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug().Str("path", path).Msg("players file not found, skipping seed")
		return nil
	}
	if err != nil {
		return err
	}

	players := make([]domain.TrackedPlayer, 0, len(entries))
	for _, entry := range entries {
		player, err := s.toTracked(entry)
		if err != nil {
			return fmt.Errorf("player %d: %w", entry.PlayerID, err)
		}
		players = append(players, player)
	}

	if err := s.players.UpsertBatch(ctx, players); err != nil {
		return fmt.Errorf("failed to seed players: %w", err)
	}

	s.logger.Info().Str("path", path).Int("count", len(players)).Msg("players seeded")
	return nil
}

func (s *PlayerService) toTracked(entry config.PlayerEntry) (domain.TrackedPlayer, error) {
	if entry.PlayerID <= 0 {
		return domain.TrackedPlayer{}, fmt.Errorf("%w: %d", ErrInvalidPlayerID, entry.PlayerID)
	}

	cfg, err := entry.PlayerConfig(s.cfg.DefaultRuleset)
	if err != nil {
		return domain.TrackedPlayer{}, err
	}

	player := domain.TrackedPlayer{
		PlayerID:      entry.PlayerID,
		Label:         entry.Label,
		Ruleset:       cfg.Ruleset.Name,
		AnchorMatchID: cfg.Anchor.MatchID,
		AnchorMMR:     cfg.Anchor.Rating,
	}
	for _, w := range cfg.Recalibration {
		player.Recalibration = append(player.Recalibration, domain.RecalibrationWindow{
			PlayerID: entry.PlayerID,
			Start:    w.Start,
			End:      w.End,
		})
	}
	return player, nil
}
