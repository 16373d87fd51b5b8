package service

import (
	"context"
	"dota-mmr-tracker/internal/api"
	"dota-mmr-tracker/internal/config"
	"dota-mmr-tracker/internal/constants"
	"dota-mmr-tracker/internal/domain"
	"dota-mmr-tracker/internal/mmr"
	"dota-mmr-tracker/internal/repository"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrFetchFailed marks failures talking to the match source, as opposed to
// failures of the reconstruction itself.
var ErrFetchFailed = errors.New("failed to fetch match history")

// MatchSource is the upstream provider of match lists and profiles.
type MatchSource interface {
	FetchMatches(ctx context.Context, playerID int64, rankedOnly bool) ([]byte, error)
	FetchProfile(ctx context.Context, playerID int64) (*api.PlayerProfile, error)
}

// History is a reconstructed match history of one tracked player.
type History struct {
	Player    domain.TrackedPlayer
	Config    mmr.PlayerConfig
	Matches   []mmr.MatchRecord
	Summary   *mmr.Summary
	FetchedAt time.Time
	Cached    bool
}

type HistoryService struct {
	source  MatchSource
	players *repository.PlayerRepository
	matches *repository.MatchRepository
	cfg     *config.Config
	logger  zerolog.Logger
}

func NewHistoryService(source MatchSource, players *repository.PlayerRepository, matches *repository.MatchRepository, cfg *config.Config, logger zerolog.Logger) *HistoryService {
	return &HistoryService{source: source, players: players, matches: matches, cfg: cfg, logger: logger}
}

// GetHistory reconstructs the history of a tracked player, fetching the match
// list when the cached copy is older than the configured TTL or refresh is set.
func (s *HistoryService) GetHistory(ctx context.Context, playerID int64, refresh bool) (*History, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	player, err := s.players.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	cfg, err := player.PlayerConfig()
	if err != nil {
		return nil, fmt.Errorf("stored configuration of %d is invalid: %w", playerID, err)
	}
	rankedOnly := cfg.Ruleset.RestrictToRanked

	list, cached, err := s.matchList(ctx, player, rankedOnly, refresh)
	if err != nil {
		return nil, err
	}

	records, err := mmr.DecodeMatches(list.Payload)
	if err != nil {
		s.logger.Error().Err(err).Int64("player_id", playerID).Bool("cached", cached).Msg("malformed match list")
		return nil, fmt.Errorf("%w: malformed match list: %w", ErrFetchFailed, err)
	}

	if !cached {
		list.MatchCount = len(records)
		if err := s.matches.Put(ctx, list); err != nil {
			s.logger.Warn().Err(err).Int64("player_id", playerID).Msg("failed to cache match list")
		}
	}

	matches, err := mmr.Reconstruct(cfg, records)
	if err != nil {
		s.logger.Error().Err(err).Int64("player_id", playerID).Msg("reconstruction failed")
		return nil, fmt.Errorf("failed to reconstruct history of %d: %w", playerID, err)
	}

	history := &History{
		Player:    *player,
		Config:    cfg,
		Matches:   matches,
		FetchedAt: list.FetchedAt,
		Cached:    cached,
	}
	if summary, ok := mmr.Summarize(matches); ok {
		history.Summary = &summary
	}

	s.logger.Info().
		Int64("player_id", playerID).
		Int("matches", len(matches)).
		Bool("cached", cached).
		Str("ruleset", cfg.Ruleset.Name).
		Msg("history reconstructed")

	return history, nil
}

func (s *HistoryService) matchList(ctx context.Context, player *domain.TrackedPlayer, rankedOnly, refresh bool) (*domain.MatchList, bool, error) {
	if !refresh {
		stale, err := s.matches.ShouldRefresh(ctx, player.PlayerID, rankedOnly, s.cfg.CacheTTL)
		if err != nil {
			return nil, false, fmt.Errorf("failed to check match cache: %w", err)
		}
		if !stale {
			list, err := s.matches.Get(ctx, player.PlayerID, rankedOnly)
			if err != nil {
				return nil, false, fmt.Errorf("failed to read match cache: %w", err)
			}
			if list != nil {
				s.logger.Debug().Int64("player_id", player.PlayerID).Msg("returning cached matches")
				return list, true, nil
			}
		}
	} else {
		s.logger.Debug().Int64("player_id", player.PlayerID).Msg("manual refresh requested")
	}

	payload, profile, err := s.fetch(ctx, player.PlayerID, rankedOnly)
	if err != nil {
		return nil, false, err
	}

	if profile != nil {
		name := profile.Profile.PersonaName
		if err := s.players.UpdateProfile(ctx, player.PlayerID, name, profile.Profile.Avatar, profile.RankTier); err == nil {
			player.PersonaName = name
			player.Avatar = profile.Profile.Avatar
			player.RankTier = profile.RankTier
		}
	}

	return &domain.MatchList{
		PlayerID:   player.PlayerID,
		RankedOnly: rankedOnly,
		Payload:    payload,
		FetchedAt:  time.Now().UTC(),
	}, false, nil
}

// fetch pulls the match list and the profile concurrently. Only the match
// list is required.
func (s *HistoryService) fetch(ctx context.Context, playerID int64, rankedOnly bool) ([]byte, *api.PlayerProfile, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(apiCtx)
	var payload []byte
	var profile *api.PlayerProfile

	g.Go(func() error {
		var err error
		payload, err = s.source.FetchMatches(gCtx, playerID, rankedOnly)
		return err
	})

	g.Go(func() error {
		p, err := s.source.FetchProfile(gCtx, playerID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("player_id", playerID).Msg("failed to fetch profile")
			return nil
		}
		profile = p
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Int64("player_id", playerID).Msg("failed to fetch matches from API")
		return nil, nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	s.logger.Debug().Int64("player_id", playerID).Int("bytes", len(payload)).Msg("matches fetched")
	return payload, profile, nil
}
