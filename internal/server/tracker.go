package server

import (
	"bytes"
	"context"
	"dota-mmr-tracker/internal/config"
	"dota-mmr-tracker/internal/domain"
	"dota-mmr-tracker/internal/mmr"
	"dota-mmr-tracker/internal/reference"
	"dota-mmr-tracker/internal/repository"
	"dota-mmr-tracker/internal/service"
	"errors"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

type TrackerServer struct {
	players *service.PlayerService
	history *service.HistoryService
	board   *service.BoardService
	ref     *reference.Tables
	cfg     *config.Config
}

func NewTrackerServer(players *service.PlayerService, history *service.HistoryService, board *service.BoardService, ref *reference.Tables, cfg *config.Config) *TrackerServer {
	return &TrackerServer{players: players, history: history, board: board, ref: ref, cfg: cfg}
}

func (s *TrackerServer) ListPlayers(ctx context.Context, req *connect.Request[ListPlayersRequest]) (*connect.Response[ListPlayersResponse], error) {
	players, err := s.players.List(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	resp := &ListPlayersResponse{Players: make([]Player, len(players))}
	for i, p := range players {
		resp.Players[i] = s.toPlayer(p)
	}
	return connect.NewResponse(resp), nil
}

func (s *TrackerServer) GetPlayerHistory(ctx context.Context, req *connect.Request[GetPlayerHistoryRequest]) (*connect.Response[GetPlayerHistoryResponse], error) {
	h, err := s.history.GetHistory(ctx, req.Msg.PlayerID, req.Msg.Refresh)
	if !errors.Is(err, repository.ErrPlayerNotFound) {
		s.board.Observe(req.Msg.PlayerID, h, err)
	}
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	resp := &GetPlayerHistoryResponse{
		Player:    s.toPlayer(h.Player),
		Matches:   make([]Match, len(h.Matches)),
		Cached:    h.Cached,
		FetchedAt: h.FetchedAt,
	}
	for i, m := range h.Matches {
		resp.Matches[i] = s.toMatch(h.Config, m)
	}
	return connect.NewResponse(resp), nil
}

func (s *TrackerServer) TrackPlayer(ctx context.Context, req *connect.Request[TrackPlayerRequest]) (*connect.Response[TrackPlayerResponse], error) {
	player, err := s.players.Track(ctx, req.Msg.PlayerEntry)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&TrackPlayerResponse{Player: s.toPlayer(*player)}), nil
}

func (s *TrackerServer) UntrackPlayer(ctx context.Context, req *connect.Request[UntrackPlayerRequest]) (*connect.Response[UntrackPlayerResponse], error) {
	if err := s.players.Untrack(ctx, req.Msg.PlayerID); err != nil {
		return nil, toConnectError(ctx, err)
	}
	s.board.Forget(req.Msg.PlayerID)
	return connect.NewResponse(&UntrackPlayerResponse{}), nil
}

func (s *TrackerServer) Reconstruct(ctx context.Context, req *connect.Request[ReconstructRequest]) (*connect.Response[ReconstructResponse], error) {
	if raw := bytes.TrimSpace(req.Msg.Matches); len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("matches are required"))
	}

	cfg, err := req.Msg.PlayerConfig(s.cfg.DefaultRuleset)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	records, err := mmr.DecodeMatches(req.Msg.Matches)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	history, err := mmr.Reconstruct(cfg, records)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	zerolog.Ctx(ctx).Debug().
		Int64("player_id", cfg.PlayerID).
		Str("ruleset", cfg.Ruleset.Name).
		Int("matches", len(history)).
		Msg("ad hoc reconstruction")

	resp := &ReconstructResponse{Matches: history}
	if summary, ok := mmr.Summarize(history); ok {
		resp.Summary = &summary
	}
	return connect.NewResponse(resp), nil
}

func (s *TrackerServer) toPlayer(p domain.TrackedPlayer) Player {
	entry := s.board.Entry(p.PlayerID)

	player := Player{
		PlayerID: p.PlayerID,
		Name:     p.DisplayName(),
		Label:    p.Label,
		Avatar:   p.Avatar,
		RankTier: p.RankTier,
		Ruleset:  p.Ruleset,
		Anchor:   mmr.Anchor{MatchID: p.AnchorMatchID, Rating: p.AnchorMMR},
		State:    entry.State,
		Error:    entry.Error,
		Latest:   entry.Summary,
	}
	for _, w := range p.Recalibration {
		player.Recalibration = append(player.Recalibration, mmr.RecalibrationWindow{Start: w.Start, End: w.End})
	}
	return player
}

func (s *TrackerServer) toMatch(cfg mmr.PlayerConfig, m mmr.MatchRecord) Match {
	match := Match{
		MatchID:   m.MatchID,
		StartTime: m.StartTime,
		Duration:  m.Duration,
		HeroID:    m.HeroID,
		Hero:      s.ref.HeroName(m.HeroID),
		LobbyType: m.LobbyType,
		GameMode:  m.GameMode,
		Mode:      s.ref.GameModeName(m.GameMode),
		Outcome:   mmr.Classify(m),
		Solo:      m.IsSolo(),
		Kills:     m.Kills,
		Deaths:    m.Deaths,
		Assists:   m.Assists,
		Delta:     mmr.Score(cfg, m),
		Rating:    m.Rating,
	}
	if m.LobbyType != nil {
		match.Lobby = s.ref.LobbyName(*m.LobbyType)
	}
	return match
}

// toConnectError maps service and engine errors onto connect codes.
func toConnectError(ctx context.Context, err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, repository.ErrPlayerNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, service.ErrFetchFailed):
		code = connect.CodeUnavailable
	case errors.Is(err, mmr.ErrInvalidMatch),
		errors.Is(err, mmr.ErrDuplicateMatchID),
		errors.Is(err, mmr.ErrInvalidAnchor),
		errors.Is(err, mmr.ErrInvalidWindow),
		errors.Is(err, mmr.ErrInvalidRuleset),
		errors.Is(err, service.ErrInvalidPlayerID):
		code = connect.CodeInvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	}

	if code == connect.CodeInternal {
		zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
	}
	return connect.NewError(code, err)
}
