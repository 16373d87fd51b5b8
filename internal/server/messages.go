package server

import (
	"dota-mmr-tracker/internal/config"
	"dota-mmr-tracker/internal/mmr"
	"dota-mmr-tracker/internal/service"
	"time"

	json "github.com/goccy/go-json"
)

type ListPlayersRequest struct{}

type ListPlayersResponse struct {
	Players []Player `json:"players"`
}

type GetPlayerHistoryRequest struct {
	PlayerID int64 `json:"player_id"`
	Refresh  bool  `json:"refresh"`
}

type GetPlayerHistoryResponse struct {
	Player    Player    `json:"player"`
	Matches   []Match   `json:"matches"`
	Cached    bool      `json:"cached"`
	FetchedAt time.Time `json:"fetched_at"`
}

type TrackPlayerRequest struct {
	config.PlayerEntry
}

type TrackPlayerResponse struct {
	Player Player `json:"player"`
}

type UntrackPlayerRequest struct {
	PlayerID int64 `json:"player_id"`
}

type UntrackPlayerResponse struct{}

// ReconstructRequest runs the engine over a caller-supplied match list. The
// player id is optional and only echoed into logs.
type ReconstructRequest struct {
	config.PlayerEntry
	Matches json.RawMessage `json:"matches"`
}

type ReconstructResponse struct {
	Matches []mmr.MatchRecord `json:"matches"`
	Summary *mmr.Summary      `json:"summary,omitempty"`
}

type Player struct {
	PlayerID      int64                     `json:"player_id"`
	Name          string                    `json:"name,omitempty"`
	Label         string                    `json:"label,omitempty"`
	Avatar        string                    `json:"avatar,omitempty"`
	RankTier      *int                      `json:"rank_tier,omitempty"`
	Ruleset       string                    `json:"ruleset"`
	Anchor        mmr.Anchor                `json:"anchor"`
	Recalibration []mmr.RecalibrationWindow `json:"recalibration,omitempty"`
	State         service.FetchState        `json:"state"`
	Error         string                    `json:"error,omitempty"`
	Latest        *mmr.Summary              `json:"latest,omitempty"`
}

type Match struct {
	MatchID   int64       `json:"match_id"`
	StartTime int64       `json:"start_time"`
	Duration  int64       `json:"duration"`
	HeroID    int         `json:"hero_id"`
	Hero      string      `json:"hero"`
	LobbyType *int        `json:"lobby_type,omitempty"`
	Lobby     string      `json:"lobby,omitempty"`
	GameMode  int         `json:"game_mode"`
	Mode      string      `json:"mode"`
	Outcome   mmr.Outcome `json:"outcome"`
	Solo      bool        `json:"solo"`
	Kills     int         `json:"kills"`
	Deaths    int         `json:"deaths"`
	Assists   int         `json:"assists"`
	Delta     int         `json:"delta"`
	Rating    *int        `json:"mmr"`
}
