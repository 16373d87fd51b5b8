package db

import (
	"context"
	"time"
)

const trackedPlayerColumns = `player_id, label, ruleset, anchor_match_id, anchor_mmr, persona_name, avatar, rank_tier, created_at, updated_at`

func scanTrackedPlayer(row interface{ Scan(...interface{}) error }) (TrackedPlayer, error) {
	var i TrackedPlayer
	err := row.Scan(
		&i.PlayerID,
		&i.Label,
		&i.Ruleset,
		&i.AnchorMatchID,
		&i.AnchorMmr,
		&i.PersonaName,
		&i.Avatar,
		&i.RankTier,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getTrackedPlayer = `
SELECT ` + trackedPlayerColumns + `
FROM tracked_players
WHERE player_id = ?
`

func (q *Queries) GetTrackedPlayer(ctx context.Context, playerID int64) (TrackedPlayer, error) {
	row := q.db.QueryRowContext(ctx, getTrackedPlayer, playerID)
	return scanTrackedPlayer(row)
}

const listTrackedPlayers = `
SELECT ` + trackedPlayerColumns + `
FROM tracked_players
ORDER BY player_id
`

func (q *Queries) ListTrackedPlayers(ctx context.Context) ([]TrackedPlayer, error) {
	rows, err := q.db.QueryContext(ctx, listTrackedPlayers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TrackedPlayer
	for rows.Next() {
		i, err := scanTrackedPlayer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertTrackedPlayer = `
INSERT INTO tracked_players (player_id, label, ruleset, anchor_match_id, anchor_mmr, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (player_id) DO UPDATE SET
    label           = excluded.label,
    ruleset         = excluded.ruleset,
    anchor_match_id = excluded.anchor_match_id,
    anchor_mmr      = excluded.anchor_mmr,
    updated_at      = excluded.updated_at
`

type UpsertTrackedPlayerParams struct {
	PlayerID      int64
	Label         string
	Ruleset       string
	AnchorMatchID int64
	AnchorMmr     int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (q *Queries) UpsertTrackedPlayer(ctx context.Context, arg UpsertTrackedPlayerParams) error {
	_, err := q.db.ExecContext(ctx, upsertTrackedPlayer,
		arg.PlayerID,
		arg.Label,
		arg.Ruleset,
		arg.AnchorMatchID,
		arg.AnchorMmr,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const updatePlayerProfile = `
UPDATE tracked_players
SET persona_name = ?, avatar = ?, rank_tier = ?, updated_at = ?
WHERE player_id = ?
`

type UpdatePlayerProfileParams struct {
	PersonaName string
	Avatar      string
	RankTier    *int64
	UpdatedAt   time.Time
	PlayerID    int64
}

func (q *Queries) UpdatePlayerProfile(ctx context.Context, arg UpdatePlayerProfileParams) error {
	_, err := q.db.ExecContext(ctx, updatePlayerProfile,
		arg.PersonaName,
		arg.Avatar,
		arg.RankTier,
		arg.UpdatedAt,
		arg.PlayerID,
	)
	return err
}

const deleteTrackedPlayer = `
DELETE FROM tracked_players
WHERE player_id = ?
`

func (q *Queries) DeleteTrackedPlayer(ctx context.Context, playerID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTrackedPlayer, playerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listRecalibrationWindows = `
SELECT id, player_id, start_match_id, end_match_id, created_at
FROM recalibration_windows
WHERE player_id = ?
ORDER BY start_match_id
`

func (q *Queries) ListRecalibrationWindows(ctx context.Context, playerID int64) ([]RecalibrationWindow, error) {
	rows, err := q.db.QueryContext(ctx, listRecalibrationWindows, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecalibrationWindow
	for rows.Next() {
		var i RecalibrationWindow
		if err := rows.Scan(
			&i.ID,
			&i.PlayerID,
			&i.StartMatchID,
			&i.EndMatchID,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertRecalibrationWindow = `
INSERT INTO recalibration_windows (id, player_id, start_match_id, end_match_id, created_at)
VALUES (?, ?, ?, ?, ?)
`

type InsertRecalibrationWindowParams struct {
	ID           string
	PlayerID     int64
	StartMatchID int64
	EndMatchID   int64
	CreatedAt    time.Time
}

func (q *Queries) InsertRecalibrationWindow(ctx context.Context, arg InsertRecalibrationWindowParams) error {
	_, err := q.db.ExecContext(ctx, insertRecalibrationWindow,
		arg.ID,
		arg.PlayerID,
		arg.StartMatchID,
		arg.EndMatchID,
		arg.CreatedAt,
	)
	return err
}

const deleteRecalibrationWindows = `
DELETE FROM recalibration_windows
WHERE player_id = ?
`

func (q *Queries) DeleteRecalibrationWindows(ctx context.Context, playerID int64) error {
	_, err := q.db.ExecContext(ctx, deleteRecalibrationWindows, playerID)
	return err
}
