package db

import (
	"context"
	"time"
)

const getMatchList = `
SELECT player_id, ranked_only, payload, match_count, fetched_at
FROM match_lists
WHERE player_id = ? AND ranked_only = ?
`

type GetMatchListParams struct {
	PlayerID   int64
	RankedOnly bool
}

func (q *Queries) GetMatchList(ctx context.Context, arg GetMatchListParams) (MatchList, error) {
	row := q.db.QueryRowContext(ctx, getMatchList, arg.PlayerID, arg.RankedOnly)
	var i MatchList
	err := row.Scan(
		&i.PlayerID,
		&i.RankedOnly,
		&i.Payload,
		&i.MatchCount,
		&i.FetchedAt,
	)
	return i, err
}

const getMatchListFetchedAt = `
SELECT fetched_at
FROM match_lists
WHERE player_id = ? AND ranked_only = ?
`

type GetMatchListFetchedAtParams struct {
	PlayerID   int64
	RankedOnly bool
}

func (q *Queries) GetMatchListFetchedAt(ctx context.Context, arg GetMatchListFetchedAtParams) (time.Time, error) {
	row := q.db.QueryRowContext(ctx, getMatchListFetchedAt, arg.PlayerID, arg.RankedOnly)
	var fetchedAt time.Time
	err := row.Scan(&fetchedAt)
	return fetchedAt, err
}

const upsertMatchList = `
INSERT INTO match_lists (player_id, ranked_only, payload, match_count, fetched_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (player_id, ranked_only) DO UPDATE SET
    payload     = excluded.payload,
    match_count = excluded.match_count,
    fetched_at  = excluded.fetched_at
`

type UpsertMatchListParams struct {
	PlayerID   int64
	RankedOnly bool
	Payload    []byte
	MatchCount int64
	FetchedAt  time.Time
}

func (q *Queries) UpsertMatchList(ctx context.Context, arg UpsertMatchListParams) error {
	_, err := q.db.ExecContext(ctx, upsertMatchList,
		arg.PlayerID,
		arg.RankedOnly,
		arg.Payload,
		arg.MatchCount,
		arg.FetchedAt,
	)
	return err
}

const deleteMatchLists = `
DELETE FROM match_lists
WHERE player_id = ?
`

func (q *Queries) DeleteMatchLists(ctx context.Context, playerID int64) error {
	_, err := q.db.ExecContext(ctx, deleteMatchLists, playerID)
	return err
}
