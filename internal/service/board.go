package service

import (
	"cmp"
	"context"
	"dota-mmr-tracker/internal/constants"
	"dota-mmr-tracker/internal/mmr"
	"dota-mmr-tracker/internal/repository"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type FetchState string

const (
	StatePending FetchState = "pending"
	StateReady   FetchState = "ready"
	StateFailed  FetchState = "failed"
)

// BoardEntry is the latest known state of one tracked player. Summary keeps
// the last good value while a refresh is pending or after it failed.
type BoardEntry struct {
	PlayerID  int64        `json:"player_id"`
	State     FetchState   `json:"state"`
	Error     string       `json:"error,omitempty"`
	Summary   *mmr.Summary `json:"latest,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// BoardService keeps the fetch state of every tracked player.
type BoardService struct {
	history *HistoryService
	players *repository.PlayerRepository
	logger  zerolog.Logger

	mu      sync.RWMutex
	entries map[int64]BoardEntry
}

func NewBoardService(history *HistoryService, players *repository.PlayerRepository, logger zerolog.Logger) *BoardService {
	return &BoardService{
		history: history,
		players: players,
		logger:  logger,
		entries: make(map[int64]BoardEntry),
	}
}

// Refresh marks every tracked player pending and reconstructs them
// concurrently. One player's failure does not stop the others.
func (b *BoardService) Refresh(ctx context.Context) error {
	players, err := b.players.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tracked players: %w", err)
	}

	b.mu.Lock()
	next := make(map[int64]BoardEntry, len(players))
	for _, p := range players {
		entry := b.entries[p.PlayerID]
		entry.PlayerID = p.PlayerID
		entry.State = StatePending
		entry.Error = ""
		next[p.PlayerID] = entry
	}
	b.entries = next
	b.mu.Unlock()

	start := time.Now()

	var g errgroup.Group
	g.SetLimit(constants.MaxConcurrentFetches)
	for _, p := range players {
		g.Go(func() error {
			h, err := b.history.GetHistory(ctx, p.PlayerID, false)
			b.Observe(p.PlayerID, h, err)
			return nil
		})
	}
	_ = g.Wait()

	ready, failed := 0, 0
	for _, e := range b.Snapshot() {
		switch e.State {
		case StateReady:
			ready++
		case StateFailed:
			failed++
		}
	}
	b.logger.Info().
		Int("players", len(players)).
		Int("ready", ready).
		Int("failed", failed).
		Dur("took", time.Since(start)).
		Msg("board refreshed")

	return nil
}

// Observe records the outcome of a history fetch.
func (b *BoardService) Observe(playerID int64, h *History, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.entries[playerID]
	entry.PlayerID = playerID
	entry.UpdatedAt = time.Now().UTC()

	if err != nil {
		entry.State = StateFailed
		entry.Error = err.Error()
		b.logger.Warn().Err(err).Int64("player_id", playerID).Msg("player refresh failed")
	} else {
		entry.State = StateReady
		entry.Error = ""
		entry.Summary = h.Summary
	}
	b.entries[playerID] = entry
}

func (b *BoardService) Forget(playerID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, playerID)
}

// Entry returns the state of a player. Players never refreshed are pending.
func (b *BoardService) Entry(playerID int64) BoardEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if entry, ok := b.entries[playerID]; ok {
		return entry
	}
	return BoardEntry{PlayerID: playerID, State: StatePending}
}

func (b *BoardService) Snapshot() []BoardEntry {
	b.mu.RLock()
	entries := make([]BoardEntry, 0, len(b.entries))
	for _, e := range b.entries {
		entries = append(entries, e)
	}
	b.mu.RUnlock()

	slices.SortFunc(entries, func(x, y BoardEntry) int {
		return cmp.Compare(x.PlayerID, y.PlayerID)
	})
	return entries
}

// Run refreshes the board immediately and then on every tick until ctx ends.
func (b *BoardService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := b.Refresh(ctx); err != nil {
			b.logger.Error().Err(err).Msg("board refresh failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
