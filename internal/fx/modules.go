package fx

import (
	"context"
	"database/sql"
	"dota-mmr-tracker/internal/api"
	"dota-mmr-tracker/internal/config"
	"dota-mmr-tracker/internal/constants"
	"dota-mmr-tracker/internal/database"
	"dota-mmr-tracker/internal/db"
	"dota-mmr-tracker/internal/logger"
	"dota-mmr-tracker/internal/reference"
	"dota-mmr-tracker/internal/repository"
	"dota-mmr-tracker/internal/server"
	"dota-mmr-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

// CloseDatabase is registered first so the database outlives every other hook.
func CloseDatabase(lc fx.Lifecycle, sqlDB *sql.DB, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if err := sqlDB.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
				return err
			}
			return nil
		},
	})
}

// SeedPlayers loads the players file before the board starts refreshing.
func SeedPlayers(lc fx.Lifecycle, players *service.PlayerService, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return players.Seed(ctx, cfg.PlayersFile)
		},
	})
}

// RunBoard refreshes the board in the background for the lifetime of the app.
func RunBoard(lc fx.Lifecycle, board *service.BoardService, logger zerolog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				board.Run(ctx, constants.BoardRefreshInterval)
			}()
			logger.Info().Dur("interval", constants.BoardRefreshInterval).Msg("board refresh started")
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	reference.Module,
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewMatchRepository),
	// api client
	fx.Provide(
		fx.Annotate(api.NewOpenDotaClient, fx.As(new(service.MatchSource))),
	),
	// svc
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewHistoryService),
	fx.Provide(service.NewBoardService),
	// server
	fx.Provide(server.NewTrackerServer),
	fx.Invoke(CloseDatabase),
	fx.Invoke(SeedPlayers),
	fx.Invoke(RunBoard),
)
