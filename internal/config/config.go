package config

import (
	"dota-mmr-tracker/internal/mmr"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	OpenDotaAPIKey  string
	OpenDotaBaseURL string
	DBPath          string
	ServerPort      string
	LogLevel        string
	PlayersFile     string
	DefaultRuleset  string
	CacheTTL        time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		OpenDotaAPIKey:  getEnv("OPENDOTA_API_KEY", ""),
		OpenDotaBaseURL: getEnv("OPENDOTA_BASE_URL", "https://api.opendota.com/api"),
		DBPath:          getEnv("DB_PATH", "dota-mmr.db"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		PlayersFile:     getEnv("PLAYERS_FILE", "players.yaml"),
		DefaultRuleset:  getEnv("DEFAULT_RULESET", mmr.DefaultRuleset),
		CacheTTL:        5 * time.Minute,
	}

	if ttl := os.Getenv("CACHE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_TTL %q: %w", ttl, err)
		}
		cfg.CacheTTL = d
	}

	if _, err := mmr.LookupRuleset(cfg.DefaultRuleset); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_RULESET: %w", err)
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("players_file", cfg.PlayersFile).
		Str("default_ruleset", cfg.DefaultRuleset).
		Bool("api_key_set", cfg.OpenDotaAPIKey != "").
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
