package config

import (
	"dota-mmr-tracker/internal/mmr"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidPlayersFile = errors.New("invalid players file")

// PlayersFile is the on-disk list of tracked players.
type PlayersFile struct {
	Players []PlayerEntry `yaml:"players"`
}

// PlayerEntry is one tracked player. A missing anchor means the player is
// reconstructed from zero.
type PlayerEntry struct {
	PlayerID      int64                     `yaml:"player_id" json:"player_id"`
	Label         string                    `yaml:"label,omitempty" json:"label,omitempty"`
	Ruleset       string                    `yaml:"ruleset,omitempty" json:"ruleset,omitempty"`
	Anchor        *mmr.Anchor               `yaml:"anchor,omitempty" json:"anchor,omitempty"`
	Recalibration []mmr.RecalibrationWindow `yaml:"recalibration,omitempty" json:"recalibration,omitempty"`
}

// LoadPlayers reads and validates a players file.
func LoadPlayers(path string) ([]PlayerEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read players file: %w", err)
	}
	return ParsePlayers(data)
}

func ParsePlayers(data []byte) ([]PlayerEntry, error) {
	var file PlayersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlayersFile, err)
	}

	seen := make(map[int64]bool, len(file.Players))
	for i, p := range file.Players {
		if p.PlayerID <= 0 {
			return nil, fmt.Errorf("%w: entry %d has no player_id", ErrInvalidPlayersFile, i)
		}
		if seen[p.PlayerID] {
			return nil, fmt.Errorf("%w: player %d listed twice", ErrInvalidPlayersFile, p.PlayerID)
		}
		seen[p.PlayerID] = true

		if _, err := p.PlayerConfig(""); err != nil {
			return nil, fmt.Errorf("%w: player %d: %v", ErrInvalidPlayersFile, p.PlayerID, err)
		}
	}
	return file.Players, nil
}

// PlayerConfig resolves the entry into engine input. fallbackRuleset applies
// when the entry names none.
func (e PlayerEntry) PlayerConfig(fallbackRuleset string) (mmr.PlayerConfig, error) {
	cfg := mmr.DefaultPlayerConfig(e.PlayerID)

	name := e.Ruleset
	if name == "" {
		name = fallbackRuleset
	}
	if name != "" {
		rs, err := mmr.LookupRuleset(name)
		if err != nil {
			return mmr.PlayerConfig{}, err
		}
		cfg.Ruleset = rs
	}

	if e.Anchor != nil {
		cfg.Anchor = *e.Anchor
	}
	cfg.Recalibration = e.Recalibration

	if err := cfg.Validate(); err != nil {
		return mmr.PlayerConfig{}, err
	}
	return cfg, nil
}
