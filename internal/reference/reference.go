// Package reference holds the static Dota 2 lookup tables used to label
// matches. The tables are decoded once from embedded data and are read-only
// afterwards.
package reference

import (
	"embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"go.uber.org/fx"
)

//go:embed data/*.json
var dataFS embed.FS

type Hero struct {
	ID            int    `json:"id"`
	LocalizedName string `json:"localized_name"`
}

type code struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Tables maps the small integer codes of a match record to display names.
type Tables struct {
	heroes    map[int]Hero
	lobbies   map[int]string
	gameModes map[int]string
}

var load = sync.OnceValues(func() (*Tables, error) {
	var heroes []Hero
	if err := decode("data/heroes.json", &heroes); err != nil {
		return nil, err
	}
	var lobbies, modes []code
	if err := decode("data/lobby_types.json", &lobbies); err != nil {
		return nil, err
	}
	if err := decode("data/game_modes.json", &modes); err != nil {
		return nil, err
	}

	t := &Tables{
		heroes:    make(map[int]Hero, len(heroes)),
		lobbies:   make(map[int]string, len(lobbies)),
		gameModes: make(map[int]string, len(modes)),
	}
	for _, h := range heroes {
		t.heroes[h.ID] = h
	}
	for _, l := range lobbies {
		t.lobbies[l.ID] = l.Name
	}
	for _, m := range modes {
		t.gameModes[m.ID] = m.Name
	}
	return t, nil
})

// Load returns the shared tables, decoding them on first use.
func Load() (*Tables, error) {
	return load()
}

func decode(path string, v any) error {
	data, err := dataFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// HeroName returns the localized hero name, or "Hero <id>" for unknown ids.
func (t *Tables) HeroName(id int) string {
	if h, ok := t.heroes[id]; ok {
		return h.LocalizedName
	}
	return "Hero " + strconv.Itoa(id)
}

// LobbyName returns a readable lobby type label such as "ranked".
func (t *Tables) LobbyName(id int) string {
	if name, ok := t.lobbies[id]; ok {
		return strings.TrimPrefix(name, "lobby_type_")
	}
	return "unknown"
}

// GameModeName returns a readable game mode label such as "all_pick".
func (t *Tables) GameModeName(id int) string {
	if name, ok := t.gameModes[id]; ok {
		return strings.TrimPrefix(name, "game_mode_")
	}
	return "unknown"
}

var Module = fx.Provide(Load)
