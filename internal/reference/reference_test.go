package reference

import (
	"dota-mmr-tracker/internal/mmr"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	again, err := Load()
	require.NoError(t, err)
	assert.Same(t, tables, again, "tables are decoded once")
}

func TestTables_Names(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Invoker", tables.HeroName(74))
	assert.Equal(t, "Anti-Mage", tables.HeroName(1))
	assert.Equal(t, "Hero 24", tables.HeroName(24))

	assert.Equal(t, "ranked", tables.LobbyName(7))
	assert.Equal(t, "normal", tables.LobbyName(0))
	assert.Equal(t, "unknown", tables.LobbyName(99))

	assert.Equal(t, "all_draft", tables.GameModeName(22))
	assert.Equal(t, "turbo", tables.GameModeName(23))
	assert.Equal(t, "unknown", tables.GameModeName(-1))
}

func TestTables_RankedLobbyMatchesEngine(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ranked", tables.LobbyName(mmr.LobbyTypeRanked))
}
