package main

import (
	"bytes"
	"context"
	"dota-mmr-tracker/internal/mmr"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioMatches = `[
  {"match_id": 101, "player_slot": 128, "radiant_win": true, "start_time": 1600000200, "lobby_type": 7, "party_size": 2, "leaver_status": 0, "hero_id": 14},
  {"match_id": 99, "player_slot": 0, "radiant_win": false, "start_time": 1600000000, "lobby_type": 7, "party_size": 1, "leaver_status": 0, "hero_id": 1},
  {"match_id": 100, "player_slot": 0, "radiant_win": true, "start_time": 1600000100, "lobby_type": 7, "party_size": 1, "leaver_status": 0, "hero_id": 74, "item_0": 63}
]`

// workdir moves into an empty directory so no stray .env or players.yaml is
// picked up, and writes the scenario match list there.
func workdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile("matches.json", []byte(scenarioMatches), 0o600))
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func decodeRatings(t *testing.T, out string) map[int64]int {
	t.Helper()
	matches, err := mmr.DecodeMatches([]byte(out))
	require.NoError(t, err)

	ratings := map[int64]int{}
	for _, m := range matches {
		require.NotNil(t, m.Rating)
		ratings[m.MatchID] = *m.Rating
	}
	return ratings
}

func TestRun_JSON(t *testing.T) {
	workdir(t)

	out, err := runCLI(t, "", "--matches", "matches.json", "--format", "json",
		"--ruleset", mmr.RulesetRankedLegacy, "--anchor-match", "100", "--anchor-mmr", "1000")
	require.NoError(t, err)

	assert.Equal(t, map[int64]int{99: 970, 100: 1000, 101: 980}, decodeRatings(t, out))
	assert.Contains(t, out, `"item_0"`)
}

func TestRun_Stdin(t *testing.T) {
	workdir(t)

	out, err := runCLI(t, scenarioMatches, "--matches", "-", "-f", "json", "-r", mmr.RulesetRankedLegacy)
	require.NoError(t, err)

	// unanchored: every match lies after the anchor and the walk starts at zero
	assert.Equal(t, map[int64]int{99: 0, 100: 30, 101: 10}, decodeRatings(t, out))
}

func TestRun_Table(t *testing.T) {
	workdir(t)

	out, err := runCLI(t, "", "--matches", "matches.json",
		"-r", mmr.RulesetRankedLegacy, "--anchor-match", "100", "--anchor-mmr", "1000")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.True(t, strings.HasPrefix(lines[0], "MATCH"))
	assert.Contains(t, lines[1], "99")
	assert.Contains(t, lines[1], "Anti-Mage")
	assert.Contains(t, lines[1], "-30")
	assert.Contains(t, lines[3], "Pudge")
	assert.Contains(t, lines[3], "party")
	assert.Contains(t, out, "3 matches, latest 101 at 980 mmr (ranked-legacy)")
}

func TestRun_PlayersFile(t *testing.T) {
	dir := workdir(t)

	players := "players:\n  - player_id: 431892272\n    ruleset: ranked-legacy\n    anchor: {match_id: 100, mmr: 1000}\n"
	path := filepath.Join(dir, "tracked.yaml")
	require.NoError(t, os.WriteFile(path, []byte(players), 0o600))

	out, err := runCLI(t, "", "--matches", "matches.json", "-f", "json", "-p", "431892272", "--players", path)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{99: 970, 100: 1000, 101: 980}, decodeRatings(t, out))

	// command line overrides win over the file
	out, err = runCLI(t, "", "--matches", "matches.json", "-f", "json", "-p", "431892272", "--players", path,
		"--anchor-match", "101", "--anchor-mmr", "2000")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{99: 1990, 100: 2020, 101: 2000}, decodeRatings(t, out))
}

func TestRun_Fetch(t *testing.T) {
	workdir(t)

	var gotPath, gotLobby string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLobby = r.URL.Query().Get("lobby_type")
		_, _ = w.Write([]byte(scenarioMatches))
	}))
	defer srv.Close()
	t.Setenv("OPENDOTA_BASE_URL", srv.URL)

	out, err := runCLI(t, "", "--fetch", "-p", "42", "-f", "json",
		"-r", mmr.RulesetRankedLegacy, "--anchor-match", "100", "--anchor-mmr", "1000")
	require.NoError(t, err)

	assert.Equal(t, "/players/42/matches", gotPath)
	assert.Equal(t, "7", gotLobby)
	assert.Equal(t, map[int64]int{99: 970, 100: 1000, 101: 980}, decodeRatings(t, out))
}

func TestRun_Errors(t *testing.T) {
	workdir(t)
	require.NoError(t, os.WriteFile("dupes.json", []byte(`[
	  {"match_id": 5, "player_slot": 0, "radiant_win": true, "start_time": 1},
	  {"match_id": 5, "player_slot": 0, "radiant_win": true, "start_time": 1}
	]`), 0o600))

	testcases := map[string]struct {
		args []string
		want error
	}{
		"no source":        {args: []string{}},
		"both sources":     {args: []string{"--matches", "matches.json", "--fetch", "-p", "1"}},
		"fetch without id": {args: []string{"--fetch"}},
		"bad format":       {args: []string{"--matches", "matches.json", "-f", "xml"}},
		"missing file":     {args: []string{"--matches", "nope.json"}, want: os.ErrNotExist},
		"bad ruleset":      {args: []string{"--matches", "matches.json", "-r", "turbo"}, want: mmr.ErrInvalidRuleset},
		"duplicates":       {args: []string{"--matches", "dupes.json"}, want: mmr.ErrDuplicateMatchID},
		"extra args":       {args: []string{"--matches", "matches.json", "surprise"}},
	}
	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			_, err := runCLI(t, "", tc.args...)
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}
