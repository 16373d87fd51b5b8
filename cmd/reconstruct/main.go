// Command reconstruct rebuilds a player's rating history from an OpenDota
// match list, read from a file or fetched live.
package main

import (
	"context"
	"dota-mmr-tracker/internal/api"
	"dota-mmr-tracker/internal/config"
	"dota-mmr-tracker/internal/constants"
	"dota-mmr-tracker/internal/logger"
	"dota-mmr-tracker/internal/mmr"
	"dota-mmr-tracker/internal/reference"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
)

type options struct {
	Matches     string `long:"matches" value-name:"FILE" description:"Read an OpenDota match list from FILE ('-' for stdin)"`
	Fetch       bool   `long:"fetch" description:"Fetch the match list from OpenDota"`
	Player      int64  `long:"player" short:"p" description:"Player account id"`
	Players     string `long:"players" value-name:"FILE" description:"Tracked players file (default: $PLAYERS_FILE or players.yaml)"`
	Ruleset     string `long:"ruleset" short:"r" description:"Scoring ruleset (ranked-legacy, ranked, all-lobbies)"`
	AnchorMatch int64  `long:"anchor-match" description:"Match id whose rating is known"`
	AnchorMMR   int    `long:"anchor-mmr" description:"Rating at the anchor match"`
	Format      string `long:"format" short:"f" description:"Output format (table or json)" default:"table"`
	Verbose     bool   `long:"verbose" short:"v" description:"Enable verbose logging"`
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				return
			}
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] (--matches FILE | --fetch --player ID)"

	remaining, err := parser.ParseArgs(args)
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		return fmt.Errorf("unexpected arguments: %v", remaining)
	}
	if (opts.Matches == "") == !opts.Fetch {
		return errors.New("use exactly one of --matches or --fetch")
	}
	if opts.Fetch && opts.Player <= 0 {
		return errors.New("--fetch needs --player")
	}
	if opts.Format != "table" && opts.Format != "json" {
		return fmt.Errorf("unknown format %q", opts.Format)
	}

	level := zerolog.WarnLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	log := logger.SetLevel(level)

	cfg, err := config.Load(log)
	if err != nil {
		return err
	}

	playerCfg, err := playerConfig(opts, cfg, log)
	if err != nil {
		return err
	}

	raw, err := readMatches(ctx, opts, cfg, playerCfg, stdin)
	if err != nil {
		return err
	}

	records, err := mmr.DecodeMatches(raw)
	if err != nil {
		return err
	}
	history, err := mmr.Reconstruct(playerCfg, records)
	if err != nil {
		return err
	}

	log.Debug().
		Int64("player_id", playerCfg.PlayerID).
		Str("ruleset", playerCfg.Ruleset.Name).
		Int64("anchor_match_id", playerCfg.Anchor.MatchID).
		Int("matches", len(history)).
		Msg("history reconstructed")

	if opts.Format == "json" {
		return writeJSON(stdout, history)
	}

	ref, err := reference.Load()
	if err != nil {
		return err
	}
	return writeTable(stdout, playerCfg, ref, history)
}

// playerConfig starts from the player's entry in the players file, if any,
// and applies command line overrides on top.
func playerConfig(opts options, cfg *config.Config, log zerolog.Logger) (mmr.PlayerConfig, error) {
	entry := config.PlayerEntry{PlayerID: opts.Player}

	path := opts.Players
	if path == "" {
		path = cfg.PlayersFile
	}
	if opts.Player > 0 {
		entries, err := config.LoadPlayers(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Debug().Str("path", path).Msg("players file not found")
		case err != nil:
			return mmr.PlayerConfig{}, err
		default:
			for _, e := range entries {
				if e.PlayerID == opts.Player {
					entry = e
					log.Debug().Int64("player_id", e.PlayerID).Str("label", e.Label).Msg("using tracked player entry")
				}
			}
		}
	}

	if opts.Ruleset != "" {
		entry.Ruleset = opts.Ruleset
	}
	if opts.AnchorMatch != 0 || opts.AnchorMMR != 0 {
		entry.Anchor = &mmr.Anchor{MatchID: opts.AnchorMatch, Rating: opts.AnchorMMR}
	}
	return entry.PlayerConfig(cfg.DefaultRuleset)
}

func readMatches(ctx context.Context, opts options, cfg *config.Config, playerCfg mmr.PlayerConfig, stdin io.Reader) ([]byte, error) {
	switch {
	case opts.Fetch:
		ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()

		client := api.NewOpenDotaClient(cfg)
		raw, err := client.FetchMatches(ctx, opts.Player, playerCfg.Ruleset.RestrictToRanked)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch matches: %w", err)
		}
		return raw, nil
	case opts.Matches == "-":
		return io.ReadAll(stdin)
	default:
		return os.ReadFile(opts.Matches)
	}
}

func writeJSON(w io.Writer, history []mmr.MatchRecord) error {
	out, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func writeTable(w io.Writer, cfg mmr.PlayerConfig, ref *reference.Tables, history []mmr.MatchRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MATCH\tSTARTED\tHERO\tLOBBY\tPARTY\tOUTCOME\tDELTA\tMMR")

	for _, m := range history {
		lobby := "-"
		if m.LobbyType != nil {
			lobby = ref.LobbyName(*m.LobbyType)
		}
		party := "party"
		if m.IsSolo() {
			party = "solo"
		}
		rating := "-"
		if m.Rating != nil {
			rating = strconv.Itoa(*m.Rating)
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%+d\t%s\n",
			m.MatchID,
			time.Unix(m.StartTime, 0).UTC().Format("2006-01-02 15:04"),
			ref.HeroName(m.HeroID),
			lobby,
			party,
			mmr.Classify(m),
			mmr.Score(cfg, m),
			rating,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if s, ok := mmr.Summarize(history); ok {
		_, err := fmt.Fprintf(w, "\n%d matches, latest %d at %d mmr (%s)\n", s.Matches, s.MatchID, s.Rating, cfg.Ruleset.Name)
		return err
	}
	_, err := fmt.Fprintln(w, "no matches")
	return err
}
