package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"battlecar/game"
	blog "battlecar/log"
	"battlecar/store"
	"battlecar/world"
)

var simFlags struct {
	mode     string
	seed     uint64
	matches  int
	maxTicks int
	layout   string
	db       string
	asJSON   bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run headless autopilot matches and print a summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runSimulate(ctx, cmd.OutOrStdout())
	},
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simFlags.mode, "mode", "both", "hider, chaser or both")
	f.Uint64Var(&simFlags.seed, "seed", 1, "seed of the first match; match i uses seed+i")
	f.IntVar(&simFlags.matches, "matches", 10, "matches per mode")
	f.IntVar(&simFlags.maxTicks, "max-ticks", 3*60*game.DefaultTickHz, "tick limit per match; the hider wins at the limit")
	f.StringVar(&simFlags.layout, "layout", "", "YAML arena layout instead of random obstacles")
	f.StringVar(&simFlags.db, "db", "", "record results into this SQLite file")
	f.BoolVar(&simFlags.asJSON, "json", false, "print one JSON result per line")
}

type tally struct {
	matches, chaser, hider, ticks int
}

func runSimulate(ctx context.Context, out io.Writer) error {
	if simFlags.matches <= 0 {
		return fmt.Errorf("--matches must be > 0")
	}
	if simFlags.maxTicks <= 0 {
		return fmt.Errorf("--max-ticks must be > 0")
	}
	var modes []game.Mode
	if simFlags.mode == "both" {
		modes = []game.Mode{game.ModeHider, game.ModeChaser}
	} else {
		m, err := game.ParseMode(simFlags.mode)
		if err != nil {
			return err
		}
		modes = []game.Mode{m}
	}

	var layout *world.Layout
	if simFlags.layout != "" {
		l, err := world.LoadLayout(simFlags.layout)
		if err != nil {
			return err
		}
		layout = l
	}

	var st *store.Store
	if simFlags.db != "" {
		s, err := store.Open(simFlags.db, store.DefaultConfig())
		if err != nil {
			return err
		}
		defer s.Close()
		st = s
	}
	logger := blog.WithComponent("simulate")

	tallies := make(map[game.Mode]*tally, len(modes))
	enc := json.NewEncoder(out)
	for _, mode := range modes {
		t := &tally{}
		tallies[mode] = t
		for i := 0; i < simFlags.matches; i++ {
			m, err := game.Setup(game.Options{
				Mode:     mode,
				Seed:     simFlags.seed + uint64(i),
				Layout:   layout,
				MaxTicks: simFlags.maxTicks,
			})
			if err != nil {
				return err
			}
			res, err := game.Play(ctx, m, game.NewAutopilot(m))
			if err != nil {
				return err
			}
			t.matches++
			t.ticks += res.Ticks
			if res.Winner == game.RoleChaser {
				t.chaser++
			} else {
				t.hider++
			}

			rec := store.NewMatch("", res, time.Now().UTC())
			if st != nil {
				if err := st.Record(ctx, rec); err != nil {
					return err
				}
			}
			if simFlags.asJSON {
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			logger.Debug().Str(blog.FieldMode, string(mode)).Uint64(blog.FieldSeed, res.Seed).
				Str(blog.FieldWinner, string(res.Winner)).Int(blog.FieldTicks, res.Ticks).Msg("match done")
		}
	}
	if simFlags.asJSON {
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODE\tMATCHES\tCHASER WINS\tHIDER WINS\tAVG TICKS")
	for _, mode := range modes {
		t := tallies[mode]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.1f\n", mode, t.matches, t.chaser, t.hider, float64(t.ticks)/float64(t.matches))
	}
	return tw.Flush()
}
