package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"battlecar/config"
	"battlecar/game"
	blog "battlecar/log"
	"battlecar/network"
	"battlecar/room"
	"battlecar/store"
	"battlecar/world"
)

var serveFlags struct {
	addr    string
	envFile string
	noDB    bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the match server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(serveFlags.envFile)
		if err != nil {
			return err
		}
		if serveFlags.addr != "" {
			cfg.Addr = serveFlags.addr
		}
		blog.Configure(blog.Config{Level: cfg.LogLevel})
		logger := blog.WithComponent("serve")

		opts := room.Options{
			TickHz:    cfg.TickHz,
			Obstacles: cfg.Obstacles,
			MaxTicks:  cfg.MaxTicks,
		}
		if cfg.Obstacles == 0 {
			// an explicit 0 from the environment means an empty arena
			opts.Obstacles = game.NoObstacles
		}
		if cfg.LayoutPath != "" {
			l, err := world.LoadLayout(cfg.LayoutPath)
			if err != nil {
				return err
			}
			opts.Layout = l
		}

		var history network.History
		if !serveFlags.noDB && cfg.DBPath != "" {
			st, err := store.Open(cfg.DBPath, store.DefaultConfig())
			if err != nil {
				return fmt.Errorf("open match store: %w", err)
			}
			defer st.Close()
			opts.Recorder = st
			history = st
		}

		rooms := room.NewManager(opts)
		defer rooms.StopAll()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := network.NewServer(rooms, history, network.Options{
			AllowOrigins:  cfg.AllowOrigins,
			RoomCreateRPM: cfg.RoomCreateRPM,
			SimulateRPM:   cfg.SimulateRPM,
		})
		logger.Info().Str("addr", cfg.Addr).Int("tick_hz", cfg.TickHz).Str("db", cfg.DBPath).Msg("starting")
		if err := srv.ListenAndServe(ctx, cfg.Addr, cfg.ShutdownGrace); err != nil {
			return err
		}
		logger.Info().Msg("stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "listen address (overrides BATTLECAR_ADDR)")
	serveCmd.Flags().StringVar(&serveFlags.envFile, "env-file", ".env", "dotenv file to load")
	serveCmd.Flags().BoolVar(&serveFlags.noDB, "no-db", false, "do not record match history")
}
