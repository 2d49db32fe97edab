package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/charades/internal/config"
	"github.com/robalobadob/charades/internal/tui"
)

func newPlayCmd(cfg *config.Config) *cobra.Command {
	var player string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play today's round in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// the console writer would draw over the UI
			if zerolog.GlobalLevel() > zerolog.DebugLevel {
				log.Logger = zerolog.New(io.Discard)
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())
			return tui.Run(a.play, player)
		},
	}
	cmd.Flags().StringVar(&player, "player", "terminal", "player id the round is saved under")
	return cmd
}
