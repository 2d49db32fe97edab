// charades: daily picture-guessing game server and operator CLI.
//
//	charades serve          run the HTTP API
//	charades play           play today's round in the terminal
//	charades rounds check   validate upcoming rounds and their images
//	charades rounds cleanup delete future rounds (dry-run by default)
//	charades rounds embed   backfill missing answer embeddings
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/robalobadob/charades/internal/config"
)

const releaseVersion = "1.0.0"

func main() {
	_ = godotenv.Load()
	cfg := &config.Config{}
	if err := newRootCmd(cfg).Execute(); err != nil {
		log.Error().Err(err).Msg("charades")
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "charades",
		Short:         "Daily picture-guessing game: API server and round tooling.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cfg)
			return cfg.Validate()
		},
	}
	config.Bind(cmd.PersistentFlags(), cfg)

	cmd.AddCommand(newServeCmd(cfg), newPlayCmd(cfg), newRoundsCmd(cfg))
	return cmd
}

// setupLogging applies LOG_LEVEL and uses the console writer outside
// production.
func setupLogging(cfg *config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}
