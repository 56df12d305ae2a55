// Package main implements the toolocean CLI, which repairs malformed JSON
// pasted from chat tools, logs and web pages.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/toolocean/internal/app"
)

// Exit codes.
const (
	exitOK            = 0
	exitError         = 1
	exitUnrecoverable = 2
	exitSchema        = 3
)

type rootOptions struct {
	verbose    bool
	configPath string
	envFiles   []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "toolocean",
		Short:         "Repair malformed JSON",
		Long:          "toolocean turns almost-JSON (comments, unquoted keys, single quotes, trailing commas, missing brackets) into valid, pretty-printed JSON and reports which repairs were applied.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.LoadEnvFiles(opts.envFiles...); err != nil {
				return err
			}
			if opts.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML, JSON or TOML config file")
	root.PersistentFlags().StringArrayVar(&opts.envFiles, "env-file", []string{".env"}, "Dotenv file to load (repeatable; later files win)")

	root.AddCommand(newRepairCmd(opts), newRulesCmd(opts), newVersionCmd())
	return root
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, app.ErrUnrecoverable):
		return exitUnrecoverable
	case errors.Is(err, app.ErrSchemaMismatch):
		return exitSchema
	default:
		return exitError
	}
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	os.Exit(exitCode(err))
}
