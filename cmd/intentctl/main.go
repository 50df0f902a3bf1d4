// Command intentctl scores transcripts and manages the terminology
// dictionary from the shell, using the same configuration as the api.
package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"sales-intent-go/internal/app"
	"sales-intent-go/internal/config"
	"sales-intent-go/internal/logger"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	injector do.Injector
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "intentctl",
		Short:         "Score sales call transcripts and manage terminology rules",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Configure(cfg.Environment, cfg.LogLevel)
			// stdout carries command output
			logger.SetOutput(cmd.ErrOrStderr())
			c.injector = app.New(cfg)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.injector != nil {
				app.Close(c.injector)
			}
		},
	}
	root.AddCommand(c.scoreCmd(), c.rulesCmd(), c.batchCmd())
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
