// Package cli wires Cobra subcommands to application dependencies; it is
// a thin controller with no engine logic.
package cli

import (
	"log/slog"

	"github.com/heraldbot/herald/internal/bootstrap"
	"github.com/heraldbot/herald/internal/config"
	"github.com/heraldbot/herald/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command and registers all subcommands.
func NewRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "herald",
		Short: "Herald Telegram handler runtime",
		// Fatal errors are rendered by main through the structured logger.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				logging.SetLevel(slog.LevelDebug)
			} else {
				logging.SetLevel(slog.LevelInfo)
			}

			// The config command only prints the merged config and must
			// not trigger first-run file creation.
			if cmd.Name() == "config" {
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return bootstrap.Initialize(cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to `herald start` when no subcommand is given.
			startCmd, _, err := cmd.Find([]string{"start"})
			if err != nil {
				return err
			}
			startCmd.SetContext(cmd.Context())
			return startCmd.RunE(startCmd, args)
		},
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (debug level)")

	return root
}
