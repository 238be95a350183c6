// Package cli implements the qdata command line.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the qdata CLI
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "qdata",
		Short: "Inspect quadrature data layouts and checkpoints",
		Long: `qdata reports how per-quadrature-point data is laid out across mesh
partitions and reads the checkpoint databases written by simulations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			})
			slog.SetDefault(slog.New(handler))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewLayoutCommand(opts))
	cmd.AddCommand(NewCheckpointCommand(opts))

	return cmd
}
