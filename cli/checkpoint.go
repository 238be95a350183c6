package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notargets/qdata/checkpoint"
)

// CheckpointOptions holds flags for the checkpoint subcommands
type CheckpointOptions struct {
	*RootOptions
	Run string
}

// NewCheckpointCommand creates the checkpoint command and its subcommands
func NewCheckpointCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckpointOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Read checkpoint databases",
	}

	list := &cobra.Command{
		Use:   "list <db>",
		Short: "List saved records of every run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckpointList(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	}

	dump := &cobra.Command{
		Use:   "dump <db> <field> <cycle>",
		Short: "Print the stored words of one record, one point per line",
		Long: `Print a saved record in storage order: one line per quadrature point,
element-major and point-minor, holding the width float64 words of its value.

Example:
  qdata checkpoint dump run.db stress 100
  qdata checkpoint dump --run 0190f3c2-... run.db stress 100`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cycle, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid cycle %q: %w", args[2], err)
			}
			return runCheckpointDump(cmd.Context(), opts, args[0], args[1], cycle, cmd.OutOrStdout())
		},
	}
	dump.Flags().StringVar(&opts.Run, "run", "", "run id (default: latest run)")

	cmd.AddCommand(list, dump)
	return cmd
}

func openCheckpoint(path string) (*checkpoint.Store, func(), error) {
	st, err := checkpoint.Open(path)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}
	return st, closeFn, nil
}

func runCheckpointList(ctx context.Context, path string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, closeFn, err := openCheckpoint(path)
	if err != nil {
		return err
	}
	defer closeFn()

	recs, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "no checkpoint records")
		return nil
	}
	run := ""
	for _, r := range recs {
		if r.RunID != run {
			if run != "" {
				fmt.Fprintln(out)
			}
			run = r.RunID
			fmt.Fprintf(out, "run %s\n", run)
			fmt.Fprintf(out, "  %-12s %6s %12s %8s %6s\n", "FIELD", "CYCLE", "TIME", "POINTS", "WIDTH")
		}
		fmt.Fprintf(out, "  %-12s %6d %12g %8d %6d\n", r.Field, r.Cycle, r.Time, r.Points, r.Width)
	}
	return nil
}

func runCheckpointDump(ctx context.Context, opts *CheckpointOptions, path, field string, cycle int, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, closeFn, err := openCheckpoint(path)
	if err != nil {
		return err
	}
	defer closeFn()

	run := opts.Run
	if run == "" {
		if run, err = st.LatestRun(ctx); err != nil {
			return err
		}
	}
	if err := st.Resume(ctx, run); err != nil {
		return err
	}
	rec, words, err := st.Fetch(ctx, field, cycle)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "run %s\n", rec.RunID)
	fmt.Fprintf(out, "field %s cycle %d time %g\n", rec.Field, rec.Cycle, rec.Time)
	fmt.Fprintf(out, "%d elements, %d points, width %d\n", rec.Elements, rec.Points, rec.Width)
	vals := make([]string, rec.Width)
	for i := 0; i < rec.Points; i++ {
		for j := range vals {
			vals[j] = strconv.FormatFloat(words[i*rec.Width+j], 'g', -1, 64)
		}
		fmt.Fprintf(out, "%6d  %s\n", i, strings.Join(vals, " "))
	}
	return nil
}
