package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/notargets/qdata/config"
	"github.com/notargets/qdata/quadrature"
)

// LayoutOptions holds flags for the layout command
type LayoutOptions struct {
	*RootOptions
	Width int
}

// NewLayoutCommand creates the layout command
func NewLayoutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LayoutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "layout <config>",
		Short: "Report the quadrature layout of every partition",
		Long: `Build the mesh described by a run configuration, split it into the
configured partitions and print the quadrature point layout of each one,
with the storage a field of the given width needs.

Example:
  qdata layout run.yaml
  qdata layout --width 6 run.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&opts.Width, "width", "w", 1, "float64 words per stored value")

	return cmd
}

func runLayout(opts *LayoutOptions, path string, out io.Writer) error {
	if opts.Width < 1 {
		return fmt.Errorf("width must be positive, got %d", opts.Width)
	}
	run, err := config.Load(path)
	if err != nil {
		return err
	}
	builder, err := run.Builder()
	if err != nil {
		return err
	}
	d, err := run.Decompose()
	if err != nil {
		return fmt.Errorf("decompose mesh: %w", err)
	}
	slog.Debug("mesh decomposed", "elements", d.Global.NumElements(), "partitions", d.NumPartitions())

	st := d.Stats()
	p := message.NewPrinter(language.English)
	p.Fprintf(out, "mesh: %d elements in %d partitions (%s), imbalance %.2f\n",
		d.Global.NumElements(), st.NumPartitions, builder.Strategy, st.Imbalance)
	p.Fprintf(out, "order %d, width %d\n", run.Order, opts.Width)

	for rank := 0; rank < d.NumPartitions(); rank++ {
		local, err := d.Local(rank)
		if err != nil {
			return err
		}
		layout, err := quadrature.NewLayout(local, run.Order)
		if err != nil {
			return fmt.Errorf("rank %d: %w", rank, err)
		}
		fmt.Fprintf(out, "\nrank %d\n", rank)
		fmt.Fprint(out, layout)
		p.Fprintf(out, "  storage: %d bytes\n", layout.TotalPoints()*opts.Width*8)
	}
	return nil
}
