package main

import (
	"fmt"
	"text/tabwriter"

	"asift/internal/affine"

	"github.com/spf13/cobra"
)

var (
	simulationsCmd = &cobra.Command{
		Use:   "simulations",
		Short: "List the simulated viewpoints for a tilt count",
		Args:  cobra.NoArgs,
		RunE:  runSimulations,
	}
	simWidth, simHeight int
)

func init() {
	simulationsCmd.Flags().IntVarP(&flags.Tilts, "tilts", "t", 0, "number of tilt levels (default 5)")
	simulationsCmd.Flags().IntVar(&simWidth, "width", 0, "image width, to show simulated sizes")
	simulationsCmd.Flags().IntVar(&simHeight, "height", 0, "image height, to show simulated sizes")
	rootCmd.AddCommand(simulationsCmd)
}

func runSimulations(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	order, err := affine.Generate(cfg.Tilts)
	if err != nil {
		return err
	}

	sized := simWidth > 0 && simHeight > 0
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if sized {
		fmt.Fprintln(w, "INDEX\tTILT\tTHETA\tSIZE\tSIGMA")
	} else {
		fmt.Fprintln(w, "INDEX\tTILT\tTHETA")
	}
	for i, p := range order.Params() {
		if !sized {
			fmt.Fprintf(w, "%d\t%.4f\t%.2f\n", i, p.Tilt, p.Theta)
			continue
		}
		g, err := affine.Simulate(p, simWidth, simHeight)
		if err != nil {
			fmt.Fprintf(w, "%d\t%.4f\t%.2f\t-\t%v\n", i, p.Tilt, p.Theta, err)
			continue
		}
		fmt.Fprintf(w, "%d\t%.4f\t%.2f\t%dx%d\t%.3f\n", i, p.Tilt, p.Theta, g.Size.X, g.Size.Y, g.Sigma)
	}
	fmt.Fprintf(w, "\n%d simulations\n", order.Len())
	return w.Flush()
}
