package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"asift/internal/report"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "report FILE",
		Short: "Summarise a saved run report",
		Args:  cobra.ExactArgs(1),
		RunE:  runReport,
	})
}

func runReport(cmd *cobra.Command, args []string) error {
	path := args[0]
	rep, err := report.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", rep.RunID)
	fmt.Fprintf(w, "image\t%s (%dx%d)\n", rep.GetImagePath(path), rep.Width, rep.Height)
	fmt.Fprintf(w, "simulations\t%d (%d failed)\n", len(rep.Simulations), rep.Summary.Failures)
	fmt.Fprintf(w, "keypoints\t%d (gain %.2f)\n", rep.Summary.Total, rep.Summary.Gain)

	names := make([]string, 0, len(rep.Outputs))
	for name := range rep.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%s\n", name, rep.GetOutputPath(path, name))
	}
	return w.Flush()
}
