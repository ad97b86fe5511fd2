package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/airloom-cli/internal/chart"
	"github.com/KaramelBytes/airloom-cli/internal/dataset"
)

var (
	histFilter filterFlags
	histColumn string
	histBins   int
	histChart  string
	histOutput string
)

var histCmd = &cobra.Command{
	Use:   "hist",
	Short: "Distribution of one column in equal-width bins",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		f := histFilter.filter()
		bins := settings().HistBins
		if cmd.Flags().Changed("bins") {
			bins = histBins
		}
		h, err := aggregator.Histogram(t, histColumn, f, bins)
		if err != nil {
			return err
		}
		if h.Total() == 0 {
			if h.Missing > 0 {
				fmt.Fprintf(out, "⚠ Column %s has no values for %s (%d rows, all missing)\n", histColumn, f, h.Missing)
				return nil
			}
			warnEmpty(out, f)
			return nil
		}
		if histChart != "" {
			p, err := chart.Histogram(h, fmt.Sprintf("%s distribution (%s)", histColumn, f))
			if err != nil {
				return err
			}
			if err := chart.Save(p, histChart); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote chart to %s\n", histChart)
		}
		if histOutput != "" {
			return writeOutput(out, histOutput, h.Frame())
		}
		fmt.Fprintf(out, "Values: %d, missing: %d\n", h.Total(), h.Missing)
		return printFrames(out, h.Frame())
	},
}

func init() {
	rootCmd.AddCommand(histCmd)
	histFilter.register(histCmd)
	histCmd.Flags().StringVar(&histColumn, "column", dataset.ColPM25, "column to bin")
	histCmd.Flags().IntVar(&histBins, "bins", 0, "number of bins (default hist_bins)")
	histCmd.Flags().StringVar(&histChart, "chart", "", "write a histogram chart (.png, .svg, .pdf)")
	histCmd.Flags().StringVarP(&histOutput, "output", "o", "", "write bins to file (.csv, .xlsx, .json, .md)")
}
