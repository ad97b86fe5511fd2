package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/airloom-cli/internal/analysis"
	"github.com/KaramelBytes/airloom-cli/internal/chart"
)

var (
	trendFilter  filterFlags
	trendColumns string
	trendChart   string
	trendOutput  string
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Monthly means per column, optionally charted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		f := trendFilter.filter()
		columns := analysis.DefaultMetricColumns
		if trendColumns != "" {
			columns = splitList(trendColumns)
		}
		s, err := aggregator.MonthlyMeans(t, columns, f)
		if err != nil {
			return err
		}
		if len(s.Buckets) == 0 {
			warnEmpty(out, f)
			return nil
		}
		if trendChart != "" {
			p, err := chart.Line(s, fmt.Sprintf("Monthly means (%s)", f))
			if err != nil {
				return err
			}
			if err := chart.Save(p, trendChart); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote chart to %s\n", trendChart)
		}
		if trendOutput != "" {
			return writeOutput(out, trendOutput, s.Frame())
		}
		return printFrames(out, s.Frame())
	},
}

func init() {
	rootCmd.AddCommand(trendCmd)
	trendFilter.register(trendCmd)
	trendCmd.Flags().StringVar(&trendColumns, "columns", "", "comma-separated columns (default PM2.5,PM10,TEMP,WSPM)")
	trendCmd.Flags().StringVar(&trendChart, "chart", "", "write a line chart (.png, .svg, .pdf)")
	trendCmd.Flags().StringVarP(&trendOutput, "output", "o", "", "write the table to file (.csv, .xlsx, .json, .md)")
}
