package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/airloom-cli/internal/analysis"
)

var (
	latFilter  filterFlags
	latN       int
	latColumns string
	latOutput  string
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Most recent observations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		f := latFilter.filter()
		n := settings().LatestRows
		if cmd.Flags().Changed("rows") {
			n = latN
		}
		rows, err := aggregator.LatestN(t, f, n)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			warnEmpty(out, f)
			return nil
		}
		columns := t.Columns()
		if latColumns != "" {
			columns = splitList(latColumns)
		}
		fr, err := analysis.ObservationsFrame(t, rows, columns)
		if err != nil {
			return err
		}
		fr.Name = "latest"
		if latOutput != "" {
			return writeOutput(out, latOutput, fr)
		}
		return printFrames(out, fr)
	},
}

func init() {
	rootCmd.AddCommand(latestCmd)
	latFilter.register(latestCmd)
	latestCmd.Flags().IntVarP(&latN, "rows", "n", 0, "number of rows (default latest_rows)")
	latestCmd.Flags().StringVar(&latColumns, "columns", "", "comma-separated columns (default all)")
	latestCmd.Flags().StringVarP(&latOutput, "output", "o", "", "write to file (.csv, .xlsx, .json, .md)")
}
