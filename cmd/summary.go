package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/airloom-cli/internal/analysis"
)

var (
	sumFilter  filterFlags
	sumLatest  int
	sumColumns string
	sumOutput  string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Key metrics: mean of monthly means plus the latest observations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		f := sumFilter.filter()
		if t.Filter(f).Len() == 0 {
			warnEmpty(out, f)
			return nil
		}
		latest := settings().LatestRows
		if cmd.Flags().Changed("latest") {
			latest = sumLatest
		}
		columns := analysis.DefaultMetricColumns
		if sumColumns != "" {
			columns = splitList(sumColumns)
		}
		s, err := aggregator.Summarize(t, columns, f, latest)
		if err != nil {
			return err
		}
		if sumOutput == "" {
			_, err := out.Write([]byte(s.Markdown()))
			return err
		}
		switch strings.ToLower(filepath.Ext(sumOutput)) {
		case ".md", ".markdown":
			return writeText(out, sumOutput, s.Markdown())
		}
		return writeOutput(out, sumOutput, s.MetricsFrame(), s.Latest)
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	sumFilter.register(summaryCmd)
	summaryCmd.Flags().IntVarP(&sumLatest, "latest", "n", 0, "number of latest rows to show (default latest_rows)")
	summaryCmd.Flags().StringVar(&sumColumns, "columns", "", "comma-separated columns (default PM2.5,PM10,TEMP,WSPM)")
	summaryCmd.Flags().StringVarP(&sumOutput, "output", "o", "", "write to file (.md, .csv, .xlsx, .json)")
}
