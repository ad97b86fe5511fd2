package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/airloom-cli/internal/analysis"
)

var (
	repSampleRows int
	repNoCorr     bool
	repTopPairs   int
	repOutput     string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Markdown profile of the dataset: schema, completeness, correlations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		opt := analysis.DefaultReportOptions()
		if cmd.Flags().Changed("sample-rows") {
			if repSampleRows < 0 {
				return fmt.Errorf("invalid --sample-rows: %d", repSampleRows)
			}
			opt.SampleRows = repSampleRows
		}
		opt.Correlations = !repNoCorr
		if repTopPairs > 0 {
			opt.TopPairs = repTopPairs
		}
		rep, err := aggregator.Profile(t, opt)
		if err != nil {
			return err
		}
		md := rep.Markdown()
		if repOutput != "" {
			return writeText(out, repOutput, md)
		}
		_, err = fmt.Fprint(out, md)
		return err
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().IntVar(&repSampleRows, "sample-rows", 5, "latest rows to include (0 disables)")
	reportCmd.Flags().BoolVar(&repNoCorr, "no-corr", false, "skip the correlations section")
	reportCmd.Flags().IntVar(&repTopPairs, "top", 0, "correlation pairs to list (default 10)")
	reportCmd.Flags().StringVarP(&repOutput, "output", "o", "", "write the report to a Markdown file")
}
