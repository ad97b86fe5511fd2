package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	corrFilter  filterFlags
	corrColumns string
	corrTop     int
	corrOutput  string
)

var corrCmd = &cobra.Command{
	Use:   "corr",
	Short: "Pairwise Pearson correlation matrix",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		f := corrFilter.filter()
		if t.Filter(f).Len() == 0 {
			warnEmpty(out, f)
			return nil
		}
		columns := t.Columns()
		if corrColumns != "" {
			columns = splitList(corrColumns)
		}
		m, err := aggregator.CorrelationMatrix(t, columns, f)
		if err != nil {
			return err
		}
		if corrOutput != "" {
			return writeOutput(out, corrOutput, m.Frame())
		}
		if err := printFrames(out, m.Frame()); err != nil {
			return err
		}
		if corrTop > 0 {
			if pairs := m.TopPairs(corrTop); len(pairs) > 0 {
				fmt.Fprintln(out, "\n[STRONGEST PAIRS]")
				for _, p := range pairs {
					fmt.Fprintf(out, "- %s ~ %s: r=%.3f (n=%d)\n", p.A, p.B, p.R, p.N)
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(corrCmd)
	corrFilter.register(corrCmd)
	corrCmd.Flags().StringVar(&corrColumns, "columns", "", "comma-separated columns (default all)")
	corrCmd.Flags().IntVar(&corrTop, "top", 5, "list the N strongest pairs (0 disables)")
	corrCmd.Flags().StringVarP(&corrOutput, "output", "o", "", "write the matrix to file (.csv, .xlsx, .json, .md)")
}
