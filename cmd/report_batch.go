package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/airloom-cli/internal/analysis"
)

var (
	rbOutDir     string
	rbSampleRows int
	rbNoCorr     bool
	rbQuiet      bool
)

var reportBatchCmd = &cobra.Command{
	Use:   "report-batch <files...>",
	Short: "Profile several observation files (globs allowed), one report each",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return errors.New("no input files matched")
		}
		out := cmd.OutOrStdout()
		opt := analysis.DefaultReportOptions()
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = rbSampleRows
		}
		opt.Correlations = !rbNoCorr

		total := len(files)
		for i, path := range files {
			if !rbQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			t, err := dataLoader().Load(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			rep, err := aggregator.Profile(t, opt)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			md := rep.Markdown()
			if rbOutDir == "" {
				if !rbQuiet {
					fmt.Fprintln(out, md)
				}
				continue
			}
			outFile := summaryPath(rbOutDir, path)
			if filepath.Base(outFile) != summaryBase(path)+".summary.md" && !rbQuiet {
				fmt.Fprintf(out, "⚠ Detected existing summary, writing to %s to avoid overwrite.\n", filepath.Base(outFile))
			}
			if err := writeText(out, outFile, md); err != nil {
				return err
			}
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths, deduplicated and sorted.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func summaryBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// summaryPath picks <dir>/<base>.summary.md, or <base>__N.summary.md when
// that name is taken.
func summaryPath(dir, input string) string {
	base := summaryBase(input)
	outFile := filepath.Join(dir, base+".summary.md")
	if _, err := os.Stat(outFile); err != nil {
		return outFile
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d.summary.md", base, idx))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
	}
}

func init() {
	rootCmd.AddCommand(reportBatchCmd)
	reportBatchCmd.Flags().StringVar(&rbOutDir, "out-dir", "", "write <name>.summary.md files here instead of stdout")
	reportBatchCmd.Flags().IntVar(&rbSampleRows, "sample-rows", 5, "latest rows to include (0 disables)")
	reportBatchCmd.Flags().BoolVar(&rbNoCorr, "no-corr", false, "skip the correlations section")
	reportBatchCmd.Flags().BoolVar(&rbQuiet, "quiet", false, "suppress progress and non-essential output")
}
