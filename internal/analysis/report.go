package analysis

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/airloom-cli/internal/dataset"
	"github.com/KaramelBytes/airloom-cli/internal/export"
)

// ReportOptions controls the dataset profile.
type ReportOptions struct {
	// SampleRows is how many of the most recent rows to include.
	SampleRows int
	// Correlations adds the strongest pairwise correlations.
	Correlations bool
	// TopPairs caps the correlation pairs listed; 0 means 10.
	TopPairs int
}

// DefaultReportOptions returns reasonable defaults for dataset profiling.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{SampleRows: 5, Correlations: true, TopPairs: 10}
}

// Report is a markdown-friendly profile of an observation table.
type Report struct {
	Name     string
	Rows     int
	Stations []string
	Years    []int
	Span     string
	Cols     []ColumnSummary
	Corr     *CorrMatrix
	TopPairs int
	Samples  export.Frame
	Warnings []string
}

// ColumnSummary captures completeness and spread per numeric column.
type ColumnSummary struct {
	Name    string
	NonNull int
	Missing int
	Min     float64
	Max     float64
	Mean    float64
	Std     float64
}

// Profile builds a Report over the whole table.
func (a *Aggregator) Profile(t *dataset.Table, opt ReportOptions) (*Report, error) {
	rep := &Report{Rows: t.Len(), Stations: t.Stations(), Years: t.Years(), TopPairs: opt.TopPairs}
	if src := t.Source(); src.Path != "" {
		rep.Name = filepath.Base(src.Path)
	}
	if first, last, ok := t.Span(); ok {
		rep.Span = fmt.Sprintf("%s .. %s", first.Format("2006-01-02 15:04"), last.Format("2006-01-02 15:04"))
	}
	for _, col := range t.Columns() {
		vals, err := t.Column(col)
		if err != nil {
			return nil, err
		}
		cs := ColumnSummary{Name: col}
		var xs []float64
		for _, v := range vals {
			if v.Valid {
				xs = append(xs, v.Float)
			}
		}
		cs.NonNull, cs.Missing = len(xs), len(vals)-len(xs)
		if len(xs) == 0 {
			if len(vals) > 0 {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %s has no values", col))
			}
			rep.Cols = append(rep.Cols, cs)
			continue
		}
		cs.Min, _ = stats.Min(xs)
		cs.Max, _ = stats.Max(xs)
		cs.Mean, _ = stats.Mean(xs)
		if len(xs) > 1 {
			cs.Std, _ = stats.StandardDeviationSample(xs)
		}
		rep.Cols = append(rep.Cols, cs)
	}
	if opt.Correlations && t.Schema().Len() >= 2 {
		m, err := a.CorrelationMatrix(t, t.Columns(), dataset.Filter{})
		if err != nil {
			return nil, err
		}
		rep.Corr = m
	}
	if opt.SampleRows > 0 {
		rows, err := a.LatestN(t, dataset.Filter{}, opt.SampleRows)
		if err != nil {
			return nil, err
		}
		rep.Samples, err = ObservationsFrame(t, rows, t.Columns())
		if err != nil {
			return nil, err
		}
	}
	return rep, nil
}

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Stations: %d (%s)\n", len(r.Stations), strings.Join(r.Stations, ", ")))
	if r.Span != "" {
		b.WriteString(fmt.Sprintf("Span: %s\n", r.Span))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: numeric (non-null %d, missing %.1f%%)", c.Name, c.NonNull, missPct))
		if c.NonNull > 0 {
			b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
		}
		b.WriteString("\n")
	}
	if r.Corr != nil {
		limit := r.TopPairs
		if limit <= 0 {
			limit = 10
		}
		if pairs := r.Corr.TopPairs(limit); len(pairs) > 0 {
			b.WriteString("\n[CORRELATIONS]\n")
			for _, p := range pairs {
				b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f (n=%d)\n", p.A, p.B, p.R, p.N))
			}
		}
	}
	if !r.Samples.Empty() {
		b.WriteString("\n[LATEST ROWS]\n")
		_ = export.WriteMarkdown(&b, r.Samples)
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}
