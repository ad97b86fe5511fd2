package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/airloom-cli/internal/dataset"
	"github.com/KaramelBytes/airloom-cli/internal/export"
)

// DefaultMetricColumns are the headline columns of the key-metrics view.
var DefaultMetricColumns = []string{dataset.ColPM25, dataset.ColPM10, dataset.ColTemp, dataset.ColWSPM}

// ColumnMean is one headline metric.
type ColumnMean struct {
	Column string
	Mean   dataset.Value
	Months int // months that contributed a mean
}

// Summary is the key-metrics view: overall means plus the most recent rows.
type Summary struct {
	Filter  dataset.Filter
	Means   []ColumnMean
	Latest  export.Frame
	Matched int
}

// Summarize computes OverallMean for each column and the latest rows.
func (a *Aggregator) Summarize(t *dataset.Table, columns []string, f dataset.Filter, latest int) (*Summary, error) {
	series, err := a.MonthlyMeans(t, columns, f)
	if err != nil {
		return nil, err
	}
	s := &Summary{Filter: f, Matched: t.Filter(f).Len()}
	for i, c := range columns {
		m, months := a.meanOfMonths(series, i)
		s.Means = append(s.Means, ColumnMean{Column: c, Mean: m, Months: months})
	}
	rows, err := a.LatestN(t, f, latest)
	if err != nil {
		return nil, err
	}
	s.Latest, err = ObservationsFrame(t, rows, columns)
	if err != nil {
		return nil, err
	}
	s.Latest.Name = "latest"
	return s, nil
}

// MetricsFrame renders the headline means.
func (s *Summary) MetricsFrame() export.Frame {
	fr := export.Frame{Name: "metrics", Headers: []string{"column", "mean_of_monthly_means", "months"}}
	for _, m := range s.Means {
		fr.Rows = append(fr.Rows, []any{m.Column, m.Mean, m.Months})
	}
	return fr
}

// Markdown renders the summary in the report section format.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[KEY METRICS]\n")
	b.WriteString(fmt.Sprintf("Filter: %s\n", s.Filter))
	b.WriteString(fmt.Sprintf("Rows matched: %d\n", s.Matched))
	for _, m := range s.Means {
		if !m.Mean.Valid {
			b.WriteString(fmt.Sprintf("- %s: no data\n", m.Column))
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %.2f (mean of %d monthly means)\n", m.Column, m.Mean.Float, m.Months))
	}
	if !s.Latest.Empty() {
		b.WriteString("\n[LATEST OBSERVATIONS]\n")
		_ = export.WriteMarkdown(&b, s.Latest)
	}
	return b.String()
}
