// Package analysis computes descriptive statistics over an observation table:
// monthly means, latest rows, overall means, correlations, per-station means
// and histograms. Every operation takes the table explicitly and is a pure
// function of its inputs.
package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/KaramelBytes/airloom-cli/internal/dataset"
	"github.com/KaramelBytes/airloom-cli/internal/export"
)

// Aggregator runs the descriptive statistics over a table.
type Aggregator struct {
	est Estimator
}

// NewAggregator returns an aggregator using est, or LibraryEstimator when nil.
func NewAggregator(est Estimator) *Aggregator {
	if est == nil {
		est = LibraryEstimator{}
	}
	return &Aggregator{est: est}
}

// MonthBucket holds the per-column means of one calendar month.
type MonthBucket struct {
	Month  time.Time // first instant of the month, UTC
	Means  []dataset.Value
	Counts []int // non-missing values per column
}

// MonthlySeries is a chronologically ordered run of month buckets.
type MonthlySeries struct {
	Columns []string
	Filter  dataset.Filter
	Buckets []MonthBucket
}

func monthKey(t time.Time) int { return t.Year()*12 + int(t.Month()) - 1 }

func monthStart(key int) time.Time {
	return time.Date(key/12, time.Month(key%12+1), 1, 0, 0, 0, 0, time.UTC)
}

func resolve(t *dataset.Table, columns []string) ([]int, error) {
	if len(columns) == 0 {
		return nil, &dataset.ConfigurationError{Param: "columns", Reason: "at least one column is required"}
	}
	return t.Schema().Indices(columns)
}

// MonthlyMeans buckets the filtered rows by calendar month and averages each
// column over its non-missing values. Every month between the first and last
// matching row is present; a month without values carries a missing mean.
func (a *Aggregator) MonthlyMeans(t *dataset.Table, columns []string, f dataset.Filter) (*MonthlySeries, error) {
	idx, err := resolve(t, columns)
	if err != nil {
		return nil, err
	}
	out := &MonthlySeries{Columns: append([]string(nil), columns...), Filter: f}

	vals := map[int][][]float64{}
	lo, hi, seen := 0, 0, false
	for i := 0; i < t.Len(); i++ {
		o := t.Row(i)
		if !f.Match(o) {
			continue
		}
		k := monthKey(o.Time)
		if !seen || k < lo {
			lo = k
		}
		if !seen || k > hi {
			hi = k
		}
		seen = true
		bucket := vals[k]
		if bucket == nil {
			bucket = make([][]float64, len(idx))
			vals[k] = bucket
		}
		for c, j := range idx {
			if v := o.Values[j]; v.Valid {
				bucket[c] = append(bucket[c], v.Float)
			}
		}
	}
	if !seen {
		return out, nil
	}
	out.Buckets = make([]MonthBucket, 0, hi-lo+1)
	for k := lo; k <= hi; k++ {
		b := MonthBucket{Month: monthStart(k), Means: make([]dataset.Value, len(idx)), Counts: make([]int, len(idx))}
		for c, xs := range vals[k] {
			b.Counts[c] = len(xs)
			if m, ok := a.est.Mean(xs); ok {
				b.Means[c] = dataset.Some(m)
			}
		}
		out.Buckets = append(out.Buckets, b)
	}
	return out, nil
}

// Frame renders the series with one row per month.
func (s *MonthlySeries) Frame() export.Frame {
	fr := export.Frame{Name: "monthly means", Headers: append([]string{"month"}, s.Columns...)}
	for _, b := range s.Buckets {
		row := make([]any, 0, len(s.Columns)+1)
		row = append(row, b.Month.Format("2006-01"))
		for _, m := range b.Means {
			row = append(row, m)
		}
		fr.Rows = append(fr.Rows, row)
	}
	return fr
}

// OverallMean is the mean of the monthly means of column, skipping months
// without data. The result is missing when no month has data.
func (a *Aggregator) OverallMean(t *dataset.Table, column string, f dataset.Filter) (dataset.Value, error) {
	series, err := a.MonthlyMeans(t, []string{column}, f)
	if err != nil {
		return dataset.Missing, err
	}
	m, _ := a.meanOfMonths(series, 0)
	return m, nil
}

// meanOfMonths averages the valid monthly means of column i of series and
// reports how many months contributed.
func (a *Aggregator) meanOfMonths(series *MonthlySeries, i int) (dataset.Value, int) {
	var means []float64
	for _, b := range series.Buckets {
		if b.Means[i].Valid {
			means = append(means, b.Means[i].Float)
		}
	}
	if m, ok := a.est.Mean(means); ok {
		return dataset.Some(m), len(means)
	}
	return dataset.Missing, len(means)
}

// LatestN returns up to n matching rows, most recent first. Rows sharing a
// timestamp are ordered by station name.
func (a *Aggregator) LatestN(t *dataset.Table, f dataset.Filter, n int) ([]dataset.Observation, error) {
	if n < 0 {
		return nil, &dataset.ConfigurationError{Param: "n", Reason: fmt.Sprintf("must be >= 0, got %d", n)}
	}
	var rows []dataset.Observation
	for i := 0; i < t.Len(); i++ {
		if o := t.Row(i); f.Match(o) {
			rows = append(rows, o)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Time.Equal(rows[j].Time) {
			return rows[i].Time.After(rows[j].Time)
		}
		return rows[i].Station < rows[j].Station
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

// ObservationsFrame renders observations with the given numeric columns.
func ObservationsFrame(t *dataset.Table, rows []dataset.Observation, columns []string) (export.Frame, error) {
	idx, err := t.Schema().Indices(columns)
	if err != nil {
		return export.Frame{}, err
	}
	fr := export.Frame{Name: "observations", Headers: append([]string{"date", "station"}, columns...)}
	for _, o := range rows {
		row := []any{o.Time.Format("2006-01-02 15:04"), o.Station}
		for _, j := range idx {
			row = append(row, o.Values[j])
		}
		fr.Rows = append(fr.Rows, row)
	}
	return fr, nil
}

// StationValue pairs a station with an aggregate.
type StationValue struct {
	Station string
	Value   dataset.Value
	Count   int
}

// StationMeans averages column per station over the filtered rows, sorted by
// station. Stations whose values are all missing carry a missing mean.
func (a *Aggregator) StationMeans(t *dataset.Table, column string, f dataset.Filter) ([]StationValue, error) {
	j, err := t.Schema().Index(column)
	if err != nil {
		return nil, err
	}
	vals := map[string][]float64{}
	for i := 0; i < t.Len(); i++ {
		o := t.Row(i)
		if !f.Match(o) {
			continue
		}
		xs := vals[o.Station]
		if v := o.Values[j]; v.Valid {
			xs = append(xs, v.Float)
		}
		vals[o.Station] = xs
	}
	out := make([]StationValue, 0, len(vals))
	for st, xs := range vals {
		sv := StationValue{Station: st, Count: len(xs)}
		if m, ok := a.est.Mean(xs); ok {
			sv.Value = dataset.Some(m)
		}
		out = append(out, sv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Station < out[j].Station })
	return out, nil
}
