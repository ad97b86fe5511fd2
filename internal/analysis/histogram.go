package analysis

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/airloom-cli/internal/dataset"
	"github.com/KaramelBytes/airloom-cli/internal/export"
)

// Bin is one equal-width histogram interval [Min, Max). The last bin also
// includes its upper edge.
type Bin struct {
	Min, Max float64
	Count    int
}

// Histogram is the distribution of one column's non-missing values.
type Histogram struct {
	Column  string
	Filter  dataset.Filter
	Bins    []Bin
	Missing int
}

// Total returns the number of values binned.
func (h *Histogram) Total() int {
	n := 0
	for _, b := range h.Bins {
		n += b.Count
	}
	return n
}

// Histogram bins the non-missing values of column into bins equal-width
// intervals between the observed minimum and maximum.
func (a *Aggregator) Histogram(t *dataset.Table, column string, f dataset.Filter, bins int) (*Histogram, error) {
	if bins <= 0 {
		return nil, &dataset.ConfigurationError{Param: "bins", Reason: fmt.Sprintf("must be > 0, got %d", bins)}
	}
	j, err := t.Schema().Index(column)
	if err != nil {
		return nil, err
	}
	h := &Histogram{Column: column, Filter: f}
	var xs []float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < t.Len(); i++ {
		o := t.Row(i)
		if !f.Match(o) {
			continue
		}
		v := o.Values[j]
		if !v.Valid || math.IsInf(v.Float, 0) || math.IsNaN(v.Float) {
			h.Missing++
			continue
		}
		xs = append(xs, v.Float)
		lo = math.Min(lo, v.Float)
		hi = math.Max(hi, v.Float)
	}
	if len(xs) == 0 {
		return h, nil
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)
	h.Bins = make([]Bin, bins)
	for k := range h.Bins {
		h.Bins[k] = Bin{Min: lo + float64(k)*width, Max: lo + float64(k+1)*width}
	}
	h.Bins[bins-1].Max = hi
	for _, x := range xs {
		k := int((x - lo) / width)
		if k >= bins {
			k = bins - 1
		}
		h.Bins[k].Count++
	}
	return h, nil
}

// Frame renders one row per bin.
func (h *Histogram) Frame() export.Frame {
	fr := export.Frame{Name: h.Column + " histogram", Headers: []string{"bin_min", "bin_max", "count"}}
	for _, b := range h.Bins {
		fr.Rows = append(fr.Rows, []any{b.Min, b.Max, b.Count})
	}
	return fr
}

// StationFrame renders per-station aggregates of column.
func StationFrame(column string, values []StationValue) export.Frame {
	fr := export.Frame{Name: "stations", Headers: []string{"station", column, "values"}}
	for _, sv := range values {
		fr.Rows = append(fr.Rows, []any{sv.Station, sv.Value, sv.Count})
	}
	return fr
}
