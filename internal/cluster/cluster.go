// Package cluster groups observations with k-means over standardized
// features. Fits are deterministic for a given seed.
package cluster

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/airloom-cli/internal/dataset"
	"github.com/KaramelBytes/airloom-cli/internal/export"
)

// Label is a cluster index in [0, k) or NoLabel.
type Label int

// NoLabel marks rows excluded from a fit because a feature was missing.
const NoLabel Label = -1

// Defaults for NewClassifier.
const (
	DefaultSeed      int64   = 42
	DefaultRestarts          = 10
	DefaultMaxIter           = 300
	DefaultTolerance float64 = 1e-4
)

// Presets are the named feature sets offered on the command line.
var Presets = map[string][]string{
	"full":        {dataset.ColPM25, dataset.ColPM10, dataset.ColTemp, dataset.ColWSPM},
	"particulate": {dataset.ColPM25, dataset.ColPM10},
}

// ResolveFeatures expands a preset name or a comma-separated column list.
func ResolveFeatures(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if p, ok := Presets[strings.ToLower(s)]; ok {
		return append([]string(nil), p...), nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return nil, &dataset.ConfigurationError{Param: "features", Reason: "no features given"}
	}
	return out, nil
}

// PresetNames lists preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for n := range Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Classifier fits k-means models. The zero value is not usable; start from
// NewClassifier.
type Classifier struct {
	Seed      int64
	Restarts  int
	MaxIter   int
	Tolerance float64
	Logger    *slog.Logger
}

// NewClassifier returns a classifier with the default seed and limits.
func NewClassifier() *Classifier {
	return &Classifier{
		Seed:      DefaultSeed,
		Restarts:  DefaultRestarts,
		MaxIter:   DefaultMaxIter,
		Tolerance: DefaultTolerance,
	}
}

// Result is one fitted model and the assignment of every input row.
type Result struct {
	FitID      uuid.UUID
	Features   []string
	K          int
	Labels     []Label     // one per input row
	Centroids  [][]float64 // per cluster, original units
	Sizes      []int
	Inertia    float64 // within-cluster sum of squares, standardized space
	Iterations int     // iterations of the winning run
	Used       int     // rows with every feature present
}

func (c *Classifier) validate(features []string, k int) error {
	if k <= 0 {
		return &dataset.ConfigurationError{Param: "k", Reason: fmt.Sprintf("must be > 0, got %d", k)}
	}
	if len(features) == 0 {
		return &dataset.ConfigurationError{Param: "features", Reason: "at least one feature is required"}
	}
	seen := make(map[string]bool, len(features))
	for _, f := range features {
		if seen[f] {
			return &dataset.ConfigurationError{Param: "features", Reason: fmt.Sprintf("duplicate feature %q", f)}
		}
		seen[f] = true
	}
	if c.Restarts < 1 {
		return &dataset.ConfigurationError{Param: "restarts", Reason: fmt.Sprintf("must be >= 1, got %d", c.Restarts)}
	}
	if c.MaxIter < 1 {
		return &dataset.ConfigurationError{Param: "max_iter", Reason: fmt.Sprintf("must be >= 1, got %d", c.MaxIter)}
	}
	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) {
		return &dataset.ConfigurationError{Param: "tolerance", Reason: "must be >= 0"}
	}
	return nil
}

// Fit clusters the rows of t on features into k groups. Rows with a missing
// feature get NoLabel. k is never reduced: fewer usable rows than k is an
// InsufficientDataError.
func (c *Classifier) Fit(t *dataset.Table, features []string, k int) (*Result, error) {
	if err := c.validate(features, k); err != nil {
		return nil, err
	}
	idx, err := t.Schema().Indices(features)
	if err != nil {
		return nil, err
	}

	labels := make([]Label, t.Len())
	var raw [][]float64
	var rowOf []int
	for i := 0; i < t.Len(); i++ {
		labels[i] = NoLabel
		o := t.Row(i)
		p := make([]float64, len(idx))
		ok := true
		for f, j := range idx {
			v := o.Values[j]
			if !v.Valid {
				ok = false
				break
			}
			p[f] = v.Float
		}
		if ok {
			raw = append(raw, p)
			rowOf = append(rowOf, i)
		}
	}
	if len(raw) < k {
		return nil, &dataset.InsufficientDataError{What: "clustering", Need: k, Have: len(raw)}
	}

	points := standardize(raw, len(idx))
	best := c.run(points, k)

	res := &Result{
		FitID:      uuid.New(),
		Features:   append([]string(nil), features...),
		K:          k,
		Labels:     labels,
		Centroids:  make([][]float64, k),
		Sizes:      make([]int, k),
		Inertia:    best.inertia,
		Iterations: best.iterations,
		Used:       len(raw),
	}
	for j := range res.Centroids {
		res.Centroids[j] = make([]float64, len(idx))
	}
	for p, lbl := range best.assign {
		labels[rowOf[p]] = Label(lbl)
		res.Sizes[lbl]++
		for f, x := range raw[p] {
			res.Centroids[lbl][f] += x
		}
	}
	for j, n := range res.Sizes {
		if n == 0 {
			continue
		}
		for f := range res.Centroids[j] {
			res.Centroids[j][f] /= float64(n)
		}
	}
	c.logger().Debug("cluster fit",
		"fit_id", res.FitID.String(),
		"k", k,
		"rows", len(raw),
		"excluded", t.Len()-len(raw),
		"inertia", res.Inertia,
		"iterations", res.Iterations)
	return res, nil
}

func (c *Classifier) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// standardize scales each feature to zero mean and unit population variance.
// Constant features become 0.
func standardize(raw [][]float64, dims int) [][]float64 {
	out := make([][]float64, len(raw))
	for i := range out {
		out[i] = make([]float64, dims)
	}
	col := make([]float64, len(raw))
	for f := 0; f < dims; f++ {
		for i, p := range raw {
			col[i] = p[f]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		for i, p := range raw {
			if std == 0 || math.IsNaN(std) {
				out[i][f] = 0
				continue
			}
			out[i][f] = (p[f] - mean) / std
		}
	}
	return out
}

// Frame renders one row per cluster with its size and centroid.
func (r *Result) Frame() export.Frame {
	fr := export.Frame{Name: "clusters", Headers: append([]string{"cluster", "size"}, r.Features...)}
	for c := range r.Centroids {
		row := []any{c, r.Sizes[c]}
		for _, x := range r.Centroids[c] {
			row = append(row, x)
		}
		fr.Rows = append(fr.Rows, row)
	}
	return fr
}

// AssignmentsFrame renders every row of t with its label. t must be the table
// the result was fitted on. Excluded rows have an empty cluster cell.
func (r *Result) AssignmentsFrame(t *dataset.Table) (export.Frame, error) {
	if t.Len() != len(r.Labels) {
		return export.Frame{}, fmt.Errorf("table has %d rows, fit has %d labels", t.Len(), len(r.Labels))
	}
	idx, err := t.Schema().Indices(r.Features)
	if err != nil {
		return export.Frame{}, err
	}
	fr := export.Frame{Name: "assignments", Headers: append([]string{"date", "station", "cluster"}, r.Features...)}
	for i, lbl := range r.Labels {
		o := t.Row(i)
		var cell any
		if lbl != NoLabel {
			cell = int(lbl)
		}
		row := []any{o.Time.Format("2006-01-02 15:04"), o.Station, cell}
		for _, j := range idx {
			row = append(row, o.Values[j])
		}
		fr.Rows = append(fr.Rows, row)
	}
	return fr, nil
}

// StationCounts tallies labels per station, sorted by station. The last
// element of each count slice holds the excluded rows.
func (r *Result) StationCounts(t *dataset.Table) ([]string, [][]int) {
	counts := map[string][]int{}
	for i, lbl := range r.Labels {
		st := t.Row(i).Station
		cs := counts[st]
		if cs == nil {
			cs = make([]int, r.K+1)
			counts[st] = cs
		}
		if lbl == NoLabel {
			cs[r.K]++
		} else {
			cs[lbl]++
		}
	}
	names := make([]string, 0, len(counts))
	for st := range counts {
		names = append(names, st)
	}
	sort.Strings(names)
	out := make([][]int, len(names))
	for i, st := range names {
		out[i] = counts[st]
	}
	return names, out
}

// StationsFrame renders StationCounts.
func (r *Result) StationsFrame(t *dataset.Table) export.Frame {
	names, counts := r.StationCounts(t)
	headers := []string{"station"}
	for c := 0; c < r.K; c++ {
		headers = append(headers, fmt.Sprintf("cluster_%d", c))
	}
	headers = append(headers, "excluded")
	fr := export.Frame{Name: "station clusters", Headers: headers}
	for i, st := range names {
		row := []any{st}
		for _, n := range counts[i] {
			row = append(row, n)
		}
		fr.Rows = append(fr.Rows, row)
	}
	return fr
}
