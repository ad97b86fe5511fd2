package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/airloom-cli/internal/dataset"
	"github.com/KaramelBytes/airloom-cli/internal/export"
)

// CorrMatrix holds a symmetric Pearson correlation matrix.
type CorrMatrix struct {
	Columns []string
	Values  [][]dataset.Value // row-major, Values[i][j]
	N       [][]int           // jointly non-missing rows per cell
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
	N    int
}

// At returns the correlation of columns i and j.
func (m *CorrMatrix) At(i, j int) dataset.Value { return m.Values[i][j] }

// CorrelationMatrix computes pairwise Pearson correlations over the filtered
// rows. Each pair uses the rows where both columns are present; fewer than two
// such rows, or a constant column, leaves the cell missing. The diagonal is 1.
func (a *Aggregator) CorrelationMatrix(t *dataset.Table, columns []string, f dataset.Filter) (*CorrMatrix, error) {
	idx, err := resolve(t, columns)
	if err != nil {
		return nil, err
	}
	n := len(idx)
	m := &CorrMatrix{Columns: append([]string(nil), columns...), Values: make([][]dataset.Value, n), N: make([][]int, n)}
	for i := range m.Values {
		m.Values[i] = make([]dataset.Value, n)
		m.N[i] = make([]int, n)
		m.Values[i][i] = dataset.Some(1)
	}

	var rows []dataset.Observation
	for i := 0; i < t.Len(); i++ {
		if o := t.Row(i); f.Match(o) {
			rows = append(rows, o)
		}
	}
	for i := 0; i < n; i++ {
		for _, o := range rows {
			if o.Values[idx[i]].Valid {
				m.N[i][i]++
			}
		}
		for j := i + 1; j < n; j++ {
			var xs, ys []float64
			for _, o := range rows {
				x, y := o.Values[idx[i]], o.Values[idx[j]]
				if x.Valid && y.Valid {
					xs = append(xs, x.Float)
					ys = append(ys, y.Float)
				}
			}
			m.N[i][j], m.N[j][i] = len(xs), len(xs)
			if r, ok := a.est.Pearson(xs, ys); ok {
				m.Values[i][j] = dataset.Some(r)
				m.Values[j][i] = dataset.Some(r)
			}
		}
	}
	return m, nil
}

// TopPairs lists the off-diagonal pairs with data, strongest |r| first.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	var pairs []PairCorr
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			if v := m.Values[i][j]; v.Valid {
				pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: v.Float, N: m.N[i][j]})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// Frame renders the matrix with a leading column of row names.
func (m *CorrMatrix) Frame() export.Frame {
	fr := export.Frame{Name: "correlations", Headers: append([]string{"column"}, m.Columns...)}
	for i, name := range m.Columns {
		row := make([]any, 0, len(m.Columns)+1)
		row = append(row, name)
		for _, v := range m.Values[i] {
			row = append(row, v)
		}
		fr.Rows = append(fr.Rows, row)
	}
	return fr
}
