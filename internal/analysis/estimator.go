package analysis

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Estimator is the statistics strategy behind the Aggregator. Implementations
// report ok=false instead of returning NaN or infinities.
type Estimator interface {
	Mean(xs []float64) (float64, bool)
	Pearson(x, y []float64) (float64, bool)
}

// LibraryEstimator computes means with montanaflynn/stats and Pearson
// correlation with gonum.
type LibraryEstimator struct{}

func (LibraryEstimator) Mean(xs []float64) (float64, bool) {
	m, err := stats.Mean(xs)
	if err != nil || math.IsNaN(m) || math.IsInf(m, 0) {
		return 0, false
	}
	return m, true
}

func (LibraryEstimator) Pearson(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, false
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}
