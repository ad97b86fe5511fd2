package chart

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/airloom-cli/internal/analysis"
	"github.com/KaramelBytes/airloom-cli/internal/dataset"
)

func month(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }

func series() *analysis.MonthlySeries {
	return &analysis.MonthlySeries{
		Columns: []string{dataset.ColPM25},
		Buckets: []analysis.MonthBucket{
			{Month: month(2013, 3), Means: []dataset.Value{dataset.Some(80)}},
			{Month: month(2013, 4), Means: []dataset.Value{dataset.Some(70)}},
			{Month: month(2013, 5), Means: []dataset.Value{dataset.Missing}},
			{Month: month(2013, 6), Means: []dataset.Value{dataset.Some(60)}},
		},
	}
}

func TestSegmentsBreakAtMissingMonths(t *testing.T) {
	segs := segments(series(), 0)
	require.Len(t, segs, 2)
	assert.Len(t, segs[0], 2)
	assert.Len(t, segs[1], 1)
	assert.Equal(t, 60.0, segs[1][0].Y)
}

func TestLineSavesPNG(t *testing.T) {
	p, err := Line(series(), "PM2.5 monthly mean")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "charts", "trend.png")
	require.NoError(t, Save(p, out))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(b[:4]))
}

func TestLineNoData(t *testing.T) {
	_, err := Line(&analysis.MonthlySeries{Columns: []string{"PM2.5"}}, "x")
	assert.True(t, errors.Is(err, ErrNoData))

	empty := &analysis.MonthlySeries{
		Columns: []string{"PM2.5"},
		Buckets: []analysis.MonthBucket{{Month: month(2013, 3), Means: []dataset.Value{dataset.Missing}}},
	}
	_, err = Line(empty, "x")
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestHistogramSavesSVG(t *testing.T) {
	h := &analysis.Histogram{
		Column: "PM2.5",
		Bins:   []analysis.Bin{{Min: 0, Max: 5, Count: 3}, {Min: 5, Max: 10, Count: 1}},
	}
	p, err := Histogram(h, "PM2.5 distribution")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "hist.svg")
	require.NoError(t, Save(p, out))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "<svg")

	_, err = Histogram(&analysis.Histogram{Column: "PM2.5"}, "x")
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestSaveUnknownFormat(t *testing.T) {
	p, err := Line(series(), "x")
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "trend.bmp")
	assert.Error(t, Save(p, out))
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
