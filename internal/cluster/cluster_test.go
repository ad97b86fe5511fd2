package cluster

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/airloom-cli/internal/dataset"
)

var features = []string{dataset.ColPM25, dataset.ColPM10}

func table(points ...[2]dataset.Value) *dataset.Table {
	base := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]dataset.Observation, len(points))
	for i, p := range points {
		st := "A"
		if i%2 == 1 {
			st = "B"
		}
		rows[i] = dataset.Observation{
			Time:    base.Add(time.Duration(i) * time.Hour),
			Year:    2015,
			Station: st,
			Values:  []dataset.Value{p[0], p[1]},
		}
	}
	return dataset.NewTable(dataset.NewSchema(features), rows)
}

func pt(a, b float64) [2]dataset.Value { return [2]dataset.Value{dataset.Some(a), dataset.Some(b)} }

func twoGroups() *dataset.Table {
	return table(
		pt(10, 12), pt(11, 13), pt(9, 11), pt(12, 10),
		pt(200, 250), pt(210, 240), pt(205, 245), pt(198, 260),
		[2]dataset.Value{dataset.Missing, dataset.Some(50)},
	)
}

func TestFitSeparatesGroups(t *testing.T) {
	res, err := NewClassifier().Fit(twoGroups(), features, 2)
	require.NoError(t, err)
	require.Len(t, res.Labels, 9)
	assert.Equal(t, 8, res.Used)

	low := res.Labels[0]
	for i := 0; i < 4; i++ {
		assert.Equal(t, low, res.Labels[i])
	}
	high := res.Labels[4]
	assert.NotEqual(t, low, high)
	for i := 4; i < 8; i++ {
		assert.Equal(t, high, res.Labels[i])
	}
	assert.Equal(t, NoLabel, res.Labels[8])

	assert.Equal(t, []int{4, 4}, res.Sizes)
	assert.InDelta(t, 10.5, res.Centroids[low][0], 1e-9)
	assert.InDelta(t, 11.5, res.Centroids[low][1], 1e-9)
	assert.InDelta(t, 203.25, res.Centroids[high][0], 1e-9)
	assert.NotEmpty(t, res.FitID.String())
}

func TestFitIsDeterministic(t *testing.T) {
	tbl := twoGroups()
	a, err := NewClassifier().Fit(tbl, features, 3)
	require.NoError(t, err)
	b, err := NewClassifier().Fit(tbl, features, 3)
	require.NoError(t, err)
	assert.Equal(t, a.Labels, b.Labels)
	assert.Equal(t, a.Centroids, b.Centroids)
	assert.Equal(t, a.Inertia, b.Inertia)
}

func TestFitInsufficientData(t *testing.T) {
	tbl := table(pt(1, 1), pt(2, 2), [2]dataset.Value{dataset.Missing, dataset.Missing})
	_, err := NewClassifier().Fit(tbl, features, 3)
	var ide *dataset.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 3, ide.Need)
	assert.Equal(t, 2, ide.Have)
}

func TestFitConfigurationErrors(t *testing.T) {
	tbl := twoGroups()
	cases := []struct {
		name     string
		features []string
		k        int
		param    string
	}{
		{"zero k", features, 0, "k"},
		{"negative k", features, -2, "k"},
		{"no features", nil, 2, "features"},
		{"duplicate feature", []string{dataset.ColPM25, dataset.ColPM25}, 2, "features"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClassifier().Fit(tbl, tc.features, tc.k)
			var ce *dataset.ConfigurationError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tc.param, ce.Param)
		})
	}

	c := NewClassifier()
	c.Restarts = 0
	_, err := c.Fit(tbl, features, 2)
	var ce *dataset.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "restarts", ce.Param)
}

func TestFitUnknownFeature(t *testing.T) {
	_, err := NewClassifier().Fit(twoGroups(), []string{"TEMP"}, 2)
	var se *dataset.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "TEMP", se.Column)
}

func TestFitIdenticalPointsKeepsK(t *testing.T) {
	res, err := NewClassifier().Fit(table(pt(5, 5), pt(5, 5), pt(5, 5)), features, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, res.Sizes)
	assert.Equal(t, 0.0, res.Inertia)
}

func TestStandardizeConstantFeature(t *testing.T) {
	out := standardize([][]float64{{1, 7}, {3, 7}}, 2)
	assert.Equal(t, [][]float64{{-1, 0}, {1, 0}}, out)
}

func TestResolveFeatures(t *testing.T) {
	got, err := ResolveFeatures("full")
	require.NoError(t, err)
	assert.Equal(t, []string{"PM2.5", "PM10", "TEMP", "WSPM"}, got)

	got, err = ResolveFeatures(" PM2.5 , TEMP ")
	require.NoError(t, err)
	assert.Equal(t, []string{"PM2.5", "TEMP"}, got)

	_, err = ResolveFeatures(" , ")
	assert.Error(t, err)
	assert.Equal(t, []string{"full", "particulate"}, PresetNames())
}

func TestFrames(t *testing.T) {
	tbl := twoGroups()
	res, err := NewClassifier().Fit(tbl, features, 2)
	require.NoError(t, err)

	fr := res.Frame()
	assert.Equal(t, []string{"cluster", "size", "PM2.5", "PM10"}, fr.Headers)
	assert.Len(t, fr.Rows, 2)

	as, err := res.AssignmentsFrame(tbl)
	require.NoError(t, err)
	require.Len(t, as.Rows, 9)
	assert.Nil(t, as.Rows[8][2])

	st := res.StationsFrame(tbl)
	assert.Equal(t, []string{"station", "cluster_0", "cluster_1", "excluded"}, st.Headers)
	require.Len(t, st.Rows, 2)
	assert.Equal(t, "A", st.Rows[0][0])
	// row 8 belongs to station A and is excluded
	assert.Equal(t, 1, st.Rows[0][3])
}
