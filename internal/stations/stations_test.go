package stations

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/airloom-cli/internal/dataset"
	"github.com/KaramelBytes/airloom-cli/internal/severity"
)

func TestDefaultReference(t *testing.T) {
	ref := Default()
	assert.Equal(t, "Beijing", ref.Name())
	require.Equal(t, 12, ref.Len())

	list := ref.Stations()
	assert.Equal(t, "Aotizhongxin", list[0].Name)
	assert.Equal(t, "Wanshouxigong", list[11].Name)

	s, ok := ref.Lookup("dongsi")
	require.True(t, ok)
	assert.Equal(t, 39.929, s.Lat)
	assert.Equal(t, 116.417, s.Lon)

	_, ok = ref.Lookup("Atlantis")
	assert.False(t, ok)

	c := ref.Center()
	assert.InDelta(t, 39.9, c.Lat.Degrees(), 1e-9)
	assert.InDelta(t, 116.4, c.Lng.Degrees(), 1e-9)
}

func TestBoundsCoverAllStations(t *testing.T) {
	ref := Default()
	b := ref.Bounds()
	for _, s := range ref.Stations() {
		assert.True(t, b.ContainsLatLng(s.LatLng()), s.Name)
	}
	assert.InDelta(t, 39.873, b.Lo().Lat.Degrees(), 1e-9)
	assert.InDelta(t, 40.36, b.Hi().Lat.Degrees(), 1e-9)
	assert.InDelta(t, 116.225, b.Lo().Lng.Degrees(), 1e-9)
	assert.InDelta(t, 116.654, b.Hi().Lng.Degrees(), 1e-9)
}

func TestNearest(t *testing.T) {
	s, km := Default().Nearest(39.93, 116.418)
	assert.Equal(t, "Dongsi", s.Name)
	assert.Less(t, km, 0.5)

	s, _ = Default().Nearest(40.4, 116.7)
	assert.Equal(t, "Huairou", s.Name)
}

// gridDoc renders a reference of StationCount stations spaced one degree
// apart in latitude, after edit has adjusted them.
func gridDoc(t *testing.T, center *point, edit func([]Station) []Station) []byte {
	t.Helper()
	list := make([]Station, StationCount)
	for i := range list {
		list[i] = Station{Name: fmt.Sprintf("S%02d", i+1), Lat: float64(i), Lon: 20}
	}
	if edit != nil {
		list = edit(list)
	}
	b, err := yaml.Marshal(file{Name: "Test", Center: center, Stations: list})
	require.NoError(t, err)
	return b
}

func TestParseValidation(t *testing.T) {
	cases := map[string][]byte{
		"empty":    []byte("name: X\nstations: []\n"),
		"one":      []byte("stations:\n  - {name: A, lat: 1, lon: 1}\n"),
		"eleven":   gridDoc(t, nil, func(l []Station) []Station { return l[:11] }),
		"thirteen": gridDoc(t, nil, func(l []Station) []Station { return append(l, Station{Name: "Extra", Lat: 1, Lon: 1}) }),
		"no name":  gridDoc(t, nil, func(l []Station) []Station { l[3].Name = " "; return l }),
		"bad lat":  gridDoc(t, nil, func(l []Station) []Station { l[0].Lat = 95; return l }),
		"duplicate": gridDoc(t, nil, func(l []Station) []Station {
			l[5].Name = strings.ToLower(l[4].Name)
			return l
		}),
		"bad center": gridDoc(t, &point{Lat: 120, Lon: 0}, nil),
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(doc)
			var ce *dataset.ConfigurationError
			require.True(t, errors.As(err, &ce), "want ConfigurationError, got %v", err)
		})
	}

	_, err := Parse([]byte("stations: ["))
	assert.Error(t, err)

	_, err = Parse(gridDoc(t, nil, nil))
	assert.NoError(t, err)
}

func TestLoadFileWithoutCenterUsesBounds(t *testing.T) {
	p := filepath.Join(t.TempDir(), "stations.yaml")
	require.NoError(t, os.WriteFile(p, gridDoc(t, nil, nil), 0o644))

	ref, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, StationCount, ref.Len())
	// latitudes 0..11
	assert.InDelta(t, 5.5, ref.Center().Lat.Degrees(), 1e-9)
	assert.InDelta(t, 20.0, ref.Center().Lng.Degrees(), 1e-9)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFileRejectsShortReference(t *testing.T) {
	p := filepath.Join(t.TempDir(), "stations.yaml")
	doc := "name: Test\nstations:\n  - name: North\n    lat: 10\n    lon: 20\n  - name: South\n    lat: 0\n    lon: 20\n"
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o644))

	_, err := LoadFile(p)
	var ce *dataset.ConfigurationError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, "stations", ce.Param)
	assert.Contains(t, err.Error(), "want exactly 12 stations, got 2")
}

func TestMarkers(t *testing.T) {
	values := map[string]dataset.Value{
		"Dongsi":  dataset.Some(120),
		"tiantan": dataset.Some(69.9),
		"Shunyi":  dataset.Some(70),
		"Gucheng": dataset.Missing,
		"Nowhere": dataset.Some(10),
	}
	markers, unmapped := Markers(Default(), values)
	require.Len(t, markers, 12)
	assert.Equal(t, []string{"Nowhere"}, unmapped)

	got := map[string]Marker{}
	for _, m := range markers {
		got[m.Name] = m
	}
	assert.Equal(t, severity.High, got["Dongsi"].Level)
	assert.Equal(t, "red", got["Dongsi"].Color())
	assert.Equal(t, severity.Good, got["Tiantan"].Level)
	assert.Equal(t, severity.Moderate, got["Shunyi"].Level)
	assert.Equal(t, severity.Unknown, got["Gucheng"].Level)
	assert.Equal(t, severity.Unknown, got["Huairou"].Level)
	assert.Equal(t, "gray", got["Huairou"].Color())

	fr := MarkersFrame("PM2.5", markers)
	assert.Equal(t, []string{"station", "lat", "lon", "PM2.5", "severity", "color"}, fr.Headers)
	assert.Len(t, fr.Rows, 12)
	assert.Len(t, Default().Frame().Rows, 12)
}
