package stations

import (
	"sort"

	"github.com/KaramelBytes/airloom-cli/internal/dataset"
	"github.com/KaramelBytes/airloom-cli/internal/export"
	"github.com/KaramelBytes/airloom-cli/internal/severity"
)

// Marker is one station on the map with its aggregate and severity.
type Marker struct {
	Station
	Value dataset.Value
	Level severity.Level
}

// Color is the marker colour for the level.
func (m Marker) Color() string { return m.Level.Color() }

// Markers joins per-station values with the reference: one marker per
// reference station, ordered by name, with no-data where a station has no
// value. Value keys without coordinates are returned as unmapped, sorted.
func Markers(ref *Reference, values map[string]dataset.Value) ([]Marker, []string) {
	matched := make(map[string]bool, len(values))
	byKey := make(map[string]dataset.Value, len(values))
	for name, v := range values {
		if s, ok := ref.Lookup(name); ok {
			byKey[s.Name] = v
			matched[name] = true
		}
	}
	out := make([]Marker, 0, ref.Len())
	for _, s := range ref.stations {
		v := byKey[s.Name]
		lvl := severity.Unknown
		if v.Valid {
			lvl = severity.Classify(v.Float)
		}
		out = append(out, Marker{Station: s, Value: v, Level: lvl})
	}
	var unmapped []string
	for name := range values {
		if !matched[name] {
			unmapped = append(unmapped, name)
		}
	}
	sort.Strings(unmapped)
	return out, unmapped
}

// MarkersFrame renders markers with the aggregated column named column.
func MarkersFrame(column string, markers []Marker) export.Frame {
	fr := export.Frame{Name: "markers", Headers: []string{"station", "lat", "lon", column, "severity", "color"}}
	for _, m := range markers {
		fr.Rows = append(fr.Rows, []any{m.Name, m.Lat, m.Lon, m.Value, m.Level.String(), m.Color()})
	}
	return fr
}

// Frame renders the reference table.
func (r *Reference) Frame() export.Frame {
	fr := export.Frame{Name: "stations", Headers: []string{"station", "lat", "lon"}}
	for _, s := range r.stations {
		fr.Rows = append(fr.Rows, []any{s.Name, s.Lat, s.Lon})
	}
	return fr
}
