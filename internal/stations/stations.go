// Package stations holds the monitoring-station reference: names and
// coordinates used to place per-station aggregates on a map.
package stations

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/golang/geo/s2"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/airloom-cli/internal/dataset"
)

//go:embed beijing.yaml
var beijingYAML []byte

const (
	// EarthRadiusKm is the mean Earth radius used for distances.
	EarthRadiusKm = 6371.0

	// StationCount is the size of every station reference.
	StationCount = 12
)

// Station is one monitoring site.
type Station struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// LatLng returns the station position.
func (s Station) LatLng() s2.LatLng { return s2.LatLngFromDegrees(s.Lat, s.Lon) }

type point struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

type file struct {
	Name     string    `yaml:"name"`
	Center   *point    `yaml:"center,omitempty"`
	Stations []Station `yaml:"stations"`
}

// Reference is an immutable, name-sorted station set.
type Reference struct {
	name     string
	center   *s2.LatLng
	stations []Station
	byName   map[string]int
}

// Default returns the built-in Beijing reference of 12 stations.
func Default() *Reference {
	ref, err := Parse(beijingYAML)
	if err != nil {
		panic(fmt.Sprintf("stations: embedded reference: %v", err))
	}
	return ref
}

// LoadFile reads a replacement reference from a YAML file.
func LoadFile(path string) (*Reference, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stations file: %w", err)
	}
	ref, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ref, nil
}

// Parse decodes and validates a station reference. Validation failures are
// *dataset.ConfigurationError.
func Parse(b []byte) (*Reference, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse stations: %w", err)
	}
	if len(f.Stations) != StationCount {
		return nil, invalid(fmt.Sprintf("want exactly %d stations, got %d", StationCount, len(f.Stations)))
	}
	ref := &Reference{name: f.Name, byName: make(map[string]int, len(f.Stations))}
	for _, s := range f.Stations {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return nil, invalid("station without a name")
		}
		if !s.LatLng().IsValid() {
			return nil, invalid(fmt.Sprintf("station %s: invalid coordinates %.4f,%.4f", s.Name, s.Lat, s.Lon))
		}
		ref.stations = append(ref.stations, s)
	}
	sort.Slice(ref.stations, func(i, j int) bool { return ref.stations[i].Name < ref.stations[j].Name })
	for i, s := range ref.stations {
		key := strings.ToLower(s.Name)
		if _, dup := ref.byName[key]; dup {
			return nil, invalid("duplicate station " + s.Name)
		}
		ref.byName[key] = i
	}
	if f.Center != nil {
		c := s2.LatLngFromDegrees(f.Center.Lat, f.Center.Lon)
		if !c.IsValid() {
			return nil, &dataset.ConfigurationError{Param: "center", Reason: fmt.Sprintf("invalid coordinates %.4f,%.4f", f.Center.Lat, f.Center.Lon)}
		}
		ref.center = &c
	}
	return ref, nil
}

func invalid(reason string) error {
	return &dataset.ConfigurationError{Param: "stations", Reason: reason}
}

// Name is the reference's label, e.g. the city.
func (r *Reference) Name() string { return r.name }

// Len returns the number of stations.
func (r *Reference) Len() int { return len(r.stations) }

// Stations returns the stations sorted by name.
func (r *Reference) Stations() []Station { return append([]Station(nil), r.stations...) }

// Lookup finds a station by name, ignoring case.
func (r *Reference) Lookup(name string) (Station, bool) {
	i, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Station{}, false
	}
	return r.stations[i], true
}

// Bounds returns the smallest lat/lng rectangle covering every station.
func (r *Reference) Bounds() s2.Rect {
	rect := s2.EmptyRect()
	for _, s := range r.stations {
		rect = rect.AddPoint(s.LatLng())
	}
	return rect
}

// Center is the initial map view: the configured centre, or the centre of
// Bounds when none is set.
func (r *Reference) Center() s2.LatLng {
	if r.center != nil {
		return *r.center
	}
	return r.Bounds().Center()
}

// Nearest returns the station closest to lat/lon by great-circle distance and
// that distance in kilometres.
func (r *Reference) Nearest(lat, lon float64) (Station, float64) {
	p := s2.LatLngFromDegrees(lat, lon)
	best, bestKm := Station{}, -1.0
	for _, s := range r.stations {
		km := p.Distance(s.LatLng()).Radians() * EarthRadiusKm
		if bestKm < 0 || km < bestKm {
			best, bestKm = s, km
		}
	}
	return best, bestKm
}
