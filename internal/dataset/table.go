package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Canonical numeric column names of the station-hour dataset.
const (
	ColPM25 = "PM2.5"
	ColPM10 = "PM10"
	ColTemp = "TEMP"
	ColPres = "PRES"
	ColDewp = "DEWP"
	ColRain = "RAIN"
	ColWSPM = "WSPM"
	ColSO2  = "SO2"
	ColNO2  = "NO2"
	ColCO   = "CO"
	ColO3   = "O3"
)

// RequiredColumns must be present in every input file.
var RequiredColumns = []string{ColPM25, ColPM10, ColTemp, ColPres, ColDewp, ColRain, ColWSPM}

// OptionalColumns are picked up when the input carries them.
var OptionalColumns = []string{ColSO2, ColNO2, ColCO, ColO3}

// Value is a numeric measure that may be absent. The zero Value is missing.
type Value struct {
	Float float64
	Valid bool
}

// Some wraps a present measure.
func Some(f float64) Value { return Value{Float: f, Valid: true} }

// Missing is the absent marker.
var Missing = Value{}

// Format renders the value with the given precision, or "n/a" when missing.
func (v Value) Format(prec int) string {
	if !v.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(v.Float, 'f', prec, 64)
}

func (v Value) String() string { return v.Format(2) }

// Observation is one station-hour row. Values are indexed by the table schema.
type Observation struct {
	Time    time.Time
	Year    int
	Station string
	Values  []Value
}

// Schema maps numeric column names to their position in Observation.Values.
type Schema struct {
	cols  []string
	index map[string]int
}

// NewSchema builds a schema from an ordered column list.
func NewSchema(cols []string) *Schema {
	s := &Schema{cols: append([]string(nil), cols...), index: make(map[string]int, len(cols))}
	for i, c := range s.cols {
		s.index[c] = i
	}
	return s
}

// Columns returns the numeric column names in schema order.
func (s *Schema) Columns() []string { return append([]string(nil), s.cols...) }

// Len returns the number of numeric columns.
func (s *Schema) Len() int { return len(s.cols) }

// Has reports whether col is part of the schema.
func (s *Schema) Has(col string) bool {
	_, ok := s.index[col]
	return ok
}

// Index returns the position of col, or a SchemaError.
func (s *Schema) Index(col string) (int, error) {
	i, ok := s.index[col]
	if !ok {
		return -1, &SchemaError{Column: col, Known: s.Columns()}
	}
	return i, nil
}

// Indices resolves several columns at once.
func (s *Schema) Indices(cols []string) ([]int, error) {
	out := make([]int, len(cols))
	for i, c := range cols {
		idx, err := s.Index(c)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

// Source identifies where a table was loaded from.
type Source struct {
	Path     string
	Digest   string
	Size     int64
	ModTime  time.Time
	LoadedAt time.Time
}

// Table is an immutable, ordered set of observations. Filtering returns a new
// table; neither the rows nor their Values may be modified by callers.
type Table struct {
	schema *Schema
	rows   []Observation
	source Source
}

// NewTable builds a table over rows. The slice is copied.
func NewTable(schema *Schema, rows []Observation) *Table {
	return &Table{schema: schema, rows: append([]Observation(nil), rows...)}
}

func (t *Table) Schema() *Schema   { return t.schema }
func (t *Table) Columns() []string { return t.schema.Columns() }
func (t *Table) Len() int          { return len(t.rows) }
func (t *Table) Source() Source    { return t.source }

// Row returns the i-th observation.
func (t *Table) Row(i int) Observation { return t.rows[i] }

// Rows returns a copy of the row slice.
func (t *Table) Rows() []Observation { return append([]Observation(nil), t.rows...) }

// Filter returns the rows matching f as a new table.
func (t *Table) Filter(f Filter) *Table {
	if f.IsZero() {
		return t
	}
	out := &Table{schema: t.schema, source: t.source}
	for _, o := range t.rows {
		if f.Match(o) {
			out.rows = append(out.rows, o)
		}
	}
	return out
}

// Column returns the values of col in row order.
func (t *Table) Column(col string) ([]Value, error) {
	idx, err := t.schema.Index(col)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.rows))
	for i, o := range t.rows {
		out[i] = o.Values[idx]
	}
	return out, nil
}

// Stations lists the distinct station names, sorted.
func (t *Table) Stations() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, o := range t.rows {
		if _, ok := seen[o.Station]; ok {
			continue
		}
		seen[o.Station] = struct{}{}
		out = append(out, o.Station)
	}
	sort.Strings(out)
	return out
}

// Years lists the distinct years, ascending.
func (t *Table) Years() []int {
	seen := map[int]struct{}{}
	var out []int
	for _, o := range t.rows {
		if _, ok := seen[o.Year]; ok {
			continue
		}
		seen[o.Year] = struct{}{}
		out = append(out, o.Year)
	}
	sort.Ints(out)
	return out
}

// Span returns the earliest and latest timestamps. ok is false for an empty table.
func (t *Table) Span() (first, last time.Time, ok bool) {
	if len(t.rows) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = t.rows[0].Time, t.rows[0].Time
	for _, o := range t.rows[1:] {
		if o.Time.Before(first) {
			first = o.Time
		}
		if o.Time.After(last) {
			last = o.Time
		}
	}
	return first, last, true
}

// Filter is a conjunction of optional equality predicates. Zero fields match anything.
type Filter struct {
	Station string
	Year    int
}

func (f Filter) IsZero() bool { return f.Station == "" && f.Year == 0 }

func (f Filter) Match(o Observation) bool {
	if f.Station != "" && o.Station != f.Station {
		return false
	}
	if f.Year != 0 && o.Year != f.Year {
		return false
	}
	return true
}

func (f Filter) String() string {
	var parts []string
	if f.Station != "" {
		parts = append(parts, "station="+f.Station)
	}
	if f.Year != 0 {
		parts = append(parts, fmt.Sprintf("year=%d", f.Year))
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, " | ")
}
