package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var timeColumns = []string{"year", "month", "day", "hour", "station"}

// missingTokens are the spellings of an absent measure, compared case-insensitively.
var missingTokens = map[string]struct{}{"": {}, "na": {}, "nan": {}, "null": {}, "none": {}}

// nonNegative lists the particulate columns that cannot hold negative readings.
var nonNegative = map[string]bool{ColPM25: true, ColPM10: true}

// builder turns header + string records into a Table. CSV and XLSX input share it.
type builder struct {
	pos    map[string]int // time/station column -> record index
	numPos []int          // schema index -> record index
	schema *Schema
	rows   []Observation
}

func newBuilder(header []string) (*builder, error) {
	lookup := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		lookup[strings.ToLower(h)] = i
	}
	b := &builder{pos: map[string]int{}}
	var missing []string
	for _, c := range timeColumns {
		i, ok := lookup[c]
		if !ok {
			missing = append(missing, c)
			continue
		}
		b.pos[c] = i
	}
	var cols []string
	for _, c := range RequiredColumns {
		i, ok := lookup[strings.ToLower(c)]
		if !ok {
			missing = append(missing, c)
			continue
		}
		cols = append(cols, c)
		b.numPos = append(b.numPos, i)
	}
	if len(missing) > 0 {
		return nil, &LoadError{Line: 1, Err: fmt.Errorf("header missing required columns: %s", strings.Join(missing, ", "))}
	}
	for _, c := range OptionalColumns {
		if i, ok := lookup[strings.ToLower(c)]; ok {
			cols = append(cols, c)
			b.numPos = append(b.numPos, i)
		}
	}
	b.schema = NewSchema(cols)
	return b, nil
}

func (b *builder) add(line int, rec []string) error {
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	var parts [4]int
	for k, name := range timeColumns[:4] {
		raw := field(b.pos[name])
		n, err := strconv.Atoi(raw)
		if err != nil {
			// Spreadsheets often store integers as "2013.0".
			f, ferr := strconv.ParseFloat(raw, 64)
			if ferr != nil || f != float64(int(f)) {
				return &LoadError{Line: line, Err: fmt.Errorf("%s: not an integer: %q", name, raw)}
			}
			n = int(f)
		}
		parts[k] = n
	}
	ts, err := makeTimestamp(parts[0], parts[1], parts[2], parts[3])
	if err != nil {
		return &LoadError{Line: line, Err: err}
	}
	station := field(b.pos["station"])
	if station == "" {
		return &LoadError{Line: line, Err: errors.New("station is empty")}
	}
	vals := make([]Value, len(b.numPos))
	for j, idx := range b.numPos {
		raw := field(idx)
		if _, ok := missingTokens[strings.ToLower(raw)]; ok {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return &LoadError{Line: line, Err: fmt.Errorf("%s: not a number: %q", b.schema.cols[j], raw)}
		}
		if math.IsInf(f, 0) {
			return &LoadError{Line: line, Err: fmt.Errorf("%s: not a finite number: %q", b.schema.cols[j], raw)}
		}
		if f < 0 && nonNegative[b.schema.cols[j]] {
			return &LoadError{Line: line, Err: fmt.Errorf("%s: negative concentration: %q", b.schema.cols[j], raw)}
		}
		vals[j] = Some(f)
	}
	b.rows = append(b.rows, Observation{Time: ts, Year: parts[0], Station: station, Values: vals})
	return nil
}

func (b *builder) table() *Table {
	return &Table{schema: b.schema, rows: b.rows}
}

// makeTimestamp validates that the parts form a real calendar hour.
func makeTimestamp(year, month, day, hour int) (time.Time, error) {
	ts := time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)
	if ts.Year() != year || int(ts.Month()) != month || ts.Day() != day || ts.Hour() != hour {
		return time.Time{}, fmt.Errorf("invalid timestamp %04d-%02d-%02d %02d:00", year, month, day, hour)
	}
	return ts, nil
}

// ParseCSV reads a headered CSV stream into a Table.
func ParseCSV(r io.Reader) (*Table, error) {
	return parseDelimited(r, ',')
}

func parseDelimited(r io.Reader, comma rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Err: errors.New("empty input: header required")}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	b, err := newBuilder(header)
	if err != nil {
		return nil, err
	}
	line := 1
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &LoadError{Line: line + 1, Err: err}
		}
		line++
		if err := b.add(line, rec); err != nil {
			return nil, err
		}
	}
	return b.table(), nil
}

// ParseXLSX reads the named sheet (first sheet if empty) of a workbook into a Table.
func ParseXLSX(r io.Reader, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &LoadError{Err: errors.New("workbook has no sheets")}
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, &LoadError{Err: fmt.Errorf("sheet %q is empty: header required", sheet)}
	}
	b, err := newBuilder(rows[0])
	if err != nil {
		return nil, err
	}
	for i, rec := range rows[1:] {
		if isBlank(rec) {
			continue
		}
		if err := b.add(i+2, rec); err != nil {
			return nil, err
		}
	}
	return b.table(), nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
