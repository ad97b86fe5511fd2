package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/airloom-cli/internal/utils"
	"github.com/xuri/excelize/v2"
)

// Writer serializes frames into one output format.
type Writer interface {
	CanWrite(filename string) bool
	Write(w io.Writer, frames []Frame) error
}

var registry []Writer

// Register adds a writer implementation to the registry.
func Register(w Writer) {
	registry = append(registry, w)
}

func init() {
	Register(csvWriter{})
	Register(xlsxWriter{})
	Register(jsonWriter{})
	Register(markdownWriter{})
}

// WriterFor selects a writer by filename extension.
func WriterFor(path string) (Writer, error) {
	for _, w := range registry {
		if w.CanWrite(path) {
			return w, nil
		}
	}
	return nil, fmt.Errorf("unsupported output format %q (use .csv, .xlsx, .json or .md)", filepath.Ext(path))
}

// WriteFile writes frames to path atomically, choosing the format by extension.
func WriteFile(path string, frames ...Frame) error {
	if len(frames) == 0 {
		return fmt.Errorf("nothing to write")
	}
	w, err := WriterFor(path)
	if err != nil {
		return err
	}
	return utils.SafeWrite(path, func(out io.Writer) error {
		return w.Write(out, frames)
	})
}

func hasExt(name string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

type csvWriter struct{}

func (csvWriter) CanWrite(filename string) bool { return hasExt(filename, ".csv") }

func (csvWriter) Write(w io.Writer, frames []Frame) error {
	if len(frames) != 1 {
		return fmt.Errorf("csv holds exactly one table, got %d (use .xlsx for several)", len(frames))
	}
	fr := frames[0]
	cw := csv.NewWriter(w)
	if err := cw.Write(fr.Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	rec := make([]string, len(fr.Headers))
	for i, row := range fr.Rows {
		for j := range rec {
			rec[j] = ""
			if j < len(row) {
				rec[j] = FormatCell(row[j])
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type xlsxWriter struct{}

func (xlsxWriter) CanWrite(filename string) bool { return hasExt(filename, ".xlsx") }

func (xlsxWriter) Write(w io.Writer, frames []Frame) error {
	f := excelize.NewFile()
	defer f.Close()

	used := map[string]bool{}
	for i, fr := range frames {
		name := sheetName(fr.Name, i, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %q: %w", name, err)
		}
		header := make([]interface{}, len(fr.Headers))
		for j, h := range fr.Headers {
			header[j] = h
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for r, row := range fr.Rows {
			cells := make([]interface{}, len(row))
			for j, v := range row {
				cells[j] = nativeCell(v)
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, cell, &cells); err != nil {
				return fmt.Errorf("write row %d: %w", r+1, err)
			}
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

// sheetName derives a unique, Excel-safe sheet name (max 31 chars, no []:*?/\).
func sheetName(name string, i int, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = fmt.Sprintf("Sheet%d", i+1)
	}
	if len([]rune(clean)) > 31 {
		clean = string([]rune(clean)[:31])
	}
	base, n := clean, 2
	for used[strings.ToLower(clean)] {
		suffix := fmt.Sprintf("_%d", n)
		r := []rune(base)
		if len(r)+len(suffix) > 31 {
			r = r[:31-len(suffix)]
		}
		clean = string(r) + suffix
		n++
	}
	used[strings.ToLower(clean)] = true
	return clean
}

type jsonWriter struct{}

func (jsonWriter) CanWrite(filename string) bool { return hasExt(filename, ".json") }

func (jsonWriter) Write(w io.Writer, frames []Frame) error {
	var v any
	if len(frames) == 1 {
		v = records(frames[0])
	} else {
		m := make(map[string]any, len(frames))
		for i, fr := range frames {
			key := fr.Name
			if key == "" {
				key = fmt.Sprintf("table%d", i+1)
			}
			m[key] = records(fr)
		}
		v = m
	}
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

func records(fr Frame) []map[string]any {
	out := make([]map[string]any, 0, len(fr.Rows))
	for _, row := range fr.Rows {
		rec := make(map[string]any, len(fr.Headers))
		for j, h := range fr.Headers {
			if j < len(row) {
				rec[h] = nativeCell(row[j])
			} else {
				rec[h] = nil
			}
		}
		out = append(out, rec)
	}
	return out
}

type markdownWriter struct{}

func (markdownWriter) CanWrite(filename string) bool { return hasExt(filename, ".md", ".markdown") }

func (markdownWriter) Write(w io.Writer, frames []Frame) error {
	for i, fr := range frames {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if len(frames) > 1 && fr.Name != "" {
			if _, err := fmt.Fprintf(w, "### %s\n\n", fr.Name); err != nil {
				return err
			}
		}
		if err := WriteMarkdown(w, fr); err != nil {
			return err
		}
	}
	return nil
}

// WriteMarkdown renders one frame as a pipe table. Missing cells render as "n/a".
func WriteMarkdown(w io.Writer, fr Frame) error {
	var b strings.Builder
	b.WriteString("| ")
	for i, h := range fr.Headers {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeVal(h))
	}
	b.WriteString(" |\n|")
	for range fr.Headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range fr.Rows {
		b.WriteString("| ")
		for i := range fr.Headers {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := "n/a"
			if i < len(row) && nativeCell(row[i]) != nil {
				val = displayCell(row[i])
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// displayCell rounds floats for human-facing output; files keep full precision.
func displayCell(v any) string {
	switch x := nativeCell(v).(type) {
	case float64:
		return fmt.Sprintf("%.2f", x)
	default:
		return FormatCell(x)
	}
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
