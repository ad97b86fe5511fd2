package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format decodes one input file type into a Table.
type Format interface {
	CanParse(filename string) bool
	Parse(data []byte, sheet string) (*Table, error)
}

var formats []Format

// RegisterFormat adds an input format to the registry.
func RegisterFormat(f Format) {
	formats = append(formats, f)
}

func init() {
	RegisterFormat(delimitedFormat{comma: ',', exts: []string{".csv"}})
	RegisterFormat(delimitedFormat{comma: '\t', exts: []string{".tsv", ".tab"}})
	RegisterFormat(xlsxFormat{})
}

// ErrUnsupported indicates an input file type with no registered format.
var ErrUnsupported = errors.New("unsupported input format")

// FormatFor selects the format registered for filename's extension.
func FormatFor(filename string) (Format, error) {
	for _, f := range formats {
		if f.CanParse(filename) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (use .csv, .tsv or .xlsx)", ErrUnsupported, filepath.Ext(filename))
}

type delimitedFormat struct {
	comma rune
	exts  []string
}

func (d delimitedFormat) CanParse(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range d.exts {
		if ext == e {
			return true
		}
	}
	return false
}

func (d delimitedFormat) Parse(data []byte, _ string) (*Table, error) {
	return parseDelimited(bytes.NewReader(data), d.comma)
}

type xlsxFormat struct{}

func (xlsxFormat) CanParse(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".xlsx")
}

func (xlsxFormat) Parse(data []byte, sheet string) (*Table, error) {
	return ParseXLSX(bytes.NewReader(data), sheet)
}
