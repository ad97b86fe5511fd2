// Package export serializes tabular engine results to CSV, XLSX, JSON and Markdown.
package export

import (
	"fmt"
	"strconv"

	"github.com/KaramelBytes/airloom-cli/internal/dataset"
)

// Frame is an ordered table of named columns. Cells hold nil (missing),
// string, int, float64 or dataset.Value.
type Frame struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Empty reports whether the frame has no data rows.
func (f Frame) Empty() bool { return len(f.Rows) == 0 }

// FormatCell renders a cell as text; missing cells render as "".
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case dataset.Value:
		if !x.Valid {
			return ""
		}
		return strconv.FormatFloat(x.Float, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// nativeCell unwraps a cell for writers with typed cells (XLSX, JSON).
func nativeCell(v any) any {
	switch x := v.(type) {
	case dataset.Value:
		if !x.Valid {
			return nil
		}
		return x.Float
	default:
		return v
	}
}
