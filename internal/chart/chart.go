// Package chart renders monthly trends and histograms as images.
package chart

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/airloom-cli/internal/analysis"
	"github.com/KaramelBytes/airloom-cli/internal/utils"
)

// Default image size.
var (
	Width  = 10 * vg.Inch
	Height = 5 * vg.Inch
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to plot")

// Line plots every column of the series against month. Months without a
// mean break the line instead of dropping to zero.
func Line(s *analysis.MonthlySeries, title string) (*plot.Plot, error) {
	if s == nil || len(s.Buckets) == 0 {
		return nil, ErrNoData
	}
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "month"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Add(plotter.NewGrid())

	drawn := false
	for c, col := range s.Columns {
		clr := plotutil.Color(c)
		legend := false
		for _, seg := range segments(s, c) {
			var th plot.Thumbnailer
			if len(seg) == 1 {
				sc, err := plotter.NewScatter(seg)
				if err != nil {
					return nil, fmt.Errorf("plot %s: %w", col, err)
				}
				sc.GlyphStyle.Color = clr
				sc.GlyphStyle.Radius = vg.Points(2)
				p.Add(sc)
				th = sc
			} else {
				ln, err := plotter.NewLine(seg)
				if err != nil {
					return nil, fmt.Errorf("plot %s: %w", col, err)
				}
				ln.Color = clr
				ln.Width = vg.Points(1.5)
				p.Add(ln)
				th = ln
			}
			if !legend {
				p.Legend.Add(col, th)
				legend = true
			}
			drawn = true
		}
	}
	if !drawn {
		return nil, ErrNoData
	}
	p.Legend.Top = true
	return p, nil
}

// segments splits column c into runs of consecutive months with a mean.
func segments(s *analysis.MonthlySeries, c int) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for _, b := range s.Buckets {
		v := b.Means[c]
		if !v.Valid {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(b.Month.Unix()), Y: v.Float})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// Histogram draws the bins of h.
func Histogram(h *analysis.Histogram, title string) (*plot.Plot, error) {
	if h == nil || h.Total() == 0 {
		return nil, ErrNoData
	}
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = h.Column
	p.Y.Label.Text = "count"

	bins := make([]plotter.HistogramBin, len(h.Bins))
	for i, b := range h.Bins {
		bins[i] = plotter.HistogramBin{Min: b.Min, Max: b.Max, Weight: float64(b.Count)}
	}
	hist := &plotter.Histogram{
		Bins:      bins,
		Width:     h.Bins[0].Max - h.Bins[0].Min,
		FillColor: plotutil.Color(2),
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(hist)
	return p, nil
}

// Save writes p to path atomically. The format follows the extension:
// .png, .svg, .pdf, .jpg.
func Save(p *plot.Plot, path string) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if format == "" {
		return fmt.Errorf("chart %s: missing file extension", path)
	}
	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return fmt.Errorf("chart %s: %w", path, err)
	}
	return utils.SafeWrite(path, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	})
}
