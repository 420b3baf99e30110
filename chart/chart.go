package chart

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"progress-server-go/models"
)

var trendColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// Renderer draws a report's weekly scores and fitted trend.
type Renderer struct {
	Width  vg.Length
	Height vg.Length
}

// New returns a Renderer for a canvas of the given size in points.
func New(width, height float64) *Renderer {
	return &Renderer{Width: vg.Length(width), Height: vg.Length(height)}
}

// SVG renders the scatter of actual scores and the trend curve.
func (r *Renderer) SVG(rep *models.Report) ([]byte, error) {
	if rep == nil {
		return nil, errors.New("chart: nil report")
	}

	p := plot.New()
	p.Title.Text = "Academic Performance Trend"
	p.X.Label.Text = "Week"
	p.Y.Label.Text = "Test Score"
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	actual := make(plotter.XYs, len(rep.Scores))
	for i, s := range rep.Scores {
		actual[i].X = float64(i + 1)
		actual[i].Y = float64(s)
	}
	scatter, err := plotter.NewScatter(actual)
	if err != nil {
		return nil, fmt.Errorf("chart: scatter: %w", err)
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(4)
	p.Add(scatter)
	p.Legend.Add("Actual Scores", scatter)

	if len(rep.Curve) > 0 {
		trend := make(plotter.XYs, len(rep.Curve))
		for i, pt := range rep.Curve {
			trend[i].X, trend[i].Y = pt.X, pt.Y
		}
		line, err := plotter.NewLine(trend)
		if err != nil {
			return nil, fmt.Errorf("chart: trend: %w", err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = trendColor
		p.Add(line)
		p.Legend.Add("Performance Trend", line)
	}

	w, err := p.WriterTo(r.Width, r.Height, "svg")
	if err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart: write svg: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI renders the chart as a base64 data URI for inline <img> tags.
func (r *Renderer) DataURI(rep *models.Report) (string, error) {
	b, err := r.SVG(rep)
	if err != nil {
		return "", err
	}
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(b), nil
}

// IsDark reports whether white text reads better than black on a #rrggbb
// background. Anything unparseable counts as light.
func IsDark(hex string) bool {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return false
	}
	r, g, b := float64(v>>16&0xff), float64(v>>8&0xff), float64(v&0xff)
	return 0.299*r+0.587*g+0.114*b < 128
}
