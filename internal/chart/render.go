package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
)

// Format is an image output format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

var (
	ErrUnknownFormat = errors.New("unknown image format")
	ErrNothingToPlot = errors.New("nothing to plot")
)

// ParseFormat accepts "png" or "svg", case-insensitive, with an optional leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "png", "":
		return PNG, nil
	case "svg":
		return SVG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the mime type of the format.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Renderer draws chart specs with go-chart.
type Renderer struct {
	Width  int
	Height int
	Format Format
}

// NewRenderer returns a renderer with sane defaults for zero values.
func NewRenderer(width, height int, format Format) Renderer {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 576
	}
	if format == "" {
		format = PNG
	}
	return Renderer{Width: width, Height: height, Format: format}
}

func (r Renderer) provider() gochart.RendererProvider {
	if r.Format == SVG {
		return gochart.SVG
	}
	return gochart.PNG
}

// Render draws s to w.
func (r Renderer) Render(w io.Writer, s *Spec) error {
	if s == nil || len(s.Categories) == 0 || len(s.Series) == 0 {
		return ErrNothingToPlot
	}
	r = NewRenderer(r.Width, r.Height, r.Format)
	var err error
	switch s.Type {
	case Bars:
		if len(s.Series) == 1 {
			err = r.bars(w, s)
		} else {
			err = r.groupedBars(w, s)
		}
	case Lines:
		err = r.lines(w, s)
	case Pie:
		err = r.pie(w, s)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, s.Type)
	}
	if err != nil {
		return fmt.Errorf("render %s chart: %w", s.Type, err)
	}
	return nil
}

func background() gochart.Style {
	return gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

func (r Renderer) barWidth(n int) int {
	w := (r.Width - 80) / (n * 3 / 2)
	if n == 1 {
		w = 80
	}
	switch {
	case w > 80:
		return 80
	case w < 4:
		return 4
	}
	return w
}

func (r Renderer) bars(w io.Writer, s *Spec) error {
	values := make([]gochart.Value, 0, len(s.Series[0].Points))
	var ys []float64
	for _, p := range s.Series[0].Points {
		values = append(values, gochart.Value{Label: p.Label, Value: p.Value})
		ys = append(ys, p.Value)
	}
	bw := r.barWidth(len(values))
	bc := gochart.BarChart{
		Title:      s.Title,
		Width:      r.Width,
		Height:     r.Height,
		Background: background(),
		BarWidth:   bw,
		BarSpacing: bw / 2,
		YAxis:      gochart.YAxis{Name: s.YLabel, Range: valueRange(ys)},
		Bars:       values,
	}
	return bc.Render(r.provider(), w)
}

// groupedBars draws one bar per (category, series) pair, colored by series.
// go-chart's stacked bars are normalized to 100% so they cannot show sums.
func (r Renderer) groupedBars(w io.Writer, s *Spec) error {
	var values []gochart.Value
	var ys []float64
	for ci, c := range s.Categories {
		for si, ser := range s.Series {
			for _, p := range ser.Points {
				if p.Index != ci {
					continue
				}
				color := gochart.GetDefaultColor(si)
				values = append(values, gochart.Value{
					Label: c + " / " + ser.Name,
					Value: p.Value,
					Style: gochart.Style{FillColor: color, StrokeColor: color},
				})
				ys = append(ys, p.Value)
			}
		}
	}
	bw := r.barWidth(len(values))
	bc := gochart.BarChart{
		Title:      s.Title,
		Width:      r.Width,
		Height:     r.Height,
		Background: background(),
		BarWidth:   bw,
		BarSpacing: bw / 2,
		YAxis:      gochart.YAxis{Name: s.YLabel, Range: valueRange(ys)},
		Bars:       values,
	}
	return bc.Render(r.provider(), w)
}

func (r Renderer) lines(w io.Writer, s *Spec) error {
	n := len(s.Categories)
	ticks := make([]gochart.Tick, 0, n+1)
	for i, c := range s.Categories {
		ticks = append(ticks, gochart.Tick{Value: float64(i + 1), Label: c})
	}
	// explicit range so a single category still has non-zero width
	minX, maxX := 0.5, float64(n)+0.5
	if n == 1 {
		maxX = 2
		ticks = append(ticks, gochart.Tick{Value: 2, Label: ""})
	}

	var all []float64
	series := make([]gochart.Series, 0, len(s.Series))
	for si, ser := range s.Series {
		if len(ser.Points) == 0 {
			continue
		}
		xs := make([]float64, 0, len(ser.Points)+1)
		ys := make([]float64, 0, len(ser.Points)+1)
		for _, p := range ser.Points {
			xs = append(xs, float64(p.Index+1))
			ys = append(ys, p.Value)
		}
		if len(xs) == 1 {
			xs = append(xs, xs[0]+0.25)
			ys = append(ys, ys[0])
		}
		all = append(all, ys...)
		color := gochart.GetDefaultColor(si)
		series = append(series, gochart.ContinuousSeries{
			Name:    ser.Name,
			XValues: xs,
			YValues: ys,
			Style:   gochart.Style{StrokeColor: color, StrokeWidth: 2, DotColor: color, DotWidth: 3},
		})
	}
	if len(series) == 0 {
		return ErrNothingToPlot
	}
	ch := gochart.Chart{
		Title:      s.Title,
		Width:      r.Width,
		Height:     r.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 24}},
		XAxis:      gochart.XAxis{Name: s.XLabel, Ticks: ticks, Range: &gochart.ContinuousRange{Min: minX, Max: maxX}},
		YAxis:      gochart.YAxis{Name: s.YLabel, Range: valueRange(all)},
		Series:     series,
	}
	if len(series) > 1 {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}
	return ch.Render(r.provider(), w)
}

// pie draws one slice per category. Slices must be positive; others are left out.
func (r Renderer) pie(w io.Writer, s *Spec) error {
	var values []gochart.Value
	for _, p := range s.Series[0].Points {
		if p.Value > 0 {
			values = append(values, gochart.Value{Label: p.Label, Value: p.Value})
		}
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: pie needs at least one positive value", ErrNothingToPlot)
	}
	pc := gochart.PieChart{
		Title:      s.Title,
		Width:      r.Width,
		Height:     r.Height,
		Background: background(),
		Values:     values,
	}
	return pc.Render(r.provider(), w)
}

// valueRange spans zero and every value, padded so the domain is never empty.
func valueRange(ys []float64) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, y := range ys {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05
	if lo < 0 {
		lo -= pad
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi + pad}
}
