package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrEmptyChart is returned when a spec has nothing to rasterize.
var ErrEmptyChart = errors.New("chart has no data")

// Default snapshot size.
const (
	DefaultWidth  = 1024
	DefaultHeight = 500
)

// RenderPNG rasterizes spec. Line charts become time series with an optional
// secondary axis, bar charts draw their first series and doughnuts become
// pies.
func RenderPNG(spec ChartSpec, width, height int, w io.Writer) error {
	if spec.Empty || len(spec.Labels) == 0 || len(spec.Series) == 0 {
		return ErrEmptyChart
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = spec.Height
		if height <= 0 {
			height = DefaultHeight
		}
	}

	switch spec.Kind {
	case KindLine:
		if len(spec.Labels) == 1 {
			// go-chart needs a non-zero x range; pad like a one-day series.
			return renderLine(padSinglePoint(spec), width, height, w)
		}
		return renderLine(spec, width, height, w)
	case KindBar:
		return renderBar(spec, width, height, w)
	case KindDoughnut:
		return renderPie(spec, width, height, w)
	default:
		return fmt.Errorf("unsupported chart kind %q", spec.Kind)
	}
}

func renderLine(spec ChartSpec, width, height int, w io.Writer) error {
	xs := make([]time.Time, len(spec.Labels))
	for i, l := range spec.Labels {
		t, err := time.Parse("2006-01-02", l)
		if err != nil {
			return fmt.Errorf("parse label %q: %w", l, err)
		}
		xs[i] = t
	}

	var (
		series    []chart.Series
		primary   = newBounds()
		secondary = newBounds()
		hasSecond bool
	)
	for _, s := range spec.Series {
		col := ParseColor(s.Color)
		st := chart.Style{StrokeColor: col, StrokeWidth: 3}
		if s.Fill {
			st.FillColor = ParseColor(s.FillColor)
		}
		if s.Dashed {
			st.StrokeDashArray = []float64{4, 4}
		}
		ts := chart.TimeSeries{Name: s.Name, XValues: xs, YValues: s.Values, Style: st}
		if s.Axis == AxisY2 {
			ts.YAxis = chart.YAxisSecondary
			hasSecond = true
			secondary.add(s.Values)
		} else {
			primary.add(s.Values)
		}
		series = append(series, ts)
	}

	ch := chart.Chart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 16, Right: 16, Bottom: 28}},
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeValueFormatter},
		YAxis:      chart.YAxis{Name: axisTitle(spec, AxisY), Range: primary.rangeFromZero()},
		Series:     series,
	}
	if hasSecond {
		ch.YAxisSecondary = chart.YAxis{Name: axisTitle(spec, AxisY2), Range: secondary.rangeFromZero()}
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

func renderBar(spec ChartSpec, width, height int, w io.Writer) error {
	first := spec.Series[0]
	b := newBounds()
	b.add(first.Values)

	bars := make([]chart.Value, len(spec.Labels))
	col := ParseColor(first.Color)
	for i, l := range spec.Labels {
		v := 0.0
		if i < len(first.Values) {
			v = first.Values[i]
		}
		bars[i] = chart.Value{Label: l, Value: v, Style: chart.Style{FillColor: col, StrokeColor: col}}
	}

	title := spec.Title
	if first.Name != "" {
		title = fmt.Sprintf("%s (%s)", spec.Title, first.Name)
	}
	bw := barWidth(width, len(bars))
	bc := chart.BarChart{
		Title:      title,
		Width:      width,
		Height:     height,
		BarWidth:   bw,
		BarSpacing: bw / 2,
		Background: chart.Style{Padding: chart.Box{Top: 50}},
		YAxis:      chart.YAxis{Range: b.rangeFromZero()},
		Bars:       bars,
	}
	return bc.Render(chart.PNG, w)
}

func renderPie(spec ChartSpec, width, height int, w io.Writer) error {
	s := spec.Series[0]
	values := make([]chart.Value, 0, len(spec.Labels))
	for i, l := range spec.Labels {
		if i >= len(s.Values) || s.Values[i] <= 0 || math.IsNaN(s.Values[i]) {
			continue
		}
		label := l
		if spec.ShowPercent && i < len(s.Percents) {
			label = fmt.Sprintf("%s %.1f%%", l, s.Percents[i])
		}
		col := ParseColor(PaletteColor(PiePalette, i))
		if i < len(s.Colors) {
			col = ParseColor(s.Colors[i])
		}
		values = append(values, chart.Value{Label: label, Value: s.Values[i], Style: chart.Style{FillColor: col, StrokeColor: drawing.ColorWhite}})
	}
	if len(values) == 0 {
		return ErrEmptyChart
	}
	pc := chart.PieChart{
		Title:  spec.Title,
		Width:  width,
		Height: height,
		Values: values,
	}
	return pc.Render(chart.PNG, w)
}

func padSinglePoint(spec ChartSpec) ChartSpec {
	t, err := time.Parse("2006-01-02", spec.Labels[0])
	if err != nil {
		return spec
	}
	out := spec
	out.Labels = []string{spec.Labels[0], t.AddDate(0, 0, 1).Format("2006-01-02")}
	out.Series = make([]Series, len(spec.Series))
	for i, s := range spec.Series {
		s.Values = []float64{s.Values[0], s.Values[0]}
		out.Series[i] = s
	}
	return out
}

func axisTitle(spec ChartSpec, id string) string {
	for _, a := range spec.Axes {
		if a.ID == id {
			return a.Title
		}
	}
	return ""
}

func barWidth(width, n int) int {
	if n == 0 {
		return 40
	}
	bw := width / (n * 2)
	if bw > 120 {
		bw = 120
	}
	if bw < 10 {
		bw = 10
	}
	return bw
}

type bounds struct{ min, max float64 }

func newBounds() bounds { return bounds{min: math.MaxFloat64, max: -math.MaxFloat64} }

func (b *bounds) add(vals []float64) {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		b.min = math.Min(b.min, v)
		b.max = math.Max(b.max, v)
	}
}

// rangeFromZero anchors the axis at zero, or below it for negative data, and
// guarantees a non-empty range.
func (b bounds) rangeFromZero() *chart.ContinuousRange {
	lo, hi := 0.0, 1.0
	if b.min != math.MaxFloat64 {
		lo = math.Min(0, b.min)
		hi = b.max
	}
	if hi <= lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi * 1.05}
}

// ParseColor reads "#rrggbb" or "rgba(r, g, b, a)". Unknown input yields
// the indigo accent.
func ParseColor(s string) drawing.Color {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#") && len(s) == 7:
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			break
		}
		return drawing.Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(s, "rgba("), ")"), ",")
		if len(parts) != 4 {
			break
		}
		var c [3]uint8
		for i := 0; i < 3; i++ {
			n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil || n < 0 || n > 255 {
				return indigo()
			}
			c[i] = uint8(n)
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			break
		}
		return drawing.Color{R: c[0], G: c[1], B: c[2], A: uint8(math.Round(a * 255))}
	}
	return indigo()
}

func indigo() drawing.Color { return drawing.Color{R: 0x4f, G: 0x46, B: 0xe5, A: 255} }
