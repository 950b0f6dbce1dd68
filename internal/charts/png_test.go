package charts

import (
	"bytes"
	"errors"
	"testing"

	"purchases/internal/core"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRenderPNG_AllCharts(t *testing.T) {
	d := Render(testView(nil))
	for _, spec := range d.All() {
		t.Run(spec.ID, func(t *testing.T) {
			var buf bytes.Buffer
			if err := RenderPNG(spec, 800, 400, &buf); err != nil {
				t.Fatalf("render: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
				t.Fatalf("output is not a PNG")
			}
		})
	}
}

func TestRenderPNG_Empty(t *testing.T) {
	spec := TrendChart(testView(func(s *core.Selection) { s.Global = core.OnlyUnits() }))
	var buf bytes.Buffer
	if err := RenderPNG(spec, 0, 0, &buf); !errors.Is(err, ErrEmptyChart) {
		t.Fatalf("expected ErrEmptyChart, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatal("nothing should be written for an empty chart")
	}
}

func TestRenderPNG_SingleDay(t *testing.T) {
	spec := ChartSpec{
		ID:     IDTrend,
		Kind:   KindLine,
		Labels: []string{"2024-01-01"},
		Series: []Series{
			{Name: "Amount", Axis: AxisY, Color: ColorIndigo, Values: []float64{10}},
			{Name: "Quantity", Axis: AxisY2, Color: ColorCyan, Values: []float64{0}},
		},
	}
	var buf bytes.Buffer
	if err := RenderPNG(spec, 0, 0, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Fatalf("output is not a PNG")
	}
}

func TestRenderPNG_ZeroPie(t *testing.T) {
	spec := ChartSpec{
		Kind:   KindDoughnut,
		Labels: []string{"a", "b"},
		Series: []Series{{Values: []float64{0, 0}}},
	}
	if err := RenderPNG(spec, 0, 0, &bytes.Buffer{}); !errors.Is(err, ErrEmptyChart) {
		t.Fatalf("expected ErrEmptyChart, got %v", err)
	}
}
