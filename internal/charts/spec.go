// Package charts maps computed views to chart specifications. A spec is
// library-neutral: the browser draws it with Chart.js and RenderPNG
// rasterizes it with go-chart.
package charts

import (
	"fmt"

	"purchases/internal/analytics"
	"purchases/internal/core"
)

// Chart identifiers, also used in URLs.
const (
	IDTrend         = "trend"
	IDSuppliers     = "suppliers"
	IDCategories    = "categories"
	IDProducts      = "products"
	IDSupplierTrend = "supplier_trend"
)

// MaxLabelLength caps product names on the product chart.
const MaxLabelLength = 25

// Kind is the visual form of a chart.
type Kind string

const (
	KindLine     Kind = "line"
	KindBar      Kind = "bar"
	KindDoughnut Kind = "doughnut"
)

// Axis ids. Horizontal bar charts put values on x and x2.
const (
	AxisY  = "y"
	AxisY2 = "y2"
	AxisX  = "x"
	AxisX2 = "x2"
)

type (
	// Axis describes one value axis.
	Axis struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Position string `json:"position"`
		Color    string `json:"color,omitempty"`
		Grid     bool   `json:"grid"`
	}

	// Series is one dataset drawn on the chart.
	Series struct {
		Name      string    `json:"name"`
		Axis      string    `json:"axis,omitempty"`
		Color     string    `json:"color,omitempty"`
		FillColor string    `json:"fill_color,omitempty"`
		Fill      bool      `json:"fill,omitempty"`
		Dashed    bool      `json:"dashed,omitempty"`
		Values    []float64 `json:"values"`
		// Colors and Percents are set on doughnut series, one per value.
		Colors   []string  `json:"colors,omitempty"`
		Percents []float64 `json:"percents,omitempty"`
	}

	// ChartSpec is everything a renderer needs to draw one chart.
	ChartSpec struct {
		ID         string   `json:"id"`
		Title      string   `json:"title"`
		Subtitle   string   `json:"subtitle,omitempty"`
		Kind       Kind     `json:"kind"`
		Horizontal bool     `json:"horizontal,omitempty"`
		Height     int      `json:"height"`
		Labels     []string `json:"labels"`
		// FullLabels holds untruncated labels when Labels were shortened.
		FullLabels  []string `json:"full_labels,omitempty"`
		Series      []Series `json:"series"`
		Axes        []Axis   `json:"axes,omitempty"`
		Hole        float64  `json:"hole,omitempty"`
		ShowPercent bool     `json:"show_percent,omitempty"`
		Empty       bool     `json:"empty"`
		Message     string   `json:"message,omitempty"`
	}

	// Dashboard is the set of charts for one view.
	Dashboard struct {
		Trend         ChartSpec `json:"trend"`
		Suppliers     ChartSpec `json:"suppliers"`
		Categories    ChartSpec `json:"categories"`
		Products      ChartSpec `json:"products"`
		SupplierTrend ChartSpec `json:"supplier_trend"`
	}
)

// IDs lists every chart id in display order.
func IDs() []string {
	return []string{IDTrend, IDSuppliers, IDCategories, IDProducts, IDSupplierTrend}
}

// All returns the charts in display order.
func (d Dashboard) All() []ChartSpec {
	return []ChartSpec{d.Trend, d.Suppliers, d.Categories, d.Products, d.SupplierTrend}
}

// Get returns the chart with the given id.
func (d Dashboard) Get(id string) (ChartSpec, error) {
	for _, c := range d.All() {
		if c.ID == id {
			return c, nil
		}
	}
	return ChartSpec{}, fmt.Errorf("%w: %q", core.ErrUnknownChart, id)
}

// Render builds every chart of the dashboard from v.
func Render(v analytics.View) Dashboard {
	return Dashboard{
		Trend:         TrendChart(v),
		Suppliers:     SuppliersChart(v),
		Categories:    CategoriesChart(v),
		Products:      ProductsChart(v),
		SupplierTrend: SupplierTrendChart(v),
	}
}

// TrendChart plots daily amount against daily quantity for the global unit
// filter.
func TrendChart(v analytics.View) ChartSpec {
	spec := ChartSpec{
		ID:     IDTrend,
		Title:  "Financial vs Volume Analysis",
		Kind:   KindLine,
		Height: 500,
		Labels: make([]string, len(v.Daily)),
		Axes: []Axis{
			{ID: AxisY, Title: "Total Amount (USD)", Position: "left", Color: ColorIndigo, Grid: true},
			{ID: AxisY2, Title: "Quantity", Position: "right", Color: ColorCyan},
		},
	}
	amount := Series{Name: "Total Amount (USD)", Axis: AxisY, Color: ColorIndigo, FillColor: fillIndigo, Fill: true, Values: make([]float64, len(v.Daily))}
	qty := Series{Name: fmt.Sprintf("Quantity (%s)", v.UnitsLabel), Axis: AxisY2, Color: ColorCyan, FillColor: fillCyan, Fill: true, Dashed: true, Values: make([]float64, len(v.Daily))}
	for i, p := range v.Daily {
		spec.Labels[i] = p.Date.String()
		amount.Values[i] = p.Amount
		qty.Values[i] = p.Quantity
	}
	spec.Series = []Series{amount, qty}
	if len(v.Daily) == 0 {
		markEmpty(&spec, v, analytics.SectionOverview)
	}
	return spec
}

// SuppliersChart compares amount and volume of the top suppliers of the
// detail unit.
func SuppliersChart(v analytics.View) ChartSpec {
	spec := ChartSpec{
		ID:     IDSuppliers,
		Title:  fmt.Sprintf("Top %d Suppliers", analytics.TopSuppliers),
		Kind:   KindBar,
		Height: 450,
		Axes: []Axis{
			{ID: AxisY, Title: "Amount", Position: "left", Grid: true},
			{ID: AxisY2, Title: "Volume", Position: "right"},
		},
	}
	spec.Labels, spec.Series = groupedBars(v.Suppliers, AxisY, AxisY2, barIndigo, barCyan, "Amount", "Volume")
	if len(v.Suppliers) == 0 {
		markEmpty(&spec, v, analytics.SectionDetail)
	}
	return spec
}

// CategoriesChart is the category doughnut of the detail unit, valued by the
// pie metric toggle.
func CategoriesChart(v analytics.View) ChartSpec {
	spec := ChartSpec{
		ID:          IDCategories,
		Title:       "Category Distribution",
		Subtitle:    "By " + v.Selection.PieMetric.Label(),
		Kind:        KindDoughnut,
		Height:      400,
		Hole:        0.4,
		ShowPercent: true,
		Labels:      make([]string, len(v.CategoryShares)),
	}
	s := Series{
		Name:     v.Selection.PieMetric.Label(),
		Values:   make([]float64, len(v.CategoryShares)),
		Colors:   make([]string, len(v.CategoryShares)),
		Percents: make([]float64, len(v.CategoryShares)),
	}
	for i, sh := range v.CategoryShares {
		spec.Labels[i] = sh.Label
		s.Values[i] = sh.Value
		s.Colors[i] = PaletteColor(PiePalette, i)
		s.Percents[i] = sh.Percent
	}
	spec.Series = []Series{s}
	if len(v.CategoryShares) == 0 {
		markEmpty(&spec, v, analytics.SectionDetail)
	}
	return spec
}

// ProductsChart shows the top products as horizontal bars, smallest amount
// at the top of the list so the largest bar sits at the bottom.
func ProductsChart(v analytics.View) ChartSpec {
	spec := ChartSpec{
		ID:         IDProducts,
		Title:      fmt.Sprintf("Top %d Products", analytics.TopProducts),
		Kind:       KindBar,
		Horizontal: true,
		Height:     450,
		Axes: []Axis{
			{ID: AxisX, Title: "Amount (USD)", Position: "bottom", Color: ColorEmerald, Grid: true},
			{ID: AxisX2, Title: "Volume", Position: "top", Color: ColorAmber},
		},
	}
	if c := v.Selection.Category; c != "" && c != core.AllCategories {
		spec.Subtitle = "Filtered by Category: " + c
	} else {
		spec.Subtitle = fmt.Sprintf("Top %d Products (All Categories)", analytics.TopProducts)
	}

	ascending := make([]analytics.Group, len(v.Products))
	for i, g := range v.Products {
		ascending[len(v.Products)-1-i] = g
	}
	spec.Labels, spec.Series = groupedBars(ascending, AxisX, AxisX2, barEmerald, barAmber, "Amount (USD)", "Volume")
	spec.FullLabels = spec.Labels
	spec.Labels = make([]string, len(spec.FullLabels))
	for i, l := range spec.FullLabels {
		spec.Labels[i] = Truncate(l, MaxLabelLength)
	}
	if len(v.Products) == 0 {
		markEmpty(&spec, v, analytics.SectionDetail)
	}
	return spec
}

// SupplierTrendChart draws one continuous daily line per top supplier,
// valued by the trend metric toggle.
func SupplierTrendChart(v analytics.View) ChartSpec {
	m := v.Selection.TrendMetric
	spec := ChartSpec{
		ID:       IDSupplierTrend,
		Title:    fmt.Sprintf("Top %d Suppliers Trend (Continuous)", analytics.TopSuppliers),
		Subtitle: "By " + m.Label(),
		Kind:     KindLine,
		Height:   450,
		Axes:     []Axis{{ID: AxisY, Title: m.Label(), Position: "left", Grid: true}},
		Series:   make([]Series, 0, len(v.SupplierTrends)),
	}
	if len(v.SupplierTrends) > 0 {
		points := v.SupplierTrends[0].Points
		spec.Labels = make([]string, len(points))
		for i, p := range points {
			spec.Labels[i] = p.Date.String()
		}
	}
	for i, st := range v.SupplierTrends {
		s := Series{Name: st.Supplier, Axis: AxisY, Color: PaletteColor(LinePalette, i), Values: make([]float64, len(st.Points))}
		for j, p := range st.Points {
			s.Values[j] = m.Of(p.Amount, p.Quantity)
		}
		spec.Series = append(spec.Series, s)
	}
	if len(v.SupplierTrends) == 0 {
		markEmpty(&spec, v, analytics.SectionDetail)
	}
	return spec
}

// Truncate shortens s to max runes followed by "...".
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func groupedBars(groups []analytics.Group, amountAxis, volumeAxis, amountColor, volumeColor, amountName, volumeName string) ([]string, []Series) {
	labels := make([]string, len(groups))
	amount := Series{Name: amountName, Axis: amountAxis, Color: amountColor, Values: make([]float64, len(groups))}
	volume := Series{Name: volumeName, Axis: volumeAxis, Color: volumeColor, Values: make([]float64, len(groups))}
	for i, g := range groups {
		labels[i] = g.Key
		amount.Values[i] = g.Amount
		volume.Values[i] = g.Quantity
	}
	return labels, []Series{amount, volume}
}

func markEmpty(spec *ChartSpec, v analytics.View, section string) {
	spec.Empty = true
	spec.Message = "No data available for the current selection."
	for _, w := range v.Warnings {
		if w.Section == section {
			spec.Message = w.Message
			return
		}
	}
}
