package analytics

import "purchases/internal/core"

// Ranking sizes used by the detail section.
const (
	TopSuppliers = 4
	TopProducts  = 5
)

// Sections that warnings can be attached to.
const (
	SectionOverview = "overview"
	SectionDetail   = "detail"
)

// View is every derived dataset needed to draw the dashboard for one
// selection.
type View struct {
	Selection  core.Selection `json:"selection"`
	UnitsLabel string         `json:"units_label"`
	// Units lists every unit in the table; Categories lists AllCategories
	// followed by the categories of the detail subset.
	Units      []string `json:"units"`
	Categories []string `json:"categories"`

	Summary Summary      `json:"summary"`
	Daily   []DailyPoint `json:"daily"`

	Suppliers      []Group          `json:"top_suppliers"`
	CategoryShares []Share          `json:"category_shares"`
	Products       []Group          `json:"top_products"`
	SupplierTrends []SupplierSeries `json:"supplier_trends"`

	Warnings []core.Warning `json:"warnings"`
}

// HasWarning reports whether a warning with code is attached to section.
func (v View) HasWarning(section, code string) bool {
	for _, w := range v.Warnings {
		if w.Section == section && w.Code == code {
			return true
		}
	}
	return false
}

// Compute runs the whole pipeline. sel is normalized against t first so the
// result always refers to values that exist.
func Compute(t *core.Table, sel core.Selection) View {
	sel = sel.Normalize(t)
	v := View{
		Selection:  sel,
		UnitsLabel: sel.Global.Label(),
		Units:      t.Units(),
		Warnings:   []core.Warning{},
	}

	global := FilterUnits(t, sel.Global)
	v.Summary = Summarize(global)
	v.Daily = Daily(global)
	if sel.Global.IsEmpty() {
		v.Warnings = append(v.Warnings, core.EmptySelectionWarning(SectionOverview))
	} else if len(global) == 0 {
		v.Warnings = append(v.Warnings, core.NoDataWarning(SectionOverview))
	}

	detail := DetailSubset(t, sel.DetailUnit)
	categories := GroupBy(detail, core.DimCategory)
	v.Categories = make([]string, 0, len(categories)+1)
	v.Categories = append(v.Categories, core.AllCategories)
	for _, g := range categories {
		v.Categories = append(v.Categories, g.Key)
	}

	v.Suppliers = TopN(GroupBy(detail, core.DimSupplier), TopSuppliers)
	v.CategoryShares = Shares(categories, sel.PieMetric)
	v.Products = TopN(GroupBy(FilterCategory(detail, sel.Category), core.DimProduct), TopProducts)
	v.SupplierTrends = SupplierTrends(detail, TopSuppliers)
	if len(detail) == 0 {
		v.Warnings = append(v.Warnings, core.NoDataWarning(SectionDetail))
	}
	return v
}
