package core

import "fmt"

type (
	// UnitFilter is the global unit selection: either every unit or an
	// explicit set. An explicit empty set selects nothing.
	UnitFilter struct {
		All   bool     `json:"all"`
		Units []string `json:"units"`
	}

	// Selection holds every user-controlled filter for one render pass.
	Selection struct {
		Global      UnitFilter `json:"global"`
		DetailUnit  string     `json:"detail_unit"`
		Category    string     `json:"category"`
		PieMetric   Metric     `json:"pie_metric"`
		TrendMetric Metric     `json:"trend_metric"`
	}
)

// AllUnits selects every unit.
func AllUnits() UnitFilter { return UnitFilter{All: true} }

// OnlyUnits selects an explicit set of units.
func OnlyUnits(units ...string) UnitFilter {
	return UnitFilter{Units: append([]string{}, units...)}
}

// Match reports whether unit u passes the filter.
func (f UnitFilter) Match(u string) bool {
	if f.All {
		return true
	}
	for _, v := range f.Units {
		if v == u {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the filter selects no unit at all.
func (f UnitFilter) IsEmpty() bool {
	return !f.All && len(f.Units) == 0
}

// Label describes the filter for chart legends.
func (f UnitFilter) Label() string {
	switch {
	case f.All:
		return "All Units"
	case len(f.Units) == 0:
		return "None"
	default:
		return fmt.Sprintf("%d Selected", len(f.Units))
	}
}

// DefaultSelection returns the initial selection for the given unit list.
func DefaultSelection(units []string) Selection {
	s := Selection{
		Global:      AllUnits(),
		Category:    AllCategories,
		PieMetric:   MetricAmount,
		TrendMetric: MetricAmount,
	}
	if len(units) > 0 {
		s.DetailUnit = units[0]
	}
	return s
}

// Normalize repairs selections that refer to values absent from t: an
// unknown detail unit falls back to the first unit and a category that the
// detail subset does not contain falls back to AllCategories.
func (s Selection) Normalize(t *Table) Selection {
	units := t.Units()
	if s.DetailUnit == "" || !t.HasUnit(s.DetailUnit) {
		s.DetailUnit = ""
		if len(units) > 0 {
			s.DetailUnit = units[0]
		}
	}
	if s.Category == "" {
		s.Category = AllCategories
	}
	if s.Category != AllCategories {
		found := false
		for _, r := range t.rows {
			if r.Unit == s.DetailUnit && r.Category == s.Category {
				found = true
				break
			}
		}
		if !found {
			s.Category = AllCategories
		}
	}
	if s.PieMetric == "" {
		s.PieMetric = MetricAmount
	}
	if s.TrendMetric == "" {
		s.TrendMetric = MetricAmount
	}
	return s
}
