// Package analytics holds the filter and aggregate pipeline behind every
// dashboard chart. All functions are pure: inputs are never modified and
// empty inputs yield empty outputs.
package analytics

import (
	"sort"

	"purchases/internal/core"

	"github.com/shopspring/decimal"
)

type (
	// Summary is the four stat cards of the overview section.
	Summary struct {
		TotalAmount     float64 `json:"total_amount"`
		TotalVolume     float64 `json:"total_volume"`
		Transactions    int     `json:"transactions"`
		ActiveSuppliers int     `json:"active_suppliers"`
	}

	// DailyPoint is the sum of one calendar day.
	DailyPoint struct {
		Date     core.Date `json:"date"`
		Amount   float64   `json:"amount"`
		Quantity float64   `json:"quantity"`
	}

	// Group is the sum of every row sharing one label.
	Group struct {
		Key      string  `json:"key"`
		Amount   float64 `json:"amount"`
		Quantity float64 `json:"quantity"`
		Count    int     `json:"count"`
	}

	// Share is one pie slice.
	Share struct {
		Label   string  `json:"label"`
		Value   float64 `json:"value"`
		Percent float64 `json:"percent"`
	}

	// SupplierSeries is one supplier's daily totals over a continuous range.
	SupplierSeries struct {
		Supplier string       `json:"supplier"`
		Total    float64      `json:"total_amount"`
		Points   []DailyPoint `json:"points"`
	}
)

// FilterUnits returns the rows passing the global unit filter.
func FilterUnits(t *core.Table, f core.UnitFilter) []core.Transaction {
	if f.IsEmpty() {
		return []core.Transaction{}
	}
	return t.Filter(func(r core.Transaction) bool { return f.Match(r.Unit) })
}

// DetailSubset returns the rows of exactly one unit.
func DetailSubset(t *core.Table, unit string) []core.Transaction {
	return t.Filter(func(r core.Transaction) bool { return r.Unit == unit })
}

// FilterCategory restricts rows to one category; AllCategories keeps all.
func FilterCategory(rows []core.Transaction, category string) []core.Transaction {
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		if category == core.AllCategories || r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// Summarize totals rows for the stat cards.
func Summarize(rows []core.Transaction) Summary {
	var s Summary
	suppliers := make(map[string]struct{})
	for _, r := range rows {
		s.TotalAmount += r.Amount
		s.TotalVolume += r.Quantity
		suppliers[r.Supplier] = struct{}{}
	}
	s.Transactions = len(rows)
	s.ActiveSuppliers = len(suppliers)
	return s
}

// Daily sums rows per date in ascending date order. Days without rows are
// not emitted.
func Daily(rows []core.Transaction) []DailyPoint {
	byDay := make(map[int64]*DailyPoint)
	for _, r := range rows {
		p, ok := byDay[r.Date.Unix()]
		if !ok {
			p = &DailyPoint{Date: r.Date}
			byDay[r.Date.Unix()] = p
		}
		p.Amount += r.Amount
		p.Quantity += r.Quantity
	}
	out := make([]DailyPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out
}

// GroupBy sums rows per label of dimension d, in ascending label order.
func GroupBy(rows []core.Transaction, d core.Dimension) []Group {
	byKey := make(map[string]*Group)
	for _, r := range rows {
		k := r.Field(d)
		g, ok := byKey[k]
		if !ok {
			g = &Group{Key: k}
			byKey[k] = g
		}
		g.Amount += r.Amount
		g.Quantity += r.Quantity
		g.Count++
	}
	out := make([]Group, 0, len(byKey))
	for _, g := range byKey {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// TopN returns the n groups with the largest amount. Ties keep their input
// order. The input slice is not reordered.
func TopN(groups []Group, n int) []Group {
	ranked := append([]Group(nil), groups...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Amount > ranked[j].Amount })
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Shares converts groups into pie slices of metric m, largest first. Each
// percent is rounded to one decimal; a zero total yields zero percents.
func Shares(groups []Group, m core.Metric) []Share {
	out := make([]Share, len(groups))
	total := decimal.Zero
	for i, g := range groups {
		v := m.Of(g.Amount, g.Quantity)
		out[i] = Share{Label: g.Key, Value: v}
		total = total.Add(decimal.NewFromFloat(v))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if total.IsZero() {
		return out
	}
	hundred := decimal.NewFromInt(100)
	for i := range out {
		pct := decimal.NewFromFloat(out[i].Value).Mul(hundred).Div(total).Round(1)
		out[i].Percent = pct.InexactFloat64()
	}
	return out
}

// SupplierTrends returns daily series for the n suppliers with the largest
// amount in rows. Every series covers each day from the first to the last
// date in rows, zero-filled.
func SupplierTrends(rows []core.Transaction, n int) []SupplierSeries {
	min, max, ok := core.DateRange(rows)
	if !ok {
		return []SupplierSeries{}
	}
	days := core.DaysBetween(min, max) + 1
	top := TopN(GroupBy(rows, core.DimSupplier), n)

	index := make(map[string]int, len(top))
	out := make([]SupplierSeries, len(top))
	for i, g := range top {
		index[g.Key] = i
		points := make([]DailyPoint, days)
		for d := range points {
			points[d].Date = min.AddDays(d)
		}
		out[i] = SupplierSeries{Supplier: g.Key, Total: g.Amount, Points: points}
	}
	for _, r := range rows {
		i, ok := index[r.Supplier]
		if !ok {
			continue
		}
		p := &out[i].Points[core.DaysBetween(min, r.Date)]
		p.Amount += r.Amount
		p.Quantity += r.Quantity
	}
	return out
}
