// Package http provides HTTP server and handler implementations.
//
// This file turns query strings into selections and reads the numeric
// parameters of the PNG endpoint.

package http

import (
	"net/url"
	"strconv"
	"strings"

	"purchases/internal/core"
)

// Query parameter names understood by every dashboard endpoint.
const (
	ParamAllUnits    = "all_units"
	ParamUnit        = "unit"
	ParamDetailUnit  = "detail_unit"
	ParamCategory    = "category"
	ParamPieMetric   = "pie_metric"
	ParamTrendMetric = "trend_metric"
)

// ParseSelection builds a selection from query values. all_units=1 (or no
// unit parameters at all) selects every unit; all_units=0 with no unit
// values selects none. Values absent from the table are repaired later by
// Selection.Normalize.
func ParseSelection(q url.Values) core.Selection {
	sel := core.Selection{
		DetailUnit:  sanitizeInput(q.Get(ParamDetailUnit)),
		Category:    sanitizeInput(q.Get(ParamCategory)),
		PieMetric:   core.ParseMetric(q.Get(ParamPieMetric)),
		TrendMetric: core.ParseMetric(q.Get(ParamTrendMetric)),
	}

	var units []string
	seen := make(map[string]bool)
	for _, u := range q[ParamUnit] {
		u = sanitizeInput(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		units = append(units, u)
	}

	// A checked box is sent alongside its hidden "0" fallback, so any true
	// value wins.
	var all, explicit bool
	for _, v := range q[ParamAllUnits] {
		b, set := parseBool(v)
		all = all || b
		explicit = explicit || set
	}
	switch {
	case explicit && all:
		sel.Global = core.AllUnits()
	case explicit || len(units) > 0:
		sel.Global = core.OnlyUnits(units...)
	default:
		sel.Global = core.AllUnits()
	}
	return sel
}

// SelectionQuery encodes sel back into query values so links and htmx
// requests carry the full state.
func SelectionQuery(sel core.Selection) url.Values {
	q := url.Values{}
	if sel.Global.All {
		q.Set(ParamAllUnits, "1")
	} else {
		q.Set(ParamAllUnits, "0")
		for _, u := range sel.Global.Units {
			q.Add(ParamUnit, u)
		}
	}
	if sel.DetailUnit != "" {
		q.Set(ParamDetailUnit, sel.DetailUnit)
	}
	if sel.Category != "" {
		q.Set(ParamCategory, sel.Category)
	}
	if sel.PieMetric != "" {
		q.Set(ParamPieMetric, string(sel.PieMetric))
	}
	if sel.TrendMetric != "" {
		q.Set(ParamTrendMetric, string(sel.TrendMetric))
	}
	return q
}

// parseBool reports the boolean value of s and whether s was set at all.
// Checkbox values such as "on" count as true.
func parseBool(s string) (value, set bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return false, false
	}
	if s == "on" || s == "yes" {
		return true, true
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, false
	}
	return b, true
}

// parseDimension reads a positive integer query parameter clamped to
// [min, max]; def is used when the value is absent or invalid.
func parseDimension(q url.Values, key string, def, min, max int) int {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
