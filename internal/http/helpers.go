package http

import (
	"encoding/json"
	"html/template"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"purchases/internal/charts"
	"purchases/internal/core"
)

// formatMoney renders a whole-dollar amount with thousands separators, e.g. "$1,235".
func formatMoney(v float64) string {
	n := int64(math.Round(v))
	if n < 0 {
		return "-$" + humanize.Comma(-n)
	}
	return "$" + humanize.Comma(n)
}

// formatVolume renders a rounded quantity with thousands separators.
func formatVolume(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

func formatPercent(p float64) string {
	return humanize.FtoaWithDigits(p, 1) + "%"
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":   formatMoney,
		"volume":  formatVolume,
		"count":   formatCount,
		"percent": formatPercent,
		"ago": func(t time.Time) string {
			if t.IsZero() {
				return "never"
			}
			return humanize.Time(t)
		},
		"metricLabel": func(m core.Metric) string { return m.Label() },
		"chartIDs":    charts.IDs,
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
