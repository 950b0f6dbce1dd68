package http

import (
	"net/url"
	"reflect"
	"testing"

	"purchases/internal/core"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name      string
		query     url.Values
		wantAll   bool
		wantUnits []string
	}{
		{
			name:    "no parameters selects every unit",
			query:   url.Values{},
			wantAll: true,
		},
		{
			name:    "all_units wins over units",
			query:   url.Values{"all_units": {"1"}, "unit": {"KG"}},
			wantAll: true,
		},
		{
			name:    "checkbox sends hidden fallback and value",
			query:   url.Values{"all_units": {"0", "1"}},
			wantAll: true,
		},
		{
			name:      "explicit units",
			query:     url.Values{"all_units": {"0"}, "unit": {"KG", "L"}},
			wantUnits: []string{"KG", "L"},
		},
		{
			name:      "units without all_units",
			query:     url.Values{"unit": {"L", " L ", ""}},
			wantUnits: []string{"L"},
		},
		{
			name:  "explicit empty selection",
			query: url.Values{"all_units": {"0"}},
		},
		{
			name:    "unparseable flag is ignored",
			query:   url.Values{"all_units": {"maybe"}},
			wantAll: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := ParseSelection(tt.query)
			if sel.Global.All != tt.wantAll {
				t.Fatalf("All = %v, want %v", sel.Global.All, tt.wantAll)
			}
			if !tt.wantAll && !reflect.DeepEqual(sel.Global.Units, tt.wantUnits) {
				if len(sel.Global.Units) != 0 || len(tt.wantUnits) != 0 {
					t.Fatalf("Units = %v, want %v", sel.Global.Units, tt.wantUnits)
				}
			}
			if !tt.wantAll && len(tt.wantUnits) == 0 && !sel.Global.IsEmpty() {
				t.Fatalf("expected an empty unit filter, got %+v", sel.Global)
			}
		})
	}
}

func TestParseSelection_DetailFields(t *testing.T) {
	sel := ParseSelection(url.Values{
		"detail_unit":  {" KG\x00 "},
		"category":     {"Dairy"},
		"pie_metric":   {"Volume"},
		"trend_metric": {"bogus"},
	})
	if sel.DetailUnit != "KG" {
		t.Errorf("DetailUnit = %q", sel.DetailUnit)
	}
	if sel.Category != "Dairy" {
		t.Errorf("Category = %q", sel.Category)
	}
	if sel.PieMetric != core.MetricVolume || sel.TrendMetric != core.MetricAmount {
		t.Errorf("metrics = %q/%q", sel.PieMetric, sel.TrendMetric)
	}
}

func TestSelectionQueryRoundTrip(t *testing.T) {
	sels := []core.Selection{
		{Global: core.AllUnits(), DetailUnit: "KG", Category: "Dairy", PieMetric: core.MetricVolume, TrendMetric: core.MetricAmount},
		{Global: core.OnlyUnits("L", "PCS"), DetailUnit: "L", Category: core.AllCategories, PieMetric: core.MetricAmount, TrendMetric: core.MetricVolume},
		{Global: core.OnlyUnits(), DetailUnit: "KG", Category: core.AllCategories, PieMetric: core.MetricAmount, TrendMetric: core.MetricAmount},
	}
	for _, want := range sels {
		got := ParseSelection(SelectionQuery(want))
		if got.Global.All != want.Global.All || len(got.Global.Units) != len(want.Global.Units) {
			t.Fatalf("global filter changed: %+v -> %+v", want.Global, got.Global)
		}
		if got.DetailUnit != want.DetailUnit || got.Category != want.Category ||
			got.PieMetric != want.PieMetric || got.TrendMetric != want.TrendMetric {
			t.Fatalf("selection changed: %+v -> %+v", want, got)
		}
	}
}

func TestParseDimension(t *testing.T) {
	q := url.Values{"w": {"50"}, "h": {"9000"}, "bad": {"x"}, "neg": {"-3"}, "ok": {"640"}}
	cases := []struct {
		key  string
		want int
	}{
		{"w", 200},
		{"h", 4000},
		{"bad", 1024},
		{"neg", 1024},
		{"ok", 640},
		{"missing", 1024},
	}
	for _, tc := range cases {
		if got := parseDimension(q, tc.key, 1024, 200, 4000); got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.key, got, tc.want)
		}
	}
}

func TestFormatting(t *testing.T) {
	cases := []struct {
		got, want string
	}{
		{formatMoney(1345.75), "$1,346"},
		{formatMoney(0), "$0"},
		{formatMoney(-1200.4), "-$1,200"},
		{formatVolume(1234567.4), "1,234,567"},
		{formatCount(14), "14"},
		{formatPercent(33.33), "33.3%"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
}
