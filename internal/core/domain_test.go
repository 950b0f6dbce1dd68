package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMetric(t *testing.T) {
	cases := []struct {
		in   string
		want Metric
	}{
		{"amount", MetricAmount},
		{"Amount", MetricAmount},
		{"volume", MetricVolume},
		{" VOLUME ", MetricVolume},
		{"quantity", MetricVolume},
		{"", MetricAmount},
		{"bogus", MetricAmount},
	}
	for _, tc := range cases {
		if got := ParseMetric(tc.in); got != tc.want {
			t.Fatalf("ParseMetric(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestLabelOrUnknown(t *testing.T) {
	if got := LabelOrUnknown("  KG "); got != "KG" {
		t.Fatalf("got %q", got)
	}
	if got := LabelOrUnknown("   "); got != Unknown {
		t.Fatalf("got %q", got)
	}
}

func TestDaysBetween(t *testing.T) {
	a := NewDate(2024, 2, 27)
	b := NewDate(2024, 3, 2)
	if got := DaysBetween(a, b); got != 4 {
		t.Fatalf("expected 4 days across leap day, got %d", got)
	}
	if a.AddDays(4) != b {
		t.Fatalf("AddDays mismatch: %s", a.AddDays(4))
	}
}

func TestDaysBetween_WideSpans(t *testing.T) {
	tests := []struct {
		name string
		a, b Date
		want int
	}{
		{"same day", NewDate(2024, 1, 1), NewDate(2024, 1, 1), 0},
		{"reversed", NewDate(2024, 1, 2), NewDate(2024, 1, 1), -1},
		{"three centuries", NewDate(1700, 1, 1), NewDate(2024, 1, 1), 118338},
		{"full timestamp range", NewDate(1677, 9, 22), NewDate(2262, 4, 11), 213502},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := tt.a.AddDays(tt.want); got != tt.b {
				t.Errorf("AddDays(%d) = %s, want %s", tt.want, got, tt.b)
			}
		})
	}
}

func TestTableIsImmutable(t *testing.T) {
	rows := []Transaction{
		{Date: NewDate(2024, 1, 1), Amount: 1, Unit: "KG", Supplier: "A"},
		{Date: NewDate(2024, 1, 2), Amount: 2, Unit: "L", Supplier: "B"},
	}
	tbl := NewTable("test", rows)
	rows[0].Amount = 999

	if tbl.Row(0).Amount != 1 {
		t.Fatalf("table shares input slice")
	}
	out := tbl.Rows()
	out[1].Supplier = "changed"
	if tbl.Row(1).Supplier != "B" {
		t.Fatalf("Rows() exposes internal slice")
	}
	units := tbl.Units()
	units[0] = "X"
	if tbl.Units()[0] != "KG" {
		t.Fatalf("Units() exposes internal slice")
	}
}

func TestTableFilterAndExtras(t *testing.T) {
	rows := []Transaction{
		{Date: NewDate(2024, 1, 1), Unit: "KG"},
		{Date: NewDate(2024, 1, 5), Unit: "L"},
		{Date: NewDate(2023, 12, 30), Unit: "KG"},
	}
	tbl := NewTableWithExtras("x", rows, []string{"PO"}, [][]string{{"1"}, {"2"}})
	kg := tbl.Filter(func(r Transaction) bool { return r.Unit == "KG" })
	if len(kg) != 2 {
		t.Fatalf("expected 2 KG rows, got %d", len(kg))
	}
	if got := tbl.ExtraValues(1); got[0] != "2" {
		t.Fatalf("extra values: %v", got)
	}
	if got := tbl.ExtraValues(2); len(got) != 1 || got[0] != "" {
		t.Fatalf("missing extras should be blank: %v", got)
	}
	min, max, ok := DateRange(tbl.Rows())
	if !ok || min != NewDate(2023, 12, 30) || max != NewDate(2024, 1, 5) {
		t.Fatalf("unexpected range %s..%s", min, max)
	}
	if _, _, ok := DateRange(nil); ok {
		t.Fatalf("empty range should not be ok")
	}
}

func TestDataLoadErrorWrapping(t *testing.T) {
	err := NewDataLoadError("file.xlsx", ErrSourceMissing)
	var dle *DataLoadError
	if !errors.As(err, &dle) || dle.Source != "file.xlsx" {
		t.Fatalf("expected DataLoadError, got %v", err)
	}
	if !errors.Is(err, ErrSourceMissing) {
		t.Fatalf("expected wrapped sentinel")
	}
	if again := NewDataLoadError("other", err); again != err {
		t.Fatalf("should not double wrap")
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 1, 2))
	if err != nil || string(b) != `"2024-01-02"` {
		t.Fatalf("marshal: %s %v", b, err)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2024-02-29"`), &d); err != nil || d != NewDate(2024, 2, 29) {
		t.Fatalf("unmarshal: %s %v", d, err)
	}
}
