package sheets

import (
	"errors"
	"testing"

	"purchases/internal/core"
)

var header = []string{"Transaction Date", "Amount", "quantity", "Quantity unit", "category_group", "standardized_name", "Supplier", "PO Number"}

func TestBuildTable_CleansRows(t *testing.T) {
	rows := [][]string{
		{"2024-01-01", "100", "5", " KG ", "Dairy", "Milk", "A", "PO-1"},
		{"45293", "50.5", "2", "KG", "Dairy", "Milk", "B", ""},
		{"not a date", "10", "1", "KG", "Dairy", "Milk", "A", "PO-3"},
		{"2024-01-04", "abc", "", "", "", "", "", "PO-4"},
		{"2024-01-05", "NaN", "Inf", "L", "Juice", "Orange", "C"},
		{"2024-01-06", "1,250.75", "3", "L", "Juice", "Orange", "C", "PO-6"},
	}
	tbl, err := BuildTable("test", header, rows)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if tbl.Len() != 5 {
		t.Fatalf("expected invalid date row dropped, got %d rows", tbl.Len())
	}

	first := tbl.Row(0)
	if first.Unit != "KG" || first.Amount != 100 || first.Quantity != 5 {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if got := tbl.Row(1).Date; got != core.NewDate(2024, 1, 2) {
		t.Fatalf("excel serial parsed as %s", got)
	}

	blank := tbl.Row(2)
	if blank.Amount != 0 || blank.Quantity != 0 {
		t.Fatalf("invalid numerics should coerce to 0: %+v", blank)
	}
	if blank.Unit != core.Unknown || blank.Category != core.Unknown || blank.Product != core.Unknown || blank.Supplier != core.Unknown {
		t.Fatalf("blank labels should be Unknown: %+v", blank)
	}

	nonFinite := tbl.Row(3)
	if nonFinite.Amount != 0 || nonFinite.Quantity != 0 {
		t.Fatalf("non-finite numerics should coerce to 0: %+v", nonFinite)
	}
	if got := tbl.Row(4).Amount; got != 1250.75 {
		t.Fatalf("thousands separator: got %v", got)
	}

	if cols := tbl.ExtraColumns(); len(cols) != 1 || cols[0] != "PO Number" {
		t.Fatalf("extra columns: %v", cols)
	}
	if got := tbl.ExtraValues(3)[0]; got != "" {
		t.Fatalf("short row extra should be blank, got %q", got)
	}
}

func TestResolveColumns_SupplierFallbacks(t *testing.T) {
	cases := []struct {
		name   string
		header []string
		want   int
	}{
		{"literal", []string{"Transaction Date", "Amount", "quantity", "Quantity unit", "category_group", "standardized_name", "Supplier"}, 6},
		{"case insensitive", []string{"transaction date", "AMOUNT", "Quantity", "quantity unit", "Category_Group", "Standardized_Name", " supplier "}, 6},
		{"substring", []string{"Transaction Date", "Amount", "quantity", "Quantity unit", "category_group", "standardized_name", "Supplier Name"}, 6},
		{"vendor", []string{"Vendor Code", "Transaction Date", "Amount", "quantity", "Quantity unit", "category_group", "standardized_name"}, 0},
		{"product fallback", []string{"Transaction Date", "Amount", "quantity", "Quantity unit", "category_group", "standardized_name"}, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cols, err := ResolveColumns(tc.header)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if cols.Supplier != tc.want {
				t.Fatalf("supplier column = %d, want %d", cols.Supplier, tc.want)
			}
		})
	}
}

func TestBuildTable_MissingColumn(t *testing.T) {
	_, err := BuildTable("broken.xlsx", []string{"Transaction Date", "Amount"}, nil)
	var dle *core.DataLoadError
	if !errors.As(err, &dle) {
		t.Fatalf("expected DataLoadError, got %v", err)
	}
	if !errors.Is(err, core.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
		y  int
		m  int
		d  int
	}{
		{"2024-03-15", true, 2024, 3, 15},
		{"2024-03-15 13:45:00", true, 2024, 3, 15},
		{"03/15/2024", true, 2024, 3, 15},
		{"15-Mar-2024", true, 2024, 3, 15},
		{"45366", true, 2024, 3, 15},
		{"45366.75", true, 2024, 3, 15},
		{"", false, 0, 0, 0},
		{"yesterday", false, 0, 0, 0},
		{"-4", false, 0, 0, 0},
		{"1700-01-01", true, 1700, 1, 1},
		{"1677-09-22", true, 1677, 9, 22},
		{"2262-04-11", true, 2262, 4, 11},
		{"1677-09-21", false, 0, 0, 0},
		{"0001-01-01", false, 0, 0, 0},
		{"2262-04-12", false, 0, 0, 0},
		{"9999-12-31", false, 0, 0, 0},
		{"2958465", false, 0, 0, 0},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q ok=%v", tc.in, ok)
		}
		if ok && got != core.NewDate(tc.y, tc.m, tc.d) {
			t.Fatalf("%q parsed as %s", tc.in, got)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12.5", 12.5},
		{" 42 ", 42},
		{"-3", -3},
		{"$100", 100},
		{"1,234", 1234},
		{"$1,234,567.89", 1234567.89},
		{"-12,345.5", -12345.5},
		{"1,5", 0},
		{"1,2,3", 0},
		{"12,34", 0},
		{"1234,567", 0},
		{",123", 0},
		{"1,234.", 0},
		{"abc", 0},
		{"", 0},
		{"NaN", 0},
		{"Inf", 0},
		{"1e400", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseNumber(tt.in); got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCellString(t *testing.T) {
	if got := CellString(12.5); got != "12.5" {
		t.Fatalf("float: %q", got)
	}
	if got := CellString(nil); got != "" {
		t.Fatalf("nil: %q", got)
	}
	if got := CellString(" KG "); got != "KG" {
		t.Fatalf("string: %q", got)
	}
	if got := CellString(true); got != "true" {
		t.Fatalf("bool: %q", got)
	}
}

func TestResolveColumns_VendorKeptAsExtra(t *testing.T) {
	cols, err := ResolveColumns([]string{"Transaction Date", "Amount", "quantity", "Quantity unit", "category_group", "standardized_name", "Vendor Name"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(cols.Extra) != 1 || cols.Extra[0] != 6 {
		t.Fatalf("vendor column should also be an extra: %v", cols.Extra)
	}
}
