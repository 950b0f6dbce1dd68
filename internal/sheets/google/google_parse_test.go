package google

import (
	"errors"
	"testing"

	"purchases/internal/core"
)

func TestParseValues_SheetResponse(t *testing.T) {
	values := [][]interface{}{
		{},
		{"Transaction Date", "Amount", "quantity", "Quantity unit", "category_group", "standardized_name", "Vendor Name"},
		{"2024-01-01", 100.0, 5.0, "KG", "Dairy", "Milk", "A"},
		{"", "", ""},
		{45293.0, "50", "2", "KG", "Dairy", "Milk", "B"},
		{"2024-01-03", 7.5, nil, "L"},
	}
	tbl, err := parseValues("sheets:test/Purchases", values)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", tbl.Len())
	}
	if r := tbl.Row(1); r.Supplier != "B" || r.Date != core.NewDate(2024, 1, 2) || r.Amount != 50 {
		t.Fatalf("unexpected row: %+v", r)
	}
	short := tbl.Row(2)
	if short.Quantity != 0 || short.Category != core.Unknown || short.Supplier != core.Unknown {
		t.Fatalf("short row should be default-filled: %+v", short)
	}
}

func TestParseValues_Empty(t *testing.T) {
	_, err := parseValues("sheets:test/Purchases", [][]interface{}{{""}, {}})
	if !errors.Is(err, core.ErrEmptySheet) {
		t.Fatalf("expected ErrEmptySheet, got %v", err)
	}
	var dle *core.DataLoadError
	if !errors.As(err, &dle) {
		t.Fatalf("expected DataLoadError, got %T", err)
	}
}
