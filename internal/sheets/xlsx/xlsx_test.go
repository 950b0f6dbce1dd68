package xlsx

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"purchases/internal/core"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "purchases.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

var headerRow = []interface{}{"Transaction Date", "Amount", "quantity", "Quantity unit", "category_group", "standardized_name", "Supplier", "PO Number"}

func TestSource_LoadFirstSheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]interface{}{
		headerRow,
		{"2024-01-01", 100, 5, "KG", "Dairy", "Milk", "A", "PO-1"},
		{"2024-01-02", 50.5, 2, "KG", "Dairy", "Milk", "B", "PO-2"},
		{"garbage", 1, 1, "KG", "Dairy", "Milk", "B", "PO-3"},
	})

	src := New(path, "")
	tbl, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Len())
	}
	if r := tbl.Row(1); r.Amount != 50.5 || r.Supplier != "B" || r.Date != core.NewDate(2024, 1, 2) {
		t.Fatalf("unexpected row: %+v", r)
	}
	if got := tbl.ExtraColumns(); len(got) != 1 || got[0] != "PO Number" {
		t.Fatalf("extra columns: %v", got)
	}
	if tbl.Source() != src.SourceID() {
		t.Fatalf("table source %q != %q", tbl.Source(), src.SourceID())
	}
}

func TestSource_LoadNamedSheet(t *testing.T) {
	path := writeWorkbook(t, "Purchases", [][]interface{}{
		headerRow,
		{"2024-02-01", 10, 1, "L", "Juice", "Orange", "C", ""},
	})
	tbl, err := New(path, "Purchases").Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Len() != 1 || tbl.Row(0).Unit != "L" {
		t.Fatalf("unexpected table: %d rows", tbl.Len())
	}
}

func TestSource_MissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.xlsx"), "").Load(context.Background())
	var dle *core.DataLoadError
	if !errors.As(err, &dle) {
		t.Fatalf("expected DataLoadError, got %v", err)
	}
	if !errors.Is(err, core.ErrSourceMissing) {
		t.Fatalf("expected ErrSourceMissing, got %v", err)
	}
}

func TestSource_MissingColumn(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]interface{}{
		{"Transaction Date", "Amount"},
		{"2024-01-01", 1},
	})
	_, err := New(path, "").Load(context.Background())
	if !errors.Is(err, core.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestSource_CorruptWorkbook(t *testing.T) {
	src := New("gs://bucket/file.xlsx", "")
	src.fetch = func(context.Context, string) ([]byte, error) { return []byte("not a zip"), nil }
	_, err := src.Load(context.Background())
	var dle *core.DataLoadError
	if !errors.As(err, &dle) || dle.Source != "xlsx:gs://bucket/file.xlsx" {
		t.Fatalf("expected DataLoadError for corrupt workbook, got %v", err)
	}
}

func TestSplitGCSPath(t *testing.T) {
	b, o, err := splitGCSPath("gs://reports/2024/purchases.xlsx")
	if err != nil || b != "reports" || o != "2024/purchases.xlsx" {
		t.Fatalf("got %q %q %v", b, o, err)
	}
	for _, bad := range []string{"gs://", "gs://bucket", "gs://bucket/", "gs:///obj"} {
		if _, _, err := splitGCSPath(bad); err == nil {
			t.Fatalf("%q should be rejected", bad)
		}
	}
}
