// Package export dumps a cleaned table as strict JSON records.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"purchases/internal/core"
	"purchases/internal/sheets"
)

// SummaryListLimit caps the unit and category samples in a Summary.
const SummaryListLimit = 10

// Record is one exported row. Fields keep the column order of the export.
type Record struct {
	keys   []string
	values []interface{}
}

// Get returns the value of column key.
func (r Record) Get(key string) (interface{}, bool) {
	for i, k := range r.keys {
		if k == key {
			return r.values[i], true
		}
	}
	return nil, false
}

// MarshalJSON writes the record as an object in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Summary describes an export run.
type Summary struct {
	Records    int      `json:"records"`
	Columns    []string `json:"columns"`
	DateFrom   string   `json:"date_from,omitempty"`
	DateTo     string   `json:"date_to,omitempty"`
	Units      []string `json:"units"`
	Categories []string `json:"categories"`
}

// Columns returns the exported column names in source header order, with
// Supplier appended when the source had no such column. Tables that do not
// know their source order list the interpreted columns first, then every
// extra column.
func Columns(t *core.Table) []string {
	if cols := t.Columns(); cols != nil {
		return cols
	}
	cols := append([]string(nil), interpreted...)
	for _, c := range t.ExtraColumns() {
		if c == sheets.ColSupplier {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

var interpreted = []string{
	sheets.ColDate, sheets.ColAmount, sheets.ColQuantity, sheets.ColUnit,
	sheets.ColCategory, sheets.ColProduct, sheets.ColSupplier,
}

// Records converts t to export records. Non-finite numbers, blank extra
// cells and NaN or infinity text become null.
func Records(t *core.Table) []Record {
	cols := Columns(t)
	extraIdx := make(map[string]int)
	for j, c := range t.ExtraColumns() {
		if _, ok := extraIdx[c]; !ok {
			extraIdx[c] = j
		}
	}

	out := make([]Record, t.Len())
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		extras := t.ExtraValues(i)
		values := make([]interface{}, len(cols))
		for k, c := range cols {
			switch c {
			case sheets.ColDate:
				values[k] = row.Date.String()
			case sheets.ColAmount:
				values[k] = finiteOrNil(row.Amount)
			case sheets.ColQuantity:
				values[k] = finiteOrNil(row.Quantity)
			case sheets.ColUnit:
				values[k] = row.Unit
			case sheets.ColCategory:
				values[k] = row.Category
			case sheets.ColProduct:
				values[k] = row.Product
			case sheets.ColSupplier:
				values[k] = row.Supplier
			default:
				if j, ok := extraIdx[c]; ok {
					values[k] = cellOrNil(extras[j])
				}
			}
		}
		out[i] = Record{keys: cols, values: values}
	}
	return out
}

// Write encodes t as a JSON array of records to w.
func Write(w io.Writer, t *core.Table) (Summary, error) {
	enc := json.NewEncoder(w)
	if err := enc.Encode(Records(t)); err != nil {
		return Summary{}, fmt.Errorf("encode records: %w", err)
	}
	return Summarize(t), nil
}

// Summarize reports the record count, columns, date range and the first
// units and categories in row order.
func Summarize(t *core.Table) Summary {
	rows := t.Rows()
	s := Summary{
		Records:    len(rows),
		Columns:    Columns(t),
		Units:      firstDistinct(rows, core.DimUnit, SummaryListLimit),
		Categories: firstDistinct(rows, core.DimCategory, SummaryListLimit),
	}
	if min, max, ok := core.DateRange(rows); ok {
		s.DateFrom, s.DateTo = min.String(), max.String()
	}
	return s
}

func firstDistinct(rows []core.Transaction, d core.Dimension, limit int) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, limit)
	for _, r := range rows {
		if len(out) == limit {
			break
		}
		v := r.Field(d)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func finiteOrNil(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// cellOrNil maps blank cells and NaN or infinity text to null. Everything
// else stays the source text, so codes like "00123" keep their zeros.
func cellOrNil(s string) interface{} {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	switch strings.ToLower(strings.TrimLeft(v, "+-")) {
	case "nan", "inf", "infinity":
		return nil
	}
	return s
}
