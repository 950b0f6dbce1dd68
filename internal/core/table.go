package core

import "time"

// Table is the immutable in-memory dataset. All accessors return copies so
// that derived views can never alter the loaded rows.
type Table struct {
	source    string
	loadedAt  time.Time
	rows      []Transaction
	extraCols []string
	extra     [][]string
	columns   []string
	units     []string
}

// NewTable builds a table from cleaned rows. The slice is copied.
func NewTable(source string, rows []Transaction) *Table {
	return NewTableWithExtras(source, rows, nil, nil)
}

// NewTableWithExtras builds a table that also carries the source columns the
// dashboard does not interpret. extra[i] holds the values of extraCols for
// rows[i]; it may be nil when no extra columns exist.
func NewTableWithExtras(source string, rows []Transaction, extraCols []string, extra [][]string) *Table {
	t := &Table{
		source:    source,
		loadedAt:  time.Now(),
		rows:      append([]Transaction(nil), rows...),
		extraCols: append([]string(nil), extraCols...),
	}
	if len(extraCols) > 0 {
		t.extra = make([][]string, len(rows))
		for i := range rows {
			vals := make([]string, len(extraCols))
			if i < len(extra) {
				copy(vals, extra[i])
			}
			t.extra[i] = vals
		}
	}
	t.units = Distinct(t.rows, DimUnit)
	return t
}

// Source returns the identity of the source the table was loaded from.
func (t *Table) Source() string { return t.source }

// LoadedAt returns when the table was built.
func (t *Table) LoadedAt() time.Time { return t.loadedAt }

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Row returns a copy of row i.
func (t *Table) Row(i int) Transaction { return t.rows[i] }

// Rows returns a copy of all rows.
func (t *Table) Rows() []Transaction {
	if t == nil {
		return nil
	}
	return append([]Transaction(nil), t.rows...)
}

// Filter returns the rows matching keep, in table order, as a new slice.
func (t *Table) Filter(keep func(Transaction) bool) []Transaction {
	out := make([]Transaction, 0)
	if t == nil {
		return out
	}
	for _, r := range t.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Units returns the sorted distinct unit labels.
func (t *Table) Units() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.units...)
}

// HasUnit reports whether any row carries unit u.
func (t *Table) HasUnit(u string) bool {
	for _, v := range t.units {
		if v == u {
			return true
		}
	}
	return false
}

// ExtraColumns returns the names of the uninterpreted source columns.
func (t *Table) ExtraColumns() []string {
	return append([]string(nil), t.extraCols...)
}

// ExtraValues returns the uninterpreted values of row i, aligned with
// ExtraColumns.
func (t *Table) ExtraValues(i int) []string {
	if i >= len(t.extra) {
		return make([]string, len(t.extraCols))
	}
	return append([]string(nil), t.extra[i]...)
}

// WithColumns returns a copy of t that remembers the column order of its
// source header. The rows are shared; tables never change them.
func (t *Table) WithColumns(columns []string) *Table {
	c := *t
	c.columns = append([]string(nil), columns...)
	return &c
}

// Columns returns the source column order, or nil when it is unknown.
func (t *Table) Columns() []string {
	if t == nil || len(t.columns) == 0 {
		return nil
	}
	return append([]string(nil), t.columns...)
}

// DateRange returns the earliest and latest transaction dates. ok is false
// for an empty table.
func DateRange(rows []Transaction) (min, max Date, ok bool) {
	for i, r := range rows {
		if i == 0 || r.Date.Before(min.Time) {
			min = r.Date
		}
		if i == 0 || r.Date.After(max.Time) {
			max = r.Date
		}
	}
	return min, max, len(rows) > 0
}
