package sheets

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"purchases/internal/core"
)

// Source column names as they appear in the purchases workbook.
const (
	ColDate     = "Transaction Date"
	ColAmount   = "Amount"
	ColQuantity = "quantity"
	ColUnit     = "Quantity unit"
	ColCategory = "category_group"
	ColProduct  = "standardized_name"
	ColSupplier = "Supplier"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"02-Jan-2006",
	"2 Jan 2006",
	"01-02-06",
	"1-2-06",
}

// excelEpoch is day zero of the 1900 date system, shifted for the
// fictitious 1900-02-29 so serials after February 1900 map correctly.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Dates outside this window are treated as unparseable, matching the range
// of nanosecond timestamps the workbooks were prepared with.
var (
	minDate = core.NewDate(1677, 9, 22)
	maxDate = core.NewDate(2262, 4, 11)
)

func inDateRange(d core.Date) (core.Date, bool) {
	if d.Before(minDate.Time) || d.After(maxDate.Time) {
		return core.Date{}, false
	}
	return d, true
}

// Columns records where each interpreted column sits in a header row.
type Columns struct {
	Date, Amount, Quantity, Unit, Category, Product, Supplier int
	// Extra lists the indexes of every column not interpreted above.
	Extra []int
}

// ResolveColumns locates the interpreted columns in header. Names are
// matched case-insensitively after trimming. The supplier column is the one
// literally named "Supplier", else the first header containing "supplier" or
// "vendor", else the product column.
func ResolveColumns(header []string) (Columns, error) {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = strings.ToLower(strings.TrimSpace(h))
	}
	find := func(name string) int {
		name = strings.ToLower(name)
		for i, h := range norm {
			if h == name {
				return i
			}
		}
		return -1
	}

	c := Columns{
		Date:     find(ColDate),
		Amount:   find(ColAmount),
		Quantity: find(ColQuantity),
		Unit:     find(ColUnit),
		Category: find(ColCategory),
		Product:  find(ColProduct),
		Supplier: find(ColSupplier),
	}
	if c.Supplier == -1 {
		for i, h := range norm {
			if strings.Contains(h, "supplier") || strings.Contains(h, "vendor") {
				c.Supplier = i
				break
			}
		}
	}
	if c.Supplier == -1 {
		c.Supplier = c.Product
	}

	var missing []string
	for name, idx := range map[string]int{
		ColDate: c.Date, ColAmount: c.Amount, ColQuantity: c.Quantity,
		ColUnit: c.Unit, ColCategory: c.Category, ColProduct: c.Product,
	} {
		if idx == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Columns{}, fmt.Errorf("%w: %s; got headers=%v", core.ErrMissingColumn, strings.Join(missing, ", "), header)
	}

	// A supplier taken from a differently named column stays available as an
	// extra so exports keep the original header.
	used := map[int]bool{c.Date: true, c.Amount: true, c.Quantity: true, c.Unit: true, c.Category: true, c.Product: true}
	if norm[c.Supplier] == strings.ToLower(ColSupplier) {
		used[c.Supplier] = true
	}
	for i := range header {
		if !used[i] {
			c.Extra = append(c.Extra, i)
		}
	}
	return c, nil
}

// BuildTable converts a header row plus data rows of raw cell strings into a
// cleaned table. Rows whose date does not parse are dropped.
func BuildTable(sourceID string, header []string, rows [][]string) (*core.Table, error) {
	cols, err := ResolveColumns(header)
	if err != nil {
		return nil, core.NewDataLoadError(sourceID, err)
	}

	extraNames := make([]string, len(cols.Extra))
	for i, idx := range cols.Extra {
		extraNames[i] = strings.TrimSpace(header[idx])
	}

	out := make([]core.Transaction, 0, len(rows))
	extras := make([][]string, 0, len(rows))
	for _, row := range rows {
		d, ok := ParseDate(safeGet(row, cols.Date))
		if !ok {
			continue
		}
		out = append(out, core.Transaction{
			Date:     d,
			Amount:   ParseNumber(safeGet(row, cols.Amount)),
			Quantity: ParseNumber(safeGet(row, cols.Quantity)),
			Unit:     core.LabelOrUnknown(safeGet(row, cols.Unit)),
			Category: core.LabelOrUnknown(safeGet(row, cols.Category)),
			Product:  core.LabelOrUnknown(safeGet(row, cols.Product)),
			Supplier: core.LabelOrUnknown(safeGet(row, cols.Supplier)),
		})
		if len(cols.Extra) > 0 {
			vals := make([]string, len(cols.Extra))
			for i, idx := range cols.Extra {
				vals[i] = safeGet(row, idx)
			}
			extras = append(extras, vals)
		}
	}
	tbl := core.NewTableWithExtras(sourceID, out, extraNames, extras)
	return tbl.WithColumns(cols.Order(header)), nil
}

// Order returns the column names of header in their source order, with the
// interpreted columns under their canonical names. Supplier is appended when
// no column is literally named Supplier.
func (c Columns) Order(header []string) []string {
	canonical := map[int]string{
		c.Date: ColDate, c.Amount: ColAmount, c.Quantity: ColQuantity,
		c.Unit: ColUnit, c.Category: ColCategory, c.Product: ColProduct,
	}
	supplierInSource := c.Supplier >= 0 && c.Supplier < len(header) &&
		strings.EqualFold(strings.TrimSpace(header[c.Supplier]), ColSupplier)
	if supplierInSource {
		canonical[c.Supplier] = ColSupplier
	}

	order := make([]string, 0, len(header)+1)
	for i, h := range header {
		if name, ok := canonical[i]; ok {
			order = append(order, name)
			continue
		}
		order = append(order, strings.TrimSpace(h))
	}
	if !supplierInSource {
		order = append(order, ColSupplier)
	}
	return order
}

// ParseDate accepts Excel serial day numbers and common textual layouts.
func ParseDate(s string) (core.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 1 || f > 2958465 {
			return core.Date{}, false
		}
		days := int(math.Floor(f))
		return inDateRange(core.DateOf(excelEpoch.AddDate(0, 0, days)))
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return inDateRange(core.DateOf(t))
		}
	}
	return core.Date{}, false
}

// thousandsGrouped matches numbers written with comma thousands separators,
// such as 1,234 or -12,345.67. Other comma use ("1,5") is not a number.
var thousandsGrouped = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseNumber coerces a cell to a finite float; anything else yields 0. A
// leading $ and well-formed thousands separators are accepted.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.TrimPrefix(s, "$")
	if strings.Contains(s, ",") {
		if !thousandsGrouped.MatchString(s) {
			return 0
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// CellString renders a cell value returned by a spreadsheet API as text.
func CellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func safeGet(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
