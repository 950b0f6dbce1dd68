package core

import (
	"sort"
	"strings"
	"time"
)

// Unknown is the label assigned to blank or missing text fields.
const Unknown = "Unknown"

// AllCategories selects every category in the detail section.
const AllCategories = "All"

const (
	MetricAmount Metric = "amount"
	MetricVolume Metric = "volume"
)

type (
	// Metric selects which measure a chart plots.
	Metric string

	// Date is a calendar day at UTC midnight.
	Date struct {
		time.Time
	}

	// Transaction is one cleaned purchase row.
	Transaction struct {
		Date     Date
		Amount   float64
		Quantity float64
		Unit     string
		Category string
		Product  string
		Supplier string
	}
)

// ParseMetric maps user input to a Metric, falling back to MetricAmount.
func ParseMetric(s string) Metric {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case MetricVolume, "quantity":
		return MetricVolume
	default:
		return MetricAmount
	}
}

// Label returns the user-facing name of the metric.
func (m Metric) Label() string {
	if m == MetricVolume {
		return "Volume"
	}
	return "Amount"
}

// Of returns the metric's value for a transaction-like pair.
func (m Metric) Of(amount, quantity float64) float64 {
	if m == MetricVolume {
		return quantity
	}
	return amount
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD".
func (d *Date) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	*d = DateOf(t)
	return nil
}

// DaysBetween returns the number of whole days from a to b. Both dates are
// UTC midnights, so the difference is counted in seconds rather than as a
// time.Duration, which overflows past roughly 292 years.
func DaysBetween(a, b Date) int {
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// LabelOrUnknown trims s and substitutes Unknown for blank values.
func LabelOrUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown
	}
	return s
}

// Field returns the label of t on the given dimension.
func (t Transaction) Field(d Dimension) string {
	switch d {
	case DimSupplier:
		return t.Supplier
	case DimCategory:
		return t.Category
	case DimProduct:
		return t.Product
	case DimUnit:
		return t.Unit
	}
	return ""
}

// Dimension names a label column that rows can be grouped by.
type Dimension string

const (
	DimSupplier Dimension = "supplier"
	DimCategory Dimension = "category"
	DimProduct  Dimension = "product"
	DimUnit     Dimension = "unit"
)

// Distinct returns the sorted distinct values of dimension d in rows.
func Distinct(rows []Transaction, d Dimension) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, r := range rows {
		v := r.Field(d)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
