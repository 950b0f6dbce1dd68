package google

import (
	"fmt"

	"purchases/internal/core"
	ports "purchases/internal/sheets"
)

// parseValues converts a values.get response into a table. The first
// non-empty row is the header; rows above it are ignored.
func parseValues(sourceID string, values [][]interface{}) (*core.Table, error) {
	start := -1
	for i, row := range values {
		if !allBlank(toStrings(row)) {
			start = i
			break
		}
	}
	if start == -1 {
		return nil, core.NewDataLoadError(sourceID, fmt.Errorf("%w: no header row", core.ErrEmptySheet))
	}

	header := toStrings(values[start])
	rows := make([][]string, 0, len(values)-start-1)
	for _, row := range values[start+1:] {
		cols := toStrings(row)
		if allBlank(cols) {
			continue
		}
		rows = append(rows, cols)
	}
	return ports.BuildTable(sourceID, header, rows)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = ports.CellString(v)
	}
	return out
}

func allBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}
