// Package recipients reads the notification address list from a
// spreadsheet-like directory.
package recipients

import (
	"fmt"
	"strings"
)

// Addresses flattens rows of cells into the list of non-blank addresses,
// row by row and left to right. When hasHeaderRow is set the first row is
// dropped before anything else.
func Addresses(rows [][]string, hasHeaderRow bool) []string {
	if hasHeaderRow && len(rows) > 0 {
		rows = rows[1:]
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		for _, cell := range row {
			if addr := strings.TrimSpace(cell); addr != "" {
				out = append(out, addr)
			}
		}
	}
	return out
}

// cellsToStrings converts API cell values into strings.
func cellsToStrings(values [][]interface{}) [][]string {
	rows := make([][]string, 0, len(values))
	for _, row := range values {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			if v == nil {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, fmt.Sprint(v))
		}
		rows = append(rows, cells)
	}
	return rows
}
