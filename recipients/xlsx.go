package recipients

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"ski-forecast-mailer/models"
	"ski-forecast-mailer/utils"
)

// XLSXDirectory reads recipients from an A1 range of a local workbook, with
// the same semantics as SheetsDirectory.
type XLSXDirectory struct {
	path         string
	readRange    string
	hasHeaderRow bool
	logger       *utils.Logger
}

// NewXLSXDirectory creates a directory over readRange (e.g. "contacts!H:I")
// of the workbook at path.
func NewXLSXDirectory(path, readRange string, hasHeaderRow bool, logger *utils.Logger) *XLSXDirectory {
	return &XLSXDirectory{path: path, readRange: readRange, hasHeaderRow: hasHeaderRow, logger: logger}
}

// Recipients opens the workbook and returns the non-blank cells of the range.
func (d *XLSXDirectory) Recipients(ctx context.Context) ([]string, error) {
	rng, err := parseA1Range(d.readRange)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDirectoryFetch, err)
	}

	f, err := excelize.OpenFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", models.ErrDirectoryFetch, d.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(rng.sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", models.ErrDirectoryFetch, rng.sheet, err)
	}

	selected := rng.slice(rows)
	d.logger.Info("[recipients] Grabbed range %s from %s (%d rows)", d.readRange, d.path, len(selected))
	return Addresses(selected, d.hasHeaderRow), nil
}

// a1Range is a parsed "Sheet!H2:I10" style range. Bounds are 1-based and
// inclusive; a zero row bound is open.
type a1Range struct {
	sheet             string
	firstCol, lastCol int
	firstRow, lastRow int
}

func parseA1Range(s string) (a1Range, error) {
	sheet, cells, ok := strings.Cut(s, "!")
	if !ok || sheet == "" || cells == "" {
		return a1Range{}, fmt.Errorf("range %q is not Sheet!A1:B2", s)
	}
	sheet = strings.Trim(sheet, "'")

	start, end, found := strings.Cut(cells, ":")
	if !found {
		end = start
	}

	r := a1Range{sheet: sheet}
	var err error
	if r.firstCol, r.firstRow, err = splitCell(start); err != nil {
		return a1Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	if r.lastCol, r.lastRow, err = splitCell(end); err != nil {
		return a1Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	if r.firstCol > r.lastCol || (r.lastRow > 0 && r.firstRow > r.lastRow) {
		return a1Range{}, fmt.Errorf("range %q is reversed", s)
	}
	return r, nil
}

// splitCell splits "H2" into column 8 and row 2, or "H" into column 8 and row 0.
func splitCell(cell string) (col, row int, err error) {
	cell = strings.ToUpper(strings.TrimSpace(cell))
	i := strings.IndexFunc(cell, unicode.IsDigit)
	letters, digits := cell, ""
	if i >= 0 {
		letters, digits = cell[:i], cell[i:]
	}
	if letters == "" {
		return 0, 0, fmt.Errorf("cell %q has no column", cell)
	}
	if col, err = excelize.ColumnNameToNumber(letters); err != nil {
		return 0, 0, err
	}
	if digits != "" {
		if _, row, err = excelize.SplitCellName(cell); err != nil {
			return 0, 0, err
		}
	}
	return col, row, nil
}

// slice returns the cells of rows that fall inside the range.
func (r a1Range) slice(rows [][]string) [][]string {
	first := r.firstRow
	if first < 1 {
		first = 1
	}
	last := len(rows)
	if r.lastRow > 0 && r.lastRow < last {
		last = r.lastRow
	}

	out := make([][]string, 0, len(rows))
	for rowNum := first; rowNum <= last; rowNum++ {
		row := rows[rowNum-1]
		cells := make([]string, 0, r.lastCol-r.firstCol+1)
		for col := r.firstCol; col <= r.lastCol && col <= len(row); col++ {
			cells = append(cells, row[col-1])
		}
		out = append(out, cells)
	}
	return out
}
