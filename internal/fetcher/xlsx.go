package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/ecomap/internal/model"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ParseXLSX decodes a workbook and returns the selected sheet as a Table. The
// first row holding a value is the header, and cells past its end get __EMPTY
// names. Numeric cells become float64, booleans bool, and empty cells are absent.
func ParseXLSX(data []byte, opts XLSXOptions) (*model.Table, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}
	return sheetTable(f, opts)
}

// ReadXLSX opens a workbook from disk and returns the selected sheet as a Table.
func ReadXLSX(path string, opts XLSXOptions) (*model.Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	return sheetTable(f, opts)
}

func sheetTable(f *xlsx.File, opts XLSXOptions) (*model.Table, error) {
	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	table := &model.Table{}
	start := firstUsedRow(sheet.Rows)
	if start < 0 {
		return table, nil
	}

	width := 0
	for _, row := range sheet.Rows[start:] {
		if row != nil && len(row.Cells) > width {
			width = len(row.Cells)
		}
	}
	header := make([]string, width)
	for i, c := range sheet.Rows[start].Cells {
		if c != nil {
			header[i] = c.String()
		}
	}
	table.Columns = headerNames(header)

	for _, row := range sheet.Rows[start+1:] {
		if row == nil {
			continue
		}
		cells := make([]any, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = cellValue(c)
		}
		if r := buildRow(table.Columns, cells); r != nil {
			table.Rows = append(table.Rows, r)
		}
	}

	return table, nil
}

// firstUsedRow returns the index of the first row holding a value, or -1.
func firstUsedRow(rows []*xlsx.Row) int {
	for i, row := range rows {
		if row == nil {
			continue
		}
		for _, c := range row.Cells {
			if cellValue(c) != nil {
				return i
			}
		}
	}
	return -1
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func cellValue(c *xlsx.Cell) any {
	if c == nil {
		return nil
	}
	switch c.Type() {
	case xlsx.CellTypeNumeric:
		if v, err := c.Float(); err == nil {
			return v
		}
	case xlsx.CellTypeBool:
		return c.Bool()
	}
	s := c.String()
	if s == "" {
		return nil
	}
	return s
}
