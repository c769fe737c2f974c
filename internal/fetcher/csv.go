package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ecomap/internal/model"
)

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

// ParseCSV reads a delimited file into a Table. The first non-blank record is
// the header; fields past its end get __EMPTY names. All values are strings and
// empty fields are absent.
func ParseCSV(ctx context.Context, r io.Reader, opts CSVOptions) (*model.Table, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow ragged rows

	table := &model.Table{}
	var header []string
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "csv: context cancelled")
		}

		record, err := reader.Read()
		if err == io.EOF {
			return table, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}

		if opts.TrimSpace {
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
		}

		if header == nil {
			if len(record) > 0 {
				record[0] = strings.TrimPrefix(record[0], "\ufeff")
			}
			if blankRecord(record) {
				continue
			}
			header = record
			table.Columns = headerNames(header)
			continue
		}
		if len(record) > len(header) {
			header = append(header, make([]string, len(record)-len(header))...)
			table.Columns = headerNames(header)
		}

		cells := make([]any, len(record))
		for i, field := range record {
			if field != "" {
				cells[i] = field
			}
		}
		if row := buildRow(table.Columns, cells); row != nil {
			table.Rows = append(table.Rows, row)
		}
	}
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
