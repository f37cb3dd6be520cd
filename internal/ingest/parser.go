package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// Row is one record of the import file, one cell per header column
type Row []string

var (
	// ErrUnterminatedQuote is returned when content ends inside a quoted field
	ErrUnterminatedQuote = errors.New("unterminated quoted field")
	// ErrNoDataRows is returned when the file has no header or no data rows
	ErrNoDataRows = errors.New("file must have a header row and at least one data row")
	// ErrMissingColumns is returned when required header columns are absent
	ErrMissingColumns = errors.New("required columns missing")
	// ErrInvalidSpreadsheet is returned when an XLSX upload cannot be read
	ErrInvalidSpreadsheet = errors.New("invalid Excel file")
)

const utf8BOM = "\ufeff"

// Parse splits comma separated, double-quote escaped content into rows.
// Line endings are normalized to LF first. Rows whose cells are all blank are dropped.
func Parse(content string) ([]Row, error) {
	content = strings.TrimPrefix(content, utf8BOM)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var (
		rows      []Row
		row       Row
		field     strings.Builder
		inQuotes  bool
		line      = 1
		quoteLine int
	)

	for i := 0; i < len(content); i++ {
		c := content[i]

		if inQuotes {
			switch c {
			case '"':
				if i+1 < len(content) && content[i+1] == '"' {
					field.WriteByte('"')
					i++
					continue
				}
				inQuotes = false
			case '\n':
				line++
				field.WriteByte(c)
			default:
				field.WriteByte(c)
			}
			continue
		}

		switch c {
		case '"':
			inQuotes = true
			quoteLine = line
		case ',':
			row = append(row, field.String())
			field.Reset()
		case '\n':
			row = append(row, field.String())
			field.Reset()
			rows = appendRow(rows, row)
			row = nil
			line++
		default:
			field.WriteByte(c)
		}
	}

	if inQuotes {
		return nil, fmt.Errorf("%w: quote opened on line %d", ErrUnterminatedQuote, quoteLine)
	}

	if field.Len() > 0 || len(row) > 0 {
		row = append(row, field.String())
		rows = appendRow(rows, row)
	}

	return rows, nil
}

func appendRow(rows []Row, row Row) []Row {
	if isBlank(row) {
		return rows
	}
	return append(rows, row)
}

func isBlank(row Row) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
