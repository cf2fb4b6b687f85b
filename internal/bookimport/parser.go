// Package bookimport parses copy manifests: semicolon-separated files
// exported by cataloguing tools, one row per title with the number of
// physical units received. Processing a manifest is what creates
// copies in bulk.
package bookimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soaresmg/liber/internal/catalog"
	"github.com/soaresmg/liber/internal/encoding"
)

const (
	colISBN   = "isbn"
	colTitle  = "title"
	colAuthor = "author"
	colUnits  = "units"
)

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

// colIndex maps lower-cased column names to their position in the row.
type colIndex map[string]int

func (p *Parser) Parse(r io.Reader) ([]catalog.ImportRow, error) {
	utf8r, err := encoding.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	cols, headerIdx := findHeader(records)
	if cols == nil {
		return nil, fmt.Errorf("no manifest header found: expected columns isbn, title, units")
	}

	return parseRows(cols, records[headerIdx+1:], headerIdx+1)
}

// findHeader scans for the first row carrying all required columns.
// Exports often lead with report banners before the real header.
func findHeader(records [][]string) (colIndex, int) {
	for rowIdx, record := range records {
		cols := make(colIndex)

		for i, cell := range record {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		if hasAll(cols, colISBN, colTitle, colUnits) {
			return cols, rowIdx
		}
	}

	return nil, 0
}

func hasAll(cols colIndex, names ...string) bool {
	for _, name := range names {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts import rows below the header. headerRowNum is the
// 0-based index of the header in the file, used for error messages.
func parseRows(cols colIndex, records [][]string, headerRowNum int) ([]catalog.ImportRow, error) {
	var out []catalog.ImportRow

	for i, record := range records {
		rowNum := headerRowNum + i + 2 // 1-based, past the header

		if blank(record) {
			continue
		}

		isbn := cellValue(record, cols[colISBN])
		if isbn == "" {
			return nil, fmt.Errorf("row %d: missing isbn", rowNum)
		}

		title := cellValue(record, cols[colTitle])
		if title == "" {
			return nil, fmt.Errorf("row %d: missing title", rowNum)
		}

		units, err := strconv.Atoi(cellValue(record, cols[colUnits]))
		if err != nil || units < 1 {
			return nil, fmt.Errorf("row %d: invalid units %q", rowNum, cellValue(record, cols[colUnits]))
		}

		row := catalog.ImportRow{
			ISBN:  isbn,
			Title: title,
			Units: units,
		}

		if idx, ok := cols[colAuthor]; ok {
			row.Author = cellValue(record, idx)
		}

		out = append(out, row)
	}

	return out, nil
}

func cellValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}

	return strings.TrimSpace(record[idx])
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
