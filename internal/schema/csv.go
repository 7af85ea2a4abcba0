package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// RawTable is an uploaded dataset before normalization: headers in
// arbitrary casing/spacing and untyped string cells.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// ReadCSV parses an uploaded CSV stream into a RawTable. Short rows are
// padded and long rows truncated to the header width; cell-level typing
// is left to the coercion pass.
func ReadCSV(r io.Reader) (*RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		if len(row) < len(headers) {
			padded := make([]string, len(headers))
			copy(padded, row)
			row = padded
		} else if len(row) > len(headers) {
			row = row[:len(headers)]
		}
		rows = append(rows, row)
	}
	return &RawTable{Headers: headers, Rows: rows}, nil
}
