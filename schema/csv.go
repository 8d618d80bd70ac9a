package schema

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrMalformedCSV = errors.New("malformed csv")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// MissingValues are the cell contents treated as null.
var MissingValues = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

var (
	trueValues  = map[string]struct{}{"True": {}, "TRUE": {}, "true": {}}
	falseValues = map[string]struct{}{"False": {}, "FALSE": {}, "false": {}}
)

// ParseCSV reads a CSV payload with a header line into a Table. Columns are
// typed from their text only: integer, float, boolean or text. Dates are
// never parsed here. Any structural error fails the whole payload.
func ParseCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no columns to parse from file", ErrMalformedCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
	}

	names := headerNames(header)
	cells := make([][]*string, len(names))

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
		}

		for i, field := range record {
			if _, missing := MissingValues[field]; missing {
				cells[i] = append(cells[i], nil)
				continue
			}
			value := field
			cells[i] = append(cells[i], &value)
		}
	}

	table := &Table{Columns: make([]*Column, len(names))}
	for i, name := range names {
		table.Columns[i] = inferColumn(name, cells[i])
	}

	return table, table.Validate()
}

// headerNames fills in blank names and renames duplicates to name.1, name.2, ...
func headerNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	counts := make(map[string]int, len(header))

	for i, name := range header {
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}

		if _, dup := seen[name]; dup {
			base := name
			n := counts[base]
			if n == 0 {
				n = 1
			}
			for {
				name = fmt.Sprintf("%s.%d", base, n)
				n++
				if _, taken := seen[name]; !taken {
					break
				}
			}
			counts[base] = n
		}

		seen[name] = struct{}{}
		names[i] = name
	}
	return names
}

func inferColumn(name string, cells []*string) *Column {
	column := &Column{Name: name, Type: TypeText, Values: make([]any, len(cells))}

	nonNull := 0
	for _, c := range cells {
		if c != nil {
			nonNull++
		}
	}
	if nonNull == 0 {
		return column
	}

	switch {
	case convertCells(cells, column.Values, parseInt):
		column.Type = TypeInt64
	case convertCells(cells, column.Values, parseFloat):
		column.Type = TypeFloat64
	case convertCells(cells, column.Values, parseBool):
		column.Type = TypeBool
	default:
		for i, c := range cells {
			if c == nil {
				column.Values[i] = nil
				continue
			}
			column.Values[i] = *c
		}
	}
	return column
}

// convertCells writes the converted cells into out and reports whether every
// non-null cell could be converted.
func convertCells(cells []*string, out []any, convert func(string) (any, bool)) bool {
	for i, c := range cells {
		if c == nil {
			out[i] = nil
			continue
		}
		v, ok := convert(*c)
		if !ok {
			return false
		}
		out[i] = v
	}
	return true
}

func parseInt(s string) (any, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, false
	}
	return v, true
}

func parseFloat(s string) (any, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, false
	}
	return v, true
}

func parseBool(s string) (any, bool) {
	if _, ok := trueValues[s]; ok {
		return true, true
	}
	if _, ok := falseValues[s]; ok {
		return false, true
	}
	return nil, false
}
