package schema

import (
	"fmt"
	"time"
)

// ColumnType is the native type of a parsed column.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInt64
	TypeFloat64
	TypeBool
	TypeTimestamp
)

func (c ColumnType) String() string {
	switch c {
	case TypeText:
		return "text"
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// Column holds the values of a single column. A nil value is null, every
// other value has the Go type of the column variant: string, int64, float64,
// bool or time.Time.
type Column struct {
	Name   string
	Type   ColumnType
	Values []any
}

func (c *Column) Len() int {
	return len(c.Values)
}

// NonNull returns the non-null values in row order, at most limit of them.
// A negative limit returns all of them.
func (c *Column) NonNull(limit int) []any {
	values := make([]any, 0)
	for _, v := range c.Values {
		if limit >= 0 && len(values) >= limit {
			break
		}
		if !IsMissing(v) {
			values = append(values, v)
		}
	}
	return values
}

func (c *Column) AllNull() bool {
	for _, v := range c.Values {
		if !IsMissing(v) {
			return false
		}
	}
	return true
}

type Table struct {
	Columns []*Column
}

func (t *Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Row returns the i-th row tuple in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Values[i]
	}
	return row
}

// Validate checks that every column has the same length and that column
// names are unique.
func (t *Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Columns))
	rows := t.RowCount()
	for _, c := range t.Columns {
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[c.Name] = struct{}{}

		if c.Len() != rows {
			return fmt.Errorf("column %q has %d values, expected %d", c.Name, c.Len(), rows)
		}
	}
	return nil
}

// FieldType is the destination type of a column. String renders the
// ClickHouse type, the other destinations translate it to their dialect.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt64
	FieldFloat64
	FieldUInt8
	FieldDateTime64
)

func (f FieldType) String() string {
	switch f {
	case FieldInt64:
		return "Nullable(Int64)"
	case FieldFloat64:
		return "Nullable(Float64)"
	case FieldUInt8:
		return "Nullable(UInt8)"
	case FieldDateTime64:
		return "Nullable(DateTime64(3))"
	default:
		return "Nullable(String)"
	}
}

type Field struct {
	Name string
	Type FieldType
}

// Schema maps column names to destination types in table column order.
type Schema []Field

func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Map returns the schema as a plain name -> type map, used for logging.
func (s Schema) Map() map[string]string {
	m := make(map[string]string, len(s))
	for _, f := range s {
		m[f.Name] = f.Type.String()
	}
	return m
}

// naive drops the location of t and keeps its wall clock fields.
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
