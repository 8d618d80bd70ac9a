package schema

import (
	"math"
	"reflect"
	"time"
)

// MapColumnType returns the destination type of a native column type.
// Unknown types map to a nullable string.
func MapColumnType(t ColumnType) FieldType {
	switch t {
	case TypeInt64:
		return FieldInt64
	case TypeFloat64:
		return FieldFloat64
	case TypeBool:
		return FieldUInt8
	case TypeTimestamp:
		return FieldDateTime64
	default:
		return FieldString
	}
}

// InferSchema maps every column of table, in column order.
func InferSchema(table *Table) Schema {
	fields := make(Schema, len(table.Columns))
	for i, column := range table.Columns {
		fields[i] = Field{Name: column.Name, Type: MapColumnType(column.Type)}
	}
	return fields
}

// IsMissing reports whether v is a null-equivalent value: nil, a nil pointer
// or a float NaN. Times are never missing, 0001-01-01 is a valid value.
func IsMissing(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(value)
	case float32:
		return math.IsNaN(float64(value))
	case time.Time:
		return false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// InsertRows builds the insert tuples for table in the order of fields.
// Missing values become nil and booleans become 0/1.
func InsertRows(table *Table, fields Schema) [][]any {
	columns := make([]*Column, len(fields))
	for i, f := range fields {
		columns[i] = table.Column(f.Name)
	}

	rows := make([][]any, table.RowCount())
	for r := range rows {
		row := make([]any, len(columns))
		for i, column := range columns {
			if column == nil {
				continue
			}
			row[i] = insertValue(column.Values[r], fields[i].Type)
		}
		rows[r] = row
	}
	return rows
}

func insertValue(v any, t FieldType) any {
	if IsMissing(v) {
		return nil
	}

	switch value := v.(type) {
	case bool:
		if value {
			return uint8(1)
		}
		return uint8(0)
	case time.Time:
		if t == FieldDateTime64 {
			return naive(value)
		}
	}
	return v
}
