package schema

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textColumn(name string, values ...any) *Column {
	return &Column{Name: name, Type: TypeText, Values: values}
}

// sampleColumn returns n values of which matching look like timestamps.
func sampleColumn(n, matching int) *Column {
	values := make([]any, n)
	for i := range values {
		if i < matching {
			values[i] = fmt.Sprintf("2020-01-%02d", i%28+1)
		} else {
			values[i] = fmt.Sprintf("query-%d", i)
		}
	}
	return textColumn("c", values...)
}

func TestDatetimeDetector_Threshold(t *testing.T) {
	detector := DefaultDatetimeDetector()

	tests := []struct {
		name     string
		n        int
		matching int
		want     bool
	}{
		{name: "exactly 80 percent of 10", n: 10, matching: 8, want: false},
		{name: "90 percent of 10", n: 10, matching: 9, want: true},
		{name: "exactly 80 percent of 5", n: 5, matching: 4, want: false},
		{name: "all of 5", n: 5, matching: 5, want: true},
		{name: "exactly 80 of 100", n: 100, matching: 80, want: false},
		{name: "81 of 100", n: 100, matching: 81, want: true},
		{name: "single value", n: 1, matching: 1, want: true},
		{name: "none", n: 20, matching: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.IsDatetime(sampleColumn(tt.n, tt.matching)))
		})
	}
}

func TestDatetimeDetector_SampleIsLeadingNonNullValues(t *testing.T) {
	detector := DefaultDatetimeDetector()

	// the first 100 non-null values are timestamps, the remaining 900 are not
	values := make([]any, 0, 1100)
	for i := 0; i < 100; i++ {
		values = append(values, nil, "2020-02-02 10:00:00")
	}
	for i := 0; i < 900; i++ {
		values = append(values, "free text")
	}
	assert.True(t, detector.IsDatetime(textColumn("c", values...)))

	// and the other way round
	values = values[:0]
	for i := 0; i < 100; i++ {
		values = append(values, "free text")
	}
	for i := 0; i < 900; i++ {
		values = append(values, "2020-02-02 10:00:00")
	}
	assert.False(t, detector.IsDatetime(textColumn("c", values...)))
}

func TestDatetimeDetector_BestPatternNotSum(t *testing.T) {
	detector := DefaultDatetimeDetector()

	// half match one pattern, half another: neither exceeds 80 percent
	column := textColumn("c",
		"2020-01-01", "2020-01-02", "2020-01-03", "2020-01-04", "2020-01-05",
		"01/01/2020", "01/02/2020", "01/03/2020", "01/04/2020", "01/05/2020",
	)
	assert.False(t, detector.IsDatetime(column))
}

func TestDatetimeDetector_PatternsMatchAtStart(t *testing.T) {
	detector := DefaultDatetimeDetector()

	assert.True(t, detector.IsDatetime(textColumn("c", "2020-01-01 trailing text")))
	assert.False(t, detector.IsDatetime(textColumn("c", "on 2020-01-01")))
	assert.False(t, detector.IsDatetime(textColumn("c", "20200101", "20200102")))
}

func TestDatetimeDetector_CustomThreshold(t *testing.T) {
	detector := DefaultDatetimeDetector()
	detector.Threshold = 0.5

	assert.True(t, detector.IsDatetime(sampleColumn(10, 6)))
	assert.False(t, detector.IsDatetime(sampleColumn(10, 5)))
}

func TestDatetimeDetector_Apply(t *testing.T) {
	table := &Table{Columns: []*Column{
		textColumn("ts", "2019-10-01 04:00:17.797", "2019-10-02 05:00:00", nil),
		textColumn("name", "alice", "bob", "carol"),
		textColumn("empty", nil, nil, nil),
		{Name: "id", Type: TypeInt64, Values: []any{int64(20190101), int64(20190102), int64(20190103)}},
	}}

	converted := DefaultDatetimeDetector().Apply(table, zerolog.Nop())
	assert.Equal(t, []string{"ts"}, converted)

	ts := table.Column("ts")
	require.Equal(t, TypeTimestamp, ts.Type)
	assert.Equal(t, time.Date(2019, 10, 1, 4, 0, 17, 797000000, time.UTC), ts.Values[0])
	assert.Equal(t, time.Date(2019, 10, 2, 5, 0, 0, 0, time.UTC), ts.Values[1])
	assert.Nil(t, ts.Values[2])

	assert.Equal(t, TypeText, table.Column("name").Type)
	assert.Equal(t, TypeText, table.Column("empty").Type)
	assert.Equal(t, TypeInt64, table.Column("id").Type)
}

func TestDatetimeDetector_ApplyEmptyTable(t *testing.T) {
	table := &Table{Columns: []*Column{textColumn("ts"), textColumn("name")}}

	converted := DefaultDatetimeDetector().Apply(table, zerolog.Nop())
	assert.Empty(t, converted)
	assert.Equal(t, TypeText, table.Column("ts").Type)
}

func TestDatetimeDetector_UnparsableValuesBecomeNull(t *testing.T) {
	tests := []struct {
		name    string
		invalid string
	}{
		{name: "text", invalid: "not a date"},
		{name: "decimal", invalid: "1.5"},
		{name: "month and day", invalid: "oct 7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]any, 0, 10)
			for i := 1; i <= 9; i++ {
				values = append(values, fmt.Sprintf("2021-03-%02d", i))
			}
			values = append(values, tt.invalid)
			table := &Table{Columns: []*Column{textColumn("day", values...)}}

			converted := DefaultDatetimeDetector().Apply(table, zerolog.Nop())
			require.Equal(t, []string{"day"}, converted)

			day := table.Column("day")
			assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), day.Values[0])
			assert.Nil(t, day.Values[9])
		})
	}
}

func TestDatetimeDetector_ConversionFailureKeepsText(t *testing.T) {
	// matches the date pattern but no value is a real date
	table := &Table{Columns: []*Column{textColumn("c", "2021-13-45", "2021-99-99", "2021-00-00")}}

	converted := DefaultDatetimeDetector().Apply(table, zerolog.Nop())
	assert.Empty(t, converted)

	c := table.Column("c")
	assert.Equal(t, TypeText, c.Type)
	assert.Equal(t, []any{"2021-13-45", "2021-99-99", "2021-00-00"}, c.Values)
}

func TestConvertToTimestamp_Error(t *testing.T) {
	err := ConvertToTimestamp(textColumn("c", "2021-13-45"))

	var conversionErr *DatetimeConversionError
	require.ErrorAs(t, err, &conversionErr)
	assert.Equal(t, "c", conversionErr.Column)
	assert.Equal(t, 1, conversionErr.Values)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
	}{
		{value: "2019-10-01 04:00:17.797", want: time.Date(2019, 10, 1, 4, 0, 17, 797000000, time.UTC)},
		{value: "2019-10-01 04:00:17", want: time.Date(2019, 10, 1, 4, 0, 17, 0, time.UTC)},
		{value: "2019-10-01T04:00:17", want: time.Date(2019, 10, 1, 4, 0, 17, 0, time.UTC)},
		{value: "2019-10-01T04:00:17Z", want: time.Date(2019, 10, 1, 4, 0, 17, 0, time.UTC)},
		{value: "10/01/2019 04:00:17", want: time.Date(2019, 10, 1, 4, 0, 17, 0, time.UTC)},
		{value: "2019/10/01 04:00:17", want: time.Date(2019, 10, 1, 4, 0, 17, 0, time.UTC)},
		{value: "2019-10-01", want: time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC)},
		{value: "10/01/2019", want: time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC)},
		{value: " 2019-10-01 ", want: time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.value)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimestamp_OffsetIsDropped(t *testing.T) {
	got, ok := ParseTimestamp("2021-01-01+05:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseTimestamp("2021-06-15 23:30:00+05:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, 6, 15, 23, 30, 0, 0, time.UTC), got)

	got, ok = ParseTimestamp("2021-06-15T23:30:00.250-08:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, 6, 15, 23, 30, 0, 250000000, time.UTC), got)
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, value := range []string{"", "   ", "2021-13-45", "1.5", "oct 7", "12", "March"} {
		_, ok := ParseTimestamp(value)
		assert.False(t, ok, value)
	}
}
