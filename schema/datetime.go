package schema

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"
)

const (
	// DatetimeSampleSize is the number of leading non-null values a text
	// column is judged on.
	DatetimeSampleSize = 100
	// DatetimeThreshold is the share of the sample the best pattern has to
	// exceed for the column to become a timestamp column.
	DatetimeThreshold = 0.8
)

// DatetimePatterns are matched against the start of each sampled value.
var DatetimePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?`), // 2019-10-01 04:00:17.797
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`),         // 2019-10-01T04:00:17
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2}`),         // 10/01/2019 04:00:17
	regexp.MustCompile(`^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}`),         // 2019/10/01 04:00:17
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`),                           // 2019-10-01
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`),                           // 10/01/2019
}

// timestampLayouts are tried in order before falling back to dateparse.
// Fractional seconds are accepted after the seconds field by time.Parse.
var timestampLayouts = []string{
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"01/02/2006 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02Z07:00",
	"2006-01-02",
	"01/02/2006",
}

type DatetimeConversionError struct {
	Column string
	Values int
}

func (e *DatetimeConversionError) Error() string {
	return fmt.Sprintf("none of the %d values of column %q could be parsed as a timestamp", e.Values, e.Column)
}

type DatetimeDetector struct {
	SampleSize int
	Threshold  float64
	Patterns   []*regexp.Regexp
}

func DefaultDatetimeDetector() DatetimeDetector {
	return DatetimeDetector{
		SampleSize: DatetimeSampleSize,
		Threshold:  DatetimeThreshold,
		Patterns:   DatetimePatterns,
	}
}

// Apply converts every text column that looks like timestamps into a
// timestamp column and returns the names of the converted columns. A column
// that cannot be converted is logged and left as text.
func (d DatetimeDetector) Apply(table *Table, logger zerolog.Logger) []string {
	converted := make([]string, 0)

	for _, column := range table.Columns {
		if column.Type != TypeText || column.AllNull() {
			continue
		}

		if !d.IsDatetime(column) {
			continue
		}

		if err := ConvertToTimestamp(column); err != nil {
			logger.Warn().Str("column", column.Name).Str("err", err.Error()).Msg("failed to convert column to datetime")
			continue
		}

		logger.Info().Str("column", column.Name).Msg("auto-converted column to datetime (timezone-naive)")
		converted = append(converted, column.Name)
	}

	return converted
}

// IsDatetime samples the first non-null values of column and reports whether
// the best matching pattern matches strictly more than Threshold of them.
func (d DatetimeDetector) IsDatetime(column *Column) bool {
	sample := column.NonNull(d.SampleSize)
	if len(sample) == 0 {
		return false
	}

	values := make([]string, len(sample))
	for i, v := range sample {
		values[i] = fmt.Sprint(v)
	}

	best := 0
	for _, pattern := range d.Patterns {
		matches := 0
		for _, v := range values {
			if pattern.MatchString(v) {
				matches++
			}
		}
		best = max(best, matches)
	}

	return float64(best) > float64(len(values))*d.Threshold
}

// ConvertToTimestamp parses every value of a text column. Values that do not
// parse become null. The column is left untouched if nothing parses.
func ConvertToTimestamp(column *Column) error {
	values := make([]any, len(column.Values))
	nonNull, parsed := 0, 0

	for i, v := range column.Values {
		if IsMissing(v) {
			continue
		}
		nonNull++

		t, ok := ParseTimestamp(fmt.Sprint(v))
		if !ok {
			continue
		}
		values[i] = t
		parsed++
	}

	if nonNull > 0 && parsed == 0 {
		return &DatetimeConversionError{Column: column.Name, Values: nonNull}
	}

	column.Values = values
	column.Type = TypeTimestamp
	return nil
}

// ParseTimestamp parses value into a timezone-naive time. A UTC offset in the
// value is dropped, the wall clock fields are kept as written.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return naive(t), true
		}
	}

	// dateparse reads bare numbers and month names as dates in year 0, so
	// only values shaped like one of the patterns are handed to it.
	if !matchesPattern(value) {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil || t.Year() < 1 {
		return time.Time{}, false
	}
	return naive(t), true
}

func matchesPattern(value string) bool {
	for _, pattern := range DatetimePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}
