package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/KYVENetwork/csv-dlt/destinations"
	"github.com/KYVENetwork/csv-dlt/loader/collector"
	"github.com/KYVENetwork/csv-dlt/schema"
	"github.com/KYVENetwork/csv-dlt/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchEvents = "event_time,query,clicks,is_bot\n" +
	"2019-10-01 04:00:17.797,foo,1,False\n" +
	"2019-10-02 05:00:00,bar,,True\n" +
	",baz,3,False\n"

type fakeSource struct {
	objects map[string]string
	listErr error
}

func (f *fakeSource) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", collector.ErrSourceNotFound, bucket, key)
	}
	return []byte(data), nil
}

func (f *fakeSource) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	keys := make([]string, 0, len(f.objects))
	for key := range f.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeSource) Close() error { return nil }

type fakeDestination struct {
	mu sync.Mutex

	failOn string
	err    error

	calls  []string
	fields map[string]schema.Schema
	rows   map[string][][]any
}

func newFakeDestination() *fakeDestination {
	return &fakeDestination{
		fields: make(map[string]schema.Schema),
		rows:   make(map[string][][]any),
	}
}

func (f *fakeDestination) record(call string, table destinations.TableIdentity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call+" "+table.String())
	if f.failOn == call {
		return f.err
	}
	return nil
}

func (f *fakeDestination) DropTable(ctx context.Context, table destinations.TableIdentity) error {
	if err := f.record("drop", table); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fields, table.String())
	delete(f.rows, table.String())
	return nil
}

func (f *fakeDestination) CreateTable(ctx context.Context, table destinations.TableIdentity, fields schema.Schema) error {
	if err := f.record("create", table); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields[table.String()] = fields
	return nil
}

func (f *fakeDestination) InsertRows(ctx context.Context, table destinations.TableIdentity, fields schema.Schema, rows [][]any) (int64, error) {
	if err := f.record("insert", table); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[table.String()] = append(f.rows[table.String()], rows...)
	return int64(len(rows)), nil
}

func (f *fakeDestination) Close() error { return nil }

func newTestLoader(source *fakeSource, destination *fakeDestination) *Loader {
	return NewLoader(Config{
		ConnectionName: "test",
		Bucket:         "search-analytics",
		Database:       "default",
		WorkerCount:    2,
	}, source, destination, zerolog.Nop())
}

func TestTableIdentityFromKey(t *testing.T) {
	tests := []struct {
		key   string
		table string
	}{
		{"logs/Search_Events.csv", "search_events"},
		{"Search_Events.csv", "search_events"},
		{"a/b/c/Daily.Report.csv", "daily.report"},
		{"dump.csv.csv", "dump.csv"},
		{"logs/no_suffix", "no_suffix"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			identity := TableIdentityFromKey("default", tt.key)
			assert.Equal(t, "default", identity.Database)
			assert.Equal(t, tt.table, identity.Table)
		})
	}

	assert.Equal(t, "default.search_events", TableIdentityFromKey("default", "logs/Search_Events.csv").String())
}

func TestRun_LoadsTable(t *testing.T) {
	source := &fakeSource{objects: map[string]string{"logs/Search_Events.csv": searchEvents}}
	destination := newFakeDestination()

	status, err := newTestLoader(source, destination).Run(context.Background(), "logs/Search_Events.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"drop default.search_events",
		"create default.search_events",
		"insert default.search_events",
	}, destination.calls)

	assert.Equal(t, int64(3), status.Rows)
	assert.Equal(t, 4, status.Columns)
	assert.Equal(t, []string{"event_time"}, status.DatetimeColumns)
	assert.Equal(t, "default.search_events", status.Table.String())
	assert.NotEmpty(t, status.RunID.String())

	assert.Equal(t, schema.Schema{
		{Name: "event_time", Type: schema.FieldDateTime64},
		{Name: "query", Type: schema.FieldString},
		{Name: "clicks", Type: schema.FieldInt64},
		{Name: "is_bot", Type: schema.FieldUInt8},
	}, destination.fields["default.search_events"])

	assert.Equal(t, [][]any{
		{time.Date(2019, 10, 1, 4, 0, 17, 797000000, time.UTC), "foo", int64(1), uint8(0)},
		{time.Date(2019, 10, 2, 5, 0, 0, 0, time.UTC), "bar", nil, uint8(1)},
		{nil, "baz", int64(3), uint8(0)},
	}, destination.rows["default.search_events"])
}

func TestRun_AllNullColumnStaysText(t *testing.T) {
	source := &fakeSource{objects: map[string]string{"empty_col.csv": "id,note\n1,\n2,NA\n"}}
	destination := newFakeDestination()

	status, err := newTestLoader(source, destination).Run(context.Background(), "empty_col.csv")
	require.NoError(t, err)

	assert.Empty(t, status.DatetimeColumns)
	assert.Equal(t, schema.Schema{
		{Name: "id", Type: schema.FieldInt64},
		{Name: "note", Type: schema.FieldString},
	}, destination.fields["default.empty_col"])
	assert.Equal(t, [][]any{{int64(1), nil}, {int64(2), nil}}, destination.rows["default.empty_col"])
}

func TestRun_HeaderOnly(t *testing.T) {
	source := &fakeSource{objects: map[string]string{"header.csv": "a,b\n"}}
	destination := newFakeDestination()

	status, err := newTestLoader(source, destination).Run(context.Background(), "header.csv")
	require.NoError(t, err)

	assert.Equal(t, int64(0), status.Rows)
	assert.Equal(t, 2, status.Columns)
	assert.Len(t, destination.calls, 3)
}

func TestRun_SourceNotFound(t *testing.T) {
	destination := newFakeDestination()

	_, err := newTestLoader(&fakeSource{}, destination).Run(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, collector.ErrSourceNotFound)
	assert.Empty(t, destination.calls)
}

func TestRun_ParseErrorTouchesNoDestination(t *testing.T) {
	source := &fakeSource{objects: map[string]string{
		"ragged.csv": "a,b\n1,2,3\n",
		"empty.csv":  "",
	}}
	destination := newFakeDestination()
	loader := newTestLoader(source, destination)

	_, err := loader.Run(context.Background(), "ragged.csv")
	assert.ErrorIs(t, err, schema.ErrMalformedCSV)

	_, err = loader.Run(context.Background(), "empty.csv")
	assert.ErrorIs(t, err, schema.ErrMalformedCSV)

	assert.Empty(t, destination.calls)
}

func TestRun_DestinationErrors(t *testing.T) {
	tests := []struct {
		failOn string
		calls  []string
	}{
		{"drop", []string{"drop default.search_events"}},
		{"create", []string{"drop default.search_events", "create default.search_events"}},
		{"insert", []string{"drop default.search_events", "create default.search_events", "insert default.search_events"}},
	}

	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			cause := errors.New("code: 60, table is read only")
			source := &fakeSource{objects: map[string]string{"logs/search_events.csv": searchEvents}}
			destination := newFakeDestination()
			destination.failOn = tt.failOn
			destination.err = cause

			_, err := newTestLoader(source, destination).Run(context.Background(), "logs/search_events.csv")
			assert.ErrorIs(t, err, ErrDestination)
			assert.ErrorIs(t, err, cause)
			assert.ErrorContains(t, err, cause.Error())
			assert.Equal(t, tt.calls, destination.calls)
		})
	}
}

func TestRun_Idempotent(t *testing.T) {
	source := &fakeSource{objects: map[string]string{"logs/Search_Events.csv": searchEvents}}
	destination := newFakeDestination()
	loader := newTestLoader(source, destination)

	first, err := loader.Run(context.Background(), "logs/Search_Events.csv")
	require.NoError(t, err)
	firstFields := destination.fields["default.search_events"]
	firstRows := destination.rows["default.search_events"]

	second, err := loader.Run(context.Background(), "logs/Search_Events.csv")
	require.NoError(t, err)

	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, firstFields, destination.fields["default.search_events"])
	assert.Equal(t, firstRows, destination.rows["default.search_events"])
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestStart(t *testing.T) {
	source := &fakeSource{objects: map[string]string{
		"logs/a.csv":      "x\n1\n2\n",
		"logs/b.csv":      searchEvents,
		"logs/broken.csv": "a,b\n1,2,3\n",
		"logs/readme.txt": "not a csv",
	}}
	destination := newFakeDestination()

	summary, err := newTestLoader(source, destination).Start(context.Background())
	require.NoError(t, err)

	assert.False(t, summary.Ok())
	assert.Len(t, summary.Succeeded, 2)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "logs/broken.csv", summary.Failed[0].Status.Key)
	assert.ErrorIs(t, summary.Failed[0].Err, schema.ErrMalformedCSV)
	assert.Equal(t, int64(5), summary.Rows())

	assert.Contains(t, destination.rows, "default.a")
	assert.Contains(t, destination.rows, "default.b")
	assert.NotContains(t, destination.rows, "default.readme")
}

func TestStart_ListError(t *testing.T) {
	source := &fakeSource{listErr: errors.New("access denied")}

	_, err := newTestLoader(source, newFakeDestination()).Start(context.Background())
	assert.ErrorContains(t, err, "access denied")
}

func TestStartKeys_NoKeys(t *testing.T) {
	summary := newTestLoader(&fakeSource{}, newFakeDestination()).StartKeys(context.Background(), nil)
	assert.True(t, summary.Ok())
	assert.Empty(t, summary.Succeeded)
}

func TestNewConfig(t *testing.T) {
	config := &utils.Config{Loader: utils.Loader{
		WorkerCount: 3,
		ChannelSize: 6,
		MaxRamGB:    2,
		Datetime:    utils.Datetime{SampleSize: 50, Threshold: 0.9},
	}}
	source := utils.Source{Bucket: "bucket", Prefix: "logs/"}
	destination := utils.Destination{Database: "analytics"}

	loaderConfig := NewConfig(config, "search", source, destination, Overrides{})
	assert.Equal(t, "search", loaderConfig.ConnectionName)
	assert.Equal(t, "bucket", loaderConfig.Bucket)
	assert.Equal(t, "logs/", loaderConfig.Prefix)
	assert.Equal(t, "analytics", loaderConfig.Database)
	assert.Equal(t, 3, loaderConfig.WorkerCount)
	assert.Equal(t, 50, loaderConfig.Detector.SampleSize)
	assert.Equal(t, 0.9, loaderConfig.Detector.Threshold)
	assert.Len(t, loaderConfig.Detector.Patterns, len(schema.DatetimePatterns))

	loaderConfig = NewConfig(config, "search", source, destination, Overrides{Bucket: "other", Database: "default"})
	assert.Equal(t, "other", loaderConfig.Bucket)
	assert.Equal(t, "logs/", loaderConfig.Prefix)
	assert.Equal(t, "default", loaderConfig.Database)
}

func TestSummary(t *testing.T) {
	summary := Summary{
		Succeeded: []Status{{Rows: 2}, {Rows: 3}},
		Failed:    []Result{{Err: errors.New("boom")}},
	}
	assert.Equal(t, int64(5), summary.Rows())
	assert.False(t, summary.Ok())
	assert.Equal(t, "succeeded: 2, failed: 1, rows: 5", summary.String())
}
