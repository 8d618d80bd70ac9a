package destinations

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/KYVENetwork/csv-dlt/schema"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const bigQueryNullMarker = `\N`

type BigQueryConfig struct {
	ProjectId       string
	Location        string
	CredentialsFile string
}

// BigQuery maps the database of a table identity to a dataset.
type BigQuery struct {
	config BigQueryConfig
	client *bigquery.Client
}

func NewBigQuery(ctx context.Context, config BigQueryConfig) (*BigQuery, error) {
	options := make([]option.ClientOption, 0)
	if config.CredentialsFile != "" {
		options = append(options, option.WithCredentialsFile(config.CredentialsFile))
	}

	client, err := bigquery.NewClient(ctx, config.ProjectId, options...)
	if err != nil {
		return nil, fmt.Errorf("bigquery.NewClient: %w", err)
	}
	if config.Location != "" {
		client.Location = config.Location
	}

	return &BigQuery{
		config: config,
		client: client,
	}, nil
}

func (b *BigQuery) DropTable(ctx context.Context, table TableIdentity) error {
	err := b.client.Dataset(table.Database).Table(table.Table).Delete(ctx)
	if err != nil {
		// Check if the error is a NotFound error, which indicates that the table does not exist
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil
		}
		return err
	}
	return nil
}

func (b *BigQuery) CreateTable(ctx context.Context, table TableIdentity, fields schema.Schema) error {
	return b.client.Dataset(table.Database).Table(table.Table).Create(ctx, &bigquery.TableMetadata{
		Schema: bigQuerySchema(fields),
	})
}

func (b *BigQuery) InsertRows(ctx context.Context, table TableIdentity, fields schema.Schema, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	csvBuffer, err := bigQueryCSV(rows)
	if err != nil {
		return 0, err
	}

	source := bigquery.NewReaderSource(csvBuffer)
	source.SourceFormat = bigquery.CSV
	source.NullMarker = bigQueryNullMarker
	source.AllowQuotedNewlines = true
	source.Schema = bigQuerySchema(fields)

	loader := b.client.Dataset(table.Database).Table(table.Table).LoaderFrom(source)
	loader.WriteDisposition = bigquery.WriteAppend
	loader.CreateDisposition = bigquery.CreateNever

	job, err := loader.Run(ctx)
	if err != nil {
		return 0, err
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, err
	}
	if status.Err() != nil {
		return 0, fmt.Errorf("job completed with error: %v", status.Err())
	}

	if status.Statistics != nil {
		if stats, ok := status.Statistics.Details.(*bigquery.LoadStatistics); ok {
			return stats.OutputRows, nil
		}
	}
	return int64(len(rows)), nil
}

func (b *BigQuery) Close() error {
	return b.client.Close()
}

func bigQuerySchema(fields schema.Schema) bigquery.Schema {
	s := make(bigquery.Schema, len(fields))
	for i, f := range fields {
		s[i] = &bigquery.FieldSchema{Name: f.Name, Type: bigQueryType(f.Type)}
	}
	return s
}

func bigQueryType(t schema.FieldType) bigquery.FieldType {
	switch t {
	case schema.FieldInt64, schema.FieldUInt8:
		return bigquery.IntegerFieldType
	case schema.FieldFloat64:
		return bigquery.FloatFieldType
	case schema.FieldDateTime64:
		// DATETIME has no time zone, like the naive timestamps it holds
		return bigquery.DateTimeFieldType
	default:
		return bigquery.StringFieldType
	}
}

func bigQueryCSV(rows [][]any) (*bytes.Buffer, error) {
	csvBuffer := new(bytes.Buffer)
	csvWriter := csv.NewWriter(csvBuffer)

	line := make([]string, 0)
	for _, row := range rows {
		line = line[:0]
		for _, v := range row {
			line = append(line, bigQueryValue(v))
		}
		if err := csvWriter.Write(line); err != nil {
			return nil, err
		}
	}
	csvWriter.Flush()

	return csvBuffer, csvWriter.Error()
}

func bigQueryValue(v any) string {
	switch value := v.(type) {
	case nil:
		return bigQueryNullMarker
	case string:
		return value
	case int64:
		return strconv.FormatInt(value, 10)
	case uint8:
		return strconv.FormatUint(uint64(value), 10)
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case time.Time:
		return value.Format("2006-01-02 15:04:05.000")
	default:
		return fmt.Sprint(value)
	}
}
