package destinations

import (
	"context"
	"fmt"
	"time"

	"github.com/KYVENetwork/csv-dlt/schema"
)

// Destination is an analytical store a table can be (re)created in.
type Destination interface {
	DropTable(ctx context.Context, table TableIdentity) error
	CreateTable(ctx context.Context, table TableIdentity, fields schema.Schema) error
	// InsertRows writes rows whose values are ordered like fields and
	// returns the number of inserted rows.
	InsertRows(ctx context.Context, table TableIdentity, fields schema.Schema, rows [][]any) (int64, error)
	Close() error
}

type TableIdentity struct {
	Database string
	Table    string
}

func (t TableIdentity) String() string {
	return fmt.Sprintf("%s.%s", t.Database, t.Table)
}

type DestinationConfig struct {
	Type string

	// clickhouse
	Addresses []string
	Username  string
	Password  string
	Secure    bool

	// postgres
	ConnectionUrl  string
	RowInsertLimit int

	// big_query
	ProjectId       string
	Location        string
	CredentialsFile string

	DialTimeout time.Duration
}

func NewDestination(ctx context.Context, config DestinationConfig) (Destination, error) {
	switch config.Type {
	case "clickhouse", "":
		return NewClickHouse(ctx, ClickHouseConfig{
			Addresses:   config.Addresses,
			Username:    config.Username,
			Password:    config.Password,
			Secure:      config.Secure,
			DialTimeout: config.DialTimeout,
		})
	case "postgres":
		return NewPostgres(ctx, PostgresConfig{
			ConnectionUrl:  config.ConnectionUrl,
			RowInsertLimit: config.RowInsertLimit,
		})
	case "big_query":
		return NewBigQuery(ctx, BigQueryConfig{
			ProjectId:       config.ProjectId,
			Location:        config.Location,
			CredentialsFile: config.CredentialsFile,
		})
	default:
		return nil, fmt.Errorf("destination type not supported: %v", config.Type)
	}
}
