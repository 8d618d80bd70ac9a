package destinations

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/KYVENetwork/csv-dlt/schema"
)

type ClickHouseConfig struct {
	Addresses []string
	Username  string
	Password  string
	Secure    bool

	DialTimeout time.Duration
}

type ClickHouse struct {
	config ClickHouseConfig
	conn   driver.Conn

	// location of the server, naive timestamps are written in it so that
	// they read back with the same wall clock
	location *time.Location
}

func NewClickHouse(ctx context.Context, config ClickHouseConfig) (*ClickHouse, error) {
	options := &clickhouse.Options{
		Addr: config.Addresses,
		Auth: clickhouse.Auth{
			Username: config.Username,
			Password: config.Password,
		},
		DialTimeout: config.DialTimeout,
	}
	if config.Secure {
		options.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	location := time.UTC
	if version, err := conn.ServerVersion(); err == nil && version.Timezone != nil {
		location = version.Timezone
	}

	return &ClickHouse{
		config:   config,
		conn:     conn,
		location: location,
	}, nil
}

func (c *ClickHouse) DropTable(ctx context.Context, table TableIdentity) error {
	return c.conn.Exec(ctx, clickHouseDropStatement(table))
}

func (c *ClickHouse) CreateTable(ctx context.Context, table TableIdentity, fields schema.Schema) error {
	return c.conn.Exec(ctx, clickHouseCreateStatement(table, fields))
}

func (c *ClickHouse) InsertRows(ctx context.Context, table TableIdentity, fields schema.Schema, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch, err := c.conn.PrepareBatch(ctx, clickHouseInsertStatement(table, fields))
	if err != nil {
		return 0, err
	}

	for _, row := range rows {
		if err := batch.Append(inLocation(row, c.location)...); err != nil {
			_ = batch.Abort()
			return 0, err
		}
	}

	if err := batch.Send(); err != nil {
		return 0, err
	}

	return int64(len(rows)), nil
}

func (c *ClickHouse) Close() error {
	return c.conn.Close()
}

func clickHouseDropStatement(table TableIdentity) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", table)
}

func clickHouseCreateStatement(table TableIdentity, fields schema.Schema) string {
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = fmt.Sprintf("%s %s", quoteClickHouse(f.Name), f.Type)
	}

	return fmt.Sprintf(`CREATE TABLE %s (
    %s
)
ENGINE = MergeTree()
ORDER BY tuple()`, table, strings.Join(columns, ",\n    "))
}

func clickHouseInsertStatement(table TableIdentity, fields schema.Schema) string {
	columns := make([]string, len(fields))
	for i, name := range fields.Names() {
		columns[i] = quoteClickHouse(name)
	}
	return fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(columns, ", "))
}

func quoteClickHouse(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "\\`") + "`"
}

// inLocation moves naive timestamps into location without changing their
// wall clock fields.
func inLocation(row []any, location *time.Location) []any {
	out := make([]any, len(row))
	for i, v := range row {
		t, ok := v.(time.Time)
		if !ok {
			out[i] = v
			continue
		}
		out[i] = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), location)
	}
	return out
}
