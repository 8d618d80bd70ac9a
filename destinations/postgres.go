package destinations

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/KYVENetwork/csv-dlt/schema"
	"github.com/lib/pq"
)

// postgres accepts at most 65535 bind parameters per statement
const postgresMaxParameters = 65535

type PostgresConfig struct {
	ConnectionUrl  string
	RowInsertLimit int
}

type Postgres struct {
	config PostgresConfig
	db     *sql.DB
}

func NewPostgres(ctx context.Context, config PostgresConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", config.ConnectionUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Postgres{
		config: config,
		db:     db,
	}, nil
}

func (p *Postgres) DropTable(ctx context.Context, table TableIdentity) error {
	_, err := p.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quotePostgresTable(table)))
	return err
}

func (p *Postgres) CreateTable(ctx context.Context, table TableIdentity, fields schema.Schema) error {
	_, err := p.db.ExecContext(ctx, postgresCreateStatement(table, fields))
	return err
}

func (p *Postgres) InsertRows(ctx context.Context, table TableIdentity, fields schema.Schema, rows [][]any) (int64, error) {
	if len(rows) == 0 || len(fields) == 0 {
		return 0, nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var inserted int64
	limit := postgresRowsPerStatement(len(fields), p.config.RowInsertLimit)
	for start := 0; start < len(rows); start += limit {
		end := min(start+limit, len(rows))

		stmt, args := postgresInsertStatement(table, fields, rows[start:end])
		result, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return 0, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func postgresType(t schema.FieldType) string {
	switch t {
	case schema.FieldInt64:
		return "BIGINT"
	case schema.FieldFloat64:
		return "DOUBLE PRECISION"
	case schema.FieldUInt8:
		return "SMALLINT"
	case schema.FieldDateTime64:
		return "TIMESTAMP(3)"
	default:
		return "TEXT"
	}
}

func quotePostgresTable(table TableIdentity) string {
	return pq.QuoteIdentifier(table.Database) + "." + pq.QuoteIdentifier(table.Table)
}

func postgresCreateStatement(table TableIdentity, fields schema.Schema) string {
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = fmt.Sprintf("%s %s", pq.QuoteIdentifier(f.Name), postgresType(f.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", quotePostgresTable(table), strings.Join(columns, ",\n    "))
}

func postgresRowsPerStatement(columns, rowInsertLimit int) int {
	limit := postgresMaxParameters / columns
	if rowInsertLimit > 0 && rowInsertLimit < limit {
		limit = rowInsertLimit
	}
	return max(limit, 1)
}

func postgresInsertStatement(table TableIdentity, fields schema.Schema, rows [][]any) (string, []any) {
	columnNames := make([]string, len(fields))
	for i, name := range fields.Names() {
		columnNames[i] = pq.QuoteIdentifier(name)
	}

	argsCounter := 1
	templateStrings := make([]string, 0, len(rows))
	valueArgs := make([]any, 0, len(rows)*len(fields))
	for _, row := range rows {
		s := make([]string, len(fields))
		for i := range s {
			s[i] = "$" + strconv.FormatInt(int64(argsCounter), 10)
			argsCounter += 1
		}
		templateStrings = append(templateStrings, fmt.Sprintf("(%s)", strings.Join(s, ", ")))
		valueArgs = append(valueArgs, row...)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quotePostgresTable(table),
		strings.Join(columnNames, ", "),
		strings.Join(templateStrings, ", "),
	)
	return stmt, valueArgs
}
