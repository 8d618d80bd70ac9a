package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KYVENetwork/csv-dlt/destinations"
	"github.com/KYVENetwork/csv-dlt/loader/collector"
	"github.com/KYVENetwork/csv-dlt/schema"
	"github.com/KYVENetwork/csv-dlt/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrDestination = errors.New("destination error")

// TableIdentityFromKey names the table a key is loaded into: the lower cased
// basename of the key without its .csv suffix.
func TableIdentityFromKey(database, key string) destinations.TableIdentity {
	name := key
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, collector.CSVSuffix)

	return destinations.TableIdentity{
		Database: database,
		Table:    strings.ToLower(name),
	}
}

// Run loads the object at key into its table, replacing the table if it
// exists. A failure after the drop leaves the table absent.
func (loader *Loader) Run(ctx context.Context, key string) (Status, error) {
	start := time.Now()

	status := Status{
		RunID: uuid.New(),
		Key:   key,
		Table: TableIdentityFromKey(loader.config.Database, key),
	}
	logger := loader.logger.With().
		Str("run", status.RunID.String()).
		Str("key", key).
		Str("table", status.Table.String()).
		Logger()

	connection := loader.config.ConnectionName
	utils.PrometheusRunsStarted.WithLabelValues(connection).Inc()
	loader.config.Events.Track(utils.EventLoadStarted, map[string]interface{}{
		"destination_table": status.Table.Table,
	})

	err := loader.run(ctx, &status, logger)
	status.Duration = time.Since(start)

	utils.PrometheusLastRunDuration.WithLabelValues(connection).Set(status.Duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
		logger.Error().Str("err", err.Error()).Msg("load failed")
	} else {
		utils.PrometheusRowsLoaded.WithLabelValues(connection).Add(float64(status.Rows))
		utils.PrometheusDatetimeColumnsConverted.WithLabelValues(connection).Add(float64(len(status.DatetimeColumns)))
		logger.Info().
			Int64("rows", status.Rows).
			Int("columns", status.Columns).
			Strs("datetime_columns", status.DatetimeColumns).
			Dur("duration", status.Duration).
			Msg("loaded")
	}
	utils.PrometheusRunsFinished.WithLabelValues(connection, result).Inc()
	loader.config.Events.Track(utils.EventLoadFinished, map[string]interface{}{
		"status":      result,
		"rows":        status.Rows,
		"columns":     status.Columns,
		"duration_ms": status.Duration.Milliseconds(),
	})

	return status, err
}

func (loader *Loader) run(ctx context.Context, status *Status, logger zerolog.Logger) error {
	data, err := loader.source.Fetch(ctx, loader.config.Bucket, status.Key)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", status.Key, err)
	}

	table, err := schema.ParseCSV(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", status.Key, err)
	}
	logger.Debug().Int("rows", table.RowCount()).Strs("columns", table.ColumnNames()).Msg("parsed")

	status.DatetimeColumns = loader.config.Detector.Apply(table, logger)

	fields := schema.InferSchema(table)
	rows := schema.InsertRows(table, fields)
	status.Columns = len(fields)
	logger.Debug().Interface("schema", fields.Map()).Msg("inferred schema")

	if err := loader.destination.DropTable(ctx, status.Table); err != nil {
		return fmt.Errorf("%w: failed to drop %s: %w", ErrDestination, status.Table, err)
	}
	if err := loader.destination.CreateTable(ctx, status.Table, fields); err != nil {
		return fmt.Errorf("%w: failed to create %s: %w", ErrDestination, status.Table, err)
	}

	inserted, err := loader.destination.InsertRows(ctx, status.Table, fields, rows)
	if err != nil {
		return fmt.Errorf("%w: failed to insert into %s: %w", ErrDestination, status.Table, err)
	}
	status.Rows = inserted

	return nil
}
