package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/KYVENetwork/csv-dlt/destinations"
	"github.com/KYVENetwork/csv-dlt/loader/collector"
	"github.com/KYVENetwork/csv-dlt/schema"
	"github.com/KYVENetwork/csv-dlt/utils"
)

// Overrides replace the bucket, prefix or database of a connection when set.
type Overrides struct {
	Bucket   string
	Prefix   string
	Database string
}

func SetupLoader(ctx context.Context, config *utils.Config, connection string, overrides Overrides, events *utils.EventTracker) (*Loader, error) {
	_, source, destination, err := utils.GetConnectionDetails(config, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to read connection: %w", err)
	}

	loaderConfig := NewConfig(config, connection, source, destination, overrides)
	loaderConfig.Events = events

	src, err := collector.NewSource(ctx, SourceConfig(source))
	if err != nil {
		return nil, fmt.Errorf("failed to create source %s: %w", source.Name, err)
	}

	dest, err := destinations.NewDestination(ctx, DestinationConfig(destination))
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("failed to create destination %s: %w", destination.Name, err)
	}

	return NewLoader(loaderConfig, src, dest, utils.DltLogger(connection)), nil
}

func NewConfig(config *utils.Config, connection string, source utils.Source, destination utils.Destination, overrides Overrides) Config {
	loaderConfig := Config{
		ConnectionName: connection,
		Bucket:         source.Bucket,
		Prefix:         source.Prefix,
		Database:       destination.Database,
		ChannelSize:    config.Loader.ChannelSize,
		WorkerCount:    config.Loader.WorkerCount,
		MaxRamGB:       config.Loader.MaxRamGB,
		Detector:       schema.DefaultDatetimeDetector(),
	}
	if config.Loader.Datetime.SampleSize > 0 {
		loaderConfig.Detector.SampleSize = config.Loader.Datetime.SampleSize
	}
	if config.Loader.Datetime.Threshold > 0 {
		loaderConfig.Detector.Threshold = config.Loader.Datetime.Threshold
	}

	if overrides.Bucket != "" {
		loaderConfig.Bucket = overrides.Bucket
	}
	if overrides.Prefix != "" {
		loaderConfig.Prefix = overrides.Prefix
	}
	if overrides.Database != "" {
		loaderConfig.Database = overrides.Database
	}
	return loaderConfig
}

func SourceConfig(source utils.Source) collector.SourceConfig {
	return collector.SourceConfig{
		Type:            source.Type,
		Endpoint:        source.Endpoint,
		Region:          source.Region,
		AccessKeyID:     source.AccessKeyID,
		SecretAccessKey: source.SecretAccessKey,
		UsePathStyle:    source.UsePathStyle,
		CredentialsFile: source.CredentialsFile,
	}
}

func DestinationConfig(destination utils.Destination) destinations.DestinationConfig {
	return destinations.DestinationConfig{
		Type:            destination.Type,
		Addresses:       destination.Addresses,
		Username:        destination.Username,
		Password:        destination.Password,
		Secure:          destination.Secure,
		ConnectionUrl:   destination.ConnectionURL,
		RowInsertLimit:  destination.RowInsertLimit,
		ProjectId:       destination.ProjectID,
		Location:        destination.Location,
		CredentialsFile: destination.CredentialsFile,
		DialTimeout:     time.Duration(destination.DialTimeoutSeconds) * time.Second,
	}
}
