package commands

import (
	"fmt"
	"os"

	l "github.com/KYVENetwork/csv-dlt/loader"
	"github.com/spf13/cobra"
)

func init() {
	loadCmd.Flags().StringVarP(&connection, "connection", "c", "", "name of the connection to load with")
	if err := loadCmd.MarkFlagRequired("connection"); err != nil {
		panic(fmt.Errorf("flag 'connection' should be required: %w", err))
	}

	loadCmd.Flags().StringVarP(&key, "key", "k", "", "object key of the csv file to load")
	if err := loadCmd.MarkFlagRequired("key"); err != nil {
		panic(fmt.Errorf("flag 'key' should be required: %w", err))
	}

	loadCmd.Flags().StringVar(&bucket, "bucket", "", "override the bucket of the connection's source")

	loadCmd.Flags().StringVar(&database, "database", "", "override the database of the connection's destination")

	rootCmd.AddCommand(loadCmd)
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a single csv file into its table",
	Run: func(cmd *cobra.Command, args []string) {
		config, events, err := loadConfig()
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to load config")
			os.Exit(1)
		}
		defer events.Close()

		ctx, cancel := shutdownContext()
		defer cancel()

		loader, err := l.SetupLoader(ctx, config, connection, l.Overrides{Bucket: bucket, Database: database}, events)
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to set up loader")
			exit(events, 1)
		}

		status, err := loader.Run(ctx, key)
		if closeErr := loader.Close(); closeErr != nil {
			logger.Warn().Str("err", closeErr.Error()).Msg("failed to close loader")
		}
		if err != nil {
			exit(events, 1)
		}

		logger.Info().Msg(fmt.Sprintf("Finished load! %s, took %v", status, status.Duration))
	},
}
