package commands

import (
	"fmt"
	"os"
	"time"

	l "github.com/KYVENetwork/csv-dlt/loader"
	"github.com/spf13/cobra"
)

func init() {
	syncCmd.Flags().StringVarP(&connections, "connections", "c", "", "name of the connections to sync (comma separated)")

	syncCmd.Flags().BoolVarP(&all, "all", "a", false, "sync all specified connections")

	syncCmd.Flags().Float64Var(&interval, "interval", 0, "repeat the sync every interval hours (0 syncs once)")

	syncCmd.Flags().StringVar(&prefix, "prefix", "", "override the key prefix of the connection's source")

	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load every csv file of one or more connections",
	Run: func(cmd *cobra.Command, args []string) {
		if connections == "" && !all {
			logger.Error().Msg("either --connections or --all is required")
			os.Exit(1)
		}

		config, events, err := loadConfig()
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to load config")
			os.Exit(1)
		}
		defer events.Close()

		names, err := connectionNames(config)
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to get connections")
			exit(events, 1)
		}

		ctx, cancel := shutdownContext()
		defer cancel()

		sleepDuration := time.Duration(interval * float64(time.Hour))

		for {
			ok := true
			for _, name := range names {
				ok = syncConnection(ctx, config, events, name, l.Overrides{Prefix: prefix}) && ok
			}

			if sleepDuration <= 0 {
				if !ok {
					exit(events, 1)
				}
				return
			}

			logger.Info().Msg(fmt.Sprintf("Waiting %v hours before starting next sync", interval))
			select {
			case <-ctx.Done():
				return
			case <-time.After(sleepDuration):
			}
		}
	},
}
