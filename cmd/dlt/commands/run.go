package commands

import (
	"os"
	"time"

	l "github.com/KYVENetwork/csv-dlt/loader"
	"github.com/KYVENetwork/csv-dlt/utils"
	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
)

func init() {
	runCmd.Flags().StringVarP(&connections, "connections", "c", "", "name of the connections to schedule (comma separated, default all)")

	runCmd.Flags().Float64Var(&interval, "interval", 0, "sync every interval hours instead of the connection's cron")

	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run scheduled syncs for the configured connections",
	Run: func(cmd *cobra.Command, args []string) {
		config, events, err := loadConfig()
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to load config")
			os.Exit(1)
		}
		defer events.Close()

		all = connections == ""
		names, err := connectionNames(config)
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to get connections")
			exit(events, 1)
		}

		ctx, cancel := shutdownContext()
		defer cancel()

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to create scheduler")
			exit(events, 1)
		}

		scheduled := 0
		for _, name := range names {
			c, _, _, err := utils.GetConnectionDetails(config, name)
			if err != nil {
				logger.Error().Str("connection", name).Str("err", err.Error()).Msg("failed to read connection")
				continue
			}

			var definition gocron.JobDefinition
			switch {
			case interval > 0:
				definition = gocron.DurationJob(time.Duration(interval * float64(time.Hour)))
			case c.Cron != "":
				definition = gocron.CronJob(c.Cron, false)
			default:
				logger.Warn().Str("connection", name).Msg("connection has no cron schedule, skipping")
				continue
			}

			name := name
			job, err := scheduler.NewJob(
				definition,
				gocron.NewTask(func() {
					syncConnection(ctx, config, events, name, l.Overrides{})
				}),
				gocron.WithName(name),
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			)
			if err != nil {
				logger.Error().Str("connection", name).Str("err", err.Error()).Msg("failed to schedule connection")
				continue
			}

			nextRun, _ := job.NextRun()
			logger.Info().Str("connection", name).Time("next_run", nextRun).Msg("scheduled sync")
			scheduled++
		}

		if scheduled == 0 {
			logger.Error().Msg("no connection could be scheduled")
			exit(events, 1)
		}

		scheduler.Start()
		<-ctx.Done()

		if err := scheduler.Shutdown(); err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to shut down scheduler")
		}
	},
}
