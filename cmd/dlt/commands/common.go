package commands

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	l "github.com/KYVENetwork/csv-dlt/loader"
	"github.com/KYVENetwork/csv-dlt/utils"
)

// shutdownContext is cancelled on the first SIGINT or SIGTERM. A second
// signal exits immediately.
func shutdownContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	shutdownChannel := make(chan os.Signal, 1)
	signal.Notify(shutdownChannel, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sigCount := 0
		for {
			<-shutdownChannel
			sigCount++
			if sigCount == 1 {
				cancel()
				logger.Info().Msg("Exiting...")
				logger.Warn().Msg("Waiting for running loads to finish, send the signal again to force exit")
			} else {
				logger.Warn().Msg("Received second signal, forcing exit...")
				os.Exit(1)
			}
		}
	}()

	return ctx, cancel
}

// loadConfig reads the config and starts the metrics endpoint if enabled.
func loadConfig() (*utils.Config, *utils.EventTracker, error) {
	config, err := utils.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	if config.Prometheus.Enabled {
		utils.StartPrometheus(config.Prometheus.Port)
	}

	return config, utils.NewEventTracker(config.Telemetry), nil
}

// connectionNames resolves --all or a comma separated --connections value.
func connectionNames(config *utils.Config) ([]string, error) {
	if all {
		return utils.GetAllConnectionNames(config)
	}

	names := make([]string, 0)
	for _, name := range strings.Split(connections, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// syncConnection loads every csv object of a connection once and reports
// whether all loads succeeded.
func syncConnection(ctx context.Context, config *utils.Config, events *utils.EventTracker, name string, overrides l.Overrides) bool {
	loader, err := l.SetupLoader(ctx, config, name, overrides, events)
	if err != nil {
		logger.Error().Str("connection", name).Str("err", err.Error()).Msg("failed to set up loader")
		return false
	}
	defer func() {
		if err := loader.Close(); err != nil {
			logger.Warn().Str("connection", name).Str("err", err.Error()).Msg("failed to close loader")
		}
	}()

	startTime := time.Now()
	logger.Info().Str("connection", name).Msg("Starting loading process")

	summary, err := loader.Start(ctx)
	if err != nil {
		logger.Error().Str("connection", name).Str("err", err.Error()).Msg("sync failed")
		return false
	}

	for _, failed := range summary.Failed {
		logger.Error().Str("connection", name).Str("key", failed.Status.Key).Str("err", failed.Err.Error()).Msg("load failed")
	}
	logger.Info().
		Str("connection", name).
		Str("summary", summary.String()).
		Dur("took", time.Since(startTime)).
		Msg("Finished sync")

	return summary.Ok()
}

// exit flushes pending usage events before terminating, deferred calls do not
// run on os.Exit.
func exit(events *utils.EventTracker, code int) {
	events.Close()
	os.Exit(code)
}
