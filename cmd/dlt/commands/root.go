package commands

import (
	"os"

	"github.com/KYVENetwork/csv-dlt/utils"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logger     = utils.DltLogger("cmd")
)

var (
	all         bool
	bucket      string
	connection  string
	database    string
	interval    float64
	key         string
	prefix      string
	connections string
)

var rootCmd = &cobra.Command{
	Use:           "dlt",
	Short:         "Load CSV files from object storage into analytical databases",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", utils.DefaultHomePath, "set custom config path")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Str("err", err.Error()).Msg("failed to execute command")
		os.Exit(1)
	}
}
