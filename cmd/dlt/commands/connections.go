package commands

import (
	"fmt"

	"github.com/KYVENetwork/csv-dlt/utils"
	"github.com/spf13/cobra"
)

const columnOffset = 2

func init() {
	connectionsCmd.AddCommand(connectionsAddCmd)
	connectionsCmd.AddCommand(connectionsListCmd)
	connectionsCmd.AddCommand(connectionsRemoveCmd)

	rootCmd.AddCommand(connectionsCmd)
}

var connectionsCmd = &cobra.Command{
	Use:     "connections",
	Short:   "Add or remove a connection or list all",
	Aliases: []string{"c"},
}

var connectionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new connection",
	Run: func(cmd *cobra.Command, args []string) {
		configNode, err := utils.LoadConfigWithComments(configPath)
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to load config")
			return
		}

		sourceName := utils.PromptInput("\033[36mEnter Source name: \033[0m")
		if !utils.ValueExists(configNode, "sources", sourceName) {
			logger.Error().Str("source", sourceName).Msg("source does not exist")
			return
		}

		destName := utils.PromptInput("\033[36mEnter Destination name: \033[0m")
		if !utils.ValueExists(configNode, "destinations", destName) {
			logger.Error().Str("destination", destName).Msg("destination does not exist")
			return
		}

		connectionName := utils.PromptInput("\033[36mEnter Connection name: \033[0m")
		if utils.ValueExists(configNode, "connections", connectionName) {
			logger.Error().Str("connection", connectionName).Msg("connection already exists")
			return
		}

		cron := utils.PromptInputWithDefault("\033[36mSpecify cron schedule (e.g. '30 * * * *') [default none]: \033[0m", "")

		newConnection := utils.CreateConnectionEntry(connectionName, sourceName, destName, cron)
		utils.AddNodeToConfig(configNode, "connections", &newConnection)

		if err := utils.SaveConfigWithComments(configPath, configNode); err != nil {
			logger.Error().Str("err", err.Error()).Msg("error saving config")
			return
		}

		logger.Info().Msg("Connection added successfully!")
	},
}

var connectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all connections",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := utils.LoadConfig(configPath)
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to load config")
			return
		}

		if len(config.Connections) == 0 {
			fmt.Println("No connections defined.")
			return
		}

		maxNameLen, maxSourceLen, maxDestinationLen, maxCronLen := len("Name"), len("Source"), len("Destination"), len("Cron")
		for _, c := range config.Connections {
			maxNameLen = max(maxNameLen, len(c.Name))
			maxSourceLen = max(maxSourceLen, len(c.Source))
			maxDestinationLen = max(maxDestinationLen, len(c.Destination))
			maxCronLen = max(maxCronLen, len(c.Cron))
		}
		maxNameLen += columnOffset
		maxSourceLen += columnOffset
		maxDestinationLen += columnOffset

		fmt.Printf("\033[36m%-*s %-*s %-*s %-*s\033[0m\n", maxNameLen, "Name", maxSourceLen, "Source", maxDestinationLen, "Destination", maxCronLen, "Cron")
		for _, c := range config.Connections {
			fmt.Printf("%-*s %-*s %-*s %-*s\n", maxNameLen, c.Name, maxSourceLen, c.Source, maxDestinationLen, c.Destination, maxCronLen, c.Cron)
		}
	},
}

var connectionsRemoveCmd = &cobra.Command{
	Use:   "remove [connection name]",
	Short: "Remove a connection by name",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		removeEntry("connections", args[0])
	},
}

func removeEntry(section, name string) {
	configNode, err := utils.LoadConfigWithComments(configPath)
	if err != nil {
		logger.Error().Str("err", err.Error()).Msg("failed to load config")
		return
	}

	if !utils.RemoveEntry(configNode, section, name) {
		logger.Error().Str(section, name).Msg("entry not found")
		return
	}

	if err := utils.SaveConfigWithComments(configPath, configNode); err != nil {
		logger.Error().Str("err", err.Error()).Msg("error saving config")
		return
	}
	logger.Info().Str(section, name).Msg("removed successfully!")
}
