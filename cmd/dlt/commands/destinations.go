package commands

import (
	"fmt"
	"strings"

	"github.com/KYVENetwork/csv-dlt/utils"
	"github.com/spf13/cobra"
)

func init() {
	destinationsCmd.AddCommand(destinationsAddCmd)
	destinationsCmd.AddCommand(destinationsListCmd)
	destinationsCmd.AddCommand(destinationsRemoveCmd)

	rootCmd.AddCommand(destinationsCmd)
}

var destinationsCmd = &cobra.Command{
	Use:     "destinations",
	Short:   "Add or remove a destination or list all",
	Aliases: []string{"d"},
}

var destinationsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new destination",
	Run: func(cmd *cobra.Command, args []string) {
		configNode, err := utils.LoadConfigWithComments(configPath)
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to load config")
			return
		}

		newDestination := utils.CreateDestinationEntry()
		if utils.ValueExists(configNode, "destinations", utils.GetNodeValue(newDestination, "name")) {
			logger.Error().Str("destination", utils.GetNodeValue(newDestination, "name")).Msg("destination already exists")
			return
		}
		utils.AddNodeToConfig(configNode, "destinations", &newDestination)

		if err := utils.SaveConfigWithComments(configPath, configNode); err != nil {
			logger.Error().Str("err", err.Error()).Msg("error saving config")
			return
		}

		logger.Info().Msg("Destination added successfully!")
	},
}

var destinationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all specified destinations",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := utils.LoadConfig(configPath)
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to load config")
			return
		}

		if len(config.Destinations) == 0 {
			fmt.Println("No destinations defined.")
			return
		}

		maxNameLen, maxTypeLen, maxDatabaseLen, maxTargetLen := len("Name"), len("Type"), len("Database"), len("Target")
		for _, d := range config.Destinations {
			maxNameLen = max(maxNameLen, len(d.Name))
			maxTypeLen = max(maxTypeLen, len(d.Type))
			maxDatabaseLen = max(maxDatabaseLen, len(d.Database))
			maxTargetLen = max(maxTargetLen, len(destinationTarget(d)))
		}
		maxNameLen += columnOffset
		maxTypeLen += columnOffset
		maxDatabaseLen += columnOffset

		fmt.Printf("\033[36m%-*s %-*s %-*s %-*s\033[0m\n", maxNameLen, "Name", maxTypeLen, "Type", maxDatabaseLen, "Database", maxTargetLen, "Target")
		for _, d := range config.Destinations {
			fmt.Printf("%-*s %-*s %-*s %-*s\n", maxNameLen, d.Name, maxTypeLen, d.Type, maxDatabaseLen, d.Database, maxTargetLen, destinationTarget(d))
		}
	},
}

var destinationsRemoveCmd = &cobra.Command{
	Use:   "remove [destination name]",
	Short: "Remove a destination by name",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		removeEntry("destinations", args[0])
	},
}

// destinationTarget describes where a destination writes to without
// printing credentials.
func destinationTarget(d utils.Destination) string {
	switch d.Type {
	case "postgres":
		if i := strings.LastIndex(d.ConnectionURL, "@"); i >= 0 {
			return d.ConnectionURL[i+1:]
		}
		return d.ConnectionURL
	case "big_query":
		return d.ProjectID
	default:
		return strings.Join(d.Addresses, ",")
	}
}
