package commands

import (
	"fmt"

	"github.com/KYVENetwork/csv-dlt/utils"
	"github.com/spf13/cobra"
)

func init() {
	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)

	rootCmd.AddCommand(sourcesCmd)
}

var sourcesCmd = &cobra.Command{
	Use:     "sources",
	Short:   "Add or remove a source or list all",
	Aliases: []string{"s"},
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new source",
	Run: func(cmd *cobra.Command, args []string) {
		configNode, err := utils.LoadConfigWithComments(configPath)
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to load config")
			return
		}

		newSource := utils.CreateSourceEntry()
		if utils.ValueExists(configNode, "sources", utils.GetNodeValue(newSource, "name")) {
			logger.Error().Str("source", utils.GetNodeValue(newSource, "name")).Msg("source already exists")
			return
		}
		utils.AddNodeToConfig(configNode, "sources", &newSource)

		if err := utils.SaveConfigWithComments(configPath, configNode); err != nil {
			logger.Error().Str("err", err.Error()).Msg("error saving config")
			return
		}

		logger.Info().Msg("Source added successfully!")
	},
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all specified sources",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := utils.LoadConfig(configPath)
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to load config")
			return
		}

		if len(config.Sources) == 0 {
			fmt.Println("No sources defined.")
			return
		}

		maxNameLen, maxTypeLen, maxEndpointLen, maxBucketLen, maxPrefixLen := len("Name"), len("Type"), len("Endpoint"), len("Bucket"), len("Prefix")
		for _, source := range config.Sources {
			maxNameLen = max(maxNameLen, len(source.Name))
			maxTypeLen = max(maxTypeLen, len(source.Type))
			maxEndpointLen = max(maxEndpointLen, len(source.Endpoint))
			maxBucketLen = max(maxBucketLen, len(source.Bucket))
			maxPrefixLen = max(maxPrefixLen, len(source.Prefix))
		}
		maxNameLen += columnOffset
		maxTypeLen += columnOffset
		maxEndpointLen += columnOffset
		maxBucketLen += columnOffset

		fmt.Printf("\033[36m%-*s %-*s %-*s %-*s %-*s\033[0m\n", maxNameLen, "Name", maxTypeLen, "Type", maxEndpointLen, "Endpoint", maxBucketLen, "Bucket", maxPrefixLen, "Prefix")
		for _, source := range config.Sources {
			fmt.Printf("%-*s %-*s %-*s %-*s %-*s\n", maxNameLen, source.Name, maxTypeLen, source.Type, maxEndpointLen, source.Endpoint, maxBucketLen, source.Bucket, maxPrefixLen, source.Prefix)
		}
	},
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove [source name]",
	Short: "Remove a source by name",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		removeEntry("sources", args[0])
	},
}
