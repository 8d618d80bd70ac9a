package commands

import (
	"fmt"

	"github.com/KYVENetwork/csv-dlt/utils"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize dlt",
	Run: func(cmd *cobra.Command, args []string) {
		if err := utils.InitConfig(configPath); err != nil {
			logger.Error().Msg(err.Error())
			return
		}

		if !utils.PromptConfirm("\nDo you want to create a destination? [y/N]: ") {
			return
		}

		configNode, err := utils.LoadConfigWithComments(configPath)
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("failed to load config")
			return
		}

		newDestination := utils.CreateDestinationEntry()
		utils.AddNodeToConfig(configNode, "destinations", &newDestination)

		sourceName := utils.SelectEntry(configNode, "sources")
		if sourceName == "custom" {
			newSource := utils.CreateSourceEntry()
			utils.AddNodeToConfig(configNode, "sources", &newSource)
			sourceName = utils.GetNodeValue(newSource, "name")
		} else if sourceName == "" {
			logger.Error().Msg("no source selected")
			return
		}

		cron := utils.PromptInputWithDefault("\033[36mSpecify cron schedule (e.g. '30 * * * *') [default none]: \033[0m", "")
		newConnection := utils.CreateConnectionEntry("connection_1", sourceName, utils.GetNodeValue(newDestination, "name"), cron)
		utils.AddNodeToConfig(configNode, "connections", &newConnection)

		// Remove examples
		utils.RemoveEntry(configNode, "destinations", "big_query_example")
		utils.RemoveEntry(configNode, "destinations", "postgres_example")
		utils.RemoveEntry(configNode, "connections", "connection_example")

		if err := utils.SaveConfigWithComments(configPath, configNode); err != nil {
			logger.Error().Str("err", err.Error()).Msg("error saving config")
			return
		}

		fmt.Println("\nSuccessfully initialized and created first connection \033[36m`connection_1`\033[0m!")

		fmt.Println("\nTo start loading, run one of the following commands: \n" +
			"\033[32m" +
			"dlt load --connection connection_1 --key path/to/file.csv\n" +
			"dlt sync --connections connection_1\n" +
			"dlt run --connections connection_1\n" +
			"\033[0m")

		fmt.Println("To manage your config, run one of the following commands: \n" +
			"\033[32m" +
			"dlt sources {add|remove|list}\n" +
			"dlt destinations {add|remove|list}\n" +
			"dlt connections {add|remove|list}" +
			"\033[0m")
	},
}
