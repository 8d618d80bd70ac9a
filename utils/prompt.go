package utils

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

func PromptConfirm(prompt string) bool {
	answer := ""
	fmt.Printf("\u001B[36m%s\u001B[0m", prompt)
	if _, err := fmt.Scan(&answer); err != nil {
		logger.Error().Str("err", err.Error()).Msg("failed to read user input")
		return false
	}
	return strings.ToLower(answer) == "y"
}

func PromptDropdown(prompt, selectLabel string, options []string) string {
	fmt.Println(prompt)
	for i, option := range options {
		fmt.Printf("%d: %s\n", i+1, option)
	}
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("\033[36m%s [1-%v]: \033[0m", selectLabel, len(options))
		input, _ := reader.ReadString('\n')
		choice, err := strconv.Atoi(strings.TrimSpace(input))
		if err == nil && choice > 0 && choice <= len(options) {
			return options[choice-1]
		}
		fmt.Println("Invalid choice, please try again.")
	}
}

func PromptInput(prompt string) string {
	var input string
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(prompt)
		rawInput, _ := reader.ReadString('\n')
		input = strings.TrimSpace(rawInput)
		if input != "" {
			break
		}
		fmt.Println("Input cannot be empty. Please try again.")
	}
	return input
}

func PromptInputWithDefault(prompt string, defaultValue string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

func PromptPositiveInt(prompt string, defaultValue string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	for {
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			return defaultValue
		}
		i, err := strconv.Atoi(input)
		if err == nil && i > 0 {
			return input
		}
		fmt.Println("Invalid choice, please try again.")
	}
}

// SelectEntry lets the user pick an existing entry of section. It returns
// "custom" when the user asks for a new one and "" if the section is empty.
func SelectEntry(configNode *yaml.Node, section string) string {
	var names []string
	if node := sectionNode(configNode, section); node != nil {
		for _, entry := range node.Content {
			names = append(names, GetNodeValue(*entry, "name"))
		}
	}

	if len(names) == 0 {
		fmt.Printf("No %s found in the configuration.\n", section)
		return ""
	}

	fmt.Printf("\n\u001B[36mSelect one of the existing %s: \u001B[0m\n", section)
	fmt.Println("0: custom")
	for i, name := range names {
		fmt.Printf("%d: %s\n", i+1, name)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("\033[36mEnter number of preferred entry: \033[0m")
		input, _ := reader.ReadString('\n')
		choice, err := strconv.Atoi(strings.TrimSpace(input))
		if err == nil && choice > 0 && choice <= len(names) {
			return names[choice-1]
		} else if choice == 0 && err == nil {
			return "custom"
		}
		fmt.Println("Invalid choice, please try again.")
	}
}
