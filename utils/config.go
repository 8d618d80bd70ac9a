package utils

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var (
	logger = DltLogger("config")

	DefaultHomePath = defaultHomePath()
)

// envReference matches ${NAME}. A bare $ is left alone so that secrets may
// contain it.
var envReference = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

var ErrConfigCreated = errors.New("created default config, edit it and restart the process")

//go:embed config_template.yml
var defaultConfig []byte

func defaultHomePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".csv-dlt", "config.yml")
	}
	return filepath.Join(home, ".csv-dlt", "config.yml")
}

// AddNodeToConfig appends newNode to the sequence stored under key, creating
// the sequence if needed.
func AddNodeToConfig(configNode *yaml.Node, key string, newNode *yaml.Node) {
	if targetNode := sectionNode(configNode, key); targetNode != nil {
		targetNode.Kind = yaml.SequenceNode
		targetNode.Tag = "!!seq"
		targetNode.Style = 0
		targetNode.Content = append(targetNode.Content, newNode)
		return
	}

	configNode.Content[0].Content = append(configNode.Content[0].Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: []*yaml.Node{newNode}},
	)
}

// RemoveEntry deletes the entry called name from section. It reports false if
// no such entry exists.
func RemoveEntry(configNode *yaml.Node, section, name string) bool {
	targetNode := sectionNode(configNode, section)
	if targetNode == nil {
		return false
	}

	for i, entryNode := range targetNode.Content {
		if GetNodeValue(*entryNode, "name") == name {
			targetNode.Content = append(targetNode.Content[:i], targetNode.Content[i+1:]...)
			return true
		}
	}
	return false
}

// ValueExists reports whether section holds an entry called name.
func ValueExists(configNode *yaml.Node, section, name string) bool {
	targetNode := sectionNode(configNode, section)
	if targetNode == nil {
		return false
	}

	for _, entryNode := range targetNode.Content {
		if GetNodeValue(*entryNode, "name") == name {
			return true
		}
	}
	return false
}

func sectionNode(configNode *yaml.Node, section string) *yaml.Node {
	if configNode == nil || len(configNode.Content) == 0 {
		return nil
	}
	root := configNode.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == section {
			return root.Content[i+1]
		}
	}
	return nil
}

func CreateConnectionEntry(connectionName, sourceName, destName, cron string) yaml.Node {
	return yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "name"},
			{Kind: yaml.ScalarNode, Value: connectionName},
			{Kind: yaml.ScalarNode, Value: "source"},
			{Kind: yaml.ScalarNode, Value: sourceName},
			{Kind: yaml.ScalarNode, Value: "destination"},
			{Kind: yaml.ScalarNode, Value: destName},
			{Kind: yaml.ScalarNode, Value: "cron"},
			{Kind: yaml.ScalarNode, Value: cron, Style: yaml.DoubleQuotedStyle},
		},
	}
}

func CreateDestinationEntry() yaml.Node {
	destinationType := PromptDropdown("\033[36mAvailable options: \033[0m", "Select destination type", []string{"clickhouse", "postgres", "big_query"})

	switch destinationType {
	case "clickhouse":
		return yaml.Node{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: "name"},
				{Kind: yaml.ScalarNode, Value: PromptInput("\033[36mEnter Destination name: \033[0m")},
				{Kind: yaml.ScalarNode, Value: "type"},
				{Kind: yaml.ScalarNode, Value: "clickhouse"},
				{Kind: yaml.ScalarNode, Value: "database"},
				{Kind: yaml.ScalarNode, Value: PromptInputWithDefault("\033[36mEnter Database [default default]: \033[0m", "default")},
				{Kind: yaml.ScalarNode, Value: "addresses"},
				{Kind: yaml.SequenceNode, Content: []*yaml.Node{
					{Kind: yaml.ScalarNode, Value: PromptInputWithDefault("\033[36mEnter Address [default localhost:9000]: \033[0m", "localhost:9000")},
				}},
				{Kind: yaml.ScalarNode, Value: "username"},
				{Kind: yaml.ScalarNode, Value: PromptInputWithDefault("\033[36mEnter Username [default default]: \033[0m", "default")},
				{Kind: yaml.ScalarNode, Value: "password"},
				{Kind: yaml.ScalarNode, Value: PromptInputWithDefault("\033[36mEnter Password (use ${VAR} to read it from the environment): \033[0m", "")},
			},
		}
	case "postgres":
		return yaml.Node{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: "name"},
				{Kind: yaml.ScalarNode, Value: PromptInput("\033[36mEnter Destination name: \033[0m")},
				{Kind: yaml.ScalarNode, Value: "type"},
				{Kind: yaml.ScalarNode, Value: "postgres"},
				{Kind: yaml.ScalarNode, Value: "database"},
				{Kind: yaml.ScalarNode, Value: PromptInputWithDefault("\033[36mEnter Schema [default public]: \033[0m", "public")},
				{Kind: yaml.ScalarNode, Value: "connection_url"},
				{Kind: yaml.ScalarNode, Value: PromptInput("\033[36mEnter Connection URL: \033[0m")},
				{Kind: yaml.ScalarNode, Value: "row_insert_limit"},
				{Kind: yaml.ScalarNode, Value: PromptPositiveInt("\033[36mEnter row insert limit [default 5000]: \033[0m", "5000")},
			},
		}
	case "big_query":
		return yaml.Node{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: "name"},
				{Kind: yaml.ScalarNode, Value: PromptInput("\033[36mEnter Destination name: \033[0m")},
				{Kind: yaml.ScalarNode, Value: "type"},
				{Kind: yaml.ScalarNode, Value: "big_query"},
				{Kind: yaml.ScalarNode, Value: "project_id"},
				{Kind: yaml.ScalarNode, Value: PromptInput("\033[36mEnter Project ID: \033[0m")},
				{Kind: yaml.ScalarNode, Value: "database"},
				{Kind: yaml.ScalarNode, Value: PromptInput("\033[36mEnter Dataset ID: \033[0m")},
				{Kind: yaml.ScalarNode, Value: "location"},
				{Kind: yaml.ScalarNode, Value: PromptInputWithDefault("\033[36mEnter Location [default US]: \033[0m", "US")},
			},
		}
	default:
		return yaml.Node{}
	}
}

func CreateSourceEntry() yaml.Node {
	sourceType := PromptDropdown("\033[36mAvailable options: \033[0m", "Select source type", []string{"s3", "gcs"})

	if sourceType == "gcs" {
		return yaml.Node{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: "name"},
				{Kind: yaml.ScalarNode, Value: PromptInput("\033[36mEnter Source name: \033[0m")},
				{Kind: yaml.ScalarNode, Value: "type"},
				{Kind: yaml.ScalarNode, Value: "gcs"},
				{Kind: yaml.ScalarNode, Value: "bucket"},
				{Kind: yaml.ScalarNode, Value: PromptInput("\033[36mEnter Bucket: \033[0m")},
				{Kind: yaml.ScalarNode, Value: "prefix"},
				{Kind: yaml.ScalarNode, Value: PromptInputWithDefault("\033[36mEnter key prefix [default none]: \033[0m", ""), Style: yaml.DoubleQuotedStyle},
			},
		}
	}

	return yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "name"},
			{Kind: yaml.ScalarNode, Value: PromptInput("\033[36mEnter Source name: \033[0m")},
			{Kind: yaml.ScalarNode, Value: "type"},
			{Kind: yaml.ScalarNode, Value: "s3"},
			{Kind: yaml.ScalarNode, Value: "endpoint"},
			{Kind: yaml.ScalarNode, Value: PromptInputWithDefault("\033[36mEnter endpoint [default http://localhost:9000]: \033[0m", "http://localhost:9000")},
			{Kind: yaml.ScalarNode, Value: "region"},
			{Kind: yaml.ScalarNode, Value: PromptInputWithDefault("\033[36mEnter region [default us-east-1]: \033[0m", "us-east-1")},
			{Kind: yaml.ScalarNode, Value: "access_key_id"},
			{Kind: yaml.ScalarNode, Value: PromptInputWithDefault("\033[36mEnter access key id [default ${MINIO_ACCESS_KEY}]: \033[0m", "${MINIO_ACCESS_KEY}")},
			{Kind: yaml.ScalarNode, Value: "secret_access_key"},
			{Kind: yaml.ScalarNode, Value: PromptInputWithDefault("\033[36mEnter secret access key [default ${MINIO_SECRET_KEY}]: \033[0m", "${MINIO_SECRET_KEY}")},
			{Kind: yaml.ScalarNode, Value: "use_path_style"},
			{Kind: yaml.ScalarNode, Value: "true"},
			{Kind: yaml.ScalarNode, Value: "bucket"},
			{Kind: yaml.ScalarNode, Value: PromptInput("\033[36mEnter Bucket: \033[0m")},
			{Kind: yaml.ScalarNode, Value: "prefix"},
			{Kind: yaml.ScalarNode, Value: PromptInputWithDefault("\033[36mEnter key prefix [default none]: \033[0m", ""), Style: yaml.DoubleQuotedStyle},
		},
	}
}

func GetAllConnectionNames(config *Config) ([]string, error) {
	var connections []string
	for _, connection := range config.Connections {
		connections = append(connections, connection.Name)
	}
	if len(connections) == 0 {
		return nil, fmt.Errorf("no connections defined")
	}
	return connections, nil
}

func GetConnectionDetails(config *Config, connectionName string) (Connection, Source, Destination, error) {
	var connection Connection
	var source Source
	var destination Destination
	var connectionFound, sourceFound, destinationFound bool

	for _, c := range config.Connections {
		if c.Name == connectionName {
			connection = c
			connectionFound = true
			break
		}
	}
	if !connectionFound {
		return Connection{}, Source{}, Destination{}, fmt.Errorf("connection %s not found", connectionName)
	}

	for _, src := range config.Sources {
		if src.Name == connection.Source {
			source = src
			sourceFound = true
			break
		}
	}
	for _, dst := range config.Destinations {
		if dst.Name == connection.Destination {
			destination = dst
			destinationFound = true
			break
		}
	}

	if !sourceFound {
		return Connection{}, Source{}, Destination{}, fmt.Errorf("source %s not found for connection %s", connection.Source, connectionName)
	}

	if !destinationFound {
		return Connection{}, Source{}, Destination{}, fmt.Errorf("destination %s not found for connection %s", connection.Destination, connectionName)
	}

	return connection, source, destination, nil
}

func GetNodeValue(node yaml.Node, key string) string {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1].Value
		}
	}
	return ""
}

func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("already initialized")
	}

	logger.Info().Str("path", configPath).Msg("creating default config")
	return writeDefaultConfig(configPath)
}

func writeDefaultConfig(configPath string) error {
	dirPath := filepath.Dir(configPath)
	if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directories %s: %w", dirPath, err)
	}

	if err := os.WriteFile(configPath, defaultConfig, 0o600); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}

// LoadConfig reads the config at configPath. If the file does not exist the
// default config is written there and ErrConfigCreated is returned.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		logger.Info().Str("path", configPath).Msg("could not find config; creating with default values")
		if err := writeDefaultConfig(configPath); err != nil {
			return nil, err
		}
		return nil, ErrConfigCreated
	}

	// a missing .env file is fine
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig expands environment references in data, unmarshals it and
// fills in defaults.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(expandEnv(data), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setDefaults(&config)
	setLogLevel(config.LogLevel)

	return &config, nil
}

func expandEnv(data []byte) []byte {
	return envReference.ReplaceAllFunc(data, func(match []byte) []byte {
		return []byte(os.Getenv(string(match[2 : len(match)-1])))
	})
}

func setDefaults(config *Config) {
	if config.Loader.WorkerCount <= 0 {
		config.Loader.WorkerCount = 4
	}
	if config.Loader.ChannelSize <= 0 {
		config.Loader.ChannelSize = 8
	}
	if config.Loader.Datetime.SampleSize <= 0 {
		config.Loader.Datetime.SampleSize = 100
	}
	if config.Loader.Datetime.Threshold <= 0 {
		config.Loader.Datetime.Threshold = 0.8
	}
	if config.Prometheus.Port == "" {
		config.Prometheus.Port = "2112"
	}
}

func LoadConfigWithComments(configPath string) (*yaml.Node, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}

	return &node, nil
}

func SaveConfigWithComments(path string, node *yaml.Node) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	defer encoder.Close()

	if err := encoder.Encode(node); err != nil {
		return err
	}

	return nil
}

func setLogLevel(logLevel string) {
	switch logLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "none":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}
}
