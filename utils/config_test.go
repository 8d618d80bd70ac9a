package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testConfig = `
log_level: info
sources:
  - name: minio
    type: s3
    endpoint: http://localhost:9000
    access_key_id: ${CSV_DLT_TEST_KEY}
    bucket: search-analytics
destinations:
  - name: clickhouse
    type: clickhouse
    database: default
    addresses: [localhost:9000]
connections:
  - name: search
    source: minio
    destination: clickhouse
  - name: broken
    source: missing
    destination: clickhouse
`

func TestParseConfig_ExpandsEnvAndDefaults(t *testing.T) {
	t.Setenv("CSV_DLT_TEST_KEY", "secret-key")

	config, err := ParseConfig([]byte(testConfig))
	require.NoError(t, err)

	require.Len(t, config.Sources, 1)
	assert.Equal(t, "secret-key", config.Sources[0].AccessKeyID)
	assert.Equal(t, []string{"localhost:9000"}, config.Destinations[0].Addresses)

	assert.Equal(t, 4, config.Loader.WorkerCount)
	assert.Equal(t, 8, config.Loader.ChannelSize)
	assert.Equal(t, 100, config.Loader.Datetime.SampleSize)
	assert.Equal(t, 0.8, config.Loader.Datetime.Threshold)
	assert.Equal(t, "2112", config.Prometheus.Port)
}

func TestParseConfig_KeepsLiteralDollar(t *testing.T) {
	t.Setenv("CSV_DLT_TEST_PASSWORD", "from-env")
	t.Setenv("ss", "should-not-be-used")

	config, err := ParseConfig([]byte(`
destinations:
  - name: clickhouse
    type: clickhouse
    password: "pa$$w0rd$x"
  - name: postgres
    type: postgres
    connection_url: postgres://u:p$ss@h/db
  - name: mixed
    type: clickhouse
    password: "$${CSV_DLT_TEST_PASSWORD}$"
`))
	require.NoError(t, err)

	require.Len(t, config.Destinations, 3)
	assert.Equal(t, "pa$$w0rd$x", config.Destinations[0].Password)
	assert.Equal(t, "postgres://u:p$ss@h/db", config.Destinations[1].ConnectionURL)
	assert.Equal(t, "$from-env$", config.Destinations[2].Password)
}

func TestParseConfig_Invalid(t *testing.T) {
	_, err := ParseConfig([]byte("sources: [unterminated"))
	assert.Error(t, err)
}

func TestGetConnectionDetails(t *testing.T) {
	config, err := ParseConfig([]byte(testConfig))
	require.NoError(t, err)

	connection, source, destination, err := GetConnectionDetails(config, "search")
	require.NoError(t, err)
	assert.Equal(t, "search", connection.Name)
	assert.Equal(t, "search-analytics", source.Bucket)
	assert.Equal(t, "default", destination.Database)

	_, _, _, err = GetConnectionDetails(config, "broken")
	assert.ErrorContains(t, err, "source missing not found")

	_, _, _, err = GetConnectionDetails(config, "unknown")
	assert.ErrorContains(t, err, "connection unknown not found")
}

func TestGetAllConnectionNames(t *testing.T) {
	config, err := ParseConfig([]byte(testConfig))
	require.NoError(t, err)

	names, err := GetAllConnectionNames(config)
	require.NoError(t, err)
	assert.Equal(t, []string{"search", "broken"}, names)

	_, err = GetAllConnectionNames(&Config{})
	assert.Error(t, err)
}

func TestConfigNodes(t *testing.T) {
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(testConfig), &node))

	assert.True(t, ValueExists(&node, "connections", "search"))
	assert.False(t, ValueExists(&node, "connections", "other"))
	assert.False(t, ValueExists(&node, "unknown_section", "search"))

	entry := CreateConnectionEntry("other", "minio", "clickhouse", "0 * * * *")
	AddNodeToConfig(&node, "connections", &entry)
	assert.True(t, ValueExists(&node, "connections", "other"))

	assert.True(t, RemoveEntry(&node, "connections", "search"))
	assert.False(t, RemoveEntry(&node, "connections", "search"))
	assert.False(t, ValueExists(&node, "connections", "search"))
}

func TestAddNodeToConfig_MissingSection(t *testing.T) {
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("log_level: info\n"), &node))

	entry := CreateConnectionEntry("search", "minio", "clickhouse", "")
	AddNodeToConfig(&node, "connections", &entry)

	out, err := yaml.Marshal(&node)
	require.NoError(t, err)

	var config Config
	require.NoError(t, yaml.Unmarshal(out, &config))
	require.Len(t, config.Connections, 1)
	assert.Equal(t, "minio", config.Connections[0].Source)
}

func TestLoadConfig_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrConfigCreated)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "connection_example", config.Connections[0].Name)
	assert.Len(t, config.Destinations, 3)

	assert.Error(t, InitConfig(path))
}

func TestSaveConfigWithComments_KeepsComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	_, err := LoadConfig(path)
	require.ErrorIs(t, err, ErrConfigCreated)

	node, err := LoadConfigWithComments(path)
	require.NoError(t, err)
	require.True(t, RemoveEntry(node, "destinations", "postgres_example"))
	require.NoError(t, SaveConfigWithComments(path, node))

	node, err = LoadConfigWithComments(path)
	require.NoError(t, err)
	assert.False(t, ValueExists(node, "destinations", "postgres_example"))
	assert.True(t, ValueExists(node, "destinations", "clickhouse_example"))

	out, err := yaml.Marshal(node)
	require.NoError(t, err)
	assert.Contains(t, string(out), "# number of files loaded in parallel")
}
