package utils

type Config struct {
	Sources      []Source      `yaml:"sources"`
	Destinations []Destination `yaml:"destinations"`
	Connections  []Connection  `yaml:"connections"`
	Loader       Loader        `yaml:"loader"`
	Prometheus   Prometheus    `yaml:"prometheus"`
	Telemetry    Telemetry     `yaml:"telemetry"`
	LogLevel     string        `yaml:"log_level"`
}

type Source struct {
	Name            string `yaml:"name"`
	Type            string `yaml:"type"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	Region          string `yaml:"region,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	UsePathStyle    bool   `yaml:"use_path_style,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
}

type Destination struct {
	Name               string   `yaml:"name"`
	Type               string   `yaml:"type"`
	Database           string   `yaml:"database"`
	Addresses          []string `yaml:"addresses,omitempty"`
	Username           string   `yaml:"username,omitempty"`
	Password           string   `yaml:"password,omitempty"`
	Secure             bool     `yaml:"secure,omitempty"`
	DialTimeoutSeconds int      `yaml:"dial_timeout_seconds,omitempty"`
	ConnectionURL      string   `yaml:"connection_url,omitempty"`
	RowInsertLimit     int      `yaml:"row_insert_limit,omitempty"`
	ProjectID          string   `yaml:"project_id,omitempty"`
	Location           string   `yaml:"location,omitempty"`
	CredentialsFile    string   `yaml:"credentials_file,omitempty"`
}

type Connection struct {
	Name        string `yaml:"name"`
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	Cron        string `yaml:"cron"`
}

type Loader struct {
	WorkerCount int      `yaml:"worker_count"`
	ChannelSize int      `yaml:"channel_size"`
	MaxRamGB    int      `yaml:"max_ram_gb"`
	Datetime    Datetime `yaml:"datetime"`
}

type Datetime struct {
	SampleSize int     `yaml:"sample_size"`
	Threshold  float64 `yaml:"threshold"`
}

type Prometheus struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
}

type Telemetry struct {
	Enabled  bool   `yaml:"enabled"`
	WriteKey string `yaml:"write_key"`
}
