// Package config loads the trayseg settings from an optional YAML file, a
// .env file and TRAYSEG_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, TRAYSEG_SEGMENT_ENDPOINT
// sets segment.endpoint
const EnvPrefix = "TRAYSEG"

// Settings holds the full configuration
type Settings struct {
	Log         LogSettings         `mapstructure:"log"`
	Storage     StorageSettings     `mapstructure:"storage"`
	Segment     EndpointSettings    `mapstructure:"segment"`
	Classify    EndpointSettings    `mapstructure:"classify"`
	MQTT        MQTTSettings        `mapstructure:"mqtt"`
	Schedule    ScheduleSettings    `mapstructure:"schedule"`
	Metrics     MetricsSettings     `mapstructure:"metrics"`
	Pipeline    PipelineSettings    `mapstructure:"pipeline"`
	Calibration CalibrationSettings `mapstructure:"calibration"`
}

// LogSettings selects the slog handler
type LogSettings struct {
	// Level is debug, info, warn or error
	Level string `mapstructure:"level"`
	// Format is text or json
	Format string `mapstructure:"format"`
}

// StorageSettings selects the blob store
type StorageSettings struct {
	// Backend is dir or sftp
	Backend     string       `mapstructure:"backend"`
	Dir         string       `mapstructure:"dir"`
	DailyLayout string       `mapstructure:"daily_layout"`
	Archive     bool         `mapstructure:"archive"`
	SFTP        SFTPSettings `mapstructure:"sftp"`
}

// SFTPSettings configure the sftp backend
type SFTPSettings struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	KeyFile    string        `mapstructure:"key_file"`
	KnownHosts string        `mapstructure:"known_hosts"`
	BasePath   string        `mapstructure:"base_path"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// EndpointSettings configure a hosted model
type EndpointSettings struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MQTTSettings configure the device publisher
type MQTTSettings struct {
	Broker   string        `mapstructure:"broker"`
	ClientID string        `mapstructure:"client_id"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Topic    string        `mapstructure:"topic"`
	QoS      int           `mapstructure:"qos"`
	Retain   bool          `mapstructure:"retain"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ScheduleSettings set when the daily cycle runs
type ScheduleSettings struct {
	// DailyTime is HH:MM local time
	DailyTime string `mapstructure:"daily_time"`
}

// MetricsSettings configure the Prometheus endpoint
type MetricsSettings struct {
	// Listen address, the endpoint is disabled when empty
	Listen string `mapstructure:"listen"`
}

// PipelineSettings tune the core pipeline
type PipelineSettings struct {
	// Workers is the per plant parallelism, 0 uses every CPU
	Workers int `mapstructure:"workers"`
	// LabelsFile overrides calibration.class_names with a model label file
	LabelsFile string `mapstructure:"labels_file"`
}

// Load reads the settings.  configFile and envFile are optional, when empty
// trayseg.yaml and .env are looked for in the working directory and skipped
// if absent
func Load(configFile, envFile string) (*Settings, error) {

	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("trayseg")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError

			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var s Settings

	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error decoding settings: %w", err)
	}

	return &s, nil
}

// loadEnvFile loads variables from the .env file without overriding those
// already set
func loadEnvFile(envFile string) error {

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}

		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	return nil
}
