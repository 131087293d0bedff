package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "TABFLIGHT"

// Config is the process configuration. Keys are dotted paths; the matching
// environment variable is TABFLIGHT_ followed by the upper-cased key with
// dots replaced by underscores (data.path -> TABFLIGHT_DATA_PATH).
type Config struct {
	Data struct {
		Path   string   `mapstructure:"path"`
		Schema []string `mapstructure:"schema"`
		Name   string   `mapstructure:"name"`
	} `mapstructure:"data"`

	Listen string `mapstructure:"listen"`

	Metrics struct {
		Listen string `mapstructure:"listen"`
	} `mapstructure:"metrics"`

	Auth struct {
		Token string `mapstructure:"token"`
	} `mapstructure:"auth"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	GRPC struct {
		MaxMessageSize int `mapstructure:"max_message_size"`
		BatchSize      int `mapstructure:"batch_size"`
	} `mapstructure:"grpc"`
}

var defaults = map[string]any{
	"data.path":             "",
	"data.schema":           []string{},
	"data.name":             "dataset",
	"listen":                ":50051",
	"metrics.listen":        "",
	"auth.token":            "",
	"log.level":             "info",
	"log.format":            "text",
	"grpc.max_message_size": 16 << 20,
	"grpc.batch_size":       4096,
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"data":             "data.path",
	"schema":           "data.schema",
	"name":             "data.name",
	"listen":           "listen",
	"metrics-listen":   "metrics.listen",
	"auth-token":       "auth.token",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"max-message-size": "grpc.max_message_size",
	"batch-size":       "grpc.batch_size",
}

// loadConfig merges defaults, an optional config file, TABFLIGHT_* environment
// variables and explicitly set flags, in increasing priority.
func loadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
