// File: utils/config.go
package utils

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable parameter of the runtime.
type Config struct {
	// Logging
	LogLevel string `mapstructure:"log_level"`

	// Gateway
	HTTPAddr string `mapstructure:"http_addr"`

	// Actor engine
	MailboxSize     int           `mapstructure:"mailbox_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Timeouts per suspension-point class: short probes, capability
	// round-trips, AI-backend round-trips.
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	CapabilityTimeout time.Duration `mapstructure:"capability_timeout"`
	TransformTimeout  time.Duration `mapstructure:"transform_timeout"`

	// Backend chain
	BackendOverride string   `mapstructure:"backend_override"` // "" = auto-detect
	LocalModelURL   string   `mapstructure:"local_model_url"`
	LocalModelName  string   `mapstructure:"local_model_name"`
	RemoteAPIURL    string   `mapstructure:"remote_api_url"`
	RemoteAPIKey    string   `mapstructure:"remote_api_key"`
	RemoteModelName string   `mapstructure:"remote_model_name"`
	CLIToolCommand  []string `mapstructure:"cli_tool_command"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		HTTPAddr: ":3001",

		MailboxSize:     1024,
		ShutdownTimeout: 5 * time.Second,

		ProbeTimeout:      50 * time.Millisecond,
		CapabilityTimeout: 5 * time.Second,
		TransformTimeout:  30 * time.Second,

		LocalModelURL:   "http://localhost:11434",
		LocalModelName:  "",
		RemoteAPIURL:    "https://api.openai.com",
		RemoteModelName: "",
	}
}

// LoadConfig reads an optional protean.yaml plus PROTEAN_* environment
// overrides on top of the defaults. A missing config file is not an error.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("protean")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.protean")

	v.SetEnvPrefix("protean")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("http_addr", cfg.HTTPAddr)
	v.SetDefault("mailbox_size", cfg.MailboxSize)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("probe_timeout", cfg.ProbeTimeout)
	v.SetDefault("capability_timeout", cfg.CapabilityTimeout)
	v.SetDefault("transform_timeout", cfg.TransformTimeout)
	v.SetDefault("backend_override", cfg.BackendOverride)
	v.SetDefault("local_model_url", cfg.LocalModelURL)
	v.SetDefault("local_model_name", cfg.LocalModelName)
	v.SetDefault("remote_api_url", cfg.RemoteAPIURL)
	v.SetDefault("remote_api_key", cfg.RemoteAPIKey)
	v.SetDefault("remote_model_name", cfg.RemoteModelName)
	v.SetDefault("cli_tool_command", cfg.CLIToolCommand)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
