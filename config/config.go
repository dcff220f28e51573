package config

import (
	"fmt"

	"github.com/spf13/viper"

	"pageforge/pkg/logger"
)

// Response contract choices. One is picked per deployment; the pipeline never
// auto-detects the wire format at runtime.
const (
	ContractSeparator = "separator"
	ContractEnvelope  = "envelope"
)

// Config holds all configuration for the application. Mapstructure tags map
// environment variables and config file keys onto the struct.
type Config struct {
	// Server
	ServerAddress string `mapstructure:"SERVER_ADDRESS"` // e.g. ":8080"

	// Model backend
	OpenAIKey     string `mapstructure:"OPENAI_API_KEY"`  // API credential, required for generation
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"` // gateway base address, no trailing slash
	ModelID       string `mapstructure:"MODEL_ID"`        // chat-completion model identifier

	// Pipeline behavior
	ResponseContract string `mapstructure:"RESPONSE_CONTRACT"` // "separator" or "envelope"
	StreamResponses  bool   `mapstructure:"STREAM_RESPONSES"`  // chunked stream vs single response

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// LoadConfig reads configuration from config.yaml (if present) and
// environment variables, with env vars taking precedence.
func LoadConfig(path string) (Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("SERVER_ADDRESS", ":8080")
	// Registering the key is what lets AutomaticEnv feed it into Unmarshal.
	viper.SetDefault("OPENAI_API_KEY", "")
	viper.SetDefault("OPENAI_BASE_URL", "https://api.mulerun.com")
	viper.SetDefault("MODEL_ID", "gemini-3-pro-preview")
	viper.SetDefault("RESPONSE_CONTRACT", ContractSeparator)
	viper.SetDefault("STREAM_RESPONSES", true)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Infof("config file not found, relying on environment variables")
		} else {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		logger.Infof("using configuration file: %s", viper.ConfigFileUsed())
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if config.ResponseContract != ContractSeparator && config.ResponseContract != ContractEnvelope {
		return Config{}, fmt.Errorf("invalid RESPONSE_CONTRACT %q: must be %q or %q",
			config.ResponseContract, ContractSeparator, ContractEnvelope)
	}

	// A missing credential is only a warning here; the first generation
	// attempt fails hard instead.
	if config.OpenAIKey == "" {
		logger.Warnf("OPENAI_API_KEY is not set; generation requests will fail")
	}

	return config, nil
}
