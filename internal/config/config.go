// Package config provides Viper-based hierarchical configuration
// management. Configuration is loaded once at startup and passed by
// injection into the components that need it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Server struct {
		Port           int      `mapstructure:"port" yaml:"port"`
		AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	} `mapstructure:"server" yaml:"server"`

	Data struct {
		Directory    string `mapstructure:"directory" yaml:"directory"`
		MappingsFile string `mapstructure:"mappings_file" yaml:"mappings_file"`
	} `mapstructure:"data" yaml:"data"`

	AI struct {
		Model           string  `mapstructure:"model" yaml:"model"`
		Temperature     float32 `mapstructure:"temperature" yaml:"temperature"`
		MaxOutputTokens int32   `mapstructure:"max_output_tokens" yaml:"max_output_tokens"`
		MaxAttempts     int     `mapstructure:"max_attempts" yaml:"max_attempts"`
		RetryDelaySecs  int     `mapstructure:"retry_delay_seconds" yaml:"retry_delay_seconds"`
		APIKey          string  `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	DocAI struct {
		Endpoint         string `mapstructure:"endpoint" yaml:"endpoint"`
		APIKey           string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
		PollIntervalSecs int    `mapstructure:"poll_interval_seconds" yaml:"poll_interval_seconds"`
		PollAttempts     int    `mapstructure:"poll_attempts" yaml:"poll_attempts"`
	} `mapstructure:"docai" yaml:"docai"`

	Analytics struct {
		MonthlyIncome float64 `mapstructure:"monthly_income" yaml:"monthly_income"`
	} `mapstructure:"analytics" yaml:"analytics"`
}

// RetryBaseDelay returns the classifier backoff base delay.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.AI.RetryDelaySecs) * time.Second
}

// PollInterval returns the document-analysis polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.DocAI.PollIntervalSecs) * time.Second
}

// LoadEnv loads environment variables from a .env file if one exists in
// the current or parent directory.
func LoadEnv() {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			return
		}
	}
	_ = godotenv.Load(envFile)
}

// InitializeConfig initializes Viper configuration with hierarchical
// loading: defaults, then an optional config file, then environment
// variables with the FINSIGHT_ prefix.
func InitializeConfig() (*Config, error) {
	LoadEnv()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.finsight")
	v.AddConfigPath(".finsight")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FINSIGHT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log the error but don't fail - continue with defaults and env vars
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// API keys always come from the environment, not prefixed.
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}
	if err := v.BindEnv("docai.api_key", "DOCAI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind DOCAI_API_KEY environment variable: %v\n", err)
	}
	if err := v.BindEnv("docai.endpoint", "DOCAI_ENDPOINT"); err != nil {
		fmt.Printf("Warning: failed to bind DOCAI_ENDPOINT environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("data.directory", "uploads")
	v.SetDefault("data.mappings_file", "mappings.yaml")

	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.temperature", 0.5)
	v.SetDefault("ai.max_output_tokens", 50)
	v.SetDefault("ai.max_attempts", 3)
	v.SetDefault("ai.retry_delay_seconds", 20)

	v.SetDefault("docai.endpoint", "")
	v.SetDefault("docai.poll_interval_seconds", 2)
	v.SetDefault("docai.poll_attempts", 30)

	v.SetDefault("analytics.monthly_income", 50000)
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.AI.MaxAttempts < 1 || config.AI.MaxAttempts > 10 {
		return fmt.Errorf("ai.max_attempts must be between 1 and 10, got: %d", config.AI.MaxAttempts)
	}

	if config.AI.RetryDelaySecs < 1 {
		return fmt.Errorf("ai.retry_delay_seconds must be positive, got: %d", config.AI.RetryDelaySecs)
	}

	if config.Analytics.MonthlyIncome <= 0 {
		return fmt.Errorf("analytics.monthly_income must be positive, got: %f", config.Analytics.MonthlyIncome)
	}

	return nil
}

// ConfigureLoggingFromConfig builds the logrus logger described by the
// Log section.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
