// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load loads configuration from config file and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Environment variable settings
	v.SetEnvPrefix("RATING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is fine, we'll use env vars and defaults
	}

	// Expand ${VAR} placeholders from the environment
	for _, key := range v.AllKeys() {
		if str, ok := v.Get(key).(string); ok {
			v.Set(key, os.ExpandEnv(str))
		}
	}

	// Set defaults
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "rating-engine")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	// Server defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 15000)
	v.SetDefault("server.write_timeout", 30000)
	v.SetDefault("server.shutdown_timeout", 10000)

	// Mistral defaults
	v.SetDefault("mistral.base_url", "https://api.mistral.ai/v1")
	v.SetDefault("mistral.model", "mistral-small-latest")
	v.SetDefault("mistral.temperature", 0.3)
	v.SetDefault("mistral.max_tokens", 1000)
	v.SetDefault("mistral.top_p", 0.9)
	v.SetDefault("mistral.presence_penalty", 0.0)
	v.SetDefault("mistral.frequency_penalty", 0.0)
	v.SetDefault("mistral.timeout", 30000)
	v.SetDefault("mistral.max_retries", 3)

	// Cache defaults
	v.SetDefault("cache.ttl", 300)
	v.SetDefault("cache.max_entries", 100)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// validate checks that required configuration is present
func validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if config.Mistral.BaseURL == "" {
		return fmt.Errorf("mistral.base_url is required")
	}

	if config.Mistral.MaxRetries < 0 {
		return fmt.Errorf("mistral.max_retries must not be negative")
	}

	if config.Mistral.Temperature < 0 || config.Mistral.Temperature > 2 {
		return fmt.Errorf("mistral.temperature must be between 0 and 2")
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}

	if config.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive")
	}

	switch config.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be memory or redis, got %q", config.Cache.Backend)
	}

	if config.Cache.Backend == "redis" && config.Cache.Redis.Address == "" {
		return fmt.Errorf("cache.redis.address is required when cache.backend is redis")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	return nil
}
