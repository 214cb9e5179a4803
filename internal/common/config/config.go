// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Mistral MistralConfig `mapstructure:"mistral"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

// MistralConfig holds settings for the remote judgment endpoint. The
// sampling parameters are part of the cache key and must stay constant per
// deployment.
type MistralConfig struct {
	BaseURL          string  `mapstructure:"base_url"`
	APIKey           string  `mapstructure:"api_key"`
	Model            string  `mapstructure:"model"`
	Temperature      float64 `mapstructure:"temperature"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	TopP             float64 `mapstructure:"top_p"`
	PresencePenalty  float64 `mapstructure:"presence_penalty"`
	FrequencyPenalty float64 `mapstructure:"frequency_penalty"`
	Timeout          int     `mapstructure:"timeout"`     // milliseconds
	MaxRetries       int     `mapstructure:"max_retries"` // transient errors only
}

// CacheConfig holds settings for the response cache.
type CacheConfig struct {
	TTL        int         `mapstructure:"ttl"`         // seconds
	MaxEntries int         `mapstructure:"max_entries"` // eviction retains the newest half
	Backend    string      `mapstructure:"backend"`     // "memory" or "redis"
	Redis      RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetTimeout converts the Mistral timeout to a time.Duration.
func (m MistralConfig) GetTimeout() time.Duration {
	return time.Duration(m.Timeout) * time.Millisecond
}

// GetTTL converts the cache TTL to a time.Duration.
func (c CacheConfig) GetTTL() time.Duration {
	return time.Duration(c.TTL) * time.Second
}
