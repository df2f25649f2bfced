package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds runtime settings for `paierp serve`.
type ServerConfig struct {
	Addr         string `mapstructure:"PAIERP_ADDR"`
	RedisURL     string `mapstructure:"PAIERP_REDIS_URL"`
	LogLevel     string `mapstructure:"PAIERP_LOG_LEVEL"`
	SettingsPath string `mapstructure:"PAIERP_SETTINGS"`

	// RateLimit is requests per minute per client IP; 0 disables it.
	RateLimit int `mapstructure:"PAIERP_RATE_LIMIT"`
	RateBurst int `mapstructure:"PAIERP_RATE_BURST"`

	SessionTTL time.Duration `mapstructure:"PAIERP_SESSION_TTL"`
}

// LoadServerConfig reads paierp.yaml from the working directory (or the
// given directories) and the environment. Env wins over the file; a
// missing file is not an error.
func LoadServerConfig(dirs ...string) (ServerConfig, error) {
	v := viper.New()
	v.SetConfigName("paierp")
	v.SetConfigType("yaml")
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	v.AutomaticEnv()

	v.SetDefault("PAIERP_ADDR", ":8080")
	v.SetDefault("PAIERP_REDIS_URL", "")
	v.SetDefault("PAIERP_LOG_LEVEL", "info")
	v.SetDefault("PAIERP_SETTINGS", "")
	v.SetDefault("PAIERP_RATE_LIMIT", 60)
	v.SetDefault("PAIERP_RATE_BURST", 10)
	v.SetDefault("PAIERP_SESSION_TTL", "24h")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return ServerConfig{}, fmt.Errorf("read paierp.yaml: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("decode server config: %w", err)
	}
	return cfg, nil
}
