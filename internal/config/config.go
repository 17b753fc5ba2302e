// Package config loads sight-proxy settings from the environment, an optional
// .env file and an optional config file.
package config

import (
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "SIGHT"

// Config holds the proxy configuration.
type Config struct {
	BaseURL   string `mapstructure:"base_url" validate:"required,url"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password" validate:"required_with=Username"`
	UserAgent string `mapstructure:"user_agent"`

	// Concurrency caps in-flight page fetches. The client clamps it to 20.
	Concurrency    int           `mapstructure:"concurrency" validate:"gte=0"`
	Executor       string        `mapstructure:"executor" validate:"oneof=pool gather"`
	PageTimeout    time.Duration `mapstructure:"page_timeout" validate:"gte=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gte=0"`

	// RedisAddr enables the shared session store and response cache.
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" validate:"gte=0"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" validate:"gte=0"`

	Port      int    `mapstructure:"port" validate:"min=1,max=65535"`
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	LogPretty bool   `mapstructure:"log_pretty"`
}

// UseRedis reports whether a Redis address is configured.
func (c *Config) UseRedis() bool {
	return c.RedisAddr != ""
}

var defaults = map[string]any{
	"base_url":        "https://sight.inspectorio.com/api/v1",
	"username":        "",
	"password":        "",
	"user_agent":      "sight-proxy/0.1.0",
	"concurrency":     10,
	"executor":        "pool",
	"page_timeout":    30 * time.Second,
	"request_timeout": 30 * time.Second,
	"redis_addr":      "",
	"redis_password":  "",
	"redis_db":        0,
	"cache_ttl":       5 * time.Minute,
	"session_ttl":     time.Duration(0),
	"port":            8080,
	"log_level":       "info",
	"log_pretty":      false,
}

// Load reads the configuration. envFiles are loaded into the environment
// first (default ".env"); missing files are skipped and variables already set
// win. SIGHT_CONFIG_FILE names an optional YAML, TOML or JSON file; without
// it a "sight.*" file in the working directory is used when present.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := os.Getenv(EnvPrefix + "_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", file)
		}
	} else {
		v.SetConfigName("sight")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config file")
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return errors.Wrapf(err, "load %s", file)
		}
	}
	return nil
}
