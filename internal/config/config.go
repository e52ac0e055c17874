package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config maps the whole application configuration.
// Keys are read from configs/config.yaml and can be overridden by environment
// variables with dots replaced by underscores (server.listen -> SERVER_LISTEN).
type Config struct {
	Server struct {
		Listen                 string `mapstructure:"listen"`                   // address the HTTP server binds to
		Scheme                 string `mapstructure:"scheme"`                   // scheme of the links returned to writers
		ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"` // grace period for in-flight requests
	} `mapstructure:"server"`

	Database struct {
		Path string `mapstructure:"path"` // SQLite database file
	} `mapstructure:"database"`

	Shorter struct {
		PathLength int `mapstructure:"path_length"` // length of generated paths
	} `mapstructure:"shorter"`

	Cache struct {
		TTLSeconds int `mapstructure:"ttl_seconds"` // resolve cache lifetime, 0 disables it
	} `mapstructure:"cache"`

	Sweeper struct {
		IntervalSeconds int `mapstructure:"interval_seconds"` // expired-row purge period, 0 disables it
	} `mapstructure:"sweeper"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("server.listen", "0.0.0.0:1566")
	viper.SetDefault("server.scheme", "http")
	viper.SetDefault("server.shutdown_timeout_seconds", 10)
	viper.SetDefault("database.path", "linkshorter.db")
	viper.SetDefault("shorter.path_length", 8)
	viper.SetDefault("cache.ttl_seconds", 0)
	viper.SetDefault("sweeper.interval_seconds", 0)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

// LoadDotEnv loads the file named by $DOT, or ./.env when DOT is unset.
// Variables already present in the environment are never overridden. A
// missing ./.env is not an error; a missing $DOT file is.
func LoadDotEnv() error {
	if dot := os.Getenv("DOT"); dot != "" {
		if err := gotenv.Load(dot); err != nil {
			return fmt.Errorf("error loading env file %s: %w", dot, err)
		}
		return nil
	}
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading .env: %w", err)
	}
	return nil
}

// LoadConfig loads the configuration from defaults, configs/config.yaml and
// the environment, in increasing order of precedence. Flags bound to viper
// keys take precedence over all of them.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.AddConfigPath("./configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		slog.Debug("config file not found, using defaults and environment")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch c.Server.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("invalid server.scheme %q: must be http or https", c.Server.Scheme)
	}
	if c.Database.Path == "" {
		return errors.New("database.path must not be empty")
	}
	if c.Shorter.PathLength < 1 {
		return fmt.Errorf("invalid shorter.path_length %d", c.Shorter.PathLength)
	}
	return nil
}

// ShutdownTimeout is the grace period given to in-flight requests.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// CacheTTL is the resolve cache lifetime; zero disables the cache.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// SweepInterval is the purge period; zero disables the sweeper.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Sweeper.IntervalSeconds) * time.Second
}
