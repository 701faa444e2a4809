package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. SCRY_SERVER_PORT.
const EnvPrefix = "SCRY"

// flagBindings maps command-line flags onto configuration keys.
var flagBindings = map[string]string{
	"port":            "server.port",
	"log-level":       "server.log_level",
	"database-driver": "database.driver",
	"database-url":    "database.url",
	"auto-migrate":    "database.auto_migrate",
	"timezone":        "review.timezone",
	"redis-addr":      "events.redis_addr",
}

// RegisterFlags defines the command-line flags understood by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (yaml, json or toml)")
	fs.Int("port", 8080, "HTTP listen port")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("database-driver", "postgres", "storage backend (postgres or sqlite)")
	fs.String("database-url", "", "database connection string")
	fs.Bool("auto-migrate", false, "apply pending migrations at startup")
	fs.String("timezone", "UTC", "IANA time zone that defines the review day")
	fs.String("redis-addr", "", "Redis address for event publishing (empty disables)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("review.max_cards_ceiling", 200)
	v.SetDefault("review.default_max_cards", 20)
	v.SetDefault("review.prioritize_overdue", true)
	v.SetDefault("review.session_retention_hours", 24)
	v.SetDefault("review.cleanup_interval", time.Hour)
	v.SetDefault("review.timezone", "UTC")

	v.SetDefault("srs.min_ease_factor", 1.3)
	v.SetDefault("srs.ease_bonus", 0.1)
	v.SetDefault("srs.linear_penalty", 0.08)
	v.SetDefault("srs.quadratic_penalty", 0.02)
	v.SetDefault("srs.passing_grade", 3)
	v.SetDefault("srs.first_interval", 1)
	v.SetDefault("srs.second_interval", 6)

	v.SetDefault("stats.light_max", 10)
	v.SetDefault("stats.moderate_max", 30)
	v.SetDefault("stats.heavy_max", 60)

	v.SetDefault("events.redis_addr", "")
	v.SetDefault("events.redis_channel", "scry:review-events")
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags behaves like Load but also honours flags registered with
// RegisterFlags. Flags that were explicitly set win over the environment.
func LoadWithFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for flag, key := range flagBindings {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %q: %w", flag, err)
				}
			}
		}
	}

	configFile := v.GetString("config_file")
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			configFile = f.Value.String()
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate runs struct tag validation plus the checks tags cannot express.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Review.Timezone); err != nil {
		return fmt.Errorf("config validation failed: invalid review timezone %q: %w", cfg.Review.Timezone, err)
	}

	if _, err := cfg.SRSParams(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}
