package config

import (
	"time"

	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/domain/srs"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Review   ReviewConfig   `mapstructure:"review" validate:"required"`
	SRS      SRSConfig      `mapstructure:"srs" validate:"required"`
	Stats    StatsConfig    `mapstructure:"stats" validate:"required"`
	Events   EventsConfig   `mapstructure:"events"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the storage backend.
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	// URL is a postgres connection string or a sqlite DSN (e.g. file:scry.db).
	URL          string `mapstructure:"url" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

// ReviewConfig controls queue selection and session housekeeping.
type ReviewConfig struct {
	MaxCardsCeiling       int           `mapstructure:"max_cards_ceiling" validate:"gte=1"`
	DefaultMaxCards       int           `mapstructure:"default_max_cards" validate:"gte=1,ltefield=MaxCardsCeiling"`
	PrioritizeOverdue     bool          `mapstructure:"prioritize_overdue"`
	SessionRetentionHours int           `mapstructure:"session_retention_hours" validate:"gte=1"`
	CleanupInterval       time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
	Timezone              string        `mapstructure:"timezone" validate:"required"`
}

// SRSConfig overrides the SM-2 constants.
type SRSConfig struct {
	MinEaseFactor    float64 `mapstructure:"min_ease_factor" validate:"gte=1.3"`
	EaseBonus        float64 `mapstructure:"ease_bonus"`
	LinearPenalty    float64 `mapstructure:"linear_penalty" validate:"gte=0"`
	QuadraticPenalty float64 `mapstructure:"quadratic_penalty" validate:"gte=0"`
	PassingGrade     int     `mapstructure:"passing_grade" validate:"gte=1,lte=5"`
	FirstInterval    int     `mapstructure:"first_interval" validate:"gte=1"`
	SecondInterval   int     `mapstructure:"second_interval" validate:"gte=1"`
}

// StatsConfig holds the review load bucket boundaries.
type StatsConfig struct {
	LightMax    int `mapstructure:"light_max" validate:"gte=1"`
	ModerateMax int `mapstructure:"moderate_max" validate:"gtfield=LightMax"`
	HeavyMax    int `mapstructure:"heavy_max" validate:"gtfield=ModerateMax"`
}

// EventsConfig configures the optional Redis event publisher.
// An empty RedisAddr disables publishing.
type EventsConfig struct {
	RedisAddr    string `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
	RedisChannel string `mapstructure:"redis_channel" validate:"required_with=RedisAddr"`
}

// SRSParams converts the srs section into algorithm parameters.
func (c *Config) SRSParams() (*srs.Params, error) {
	return srs.NewParams(srs.ParamsConfig{
		MinEaseFactor:    c.SRS.MinEaseFactor,
		EaseBonus:        c.SRS.EaseBonus,
		LinearPenalty:    c.SRS.LinearPenalty,
		QuadraticPenalty: c.SRS.QuadraticPenalty,
		PassingGrade:     c.SRS.PassingGrade,
		FirstInterval:    c.SRS.FirstInterval,
		SecondInterval:   c.SRS.SecondInterval,
	})
}

// StatsThresholds converts the stats section into load thresholds.
func (c *Config) StatsThresholds() domain.LoadThresholds {
	return domain.LoadThresholds{
		Light:    c.Stats.LightMax,
		Moderate: c.Stats.ModerateMax,
		Heavy:    c.Stats.HeavyMax,
	}
}

// Location resolves the review time zone. Load has already verified it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Review.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
