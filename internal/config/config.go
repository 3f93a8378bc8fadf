// Package config loads service settings from defaults, an optional .env file
// and COTIS_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. COTIS_DB_PATH.
const EnvPrefix = "COTIS"

// Config holds every tunable of the server and the admin CLI.
type Config struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	DBPath   string `mapstructure:"db_path" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN ERROR"`

	JWTSecret     string        `mapstructure:"jwt_secret" validate:"required,min=8"`
	TokenTTL      time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
	AdminUsername string        `mapstructure:"admin_username" validate:"required"`
	AdminPassword string        `mapstructure:"admin_password" validate:"required"`

	DefaultDueAmount float64 `mapstructure:"default_due_amount" validate:"gt=0"`
	MinImportAmount  float64 `mapstructure:"min_import_amount" validate:"gt=0"`
	ParcelPrice      float64 `mapstructure:"parcel_price" validate:"gt=0"`

	BackupDir  string `mapstructure:"backup_dir" validate:"required"`
	BackupKeep int    `mapstructure:"backup_keep" validate:"gte=1"`

	PhoneCountryCode string `mapstructure:"phone_country_code" validate:"required,number"`
	OrgName          string `mapstructure:"org_name" validate:"required"`
}

// New returns a viper instance with every default registered and
// environment lookup enabled.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", "./data/cotisations.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("jwt_secret", "change-me-in-production")
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_password", "admin123")
	v.SetDefault("default_due_amount", 1000.0)
	v.SetDefault("min_import_amount", 500.0)
	v.SetDefault("parcel_price", 2_500_000.0)
	v.SetDefault("backup_dir", "./backups")
	v.SetDefault("backup_keep", 10)
	v.SetDefault("phone_country_code", "242")
	v.SetDefault("org_name", "MEDD")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// LOG_LEVEL is honored unprefixed as well, like the rest of our tools.
	_ = v.BindEnv("log_level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")

	return v
}

// Load reads the .env file (ENV_FILE or ./.env) if it exists, then builds and
// validates the configuration. Variables already set in the environment win
// over the file.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat %s: %w", envFile, err)
	}

	return FromViper(New())
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
