// Package config provides configuration loading, validation, and management
// for the Creator Network backend. It handles reading from a YAML file,
// setting default values, applying CN_* environment overrides, and
// validating configuration parameters.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration parameters for all components
// of the system: logging, HTTP server, storage paths, onboarding limits,
// sessions, and scheduled maintenance.
type Config struct {
	LogLevel  string `mapstructure:"log_level"  validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=text json"`

	HTTPPort string `mapstructure:"http_port" validate:"required"`

	DataDir   string `mapstructure:"data_dir"   validate:"required"`
	DBFile    string `mapstructure:"db_file"    validate:"required"`
	UploadDir string `mapstructure:"upload_dir" validate:"required"`

	MaxPhotos      int   `mapstructure:"max_photos"       validate:"min=1,max=32"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"min=1024"`

	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"min=1m,max=168h"`

	MaintenanceCron  string `mapstructure:"maintenance_cron"   validate:"required"`
	SessionSweepCron string `mapstructure:"session_sweep_cron" validate:"required"`

	DefaultSort string `mapstructure:"default_sort" validate:"oneof=newest name"`

	// SignupVerifiedEditable controls whether the onboarding wizard accepts a
	// user-settable verified checkbox. When false the verified flag is an
	// admin-only column and signup always writes it as false.
	SignupVerifiedEditable bool `mapstructure:"signup_verified_editable"`
}

// DBPath returns the SQLite database file path under the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, c.DBFile)
}

// UploadPath returns the upload directory path under the data directory.
func (c *Config) UploadPath() string {
	return filepath.Join(c.DataDir, c.UploadDir)
}

// Load loads and validates configuration from:
// 1. Default values
// 2. config.yaml file (optional)
// 3. CN_* environment variables
func Load() (*Config, error) {
	setDefaults()

	if err := loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadConfig initializes and loads the configuration using viper.
func loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("CN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow missing config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return nil
}

// setDefaults sets default values for optional configuration parameters.
func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")

	viper.SetDefault("http_port", "8080")

	viper.SetDefault("data_dir", "data")
	viper.SetDefault("db_file", "app.db")
	viper.SetDefault("upload_dir", "uploads")

	viper.SetDefault("max_photos", 8)
	viper.SetDefault("max_upload_bytes", int64(10<<20))

	viper.SetDefault("session_ttl", 12*time.Hour)

	viper.SetDefault("maintenance_cron", "0 4 * * *")
	viper.SetDefault("session_sweep_cron", "*/15 * * * *")

	viper.SetDefault("default_sort", "newest")

	viper.SetDefault("signup_verified_editable", false)
}
