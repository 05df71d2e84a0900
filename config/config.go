package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load
const EnvPrefix = "GYAZO"

// MaxConcurrency caps backup.concurrency
const MaxConcurrency = 32

// gyazoEnv maps the gyazo.* keys to their short environment names
var gyazoEnv = map[string]string{
	"gyazo.access_token":    "GYAZO_ACCESS_TOKEN",
	"gyazo.client_id":       "GYAZO_CLIENT_ID",
	"gyazo.client_secret":   "GYAZO_CLIENT_SECRET",
	"gyazo.api_url":         "GYAZO_API_URL",
	"gyazo.upload_url":      "GYAZO_UPLOAD_URL",
	"gyazo.timeout":         "GYAZO_TIMEOUT",
	"gyazo.max_upload_size": "GYAZO_MAX_UPLOAD_SIZE",
}

// Load loads the configuration from file, environment and .env.
// A missing config file is only an error when configPath was given.
func Load(configPath string) (*Config, error) {
	// .env never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()

	// Set default values
	setDefaults(v)
	bindEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".gyazo"))
		}

		// Check /etc
		v.AddConfigPath("/etc/gyazo/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Gyazo defaults
	v.SetDefault("gyazo.access_token", "")
	v.SetDefault("gyazo.client_id", "")
	v.SetDefault("gyazo.client_secret", "")
	v.SetDefault("gyazo.api_url", "https://api.gyazo.com")
	v.SetDefault("gyazo.upload_url", "https://upload.gyazo.com")
	v.SetDefault("gyazo.timeout", "30s")
	v.SetDefault("gyazo.max_upload_size", "10MB")

	// Backup defaults
	v.SetDefault("backup.dir", "gyazo-backup")
	v.SetDefault("backup.per_page", 100)
	v.SetDefault("backup.concurrency", 4)
	v.SetDefault("backup.download_thumbs", false)

	// Safety defaults
	v.SetDefault("safety.confirm_delete", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// bindEnv wires GYAZO_* environment variables. The gyazo.* keys use the
// short form (GYAZO_ACCESS_TOKEN), everything else GYAZO_<SECTION>_<KEY>.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range gyazoEnv {
		// BindEnv only fails without arguments
		_ = v.BindEnv(key, env)
	}
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	for name, raw := range map[string]string{
		"gyazo.api_url":    cfg.Gyazo.APIURL,
		"gyazo.upload_url": cfg.Gyazo.UploadURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL: %q", name, raw)
		}
	}

	if cfg.Gyazo.Timeout <= 0 {
		return fmt.Errorf("gyazo.timeout must be positive")
	}

	if _, err := units.FromHumanSize(cfg.Gyazo.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid gyazo.max_upload_size: %s", cfg.Gyazo.MaxUploadSize)
	}

	if cfg.Backup.PerPage < 1 || cfg.Backup.PerPage > 100 {
		return fmt.Errorf("backup.per_page must be between 1 and 100")
	}

	if cfg.Backup.Concurrency < 1 || cfg.Backup.Concurrency > MaxConcurrency {
		return fmt.Errorf("backup.concurrency must be between 1 and %d", MaxConcurrency)
	}

	for name, expr := range cfg.Filter.Presets {
		if strings.TrimSpace(expr) == "" {
			return fmt.Errorf("filter preset '%s' has an empty expression", name)
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

// MaxUploadBytes returns gyazo.max_upload_size in bytes
func (c *GyazoConfig) MaxUploadBytes() int64 {
	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return 0
	}
	return size
}
