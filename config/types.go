package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Gyazo   GyazoConfig   `mapstructure:"gyazo"`
	Backup  BackupConfig  `mapstructure:"backup"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Safety  SafetyConfig  `mapstructure:"safety"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// GyazoConfig holds Gyazo API connection details
type GyazoConfig struct {
	AccessToken   string        `mapstructure:"access_token"`
	ClientID      string        `mapstructure:"client_id"`
	ClientSecret  string        `mapstructure:"client_secret"`
	APIURL        string        `mapstructure:"api_url"`
	UploadURL     string        `mapstructure:"upload_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxUploadSize string        `mapstructure:"max_upload_size"`
}

// BackupConfig contains settings for the backup command
type BackupConfig struct {
	Dir            string `mapstructure:"dir"`
	PerPage        int    `mapstructure:"per_page"`
	Concurrency    int    `mapstructure:"concurrency"`
	DownloadThumbs bool   `mapstructure:"download_thumbs"`
}

// FilterConfig contains filter definitions
type FilterConfig struct {
	// Presets maps a preset name to a filter expression
	Presets map[string]string `mapstructure:"presets"`
}

// SafetyConfig contains safety-related settings
type SafetyConfig struct {
	ConfirmDelete bool `mapstructure:"confirm_delete"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
