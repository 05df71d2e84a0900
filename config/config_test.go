package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Gyazo: GyazoConfig{
			APIURL:        "https://api.gyazo.com",
			UploadURL:     "https://upload.gyazo.com",
			Timeout:       30 * time.Second,
			MaxUploadSize: "10MB",
		},
		Backup: BackupConfig{
			Dir:         "backup",
			PerPage:     100,
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			modify: func(*Config) {},
		},
		{
			name:    "relative api url",
			modify:  func(c *Config) { c.Gyazo.APIURL = "/api" },
			wantErr: "gyazo.api_url must be an absolute URL",
		},
		{
			name:    "empty upload url",
			modify:  func(c *Config) { c.Gyazo.UploadURL = "" },
			wantErr: "gyazo.upload_url must be an absolute URL",
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.Gyazo.Timeout = 0 },
			wantErr: "gyazo.timeout must be positive",
		},
		{
			name:    "bad upload size",
			modify:  func(c *Config) { c.Gyazo.MaxUploadSize = "lots" },
			wantErr: "invalid gyazo.max_upload_size",
		},
		{
			name:    "per page too large",
			modify:  func(c *Config) { c.Backup.PerPage = 101 },
			wantErr: "backup.per_page must be between 1 and 100",
		},
		{
			name:    "no concurrency",
			modify:  func(c *Config) { c.Backup.Concurrency = 0 },
			wantErr: "backup.concurrency must be between 1 and 32",
		},
		{
			name:    "empty preset",
			modify:  func(c *Config) { c.Filter.Presets = map[string]string{"old": " "} },
			wantErr: "filter preset 'old' has an empty expression",
		},
		{
			name:    "invalid logging level",
			modify:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid logging level: verbose",
		},
		{
			name:    "invalid logging format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format: xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
gyazo:
  access_token: file-token
  api_url: http://localhost:3000
  timeout: 5s
  max_upload_size: 2MB
backup:
  dir: /tmp/gyazo
  concurrency: 8
filter:
  presets:
    pngs: 'Type == "png"'
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Gyazo.AccessToken)
	assert.Equal(t, "http://localhost:3000", cfg.Gyazo.APIURL)
	assert.Equal(t, "https://upload.gyazo.com", cfg.Gyazo.UploadURL)
	assert.Equal(t, 5*time.Second, cfg.Gyazo.Timeout)
	assert.Equal(t, int64(2_000_000), cfg.Gyazo.MaxUploadBytes())
	assert.Equal(t, "/tmp/gyazo", cfg.Backup.Dir)
	assert.Equal(t, 8, cfg.Backup.Concurrency)
	assert.Equal(t, 100, cfg.Backup.PerPage)
	assert.Equal(t, `Type == "png"`, cfg.Filter.Presets["pngs"])
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Safety.ConfirmDelete)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gyazo:\n  access_token: file-token\n"), 0o600))

	t.Setenv("GYAZO_ACCESS_TOKEN", "env-token")
	t.Setenv("GYAZO_BACKUP_CONCURRENCY", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Gyazo.AccessToken)
	assert.Equal(t, 2, cfg.Backup.Concurrency)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config")
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid logging level: loud")
}
