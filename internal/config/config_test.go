package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/rinde/internal/common"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, filepath.Join(home, ".local", "share", "rinde", "rinde.db"), cfg.StoragePath)
	assert.Equal(t, 4, cfg.ImportConcurrency)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyAPIBaseURL, "https://rinde.example.cl/api/")
	v.Set(KeyAPITimeout, "3s")
	v.Set(KeyStoragePath, "/tmp/rinde.db")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "https://rinde.example.cl/api", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "/tmp/rinde.db", cfg.StoragePath)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			BaseURL:           "http://localhost:3000",
			Timeout:           time.Second,
			StoragePath:       "/tmp/x.db",
			ImportConcurrency: 1,
			LogFormat:         "json",
		}
	}

	tests := []struct {
		mutate  func(*Config)
		wantErr error
		name    string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing url", mutate: func(c *Config) { c.BaseURL = "" }, wantErr: common.ErrMissingConfig},
		{name: "bad scheme", mutate: func(c *Config) { c.BaseURL = "ftp://x" }, wantErr: common.ErrInvalidConfig},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: common.ErrInvalidConfig},
		{name: "no storage", mutate: func(c *Config) { c.StoragePath = "" }, wantErr: common.ErrMissingConfig},
		{name: "no workers", mutate: func(c *Config) { c.ImportConcurrency = 0 }, wantErr: common.ErrInvalidConfig},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadSheetsConfig(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "")

	v := viper.New()
	_, err := LoadSheetsConfig(v)
	require.ErrorIs(t, err, common.ErrMissingConfig)

	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "env-secret")
	_, err = LoadSheetsConfig(v)
	require.ErrorIs(t, err, common.ErrInvalidConfig)

	v.Set("sheets.client_id", "id")
	v.Set("sheets.refresh_token", "refresh")
	cfg, err := LoadSheetsConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, "env-secret", cfg.ClientSecret)
	assert.Equal(t, "Rinde", cfg.SpreadsheetName)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("RINDE_TEST_DIR", "/srv/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "x.db"), ExpandPath("~/x.db"))
	assert.Equal(t, "/srv/data/x.db", ExpandPath("$RINDE_TEST_DIR/x.db"))
}
