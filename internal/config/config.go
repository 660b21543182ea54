package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/sheets"
)

// Configuration keys shared by the CLI flags and the config file.
const (
	KeyAPIBaseURL        = "api.base_url"
	KeyAPITimeout        = "api.timeout"
	KeyStoragePath       = "storage.path"
	KeyImportConcurrency = "import.concurrency"
	KeyLogLevel          = "logging.level"
	KeyLogFormat         = "logging.format"
	KeyLogFile           = "logging.file"
)

// Config is the resolved application configuration.
type Config struct {
	BaseURL           string
	StoragePath       string
	LogLevel          string
	LogFormat         string
	LogFile           string
	Timeout           time.Duration
	ImportConcurrency int
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIBaseURL, "http://localhost:3000")
	v.SetDefault(KeyAPITimeout, 15*time.Second)
	v.SetDefault(KeyStoragePath, filepath.Join("~", ".local", "share", "rinde", "rinde.db"))
	v.SetDefault(KeyImportConcurrency, 4)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyLogFile, filepath.Join("~", ".local", "share", "rinde", "rinde.log"))
}

// Load reads the configuration out of v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		BaseURL:           strings.TrimRight(v.GetString(KeyAPIBaseURL), "/"),
		Timeout:           v.GetDuration(KeyAPITimeout),
		StoragePath:       ExpandPath(v.GetString(KeyStoragePath)),
		ImportConcurrency: v.GetInt(KeyImportConcurrency),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFormat:         v.GetString(KeyLogFormat),
		LogFile:           ExpandPath(v.GetString(KeyLogFile)),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: %s is required", common.ErrMissingConfig, KeyAPIBaseURL)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an http(s) URL, got %q", common.ErrInvalidConfig, KeyAPIBaseURL, c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: %s must be positive", common.ErrInvalidConfig, KeyAPITimeout)
	}
	if c.StoragePath == "" {
		return fmt.Errorf("%w: %s is required", common.ErrMissingConfig, KeyStoragePath)
	}
	if c.ImportConcurrency < 1 {
		return fmt.Errorf("%w: %s must be at least 1", common.ErrInvalidConfig, KeyImportConcurrency)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: %s must be console or json", common.ErrInvalidConfig, KeyLogFormat)
	}
	return nil
}

// LoadSheetsConfig loads Google Sheets configuration from v and the environment.
// It returns common.ErrMissingConfig when no credentials are set at all.
// It follows this precedence:
// 1. Viper configuration (from config file or RINDE_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. Default values
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	cfg := sheets.DefaultConfig()

	if s := v.GetString("sheets.service_account_path"); s != "" {
		cfg.ServiceAccountPath = ExpandPath(s)
	}
	cfg.ClientID = v.GetString("sheets.client_id")
	cfg.ClientSecret = v.GetString("sheets.client_secret")
	cfg.RefreshToken = v.GetString("sheets.refresh_token")
	cfg.SpreadsheetID = v.GetString("sheets.spreadsheet_id")
	if s := v.GetString("sheets.spreadsheet_name"); s != "" {
		cfg.SpreadsheetName = s
	}
	if s := v.GetString("sheets.time_zone"); s != "" {
		cfg.TimeZone = s
	}

	fallback := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	if cfg.ServiceAccountPath == "" {
		cfg.ServiceAccountPath = ExpandPath(os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"))
	}
	fallback(&cfg.ClientID, "GOOGLE_SHEETS_CLIENT_ID")
	fallback(&cfg.ClientSecret, "GOOGLE_SHEETS_CLIENT_SECRET")
	fallback(&cfg.RefreshToken, "GOOGLE_SHEETS_REFRESH_TOKEN")
	fallback(&cfg.SpreadsheetID, "GOOGLE_SHEETS_SPREADSHEET_ID")

	if !cfg.Configured() {
		return nil, fmt.Errorf("%w: sheets credentials", common.ErrMissingConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: sheets: %w", common.ErrInvalidConfig, err)
	}
	return &cfg, nil
}
