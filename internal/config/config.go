// Package config resolves runtime settings from flags, environment and
// defaults, and discovers the gist credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g.
// ZED_SETTINGS_SYNC_LOG_LEVEL.
const EnvPrefix = "ZED_SETTINGS_SYNC"

// Keys understood by Load.
const (
	KeyLogLevel       = "log_level"
	KeyLogFile        = "log_file"
	KeyConfigDir      = "config_dir"
	KeyDashboardPort  = "dashboard_port"
	KeyRequestTimeout = "request_timeout"
	KeyAPIURL         = "api_url"
	KeyGistID         = "gist_id"
	KeyGithubToken    = "github_token"
)

// Config is the resolved runtime configuration.
type Config struct {
	LogLevel string
	// LogFile, when set, receives the log instead of stderr.
	LogFile string
	// ConfigDir is the Zed configuration directory.
	ConfigDir string
	// DashboardPort enables the dashboard when non-zero.
	DashboardPort  int
	RequestTimeout time.Duration
	// APIURL overrides the GitHub API root.
	APIURL string

	// GistID and GithubToken override the credentials from the settings
	// file when both are set.
	GistID      string
	GithubToken string
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyConfigDir, "")
	v.SetDefault(KeyDashboardPort, 0)
	v.SetDefault(KeyRequestTimeout, 30*time.Second)
	v.SetDefault(KeyAPIURL, "")
	v.SetDefault(KeyGistID, "")
	v.SetDefault(KeyGithubToken, "")

	return v
}

// ReadFile merges a config file (YAML, TOML or JSON, by extension) into v.
// Flags and environment variables still take precedence.
func ReadFile(v *viper.Viper, path string) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("failed to expand %s: %w", path, err)
	}
	v.SetConfigFile(expanded)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", expanded, err)
	}
	return nil
}

// Load reads the configuration out of v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		LogLevel:       strings.ToLower(v.GetString(KeyLogLevel)),
		LogFile:        v.GetString(KeyLogFile),
		ConfigDir:      v.GetString(KeyConfigDir),
		DashboardPort:  v.GetInt(KeyDashboardPort),
		RequestTimeout: v.GetDuration(KeyRequestTimeout),
		APIURL:         v.GetString(KeyAPIURL),
		GistID:         v.GetString(KeyGistID),
		GithubToken:    v.GetString(KeyGithubToken),
	}

	if cfg.ConfigDir == "" {
		dir, err := ZedConfigDir()
		if err != nil {
			return nil, err
		}
		cfg.ConfigDir = dir
	} else {
		dir, err := homedir.Expand(cfg.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("failed to expand %s: %w", cfg.ConfigDir, err)
		}
		cfg.ConfigDir = dir
	}

	if cfg.DashboardPort < 0 || cfg.DashboardPort > 65535 {
		return nil, fmt.Errorf("invalid %s: %d", KeyDashboardPort, cfg.DashboardPort)
	}
	if cfg.RequestTimeout < 0 {
		return nil, fmt.Errorf("invalid %s: %s", KeyRequestTimeout, cfg.RequestTimeout)
	}

	return cfg, nil
}

// SettingsFile returns the path of the Zed settings file.
func (c *Config) SettingsFile() string {
	return filepath.Join(c.ConfigDir, "settings.json")
}

// ZedConfigDir returns the directory Zed keeps its user configuration in.
func ZedConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "zed"), nil
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Zed"), nil
		}
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "zed"), nil
}
