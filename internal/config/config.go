package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults shared with the execution client and the evaluator.
const (
	DefaultAPIURL         = "https://emkc.org/api/v2/piston"
	DefaultPaceInterval   = 205 * time.Millisecond
	DefaultRequestTimeout = 30 * time.Second
)

// Environment variables that override the config file.
const (
	EnvAPIURL   = "GRADER_API_URL"
	EnvAPIKey   = "GRADER_API_KEY"
	EnvPace     = "GRADER_PACE"
	EnvLogLevel = "GRADER_LOG_LEVEL"
)

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every run and its verdicts
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database path; empty means $GRADER_HOME/history.db
	DBPath string `yaml:"db_path"`

	// KeepRuns is how many runs to keep after each recording (0 = keep all)
	KeepRuns int `yaml:"keep_runs"`
}

// Config represents grader configuration options
type Config struct {
	// APIURL is the base URL of the Piston-compatible execution service
	APIURL string `yaml:"api_url"`

	// APIKey is sent as the Authorization header when set. Env only.
	APIKey string `yaml:"-"`

	// PaceInterval is the pause after every submission
	PaceInterval time.Duration `yaml:"pace_interval"`

	// RequestTimeout bounds a single HTTP request
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Timeout bounds the whole run (0 = no limit)
	Timeout time.Duration `yaml:"timeout"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written (empty = no file log)
	LogDir string `yaml:"log_dir"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		PaceInterval:   DefaultPaceInterval,
		RequestTimeout: DefaultRequestTimeout,
		Timeout:        0,
		LogLevel:       "info",
		LogDir:         filepath.Join(".grader", "logs"),
		History: HistoryConfig{
			Enabled:  true,
			DBPath:   "",
			KeepRuns: 100,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are written as strings ("250ms", "1m").
	type yamlConfig struct {
		APIURL         string         `yaml:"api_url"`
		PaceInterval   string         `yaml:"pace_interval"`
		RequestTimeout string         `yaml:"request_timeout"`
		Timeout        string         `yaml:"timeout"`
		LogLevel       string         `yaml:"log_level"`
		LogDir         *string        `yaml:"log_dir"`
		History        map[string]any `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.APIURL != "" {
		cfg.APIURL = yamlCfg.APIURL
	}
	if err := parseDuration("pace_interval", yamlCfg.PaceInterval, &cfg.PaceInterval); err != nil {
		return nil, err
	}
	if err := parseDuration("request_timeout", yamlCfg.RequestTimeout, &cfg.RequestTimeout); err != nil {
		return nil, err
	}
	if err := parseDuration("timeout", yamlCfg.Timeout, &cfg.Timeout); err != nil {
		return nil, err
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	// An explicit empty log_dir disables the file log.
	if yamlCfg.LogDir != nil {
		cfg.LogDir = *yamlCfg.LogDir
	}

	// Only keys present in the history section override the defaults.
	if yamlCfg.History != nil {
		var history HistoryConfig
		raw, _ := yaml.Marshal(yamlCfg.History)
		if err := yaml.Unmarshal(raw, &history); err != nil {
			return nil, fmt.Errorf("failed to parse history section: %w", err)
		}
		if _, ok := yamlCfg.History["enabled"]; ok {
			cfg.History.Enabled = history.Enabled
		}
		if _, ok := yamlCfg.History["db_path"]; ok {
			cfg.History.DBPath = history.DBPath
		}
		if _, ok := yamlCfg.History["keep_runs"]; ok {
			cfg.History.KeepRuns = history.KeepRuns
		}
	}

	return cfg, nil
}

func parseDuration(key, value string, dst *time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s format %q: %w", key, value, err)
	}
	*dst = d
	return nil
}

// LoadConfigFromDir loads configuration from .grader/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(ConfigPath(dir))
}

// ConfigPath returns the config file location for dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, ".grader", "config.yaml")
}

// LoadEnvFiles loads KEY=VALUE pairs from the given .env files into the
// process environment. Missing files are skipped; variables that are already
// set are never overwritten.
func LoadEnvFiles(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides configuration values from GRADER_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPace)); v != "" {
		if err := parseDuration(EnvPace, v, &c.PaceInterval); err != nil {
			return err
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	return nil
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file and environment settings
func (c *Config) MergeWithFlags(apiURL *string, pace *time.Duration, requestTimeout *time.Duration, timeout *time.Duration, logLevel *string, logDir *string, noHistory *bool) {
	if apiURL != nil {
		c.APIURL = *apiURL
	}
	if pace != nil {
		c.PaceInterval = *pace
	}
	if requestTimeout != nil {
		c.RequestTimeout = *requestTimeout
	}
	if timeout != nil {
		c.Timeout = *timeout
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if noHistory != nil && *noHistory {
		c.History.Enabled = false
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("api_url cannot be empty")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url must start with http:// or https://, got %q", c.APIURL)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.PaceInterval < 0 {
		return fmt.Errorf("pace_interval must be >= 0, got %v", c.PaceInterval)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be >= 0, got %v", c.RequestTimeout)
	}
	// Timeout can be 0 (no timeout) or positive, negative is invalid
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}

	if c.History.KeepRuns < 0 {
		return fmt.Errorf("history.keep_runs must be >= 0, got %d", c.History.KeepRuns)
	}

	return nil
}
