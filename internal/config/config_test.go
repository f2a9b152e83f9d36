package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.APIURL != "https://emkc.org/api/v2/piston" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PaceInterval != 205*time.Millisecond {
		t.Errorf("PaceInterval = %v, want 205ms", cfg.PaceInterval)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", cfg.Timeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.LogDir != filepath.Join(".grader", "logs") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if !cfg.History.Enabled || cfg.History.KeepRuns != 100 || cfg.History.DBPath != "" {
		t.Errorf("History = %+v", cfg.History)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// TestLoadConfigValidFile tests loading a valid YAML config file
func TestLoadConfigValidFile(t *testing.T) {
	path := writeConfig(t, `api_url: http://localhost:2000/api/v2
pace_interval: 500ms
request_timeout: 10s
timeout: 5m
log_level: debug
log_dir: /tmp/grader-logs
history:
  db_path: /tmp/history.db
  keep_runs: 10
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.APIURL != "http://localhost:2000/api/v2" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PaceInterval != 500*time.Millisecond {
		t.Errorf("PaceInterval = %v", cfg.PaceInterval)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.Timeout != 5*time.Minute {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.LogDir != "/tmp/grader-logs" {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	// enabled is not set in the file, so the default stays
	if !cfg.History.Enabled {
		t.Error("History.Enabled should keep its default")
	}
	if cfg.History.DBPath != "/tmp/history.db" || cfg.History.KeepRuns != 10 {
		t.Errorf("History = %+v", cfg.History)
	}
}

func TestLoadConfig_PartialAndDisable(t *testing.T) {
	path := writeConfig(t, `log_dir: ""
history:
  enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogDir != "" {
		t.Errorf("explicit empty log_dir should disable file logging, got %q", cfg.LogDir)
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled")
	}
	if cfg.History.KeepRuns != 100 {
		t.Errorf("KeepRuns = %d, want default 100", cfg.History.KeepRuns)
	}
	if cfg.PaceInterval != DefaultPaceInterval {
		t.Errorf("PaceInterval = %v, want default", cfg.PaceInterval)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"malformed yaml", "api_url: [unclosed", "failed to parse config file"},
		{"bad pace", "pace_interval: soon", "invalid pace_interval format"},
		{"bad timeout", "timeout: 5 minutes", "invalid timeout format"},
		{"bad request timeout", "request_timeout: x", "invalid request_timeout format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".grader"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ConfigPath(dir), []byte("log_level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFromDir(dir)
	if err != nil {
		t.Fatalf("LoadConfigFromDir() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://piston.local/api/v2/piston")
	t.Setenv(EnvAPIKey, "token")
	t.Setenv(EnvPace, "1s")
	t.Setenv(EnvLogLevel, "error")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.APIURL != "http://piston.local/api/v2/piston" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.APIKey != "token" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.PaceInterval != time.Second {
		t.Errorf("PaceInterval = %v", cfg.PaceInterval)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestApplyEnv_BadPace(t *testing.T) {
	t.Setenv(EnvPace, "fast")
	if err := DefaultConfig().ApplyEnv(); err == nil {
		t.Error("expected error for invalid GRADER_PACE")
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "GRADER_API_KEY=from-file\nGRADER_LOG_LEVEL=debug\n"
	if err := os.WriteFile(envPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// already-set variables win over the file
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvAPIKey, "")
	os.Unsetenv(EnvAPIKey)

	if err := LoadEnvFiles(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatalf("LoadEnvFiles() error = %v", err)
	}

	if got := os.Getenv(EnvAPIKey); got != "from-file" {
		t.Errorf("%s = %q, want from-file", EnvAPIKey, got)
	}
	if got := os.Getenv(EnvLogLevel); got != "warn" {
		t.Errorf("%s = %q, want warn", EnvLogLevel, got)
	}
}

func TestLoadEnvFiles_NoneExist(t *testing.T) {
	if err := LoadEnvFiles(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing env files should be ignored: %v", err)
	}
}

// TestMergeWithFlags verifies non-nil flags override config values
func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()

	apiURL := "http://localhost:2000"
	pace := time.Duration(0)
	reqTimeout := 2 * time.Second
	logLevel := "trace"
	noHistory := true

	cfg.MergeWithFlags(&apiURL, &pace, &reqTimeout, nil, &logLevel, nil, &noHistory)

	if cfg.APIURL != apiURL {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PaceInterval != 0 {
		t.Errorf("PaceInterval = %v, want 0", cfg.PaceInterval)
	}
	if cfg.RequestTimeout != 2*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.Timeout != 0 {
		t.Errorf("Timeout should be untouched, got %v", cfg.Timeout)
	}
	if cfg.LogLevel != "trace" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.LogDir != filepath.Join(".grader", "logs") {
		t.Errorf("LogDir should be untouched, got %q", cfg.LogDir)
	}
	if cfg.History.Enabled {
		t.Error("--no-history should disable history")
	}
}

func TestMergeWithFlags_NoHistoryFalseKeepsConfig(t *testing.T) {
	cfg := DefaultConfig()
	noHistory := false
	cfg.MergeWithFlags(nil, nil, nil, nil, nil, nil, &noHistory)
	if !cfg.History.Enabled {
		t.Error("history should stay enabled")
	}
}

// TestValidate tests configuration validation
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty api url", func(c *Config) { c.APIURL = " " }, "api_url cannot be empty"},
		{"bad scheme", func(c *Config) { c.APIURL = "ftp://host" }, "must start with http"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "invalid log_level"},
		{"negative pace", func(c *Config) { c.PaceInterval = -time.Second }, "pace_interval must be >= 0"},
		{"negative request timeout", func(c *Config) { c.RequestTimeout = -1 }, "request_timeout must be >= 0"},
		{"negative timeout", func(c *Config) { c.Timeout = -1 }, "timeout must be >= 0"},
		{"negative keep runs", func(c *Config) { c.History.KeepRuns = -1 }, "history.keep_runs"},
		{"zero pace is allowed", func(c *Config) { c.PaceInterval = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
