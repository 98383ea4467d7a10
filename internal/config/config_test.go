package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allKeys = []string{
	"OUTPUT_DIR", "LOG_LEVEL", "HEADLESS", "UPLOAD_ENABLED", "S3_BUCKET", "REMOTE_FOLDER",
	"AWS_REGION", "DISCORD_WEBHOOK_URL", "REDIS_URL", "LEDGER_DSN", "WAIT_TIMEOUT",
	"SLEEP_TIME", "MAX_ATTEMPTS", "RETRY_BACKOFF",
}

// isolate runs the test from an empty directory with every key cleared.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "scraped_data" || cfg.LogLevel != "info" || !cfg.Headless || cfg.UploadEnabled {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.WaitTimeout != 15*time.Second || cfg.SleepTime != 2*time.Second || cfg.RetryBackoff != 15*time.Second {
		t.Errorf("timing defaults = %v %v %v", cfg.WaitTimeout, cfg.SleepTime, cfg.RetryBackoff)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.EnvFile != "" {
		t.Errorf("EnvFile = %q, want none", cfg.EnvFile)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("OUTPUT_DIR", "/data/out")
	t.Setenv("UPLOAD_ENABLED", "true")
	t.Setenv("HEADLESS", "false")
	t.Setenv("WAIT_TIMEOUT", "2.5")
	t.Setenv("MAX_ATTEMPTS", "5")
	t.Setenv("S3_BUCKET", "boxscores")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "/data/out" || !cfg.UploadEnabled || cfg.Headless || cfg.S3Bucket != "boxscores" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.WaitTimeout != 2500*time.Millisecond {
		t.Errorf("WaitTimeout = %v", cfg.WaitTimeout)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d", cfg.MaxAttempts)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := isolate(t)
	// godotenv skips variables that exist, even empty ones. isolate's Setenv restores it.
	os.Unsetenv("REDIS_URL")
	t.Setenv("LOG_LEVEL", "warn")

	env := "REDIS_URL=redis://cache:6379/0\nLOG_LEVEL=debug\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EnvFile != ".env" {
		t.Errorf("EnvFile = %q", cfg.EnvFile)
	}
	if cfg.RedisURL != "redis://cache:6379/0" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, process environment should win", cfg.LogLevel)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"WAIT_TIMEOUT", "soon"},
		{"SLEEP_TIME", "-1"},
		{"MAX_ATTEMPTS", "three"},
		{"MAX_ATTEMPTS", "0"},
		{"HEADLESS", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
