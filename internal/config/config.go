// Package config reads scraper settings from the environment, falling back to a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envPaths are tried in order; the first .env found is loaded.
var envPaths = []string{".env", "../.env", "../../.env"}

// Config holds every environment-driven setting.
type Config struct {
	OutputDir string
	LogLevel  string
	Headless  bool

	WaitTimeout  time.Duration
	SleepTime    time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration

	UploadEnabled bool
	S3Bucket      string
	RemoteFolder  string
	AWSRegion     string

	DiscordWebhookURL string
	RedisURL          string
	LedgerDSN         string

	// EnvFile is the .env path that was loaded, or "" if none was found.
	EnvFile string
}

// Load reads the configuration. Values already set in the process environment win over the
// .env file.
func Load() (*Config, error) {
	cfg := &Config{}
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			cfg.EnvFile = path
			break
		}
	}

	var err error
	cfg.OutputDir = getEnv("OUTPUT_DIR", "scraped_data")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.S3Bucket = getEnv("S3_BUCKET", "")
	cfg.RemoteFolder = getEnv("REMOTE_FOLDER", "ncaa-basketball")
	cfg.AWSRegion = getEnv("AWS_REGION", "us-east-1")
	cfg.DiscordWebhookURL = getEnv("DISCORD_WEBHOOK_URL", "")
	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.LedgerDSN = getEnv("LEDGER_DSN", "")

	if cfg.Headless, err = getEnvBool("HEADLESS", true); err != nil {
		return nil, err
	}
	if cfg.UploadEnabled, err = getEnvBool("UPLOAD_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.WaitTimeout, err = getEnvSeconds("WAIT_TIMEOUT", 15); err != nil {
		return nil, err
	}
	if cfg.SleepTime, err = getEnvSeconds("SLEEP_TIME", 2); err != nil {
		return nil, err
	}
	if cfg.RetryBackoff, err = getEnvSeconds("RETRY_BACKOFF", 15); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = getEnvInt("MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("MAX_ATTEMPTS must be at least 1, got %d", cfg.MaxAttempts)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

// getEnvSeconds reads a non-negative number of seconds. Fractions are allowed.
func getEnvSeconds(key string, defaultSeconds float64) (time.Duration, error) {
	secs := defaultSeconds
	if raw := getEnv(key, ""); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid %s %q: expected seconds", key, raw)
		}
		secs = v
	}
	return time.Duration(secs * float64(time.Second)), nil
}
