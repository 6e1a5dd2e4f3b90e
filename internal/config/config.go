// Package config contains everything related to configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrConfigMissing is returned when a required setting is absent.
var ErrConfigMissing = errors.New("required configuration missing")

// Config holds the application configuration.
type Config struct {
	ClientID             string
	ClientSecret         string
	RedirectURI          string
	ClientFile           string
	TokenPath            string
	APIBaseURL           string
	LogPath              string
	LogLevel             string
	ExportDir            string
	BaselineDays         int
	CorrelationThreshold float64
	RequestTimeout       time.Duration
	Notifications        bool
}

// Default values
const (
	appDirName            = "whoop-dashboard-tui"
	defaultAPIBaseURL     = "https://api.prod.whoop.com"
	defaultRequestTimeout = 30 * time.Second

	// DefaultBaselineDays is how many days are loaded when unset.
	DefaultBaselineDays = 60
	// DefaultCorrelationThreshold is the minimum |r| shown when unset.
	DefaultCorrelationThreshold = 0.5

	// MinBaselineDays and MaxBaselineDays bound how much history is loaded.
	MinBaselineDays = 1
	MaxBaselineDays = 180
)

// Load reads configuration from .env files, the client file and environment
// variables. Missing client credentials yield an error wrapping ErrConfigMissing.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	clientFile := getEnvString("WHOOP_CONFIG_FILE", getDefaultClientFilePath())
	var defaults ClientFile
	if cf, err := LoadClientFile(clientFile); err == nil && cf != nil {
		defaults = *cf
	}

	cfg := &Config{
		ClientID:             getEnvString("WHOOP_CLIENT_ID", defaults.ClientID),
		ClientSecret:         getEnvString("WHOOP_CLIENT_SECRET", defaults.ClientSecret),
		RedirectURI:          getEnvString("WHOOP_REDIRECT_URI", defaults.RedirectURI),
		ClientFile:           clientFile,
		TokenPath:            getEnvString("WHOOP_TOKEN_FILE", getDefaultTokenPath()),
		APIBaseURL:           strings.TrimRight(getEnvString("WHOOP_API_BASE_URL", defaultAPIBaseURL), "/"),
		LogPath:              getEnvString("WHOOP_LOG_FILE", getDefaultLogPath()),
		LogLevel:             getEnvString("WHOOP_LOG_LEVEL", "info"),
		ExportDir:            getEnvString("WHOOP_EXPORT_DIR", "whoop-export"),
		BaselineDays:         ClampBaselineDays(getEnvInt("WHOOP_BASELINE_DAYS", DefaultBaselineDays)),
		CorrelationThreshold: getEnvFloat("WHOOP_CORRELATION_THRESHOLD", DefaultCorrelationThreshold),
		RequestTimeout:       getEnvDuration("WHOOP_REQUEST_TIMEOUT", defaultRequestTimeout),
		Notifications:        getEnvBool("WHOOP_NOTIFICATIONS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure token directory exists
	if err := ensurePrivateDir(filepath.Dir(cfg.TokenPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every required key that is empty.
func (c *Config) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "WHOOP_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "WHOOP_CLIENT_SECRET")
	}
	if c.RedirectURI == "" {
		missing = append(missing, "WHOOP_REDIRECT_URI")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s (set via env, .env or %s)",
			ErrConfigMissing, strings.Join(missing, ", "), c.ClientFile)
	}
	return nil
}

// ClampBaselineDays keeps the number of days to load within the supported range.
func ClampBaselineDays(days int) int {
	switch {
	case days < MinBaselineDays:
		return MinBaselineDays
	case days > MaxBaselineDays:
		return MaxBaselineDays
	default:
		return days
	}
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", appDirName, ".env"),
			filepath.Join(home, ".whoop", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

func appDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDirName)
}

// getDefaultClientFilePath returns the default path for the client credentials file.
func getDefaultClientFilePath() string {
	return filepath.Join(appDir(), "config.json")
}

// getDefaultTokenPath returns the default path for the credential record.
func getDefaultTokenPath() string {
	return filepath.Join(appDir(), ".tokens", "whoop_token.json")
}

// getDefaultLogPath returns the default path for the log file.
func getDefaultLogPath() string {
	return filepath.Join(appDir(), "wdt.log")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}

// ensurePrivateDir is ensureDir for directories holding credentials.
func ensurePrivateDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o700)
}
