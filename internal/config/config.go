// Package config loads invman settings from defaults, an optional .env file,
// INVMAN_* environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds client and server settings.
type Config struct {
	APIURL       string
	SessionFile  string
	DBPath       string
	Addr         string
	JWTSecret    string
	PollInterval time.Duration
	LogFile      string
}

// Default values.
const (
	DefaultAPIURL       = "http://localhost:8000"
	DefaultDBPath       = "invman.sqlite3"
	DefaultAddr         = ":8000"
	DefaultPollInterval = 30 * time.Second
)

// Load reads envFile (ignored when missing) into the process environment and
// returns the resulting configuration. An empty envFile means ".env".
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	c := &Config{
		APIURL:       getEnv("INVMAN_API_URL", DefaultAPIURL),
		SessionFile:  getEnv("INVMAN_SESSION_FILE", defaultSessionFile()),
		DBPath:       getEnv("INVMAN_DB", DefaultDBPath),
		Addr:         getEnv("INVMAN_ADDR", DefaultAddr),
		JWTSecret:    getEnv("INVMAN_JWT_SECRET", ""),
		PollInterval: getEnvAsDuration("INVMAN_POLL_INTERVAL", DefaultPollInterval),
		LogFile:      getEnv("INVMAN_LOG", ""),
	}
	return c, nil
}

// ClientFlags registers the flags shared by client subcommands, defaulting to
// the loaded values so that flags take precedence.
func (c *Config) ClientFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.APIURL, "api", c.APIURL, "")
	fs.StringVar(&c.SessionFile, "session", c.SessionFile, "")
}

// ServerFlags registers the flags of the serve subcommand.
func (c *Config) ServerFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DBPath, "db", c.DBPath, "")
	fs.StringVar(&c.DBPath, "d", c.DBPath, "")
	fs.StringVar(&c.Addr, "addr", c.Addr, "")
	fs.StringVar(&c.Addr, "a", c.Addr, "")
	fs.StringVar(&c.LogFile, "log", c.LogFile, "")
	fs.StringVar(&c.LogFile, "l", c.LogFile, "")
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api url must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".invman-session.json"
	}
	return filepath.Join(dir, "invman", "session.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("45s") or plain seconds ("45").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if n, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}
