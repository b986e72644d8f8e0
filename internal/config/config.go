// Package config handles the XDG configuration directory and runtime settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "taskdeck"

	// EnvFile is the optional dotenv file inside the config directory.
	EnvFile = ".env"

	// SessionDBFile is the bbolt credential store filename.
	SessionDBFile = "session.db"

	// SessionFile is the JSON credential store filename.
	SessionFile = "session.json"
)

// Store backends.
const (
	StoreBolt  = "bolt"
	StoreFile  = "file"
	StoreRedis = "redis"
)

const (
	defaultAPIURL  = "http://localhost:3333"
	defaultTimeout = 10 * time.Second
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// APIURL is the base URL of the remote task service.
	APIURL string

	// Timeout bounds every remote call.
	Timeout time.Duration

	// Store selects the credential store backend.
	Store string

	// RedisURL is used by the redis credential store.
	RedisURL string

	LogLevel    string
	LogEncoding string

	// Password, when set, is used instead of prompting.
	Password string
}

// New creates a Config for configDir with defaults applied and no
// environment lookups. If configDir is empty, uses XDG_CONFIG_HOME/taskdeck
// or $HOME/.config/taskdeck.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:         dir,
		APIURL:      defaultAPIURL,
		Timeout:     defaultTimeout,
		Store:       StoreBolt,
		LogLevel:    "warn",
		LogEncoding: "console",
	}, nil
}

// Load creates a Config for configDir and applies .env files and TASKDECK_*
// environment variables. Existing environment variables win over .env values.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	for _, path := range []string{cfg.EnvPath(), EnvFile} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	cfg.APIURL = getString("TASKDECK_API_URL", cfg.APIURL)
	cfg.Timeout = getDuration("TASKDECK_TIMEOUT", cfg.Timeout)
	cfg.Store = getString("TASKDECK_STORE", cfg.Store)
	cfg.RedisURL = getString("TASKDECK_REDIS_URL", "redis://localhost:6379/0")
	cfg.LogLevel = getString("TASKDECK_LOG_LEVEL", cfg.LogLevel)
	cfg.LogEncoding = getString("TASKDECK_LOG_ENCODING", cfg.LogEncoding)
	cfg.Password = os.Getenv("TASKDECK_PASSWORD")

	switch cfg.Store {
	case StoreBolt, StoreFile, StoreRedis:
	default:
		return nil, fmt.Errorf("unknown credential store: %s", cfg.Store)
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// EnvPath returns the path to the config directory's dotenv file.
func (c *Config) EnvPath() string {
	return filepath.Join(c.Dir, EnvFile)
}

// SessionDBPath returns the path to the bbolt credential store.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.Dir, SessionDBFile)
}

// SessionPath returns the path to the JSON credential store.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// LoggerLevel returns the effective log level, honoring Debug.
func (c *Config) LoggerLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
