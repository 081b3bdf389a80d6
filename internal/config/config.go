package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	appDir         = ".irontodo"
	configFileName = "config.yaml"
)

// Config holds user preferences
type Config struct {
	DataDir       string `yaml:"data_dir" json:"data_dir"`             // Directory holding todos.json and backups/
	ConfirmDelete bool   `yaml:"confirm_delete" json:"confirm_delete"` // Require confirmation for delete

	// Persistence
	SaveDebounce    time.Duration `yaml:"save_debounce" json:"save_debounce"`       // Coalescing window for writes
	BackupInterval  time.Duration `yaml:"backup_interval" json:"backup_interval"`   // Periodic backup cadence, 0 disables
	BackupRetention int           `yaml:"backup_retention" json:"backup_retention"` // Snapshots kept

	// Tasks
	DefaultPriority  string `yaml:"default_priority" json:"default_priority"`
	ArchiveAfterDays int    `yaml:"archive_after_days" json:"archive_after_days"` // Used by `archive` without --days

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// HomeDir returns ~/.irontodo
func HomeDir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return appDir
	}
	return filepath.Join(home, appDir)
}

// DefaultConfig returns default settings with env overrides applied
func DefaultConfig() *Config {
	base := HomeDir()
	return &Config{
		DataDir:          getEnv("IRONTODO_DATA_DIR", filepath.Join(base, "data")),
		ConfirmDelete:    true,
		SaveDebounce:     time.Second,
		BackupInterval:   time.Hour,
		BackupRetention:  10,
		DefaultPriority:  "medium",
		ArchiveAfterDays: 30,
		LogLevel:         getEnv("IRONTODO_LOG_LEVEL", "INFO"),
		LogFile:          getEnv("IRONTODO_LOG_FILE", filepath.Join(base, "logs", "irontodo.log")),
		LogConsole:       getEnvBool("IRONTODO_LOG_CONSOLE", false),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

// Path returns the config file location
func Path() string {
	return filepath.Join(HomeDir(), configFileName)
}

// Load loads config from ~/.irontodo/config.yaml after picking up
// IRONTODO_* variables from .env files
func Load() (*Config, error) {
	LoadEnv(".env", filepath.Join(HomeDir(), ".env"))
	return LoadFrom(Path())
}

// LoadEnv reads the given .env files, skipping missing ones. Variables
// already set in the environment are never overwritten.
func LoadEnv(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

// LoadFrom loads config from path, returning defaults when it does not exist
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment wins over the file
	cfg.DataDir = getEnv("IRONTODO_DATA_DIR", cfg.DataDir)
	cfg.LogLevel = getEnv("IRONTODO_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("IRONTODO_LOG_FILE", cfg.LogFile)
	cfg.LogConsole = getEnvBool("IRONTODO_LOG_CONSOLE", cfg.LogConsole)

	return cfg, nil
}

// Save saves config to ~/.irontodo/config.yaml
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config as YAML to path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
