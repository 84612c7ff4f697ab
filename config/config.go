package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

const (
	DriverSQLite = "sqlite"
	DriverDiskv  = "diskv"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Ecobee   EcobeeConfig   `json:"ecobee"`
	Logging  LoggingConfig  `json:"logging"`
	Limits   LimitsConfig   `json:"limits"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	APIKey string `json:"api_key"`
}

// DatabaseConfig contains persistent storage settings
type DatabaseConfig struct {
	Driver string `json:"driver"` // "sqlite" or "diskv"
	Path   string `json:"path"`   // database file, or directory for diskv
}

// EcobeeConfig contains vendor API settings
type EcobeeConfig struct {
	BaseURL         string   `json:"base_url"`
	CredentialsFile string   `json:"credentials_file"`
	Scope           string   `json:"scope"`
	PollInterval    Duration `json:"poll_interval"`
	PinPollInterval Duration `json:"pin_poll_interval"`
	PinWindow       Duration `json:"pin_window"`
	HTTPTimeout     Duration `json:"http_timeout"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Format string `json:"format"` // "json" or "text"
	Level  string `json:"level"`
}

// LimitsConfig bounds how often on-demand poll and discovery can be triggered
type LimitsConfig struct {
	TriggerTokens   uint64   `json:"trigger_tokens"`
	TriggerInterval Duration `json:"trigger_interval"`
}

// Duration is a time.Duration that reads "90s" style strings from JSON
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var seconds int64
		if err := json.Unmarshal(data, &seconds); err != nil {
			return fmt.Errorf("invalid duration %s", string(data))
		}
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port", ErrInvalidConfig)
	}

	if c.Server.APIKey == "" {
		return fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Driver != DriverSQLite && c.Database.Driver != DriverDiskv {
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("%w: database path is required", ErrInvalidConfig)
	}

	if c.Ecobee.CredentialsFile == "" {
		return fmt.Errorf("%w: ecobee credentials file is required", ErrInvalidConfig)
	}

	if c.Ecobee.BaseURL == "" {
		c.Ecobee.BaseURL = "https://api.ecobee.com" // default
	}
	if c.Ecobee.Scope == "" {
		c.Ecobee.Scope = "smartWrite"
	}
	if c.Ecobee.PollInterval == 0 {
		c.Ecobee.PollInterval = Duration(3 * time.Minute)
	}
	if c.Ecobee.PinPollInterval == 0 {
		c.Ecobee.PinPollInterval = Duration(time.Minute)
	}
	if c.Ecobee.PinWindow == 0 {
		c.Ecobee.PinWindow = Duration(10 * time.Minute)
	}
	if c.Ecobee.HTTPTimeout == 0 {
		c.Ecobee.HTTPTimeout = Duration(30 * time.Second)
	}
	if c.Ecobee.PollInterval < 0 || c.Ecobee.PinPollInterval < 0 || c.Ecobee.PinWindow < 0 || c.Ecobee.HTTPTimeout < 0 {
		return fmt.Errorf("%w: ecobee durations must be positive", ErrInvalidConfig)
	}

	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Logging.Format)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Limits.TriggerTokens == 0 {
		c.Limits.TriggerTokens = 5
	}
	if c.Limits.TriggerInterval <= 0 {
		c.Limits.TriggerInterval = Duration(time.Minute)
	}

	return nil
}

// Load loads configuration from a JSON file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigFileNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromEnv loads configuration from environment variables, after
// merging any .env files given (missing files are ignored).
// This is useful for containerized deployments
func LoadFromEnv(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host:   getEnv("ECOBEEHUB_HOST", "0.0.0.0"),
			Port:   getEnvInt("ECOBEEHUB_PORT", 8080),
			APIKey: getEnv("ECOBEEHUB_API_KEY", ""),
		},
		Database: DatabaseConfig{
			Driver: getEnv("ECOBEEHUB_DB_DRIVER", DriverSQLite),
			Path:   getEnv("ECOBEEHUB_DB_PATH", "./ecobeehub.db"),
		},
		Ecobee: EcobeeConfig{
			BaseURL:         getEnv("ECOBEEHUB_ECOBEE_BASE_URL", "https://api.ecobee.com"),
			CredentialsFile: getEnv("ECOBEEHUB_CREDENTIALS_FILE", "./server.json"),
			Scope:           getEnv("ECOBEEHUB_ECOBEE_SCOPE", "smartWrite"),
			PollInterval:    getEnvDuration("ECOBEEHUB_POLL_INTERVAL", 3*time.Minute),
			PinPollInterval: getEnvDuration("ECOBEEHUB_PIN_POLL_INTERVAL", time.Minute),
			PinWindow:       getEnvDuration("ECOBEEHUB_PIN_WINDOW", 10*time.Minute),
			HTTPTimeout:     getEnvDuration("ECOBEEHUB_HTTP_TIMEOUT", 30*time.Second),
		},
		Logging: LoggingConfig{
			Format: getEnv("ECOBEEHUB_LOG_FORMAT", "json"),
			Level:  getEnv("ECOBEEHUB_LOG_LEVEL", "info"),
		},
		Limits: LimitsConfig{
			TriggerTokens:   uint64(getEnvInt("ECOBEEHUB_TRIGGER_TOKENS", 5)),
			TriggerInterval: getEnvDuration("ECOBEEHUB_TRIGGER_INTERVAL", time.Minute),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return intVal
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return Duration(defaultValue)
		}
		return Duration(d)
	}
	return Duration(defaultValue)
}
