package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:   "0.0.0.0",
			Port:   8080,
			APIKey: "test-key",
		},
		Database: DatabaseConfig{
			Path: "/path/to/db",
		},
		Ecobee: EcobeeConfig{
			CredentialsFile: "/path/to/server.json",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:    "invalid port - zero",
			modify:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port - too large",
			modify:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing API key",
			modify:  func(c *Config) { c.Server.APIKey = "" },
			wantErr: true,
		},
		{
			name:    "missing database path",
			modify:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "unknown database driver",
			modify:  func(c *Config) { c.Database.Driver = "postgres" },
			wantErr: true,
		},
		{
			name:   "diskv driver",
			modify: func(c *Config) { c.Database.Driver = DriverDiskv },
		},
		{
			name:    "missing credentials file",
			modify:  func(c *Config) { c.Ecobee.CredentialsFile = "" },
			wantErr: true,
		},
		{
			name:    "negative poll interval",
			modify:  func(c *Config) { c.Ecobee.PollInterval = Duration(-time.Second) },
			wantErr: true,
		},
		{
			name:    "unknown log format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.modify(&config)
			err := config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateDefaults(t *testing.T) {
	config := validConfig()
	require.NoError(t, config.Validate())

	assert.Equal(t, DriverSQLite, config.Database.Driver)
	assert.Equal(t, "https://api.ecobee.com", config.Ecobee.BaseURL)
	assert.Equal(t, "smartWrite", config.Ecobee.Scope)
	assert.Equal(t, 3*time.Minute, config.Ecobee.PollInterval.Std())
	assert.Equal(t, time.Minute, config.Ecobee.PinPollInterval.Std())
	assert.Equal(t, 10*time.Minute, config.Ecobee.PinWindow.Std())
	assert.Equal(t, 30*time.Second, config.Ecobee.HTTPTimeout.Std())
	assert.Equal(t, "json", config.Logging.Format)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, uint64(5), config.Limits.TriggerTokens)
	assert.Equal(t, time.Minute, config.Limits.TriggerInterval.Std())
}

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	validConfig := `{
		"server": {
			"host": "0.0.0.0",
			"port": 8080,
			"api_key": "test-key"
		},
		"database": {
			"driver": "diskv",
			"path": "/path/to/state"
		},
		"ecobee": {
			"credentials_file": "/etc/ecobeehub/server.json",
			"poll_interval": "90s",
			"pin_window": 300
		},
		"logging": {
			"format": "text",
			"level": "debug"
		}
	}`

	err := os.WriteFile(configPath, []byte(validConfig), 0644)
	require.NoError(t, err)

	// Test loading valid config
	config, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "test-key", config.Server.APIKey)
	assert.Equal(t, DriverDiskv, config.Database.Driver)
	assert.Equal(t, "/path/to/state", config.Database.Path)
	assert.Equal(t, "/etc/ecobeehub/server.json", config.Ecobee.CredentialsFile)
	assert.Equal(t, 90*time.Second, config.Ecobee.PollInterval.Std())
	assert.Equal(t, 5*time.Minute, config.Ecobee.PinWindow.Std())
	assert.Equal(t, "text", config.Logging.Format)

	// Test loading non-existent file
	_, err = Load("/nonexistent/config.json")
	assert.ErrorIs(t, err, ErrConfigFileNotFound)

	// Test loading invalid JSON
	invalidPath := filepath.Join(tmpDir, "invalid.json")
	err = os.WriteFile(invalidPath, []byte("invalid json"), 0644)
	require.NoError(t, err)

	_, err = Load(invalidPath)
	assert.Error(t, err)

	// Test loading an invalid duration
	badDuration := filepath.Join(tmpDir, "duration.json")
	err = os.WriteFile(badDuration, []byte(`{"ecobee": {"poll_interval": "soon"}}`), 0644)
	require.NoError(t, err)

	_, err = Load(badDuration)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ECOBEEHUB_HOST", "127.0.0.1")
	t.Setenv("ECOBEEHUB_PORT", "9090")
	t.Setenv("ECOBEEHUB_DB_PATH", "/custom/db/path")
	t.Setenv("ECOBEEHUB_API_KEY", "env-api-key")
	t.Setenv("ECOBEEHUB_CREDENTIALS_FILE", "/custom/server.json")
	t.Setenv("ECOBEEHUB_POLL_INTERVAL", "2m")
	t.Setenv("ECOBEEHUB_TRIGGER_TOKENS", "10")

	config, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "/custom/db/path", config.Database.Path)
	assert.Equal(t, "env-api-key", config.Server.APIKey)
	assert.Equal(t, "/custom/server.json", config.Ecobee.CredentialsFile)
	assert.Equal(t, 2*time.Minute, config.Ecobee.PollInterval.Std())
	assert.Equal(t, uint64(10), config.Limits.TriggerTokens)
}

func TestLoadFromEnv_EnvFile(t *testing.T) {
	t.Setenv("ECOBEEHUB_API_KEY", "env-api-key")
	t.Cleanup(func() { os.Unsetenv("ECOBEEHUB_ECOBEE_SCOPE") })

	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("ECOBEEHUB_ECOBEE_SCOPE=smartRead\nECOBEEHUB_API_KEY=from-file\n"), 0644))

	config, err := LoadFromEnv(envPath, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "smartRead", config.Ecobee.Scope)
	// Existing environment wins over the file
	assert.Equal(t, "env-api-key", config.Server.APIKey)
}

func TestLoadFromEnv_MissingAPIKey(t *testing.T) {
	t.Setenv("ECOBEEHUB_API_KEY", "")

	_, err := LoadFromEnv()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
