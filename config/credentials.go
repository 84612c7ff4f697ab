package config

import (
	"fmt"
	"os"
	"strings"
)

var ErrNoAPIKey = fmt.Errorf("%w: api_key missing from credentials file", ErrInvalidConfig)

type credentials struct {
	APIKey string `json:"api_key"`
}

// LoadCredentials reads the vendor application key from a JSON file of the
// form {"api_key": "..."}.
func LoadCredentials(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("failed to parse credentials file: %w", err)
	}

	key := strings.TrimSpace(creds.APIKey)
	if key == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}

// CredentialsFile re-reads the credentials file on every call, so a key
// rotated on disk is picked up by the next auth operation.
type CredentialsFile struct {
	Path string
}

// ClientID returns the current application key
func (c CredentialsFile) ClientID() (string, error) {
	return LoadCredentials(c.Path)
}
