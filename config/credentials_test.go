package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCredentials(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
	}{
		{name: "valid", content: `{"api_key": "abc123"}`, want: "abc123"},
		{name: "trimmed", content: `{"api_key": "  abc123 \n"}`, want: "abc123"},
		{name: "empty key", content: `{"api_key": ""}`, wantErr: ErrNoAPIKey},
		{name: "missing key", content: `{}`, wantErr: ErrNoAPIKey},
		{name: "invalid json", content: `api_key=abc`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			key, err := LoadCredentials(path)
			if tt.want == "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}

	_, err := LoadCredentials(filepath.Join(tmpDir, "missing.json"))
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestCredentialsFile_RereadsOnEachCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_key": "first"}`), 0600))

	creds := CredentialsFile{Path: path}
	key, err := creds.ClientID()
	require.NoError(t, err)
	assert.Equal(t, "first", key)

	require.NoError(t, os.WriteFile(path, []byte(`{"api_key": "second"}`), 0600))
	key, err = creds.ClientID()
	require.NoError(t, err)
	assert.Equal(t, "second", key)
}
