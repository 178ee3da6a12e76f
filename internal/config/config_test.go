package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgekit/forge-go/derivative"
	"github.com/forgekit/forge-go/oauth"
)

// clearEnv unsets every FORGE_* variable so ambient shell state cannot
// leak into tests. t.Setenv restores the originals afterwards.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"FORGE_CLIENT_ID", "FORGE_CLIENT_SECRET", "FORGE_ACCESS_TOKEN",
		"FORGE_REGION", "FORGE_BASE_URL", "FORGE_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_TOMLFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
client_id = "app-id"
client_secret = "app-secret"
region = "EMEA"
log_level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "app-id", cfg.ClientID)
	assert.Equal(t, "app-secret", cfg.ClientSecret)
	assert.Equal(t, "EMEA", cfg.Region)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Empty(t, cfg.BaseURL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
client_id = "file-id"
client_secret = "file-secret"
`)

	t.Setenv("FORGE_CLIENT_ID", "env-id")
	t.Setenv("FORGE_BASE_URL", "http://localhost:8080")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-id", cfg.ClientID)
	assert.Equal(t, "file-secret", cfg.ClientSecret)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
}

func TestLoad_EnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("FORGE_ACCESS_TOKEN", "pre-issued")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)

	assert.Equal(t, "pre-issued", cfg.AccessToken)
	assert.Equal(t, string(derivative.RegionUS), cfg.Region)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `client_id = [not toml`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "app credentials",
			cfg:  Config{ClientID: "id", ClientSecret: "secret", Region: "US"},
		},
		{
			name: "static token",
			cfg:  Config{AccessToken: "tok", Region: "EMEA"},
		},
		{
			name:    "both modes",
			cfg:     Config{ClientID: "id", ClientSecret: "secret", AccessToken: "tok", Region: "US"},
			wantErr: "mutually exclusive",
		},
		{
			name:    "neither mode",
			cfg:     Config{Region: "US"},
			wantErr: "set client_id/client_secret or access_token",
		},
		{
			name:    "missing secret",
			cfg:     Config{ClientID: "id", Region: "US"},
			wantErr: "both client_id and client_secret",
		},
		{
			name:    "missing id",
			cfg:     Config{ClientSecret: "secret", Region: "US"},
			wantErr: "both client_id and client_secret",
		},
		{
			name:    "unknown region",
			cfg:     Config{AccessToken: "tok", Region: "APAC"},
			wantErr: "unknown region",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCredentials_ModeSelection(t *testing.T) {
	appCfg := Config{ClientID: "id", ClientSecret: "secret"}
	creds := appCfg.Credentials()
	appCreds, ok := creds.(oauth.ClientCredentials)
	require.True(t, ok)
	assert.Equal(t, "id", appCreds.ClientID)
	assert.Equal(t, "secret", appCreds.ClientSecret)

	tokenCfg := Config{AccessToken: "tok"}
	creds = tokenCfg.Credentials()
	static, ok := creds.(oauth.StaticToken)
	require.True(t, ok)
	assert.Equal(t, oauth.StaticToken("tok"), static)
}

func TestDerivativeRegion(t *testing.T) {
	cfg := Config{Region: "EMEA"}
	assert.Equal(t, derivative.RegionEMEA, cfg.DerivativeRegion())
}
