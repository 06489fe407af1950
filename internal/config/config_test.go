package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		environ []string
		wantErr string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			yaml: ``,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "file overrides defaults",
			yaml: `
log_level: DEBUG
session:
  store: database
  ttl: 1h
`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, LogLevelDebug, cfg.LogLevel)
				assert.Equal(t, SessionStoreDatabase, cfg.Session.Store)
				assert.Equal(t, time.Hour, cfg.Session.TTL)
				assert.Equal(t, DriverSQLite, cfg.Database.Driver)
			},
		},
		{
			name:    "environment overrides file",
			yaml:    `web_address: "localhost:1234"`,
			environ: []string{
				"GATHER_WEB_ADDRESS=localhost:4321",
				"GATHER_SESSION_SECURE_COOKIE=true",
				"GATHER_SERVER_WRITE_TIMEOUT=30s",
				"UNRELATED",
			},
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "localhost:4321", cfg.WebAddress)
				assert.True(t, cfg.Session.SecureCookie)
				assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
			},
		},
		{
			name:    "postgres from environment",
			environ: []string{"GATHER_DATABASE_DRIVER=postgres", "GATHER_DATABASE_URL=postgres://localhost/gather"},
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "postgres://localhost/gather", cfg.DSN())
			},
		},
		{
			name:    "postgres without url fails validation",
			yaml:    "database:\n  driver: postgres",
			wantErr: "config validation failed",
		},
		{
			name:    "unknown log level fails validation",
			yaml:    `log_level: LOUD`,
			wantErr: "config validation failed",
		},
		{
			name:    "unknown session store fails validation",
			yaml:    "session:\n  store: redis",
			wantErr: "config validation failed",
		},
		{
			name:    "non-positive ttl fails validation",
			environ: []string{"GATHER_SESSION_TTL=0s"},
			wantErr: "config validation failed",
		},
		{
			name:    "non-positive server timeout fails validation",
			yaml:    "server:\n  shutdown_timeout: 0s\n",
			wantErr: "config validation failed",
		},
		{
			name:    "malformed environment value",
			environ: []string{"GATHER_DEV_MODE=sometimes"},
			wantErr: "failed to parse environment",
		},
		{
			name:    "invalid yaml syntax",
			yaml:    `invalid: [yaml: content`,
			wantErr: "failed to unmarshal config file",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			path := writeTestConfig(t, test.yaml)
			cfg, err := Load(path, test.environ)

			if test.wantErr != "" {
				require.ErrorContains(t, err, test.wantErr)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			test.check(t, cfg)
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "gather.yaml")
	cfg := Default()
	cfg.Session.TTL = 45 * time.Minute
	require.NoError(t, Write(path, cfg))

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)
	return path
}
