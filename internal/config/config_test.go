package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToml = `
[development]
host = "localhost"
port = 8080
log_level = "trace"
log_to_stdout = true
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "fitlog_dev"
redis_host = "localhost"
redis_port = "6379"
login_rate_limit_allowed_per_min = 15

[production]
host = ""
port = 9000
log_level = "debug"
logs_path = "/var/log/fitlog/service.log"
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "fitlog"
redis_host = "localhost"
redis_port = "6379"
sentry_enabled = true
login_rate_limit_allowed_per_min = 10
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testToml), 0o600))

	cfg, err := Load("development", path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "fitlog_dev", cfg.PostgresDBName)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.LogToStdout)
	assert.False(t, cfg.SentryEnabled)

	cfg, err = Load("prod", path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.SentryEnabled)
	assert.Equal(t, 10, cfg.LoginRateLimitAllowedPerMin)
}

func TestLoad_UnknownEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testToml), 0o600))

	_, err := Load("staging", path)
	require.Error(t, err)
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load("development", filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
