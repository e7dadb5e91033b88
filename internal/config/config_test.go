package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "env: dev\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Quota.MaxPrivateFilesPerUser)
	assert.Equal(t, 3, cfg.Upload.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Upload.LockTimeout)
	assert.Equal(t, "blake3", cfg.Fingerprint.Algorithm)
	assert.Equal(t, 5*time.Minute, cfg.Cache.DocumentsTTL)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
env: local
storage:
  driver: memory
quota:
  max_private_files_per_user: 5
upload:
  lock_timeout: 250ms
`)

	t.Setenv("MAX_PRIVATE_FILES_PER_USER", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 7, cfg.Quota.MaxPrivateFilesPerUser)
	assert.Equal(t, 250*time.Millisecond, cfg.Upload.LockTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "storage:\n  driver: sqlite\n"},
		{"negative quota", "quota:\n  max_private_files_per_user: -1\n"},
		{"negative attempts", "upload:\n  max_attempts: -2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "does not exist")
}
