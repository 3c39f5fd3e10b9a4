package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/archive.db")
	t.Setenv("ORG_PREFIX", "TestKombat")
	t.Setenv("BLOB_MAX_BYTES", "1048576")
	t.Setenv("REMOTE_STORAGE_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, "/tmp/archive.db", cfg.Database.Path)
	assert.Equal(t, "TestKombat", cfg.OrgPrefix)
	assert.Equal(t, int64(1048576), cfg.Blob.MaxBytes)
	assert.True(t, cfg.Remote.Enabled)
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "FederKombat", cfg.OrgPrefix)
	assert.Equal(t, int64(5*1024*1024), cfg.Blob.MaxBytes)
	assert.False(t, cfg.Remote.Enabled)
	assert.NotEmpty(t, cfg.Template.Path)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt64(t *testing.T) {
	key := "TEST_INT64_VAR"

	os.Setenv(key, "42")
	assert.Equal(t, int64(42), getEnvInt64(key, 7))

	os.Setenv(key, "invalid")
	assert.Equal(t, int64(7), getEnvInt64(key, 7))

	os.Unsetenv(key)
	assert.Equal(t, int64(7), getEnvInt64(key, 7))
}
