package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SUBELO_API_PORT", "9999")
	t.Setenv("SUBELO_S3_ACCESS_KEY", "env-access")
	t.Setenv("SUBELO_S3_SECRET_KEY", "env-secret")

	config := LoadConfig()
	assert.Equal(t, "9999", config.Server.Port)
	assert.Equal(t, "env-access", config.S3.AccessKey)
	assert.Equal(t, "env-secret", config.S3.SecretKey)
}

func TestLoadConfig_DefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SUBELO_API_PORT", "")
	t.Setenv("SUBELO_S3_ACCESS_KEY", "")
	t.Setenv("SUBELO_S3_SECRET_KEY", "")

	config := LoadConfig()
	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, "./subelo.db", config.Storage.Database)
}
