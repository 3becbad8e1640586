package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "STAFFSYNC_SOURCE_FILE", EnvKey("source_file"))
	assert.Equal(t, "STAFFSYNC_LOG_LEVEL", EnvKey("log-level"))
	assert.Equal(t, "STAFFSYNC_STORE_PATH", EnvKey("store.path"))
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Setenv("STAFFSYNC_DATABASE", "/tmp/env.db")
	assert.Equal(t, "/tmp/env.db", GetString("database"))

	viper.Set("database", "/tmp/viper.db")
	assert.Equal(t, "/tmp/viper.db", GetString("database"), "viper wins when set")

	assert.Equal(t, "memory", GetStringDefault("store", "memory"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)

	assert.False(t, GetBool("dry_run"))

	t.Setenv("STAFFSYNC_DRY_RUN", "true")
	assert.True(t, GetBool("dry_run"))

	t.Setenv("STAFFSYNC_DRY_RUN", "yes please")
	assert.False(t, GetBool("dry_run"))

	viper.Set("dry_run", true)
	assert.True(t, GetBool("dry_run"))
}
