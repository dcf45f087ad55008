package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPopulatesStructDefaults(t *testing.T) {
	c := Default()
	assert.False(t, c.Production)
	assert.Equal(t, time.Hour, c.ContextCacheTTL)
	assert.Equal(t, 4, c.SignWorkers)
	assert.Equal(t, 32, c.PoolCapacity)
}

func TestLoadAppliesEnvironmentOverlay(t *testing.T) {
	t.Setenv("VCDI_PRODUCTION", "true")
	t.Setenv("VCDI_SIGN_WORKERS", "8")
	t.Setenv("VCDI_CONTEXT_CACHE_TTL", "30m")

	c, err := Load()
	require.NoError(t, err)
	assert.True(t, c.Production)
	assert.Equal(t, 8, c.SignWorkers)
	assert.Equal(t, 30*time.Minute, c.ContextCacheTTL)
}

func TestLoadUsesDefaultsWhenUnset(t *testing.T) {
	for _, key := range []string{"VCDI_PRODUCTION", "VCDI_SIGN_WORKERS", "VCDI_CONTEXT_CACHE_TTL", "VCDI_POOL_CAPACITY"} {
		os.Unsetenv(key)
	}
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().SignWorkers, c.SignWorkers)
	assert.Equal(t, Default().PoolCapacity, c.PoolCapacity)
}
