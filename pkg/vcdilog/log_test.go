package vcdilog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsDevelopmentLogger(t *testing.T) {
	log, err := New("test-component", false)
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.NotPanics(t, func() {
		log.Info("hello", "key", "value")
		log.Debug("debugging", "key", "value")
		log.Trace("tracing")
	})
}

func TestNewBuildsProductionLogger(t *testing.T) {
	log, err := New("prod-component", true)
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNewSimpleDoesNotRequireBuild(t *testing.T) {
	log := NewSimple("simple")
	require.NotNil(t, log)
	assert.NotPanics(t, func() { log.Info("works without Build") })
}

func TestDerivedSubLoggerIsNamed(t *testing.T) {
	log := NewSimple("root")
	child := log.New("child")
	require.NotNil(t, child)
	assert.NotPanics(t, func() { child.Info("from child") })
}
