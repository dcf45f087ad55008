// Package config holds the operational knobs for pkg/vcdi, sourced from the
// environment. There is no web-server configuration here: the core has no
// HTTP layer.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config controls the core's operational behavior. Zero value is usable;
// Load overlays environment variables prefixed VCDI_.
type Config struct {
	// Production selects the zap production encoder; development otherwise.
	Production bool `envconfig:"PRODUCTION" default:"false"`

	// ContextCacheTTL bounds how long a resolved JSON-LD context is cached.
	ContextCacheTTL time.Duration `envconfig:"CONTEXT_CACHE_TTL" default:"1h"`

	// SignWorkers bounds the goroutine pool used to parallelise
	// per-statement ECDSA signing in the SD base-proof engine. 0 means
	// "sign sequentially".
	SignWorkers int `envconfig:"SIGN_WORKERS" default:"4"`

	// PoolCapacity is the initial byte capacity of each slice the
	// rented-buffer pool hands out; it does not bound how many buffers the
	// pool keeps.
	PoolCapacity int `envconfig:"POOL_CAPACITY" default:"32"`
}

// Load reads Config from the environment, applying the VCDI_ prefix.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("vcdi", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns a Config populated with only its struct defaults, for
// callers that don't want environment overlay (tests, embedding).
func Default() *Config {
	return &Config{
		ContextCacheTTL: time.Hour,
		SignWorkers:     4,
		PoolCapacity:    32,
	}
}
