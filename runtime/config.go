package runtime

import (
	"github.com/pkg/errors"

	"github.com/sergev/eelwasm/compiler"
)

// Config holds the settings a Runtime is created with.
type Config struct {
	// Seed initialises the generator behind the rand shim.
	Seed uint64
	// Shims replaces built-in shim implementations by name. A replacement
	// must be a func(float64) float64 or func(float64, float64) float64
	// matching the shim's arity.
	Shims map[string]any
}

// Option adjusts a Config.
type Option func(*Config)

// WithSeed seeds the rand shim so runs are reproducible.
func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithShim replaces the implementation of one shim.
func WithShim(name string, fn any) Option {
	return func(c *Config) {
		if c.Shims == nil {
			c.Shims = make(map[string]any)
		}
		c.Shims[name] = fn
	}
}

func newConfig(opts []Option) Config {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c Config) validate() error {
	for name, fn := range c.Shims {
		shim, ok := findShim(name)
		if !ok {
			return errors.Errorf("no shim named %q", name)
		}
		var arity int
		switch fn.(type) {
		case func(float64) float64:
			arity = 1
		case func(float64, float64) float64:
			arity = 2
		default:
			return errors.Errorf("shim %q: unsupported implementation type %T", name, fn)
		}
		if arity != shim.Arity() {
			return errors.Errorf("shim %q takes %d arguments, replacement takes %d", name, shim.Arity(), arity)
		}
	}
	return nil
}

func findShim(name string) (compiler.Shim, bool) {
	for _, s := range compiler.Shims {
		if s.Name() == name {
			return s, true
		}
	}
	return 0, false
}
