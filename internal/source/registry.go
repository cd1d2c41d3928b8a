package source

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DefaultName is the registry entry used when a query names no source.
const DefaultName = "default"

var (
	// ErrConfiguration reports a source config that is missing a required field.
	ErrConfiguration = errors.New("configuration error")

	// ErrLookup reports a source name that was never registered.
	ErrLookup = errors.New("unknown source")
)

// Config holds the connection parameters for one data source.
//
// Address is the driver DSN and is required. User and Credential are
// optional and default to empty.
type Config struct {
	Address    string `yaml:"address"`
	User       string `yaml:"user,omitempty"`
	Credential string `yaml:"credential,omitempty"`
}

// Validate checks that the config carries an address.
func (c Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("%w: source address is required", ErrConfiguration)
	}
	return nil
}

// Registry maps symbolic names to source configs.
//
// The zero value is ready to use. Entries are only ever added or replaced,
// never removed. Registry is safe for concurrent use, though callers are
// not expected to re-register a source while a query against it is running.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Config
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers cfg under name, replacing any previous entry.
// Queries bound by name see the new config on their next execution.
func (r *Registry) Add(name string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("add source %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sources == nil {
		r.sources = make(map[string]Config)
	}
	r.sources[name] = cfg
	return nil
}

// Source returns the config currently registered under name.
func (r *Registry) Source(name string) (Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.sources[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrLookup, name)
	}
	return cfg, nil
}

// Default returns the config registered under DefaultName.
func (r *Registry) Default() (Config, error) {
	return r.Source(DefaultName)
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
