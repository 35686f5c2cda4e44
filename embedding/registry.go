package embedding

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a provider variant from a configuration.
type Factory func(cfg *Config) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a provider variant available under a name. Variant
// packages call Register from init; registering the same name twice
// panics, since it indicates two packages claiming one variant.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("embedding: provider %q registered twice", name))
	}
	registry[name] = factory
}

// New constructs the provider registered under name.
func New(name string, cfg *Config) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return factory(cfg)
}

// Names lists the registered provider variants in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
