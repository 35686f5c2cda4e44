package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config holds construction-time settings common to store variants.
// Embedded stores use Path; networked stores use Address.
type Config struct {
	// Path is the database directory for embedded stores.
	Path string

	// Address is the endpoint for networked stores,
	// e.g. "localhost:19530" for Milvus.
	Address string

	// Collection names the record collection. Required.
	Collection string

	// InMemory opens embedded stores without touching disk.
	// Intended for tests.
	InMemory bool
}

// Factory constructs a store variant from a configuration.
type Factory func(ctx context.Context, cfg *Config) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a store variant available under a name. Variant
// packages call Register from init; registering the same name twice
// panics.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("vectorstore: store %q registered twice", name))
	}
	registry[name] = factory
}

// New constructs the store registered under name.
func New(ctx context.Context, name string, cfg *Config) (Store, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, name)
	}
	return factory(ctx, cfg)
}

// Names lists the registered store variants in sorted order.
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
