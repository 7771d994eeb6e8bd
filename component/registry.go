package component

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var ErrNotFound = errors.New("component not found")

// Factory creates a component from its parameters.
type Factory func(params Parameters) (any, error)

var mux sync.RWMutex
var registry = map[string]Factory{}

// Register makes a component available by name. It panics when the name is
// already registered.
func Register(name string, fn Factory) {
	mux.Lock()
	defer mux.Unlock()
	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("component '%s' already registered", name))
	}
	registry[name] = fn
}

func New(name string, params Parameters) (any, error) {
	mux.RLock()
	fn, ok := registry[name]
	mux.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	c, err := fn(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create component '%s': %w", name, err)
	}
	return c, nil
}

// Names returns the registered component names, sorted.
func Names() []string {
	mux.RLock()
	defer mux.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
