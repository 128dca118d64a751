package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/mod/semver"
)

// Factory creates a new engine instance bound to host.
type Factory func(host Host) Midend

// Registration describes a registered puzzle type.
type Registration struct {
	Name string
	// Version is the semantic version of the engine build, e.g. "v1.3.0".
	Version string
	Factory Factory
}

var (
	// ErrUnknownPuzzle indicates no factory is registered under the name.
	ErrUnknownPuzzle = errors.New("unknown puzzle type")
	// ErrIncompatibleEngine indicates an engine build older than required.
	ErrIncompatibleEngine = errors.New("incompatible engine version")
)

type factoryRegistry struct {
	entries map[string]Registration
	mu      sync.RWMutex
}

var registry = &factoryRegistry{entries: make(map[string]Registration)}

// Register makes a puzzle type available to the host. Registering the same
// name twice replaces the earlier entry. The version must be valid semver.
func Register(name, version string, f Factory) {
	if f == nil {
		panic("engine: Register with nil factory for " + name)
	}
	if !semver.IsValid(version) {
		panic(fmt.Sprintf("engine: invalid version %q for %s", version, name))
	}
	registry.mu.Lock()
	registry.entries[name] = Registration{Name: name, Version: semver.Canonical(version), Factory: f}
	registry.mu.Unlock()
}

// Lookup returns the registration for name. When minVersion is non-empty the
// registered engine must be at least that version.
func Lookup(name, minVersion string) (Registration, error) {
	registry.mu.RLock()
	reg, ok := registry.entries[name]
	registry.mu.RUnlock()
	if !ok {
		return Registration{}, fmt.Errorf("%w: %s", ErrUnknownPuzzle, name)
	}
	if minVersion != "" && semver.Compare(reg.Version, minVersion) < 0 {
		return Registration{}, fmt.Errorf("%w: %s is %s, need %s", ErrIncompatibleEngine, name, reg.Version, minVersion)
	}
	return reg, nil
}

// Names returns the registered puzzle types in sorted order.
func Names() []string {
	registry.mu.RLock()
	names := make([]string, 0, len(registry.entries))
	for name := range registry.entries {
		names = append(names, name)
	}
	registry.mu.RUnlock()
	sort.Strings(names)
	return names
}
