package registry

import (
	"sort"
	"sync"

	"github.com/vk/shelfimport/internal/module"
)

// Registry holds every module imported by a single import system instance.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*module.Module
}

// New creates and initializes a new, empty Registry.
func New() *Registry {
	return &Registry{
		modules: make(map[string]*module.Module),
	}
}

// Get returns the module registered under name.
func (r *Registry) Get(name string) (*module.Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// SetDefault registers m under its name unless a module is already registered
// there. It returns the registered module and whether m was the one stored.
func (r *Registry) SetDefault(m *module.Module) (*module.Module, bool) {
	name := m.Name()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.modules[name]; ok {
		return existing, false
	}
	r.modules[name] = m
	return m, true
}

// Delete removes name from the registry.
func (r *Registry) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.modules, name)
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}
