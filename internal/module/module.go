// Package module defines the runtime record of one imported unit and the
// contracts a loader and the import system agree on.
package module

import (
	"sort"
	"strings"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Identity holds the metadata a loader attaches to a module.
type Identity struct {
	// Name is the fully dotted module name.
	Name string
	// File is a synthetic designator naming where the source came from.
	File string
	// Path is the search path for sub-modules. It is empty unless the module
	// is a package.
	Path []string
	// Package is the dotted name of the enclosing package, or "" at top level.
	Package string
	// Loader is the loader that populated the module.
	Loader Loader
}

// Module is one imported unit: its identity plus the namespace its source
// populated when it was executed.
type Module struct {
	mu    sync.RWMutex
	id    Identity
	names []string
	ns    map[string]cty.Value
}

// New returns an empty module carrying only its name.
func New(name string) *Module {
	return &Module{
		id: Identity{Name: name},
		ns: make(map[string]cty.Value),
	}
}

// Name returns the module's dotted name.
func (m *Module) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.id.Name
}

// Identity returns a copy of the module's identity.
func (m *Module) Identity() Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id := m.id
	id.Path = append([]string(nil), m.id.Path...)
	if len(id.Path) == 0 {
		id.Path = nil
	}
	return id
}

// SetIdentity replaces the module's identity. Only loaders call this.
func (m *Module) SetIdentity(id Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id.Path = append([]string(nil), id.Path...)
	m.id = id
}

// IsPackage reports whether the module has a search path for sub-modules.
func (m *Module) IsPackage() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.id.Path) > 0
}

// Get returns the value bound to name in the module namespace.
func (m *Module) Get(name string) (cty.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.ns[name]
	return v, ok
}

// Set binds name in the module namespace, replacing any earlier binding.
func (m *Module) Set(name string, v cty.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ns[name]; !ok {
		m.names = append(m.names, name)
	}
	m.ns[name] = v
}

// Names returns the bound names in the order they were first bound.
func (m *Module) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.names...)
}

// Value returns a snapshot of the namespace as a cty object.
func (m *Module) Value() cty.Value {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.ns) == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, len(m.ns))
	for k, v := range m.ns {
		attrs[k] = v
	}
	return cty.ObjectVal(attrs)
}

// MetaValue returns the identity as a cty object, as seen by module source
// through the "module" variable.
func (m *Module) MetaValue() cty.Value {
	id := m.Identity()
	path := cty.ListValEmpty(cty.String)
	if len(id.Path) > 0 {
		vals := make([]cty.Value, len(id.Path))
		for i, p := range id.Path {
			vals[i] = cty.StringVal(p)
		}
		path = cty.ListVal(vals)
	}
	return cty.ObjectVal(map[string]cty.Value{
		"name":    cty.StringVal(id.Name),
		"file":    cty.StringVal(id.File),
		"package": cty.StringVal(id.Package),
		"path":    path,
	})
}

// String renders the module the way diagnostics refer to it.
func (m *Module) String() string {
	id := m.Identity()
	if id.File == "" {
		return "<module " + quote(id.Name) + ">"
	}
	return "<module " + quote(id.Name) + " from " + quote(id.File) + ">"
}

// Parent returns the dotted name of the package enclosing name.
func Parent(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[:i]
}

// SortedNames returns the namespace names in lexical order.
func (m *Module) SortedNames() []string {
	names := m.Names()
	sort.Strings(names)
	return names
}

func quote(s string) string {
	return `"` + s + `"`
}
