package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/shelfimport/internal/ctxlog"
	"github.com/vk/shelfimport/internal/hclexec"
	"github.com/vk/shelfimport/internal/module"
	"github.com/vk/shelfimport/internal/registry"
)

// Finder maps module names to loaders for one path entry.
type Finder interface {
	// Find returns a loader for fullname, or nil when the entry does not
	// hold it. Errors are fatal for the import in progress.
	Find(ctx context.Context, fullname string) (module.Loader, error)
}

// PathHook builds the Finder for a path entry, or returns an error matching
// ErrNotApplicable when the entry is not one it handles.
type PathHook func(ctx context.Context, entry string) (Finder, error)

// Importer resolves and loads modules. It implements module.Env.
type Importer struct {
	modules *registry.Registry

	mu    sync.Mutex
	path  []string
	hooks []PathHook
	cache map[string]Finder
}

var _ module.Env = (*Importer)(nil)

// New creates an Importer that registers modules in modules and consults
// hooks in the given order.
func New(modules *registry.Registry, hooks ...PathHook) *Importer {
	return &Importer{
		modules: modules,
		hooks:   append([]PathHook(nil), hooks...),
		cache:   make(map[string]Finder),
	}
}

// Modules returns the registry the Importer loads into.
func (im *Importer) Modules() *registry.Registry {
	return im.modules
}

// AddHook appends a path hook. Entries already cached are not re-examined.
func (im *Importer) AddHook(hook PathHook) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.hooks = append(im.hooks, hook)
}

// InsertPath puts entry at the front of the search path.
func (im *Importer) InsertPath(entry string) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.path = append([]string{entry}, im.path...)
}

// AppendPath puts entry at the end of the search path.
func (im *Importer) AppendPath(entry string) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.path = append(im.path, entry)
}

// Path returns a copy of the search path.
func (im *Importer) Path() []string {
	im.mu.Lock()
	defer im.mu.Unlock()
	return append([]string(nil), im.path...)
}

// FinderCache returns a snapshot of the per-entry finder cache. Entries no
// hook accepted map to nil.
func (im *Importer) FinderCache() map[string]Finder {
	im.mu.Lock()
	defer im.mu.Unlock()
	out := make(map[string]Finder, len(im.cache))
	for k, v := range im.cache {
		out[k] = v
	}
	return out
}

// CachedEntries returns the cached entries in sorted order.
func (im *Importer) CachedEntries() []string {
	cache := im.FinderCache()
	entries := make([]string, 0, len(cache))
	for entry := range cache {
		entries = append(entries, entry)
	}
	sort.Strings(entries)
	return entries
}

// InvalidateCaches drops every cached finder.
func (im *Importer) InvalidateCaches() {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.cache = make(map[string]Finder)
}

// Lookup returns the registered module called name.
func (im *Importer) Lookup(name string) (*module.Module, bool) {
	return im.modules.Get(name)
}

// Register stores m unless name is already taken and returns the module that
// ends up registered.
func (im *Importer) Register(m *module.Module) *module.Module {
	registered, _ := im.modules.SetDefault(m)
	return registered
}

// Import returns the module called name, loading it if it is not registered
// yet. A module still being executed is returned as it stands, which is what
// lets mutually importing modules complete.
func (im *Importer) Import(ctx context.Context, name string) (*module.Module, error) {
	if !hclexec.ValidModuleName(name) {
		return nil, &NotFoundError{Name: name, Reason: "invalid module name"}
	}
	if m, ok := im.modules.Get(name); ok {
		return m, nil
	}

	ctx = ctxlog.With(ctx, "module", name)
	logger := ctxlog.FromContext(ctx)

	searchPath, err := im.searchPath(ctx, name)
	if err != nil {
		return nil, err
	}
	loader, err := im.findLoader(ctx, name, searchPath)
	if err != nil {
		return nil, err
	}
	if loader == nil {
		logger.Debug("Module not found on any path entry.", "search_path", searchPath)
		return nil, &NotFoundError{Name: name}
	}

	m, err := loader.LoadModule(ctx, im, name)
	if err != nil {
		return nil, err
	}
	im.bindToParent(m)
	return m, nil
}

// Reload re-executes an imported module into the same module object.
func (im *Importer) Reload(ctx context.Context, name string) (*module.Module, error) {
	if _, ok := im.modules.Get(name); !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotImported, name)
	}

	ctx = ctxlog.With(ctx, "module", name)
	ctxlog.FromContext(ctx).Debug("Reloading module.")

	searchPath, err := im.searchPath(ctx, name)
	if err != nil {
		return nil, err
	}
	loader, err := im.findLoader(ctx, name, searchPath)
	if err != nil {
		return nil, err
	}
	if loader == nil {
		return nil, &NotFoundError{Name: name}
	}
	m, err := loader.LoadModule(ctx, im, name)
	if err != nil {
		return nil, err
	}
	im.bindToParent(m)
	return m, nil
}

// searchPath returns the entries to search for name: the parent package's
// path for dotted names, the Importer's path otherwise.
func (im *Importer) searchPath(ctx context.Context, name string) ([]string, error) {
	parentName := module.Parent(name)
	if parentName == "" {
		return im.Path(), nil
	}
	parent, err := im.Import(ctx, parentName)
	if err != nil {
		return nil, err
	}
	if !parent.IsPackage() {
		return nil, &NotFoundError{Name: name, Reason: fmt.Sprintf("%q is not a package", parentName)}
	}
	return parent.Identity().Path, nil
}

func (im *Importer) findLoader(ctx context.Context, name string, searchPath []string) (module.Loader, error) {
	for _, entry := range searchPath {
		finder, err := im.finderFor(ctx, entry)
		if err != nil {
			return nil, err
		}
		if finder == nil {
			continue
		}
		loader, err := finder.Find(ctx, name)
		if err != nil {
			return nil, err
		}
		if loader != nil {
			return loader, nil
		}
	}
	return nil, nil
}

// finderFor returns the cached finder for entry, building it on first use.
func (im *Importer) finderFor(ctx context.Context, entry string) (Finder, error) {
	im.mu.Lock()
	finder, cached := im.cache[entry]
	hooks := append([]PathHook(nil), im.hooks...)
	im.mu.Unlock()
	if cached {
		return finder, nil
	}

	logger := ctxlog.FromContext(ctx)
	for _, hook := range hooks {
		f, err := hook(ctx, entry)
		if err == nil {
			finder = f
			break
		}
		if errors.Is(err, ErrNotApplicable) {
			logger.Debug("Path hook declined entry.", "path_entry", entry, "reason", err)
			continue
		}
		return nil, fmt.Errorf("path hook failed for %q: %w", entry, err)
	}
	if finder == nil {
		logger.Debug("No finder handles path entry.", "path_entry", entry)
	}

	im.mu.Lock()
	defer im.mu.Unlock()
	if existing, ok := im.cache[entry]; ok {
		return existing, nil
	}
	im.cache[entry] = finder
	return finder, nil
}

// bindToParent makes a sub-module reachable from its package's namespace
// under its last name segment.
func (im *Importer) bindToParent(m *module.Module) {
	name := m.Name()
	parentName := module.Parent(name)
	if parentName == "" {
		return
	}
	parent, ok := im.modules.Get(parentName)
	if !ok {
		return
	}
	parent.Set(name[len(parentName)+1:], m.Value())
}
