package shelfimport

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/vk/shelfimport/internal/ctxlog"
	"github.com/vk/shelfimport/internal/hclexec"
	"github.com/vk/shelfimport/internal/importer"
	"github.com/vk/shelfimport/internal/module"
	"github.com/vk/shelfimport/internal/shelf"
	"github.com/zclconf/go-cty/cty"
)

// Loader loads module source from one shelf file. It keeps nothing but the
// shelf location between calls.
type Loader struct {
	entry string
	opts  []shelf.Option
}

var _ module.Loader = (*Loader)(nil)

// NewLoader returns a Loader reading from the shelf at entry.
func NewLoader(entry string, opts ...shelf.Option) *Loader {
	return &Loader{entry: entry, opts: opts}
}

// Entry returns the shelf location the loader reads from.
func (l *Loader) Entry() string {
	return l.entry
}

func (l *Loader) String() string {
	return fmt.Sprintf("<Loader %q>", l.entry)
}

// Filename returns the synthetic designator source for fullname is compiled
// against.
func (l *Loader) Filename(fullname string) string {
	return fmt.Sprintf("<Loader %q[%s]>", l.entry, fullname)
}

// GetSource returns the stored source of fullname.
func (l *Loader) GetSource(ctx context.Context, fullname string) (string, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading source from shelf.", "module", fullname, "path_entry", l.entry)

	var (
		src   string
		found bool
	)
	err := viewShelf(l.entry, func(s *shelf.Shelf) error {
		key, ok, err := shelf.ResolveKey(s, fullname)
		if err != nil || !ok {
			return err
		}
		src, found, err = s.Get(key)
		return err
	}, l.opts)
	if err != nil {
		logger.Warn("Could not load source.", "module", fullname, "path_entry", l.entry, "error", err)
		return "", err
	}
	if !found {
		// The shelf changed since the finder looked, or the name was never
		// found through this loader.
		logger.Warn("Could not load source.", "module", fullname, "path_entry", l.entry, "error", importer.ErrSourceNotFound)
		return "", fmt.Errorf("%w: %q in %s", importer.ErrSourceNotFound, fullname, l.entry)
	}
	return src, nil
}

// GetCode compiles the stored source of fullname.
func (l *Loader) GetCode(ctx context.Context, fullname string) (*hclexec.Unit, error) {
	ctxlog.FromContext(ctx).Debug("Compiling module.", "module", fullname)
	src, err := l.GetSource(ctx, fullname)
	if err != nil {
		return nil, err
	}
	return hclexec.Compile([]byte(src), l.Filename(fullname))
}

// IsPackage reports whether fullname is stored under its init key.
func (l *Loader) IsPackage(ctx context.Context, fullname string) (bool, error) {
	var pkg bool
	err := viewShelf(l.entry, func(s *shelf.Shelf) error {
		var err error
		pkg, err = s.Has(shelf.InitKey(fullname))
		return err
	}, l.opts)
	return pkg, err
}

// LoadModule compiles fullname and executes it into its module, creating and
// registering the module first when env does not know it yet. On reload the
// registered module is executed into again. If execution fails the module
// stays registered with whatever bindings were made.
func (l *Loader) LoadModule(ctx context.Context, env module.Env, fullname string) (*module.Module, error) {
	logger := ctxlog.FromContext(ctx)

	code, err := l.GetCode(ctx, fullname)
	if err != nil {
		return nil, err
	}

	m, ok := env.Lookup(fullname)
	if ok {
		logger.Debug("Reusing existing module from previous import.", "module", fullname)
	} else {
		logger.Debug("Creating a new module object.", "module", fullname)
		// Registered before execution so that imports of fullname from
		// inside its own body resolve to this module.
		m = env.Register(module.New(fullname))
	}

	pkg, err := l.IsPackage(ctx, fullname)
	if err != nil {
		return nil, err
	}
	id := module.Identity{
		Name:    fullname,
		File:    l.Filename(fullname),
		Package: module.Parent(fullname),
		Loader:  l,
	}
	if pkg {
		logger.Debug("Adding path for package.", "module", fullname)
		id.Path = []string{l.entry}
	} else {
		logger.Debug("Imported as regular module.", "module", fullname)
	}
	m.SetIdentity(id)

	logger.Debug("Executing module source.", "module", fullname)
	err = code.Exec(ctx, m, m.MetaValue(), func(ctx context.Context, name string) (cty.Value, error) {
		dep, err := env.Import(ctx, name)
		if err != nil {
			return cty.NilVal, err
		}
		return dep.Value(), nil
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Module loaded.", "module", fullname, "names", len(m.Names()))
	return m, nil
}

// GetData returns the resource stored at path, which must be addressed as
// "<entry>/<resource>", as built from a package's path.
func (l *Loader) GetData(ctx context.Context, path string) ([]byte, error) {
	resource, ok := strings.CutPrefix(path, l.entry+"/")
	if !ok || resource == "" {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrInvalid}
	}
	ctxlog.FromContext(ctx).Debug("Reading data from shelf.", "resource", resource, "path_entry", l.entry)

	var (
		data  []byte
		found bool
	)
	err := viewShelf(l.entry, func(s *shelf.Shelf) error {
		var err error
		data, found, err = s.GetData(resource)
		return err
	}, l.opts)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	return data, nil
}
