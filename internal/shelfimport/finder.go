package shelfimport

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/shelfimport/internal/ctxlog"
	"github.com/vk/shelfimport/internal/importer"
	"github.com/vk/shelfimport/internal/module"
	"github.com/vk/shelfimport/internal/shelf"
)

// Finder finds modules stored in one shelf file.
type Finder struct {
	entry string
	opts  []shelf.Option
}

var _ importer.Finder = (*Finder)(nil)

// NewFinder returns a Finder for entry when entry is a valid shelf. Any
// other entry yields an error matching importer.ErrNotApplicable.
func NewFinder(ctx context.Context, entry string, opts ...shelf.Option) (*Finder, error) {
	logger := ctxlog.FromContext(ctx)
	if err := shelf.Validate(entry, opts...); err != nil {
		logger.Debug("Path entry is not a shelf.", "path_entry", entry, "error", err)
		return nil, fmt.Errorf("%w: %w", importer.ErrNotApplicable, err)
	}
	logger.Info("New shelf added to import path.", "path_entry", entry)
	return &Finder{entry: entry, opts: opts}, nil
}

// PathHook returns an importer.PathHook that builds shelf finders.
func PathHook(opts ...shelf.Option) importer.PathHook {
	return func(ctx context.Context, entry string) (importer.Finder, error) {
		f, err := NewFinder(ctx, entry, opts...)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

// Entry returns the shelf location the finder is bound to.
func (f *Finder) Entry() string {
	return f.entry
}

func (f *Finder) String() string {
	return fmt.Sprintf("<Finder %q>", f.entry)
}

// Find returns a Loader when the shelf holds fullname either as a module or
// as a package. A miss returns (nil, nil).
func (f *Finder) Find(ctx context.Context, fullname string) (module.Loader, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Looking for module in shelf.", "module", fullname, "path_entry", f.entry)

	var (
		key   string
		found bool
	)
	err := f.view(func(s *shelf.Shelf) error {
		var err error
		key, found, err = shelf.ResolveKey(s, fullname)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		logger.Debug("Module not in shelf.", "module", fullname, "path_entry", f.entry)
		return nil, nil
	}

	logger.Debug("Found module in shelf.", "module", fullname, "key", key, "path_entry", f.entry)
	return NewLoader(f.entry, f.opts...), nil
}

func (f *Finder) view(fn func(*shelf.Shelf) error) error {
	return viewShelf(f.entry, fn, f.opts)
}

// viewShelf runs fn against the shelf at entry, reporting an open failure as
// importer.ErrStoreUnavailable.
func viewShelf(entry string, fn func(*shelf.Shelf) error, opts []shelf.Option) error {
	var fnErr error
	err := shelf.View(entry, func(s *shelf.Shelf) error {
		fnErr = fn(s)
		return fnErr
	}, opts...)
	if err == nil {
		return nil
	}
	if fnErr != nil && errors.Is(err, fnErr) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", importer.ErrStoreUnavailable, entry, err)
}
