package app

import (
	"context"
	"fmt"

	"github.com/vk/shelfimport/internal/ctxlog"
	"github.com/vk/shelfimport/internal/fsutil"
	"github.com/vk/shelfimport/internal/shelf"
)

// Create replaces the shelf at store with the content of dir: module sources
// become modules, every other file becomes a data resource.
func (a *App) Create(ctx context.Context, store, dir string) error {
	ctx = a.context(ctx)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Reading source tree.", "dir", dir)

	tree, err := fsutil.ReadTree(dir)
	if err != nil {
		return err
	}
	if err := shelf.Create(store, tree.Modules, a.shelfOpts...); err != nil {
		return fmt.Errorf("failed to create shelf: %w", err)
	}

	if len(tree.Data) > 0 {
		s, err := shelf.Open(store, append(a.shelfOpts, shelf.WithWritable())...)
		if err != nil {
			return fmt.Errorf("failed to open shelf for data: %w", err)
		}
		for name, content := range tree.Data {
			if err := s.PutData(name, content); err != nil {
				_ = s.Close()
				return err
			}
		}
		if err := s.Close(); err != nil {
			return err
		}
	}

	logger.Info("Shelf created.", "store", store, "modules", len(tree.Modules), "resources", len(tree.Data))
	fmt.Fprintf(a.outW, "Created %s with %d modules and %d resources\n", store, len(tree.Modules), len(tree.Data))
	return nil
}

// List prints the module keys and then the data keys of the shelf at store.
func (a *App) List(ctx context.Context, store string) error {
	ctxlog.FromContext(a.context(ctx)).Debug("Listing shelf.", "store", store)
	return shelf.View(store, func(s *shelf.Shelf) error {
		keys, err := s.Keys()
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Fprintf(a.outW, "module %s\n", key)
		}
		dataKeys, err := s.DataKeys()
		if err != nil {
			return err
		}
		for _, key := range dataKeys {
			fmt.Fprintf(a.outW, "data   %s\n", key)
		}
		return nil
	}, a.shelfOpts...)
}
