package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/shelfimport/internal/ctxlog"
	"github.com/vk/shelfimport/internal/module"
)

// ImportOptions selects the extra work Import does.
type ImportOptions struct {
	// Reload re-executes every module after it was imported.
	Reload bool
	// ShowCache prints the path importer cache once all names are imported.
	ShowCache bool
}

// Import imports each name in turn and prints what the module holds.
func (a *App) Import(ctx context.Context, names []string, opts ImportOptions) error {
	ctx = a.context(ctx)
	logger := ctxlog.FromContext(ctx)

	for _, name := range names {
		logger.Debug("Importing module.", "module", name)
		m, err := a.importer.Import(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", name, err)
		}
		a.printModule(m)

		if opts.Reload {
			logger.Debug("Reloading module.", "module", name)
			reloaded, err := a.importer.Reload(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to reload %s: %w", name, err)
			}
			fmt.Fprintf(a.outW, "Reloaded  : %s (same object: %t)\n", name, reloaded == m)
			a.printModule(reloaded)
		}
	}

	if opts.ShowCache {
		a.printCache()
	}
	return nil
}

// Data imports the package moduleName and prints the resource stored next to
// it.
func (a *App) Data(ctx context.Context, moduleName, resource string) error {
	ctx = a.context(ctx)
	m, err := a.importer.Import(ctx, moduleName)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", moduleName, err)
	}
	id := m.Identity()
	if len(id.Path) == 0 {
		return fmt.Errorf("%s is not a package and has no data", moduleName)
	}
	data, err := id.Loader.GetData(ctx, id.Path[0]+"/"+resource)
	if err != nil {
		return err
	}
	_, err = a.outW.Write(data)
	return err
}

func (a *App) printModule(m *module.Module) {
	id := m.Identity()
	fmt.Fprintf(a.outW, "Name      : %s\n", id.Name)
	fmt.Fprintf(a.outW, "Package   : %s\n", id.Package)
	fmt.Fprintf(a.outW, "File      : %s\n", id.File)
	fmt.Fprintf(a.outW, "Path      : %s\n", strings.Join(id.Path, ", "))
	fmt.Fprintf(a.outW, "Loader    : %v\n", id.Loader)
	for _, name := range m.SortedNames() {
		v, _ := m.Get(name)
		fmt.Fprintf(a.outW, "  %s = %s\n", name, hclwrite.TokensForValue(v).Bytes())
	}
	fmt.Fprintln(a.outW)
}

func (a *App) printCache() {
	fmt.Fprintln(a.outW, "PATH IMPORTER CACHE:")
	cache := a.importer.FinderCache()
	for _, entry := range a.importer.CachedEntries() {
		finder := cache[entry]
		if finder == nil {
			fmt.Fprintf(a.outW, "  %s: None\n", entry)
			continue
		}
		fmt.Fprintf(a.outW, "  %s: %v\n", entry, finder)
	}
}
