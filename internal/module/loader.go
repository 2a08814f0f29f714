package module

import (
	"context"

	"github.com/vk/shelfimport/internal/hclexec"
)

// Loader turns a module name into a fully executed module.
type Loader interface {
	// GetSource returns the source text stored for fullname.
	GetSource(ctx context.Context, fullname string) (string, error)
	// GetCode compiles the source of fullname.
	GetCode(ctx context.Context, fullname string) (*hclexec.Unit, error)
	// IsPackage reports whether fullname is stored as a package.
	IsPackage(ctx context.Context, fullname string) (bool, error)
	// LoadModule executes fullname into a module registered with env.
	LoadModule(ctx context.Context, env Env, fullname string) (*Module, error)
	// GetData returns a non-code resource addressed relative to the loader's
	// path entry.
	GetData(ctx context.Context, path string) ([]byte, error)
}

// Env is the part of the import system a loader talks to while loading.
type Env interface {
	// Lookup returns the registered module called name.
	Lookup(name string) (*Module, bool)
	// Register stores m unless a module with the same name is already
	// registered, and returns whichever module is registered afterwards.
	Register(m *Module) *Module
	// Import resolves and loads name, returning the registered module
	// immediately when it is already present.
	Import(ctx context.Context, name string) (*Module, error)
}
