package importer

import (
	"errors"
	"fmt"

	"github.com/vk/shelfimport/internal/hclexec"
)

var (
	// ErrNotApplicable is returned by a path hook for entries it does not
	// handle. The import system moves on to the next hook.
	ErrNotApplicable = errors.New("path entry not applicable")
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("module not found")
	// ErrSourceNotFound means a loader could not find source for a name it
	// was asked to load.
	ErrSourceNotFound = errors.New("source not found")
	// ErrStoreUnavailable means a backing store that was usable when its
	// finder was created can no longer be opened.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNotImported is returned when reloading a name that was never imported.
	ErrNotImported = errors.New("module not imported")

	// ErrCompile matches malformed module source.
	ErrCompile = hclexec.ErrCompile
	// ErrExecution matches failures raised while running a module body.
	ErrExecution = hclexec.ErrExecution
)

// NotFoundError reports that no entry on the search path could resolve Name.
type NotFoundError struct {
	Name string
	// Reason optionally explains why the search could not proceed.
	Reason string
}

func (e *NotFoundError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("no module named %q: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("no module named %q", e.Name)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
