// Package registry provides the module registry of the import system.
//
// The Registry maps fully dotted names to the module objects produced by
// loaders. It is the single place the import system consults before asking
// any finder, which gives it two jobs beyond caching:
//
//   - Cycle breaking. A loader registers a module before executing its body,
//     so an import of the same name from inside that body (directly or through
//     another module) finds the in-progress module instead of recursing.
//   - Reload. A loader that finds its name already registered re-executes into
//     the registered module instead of creating a new one, preserving identity.
//
// A failed execution leaves the partially populated module registered.
// Callers that want a clean retry must Delete it.
package registry
