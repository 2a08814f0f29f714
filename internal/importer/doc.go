// Package importer implements the import system that sits between callers
// asking for a module by name and the finders and loaders that know where
// module source lives.
//
// An Importer holds an ordered search path of entries (location strings) and
// a list of path hooks. The first time an entry is searched, every hook is
// offered the entry in turn; the first hook that does not decline with
// ErrNotApplicable supplies the Finder for that entry, and the result (even
// "no finder") is cached for the lifetime of the Importer.
//
// Import resolves a dotted name by importing its parent package first and
// then searching the parent's path, or the Importer's own path for top-level
// names. The first Finder that returns a Loader wins and that Loader performs
// the load. Names already present in the registry are returned as-is.
package importer
