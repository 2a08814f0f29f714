// Package shelf implements the persistent key/value store that module source
// text is kept in.
//
// A shelf is a single bbolt database file holding two buckets:
//
//   - modules: dotted module name -> source text. Packages are stored under
//     their init key ("pkg.__init__"), plain modules under their bare name.
//   - data:    slash separated resource path -> raw bytes. Optional.
//
// The importer never keeps a shelf open between operations. Every lookup goes
// through View, which opens the file read-only, runs the callback and closes
// the file again on every exit path.
package shelf
