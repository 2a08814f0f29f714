// Package shelfimport lets the import system load modules from shelf files.
//
// PathHook is registered with an importer.Importer; it accepts every path
// entry that names a valid shelf and declines everything else with
// importer.ErrNotApplicable. The Finder it returns resolves names using the
// shelf key convention (bare name first, then the ".__init__" key of a
// package), and the Loader compiles and executes the stored source.
//
// The shelf is opened read-only around each individual operation and never
// held open in between.
package shelfimport
