// Package testutil holds helpers shared by the package tests: log capture
// and builders for shelf files and source trees.
package testutil
