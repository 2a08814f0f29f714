// Package app wires configuration, logging and the import system together
// and implements the operations the shelf command exposes.
package app
