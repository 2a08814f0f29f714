// Package cli defines the shelf command tree and maps command-line input to
// application operations.
package cli
