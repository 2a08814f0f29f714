// Package config loads the runtime configuration of the shelf tool from
// defaults, an optional config file, SHELF_* environment variables and
// command-line flags, in increasing order of precedence.
package config
