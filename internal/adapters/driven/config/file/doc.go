// Package file provides the TOML-backed configuration store.
// Settings live in ~/.debtscan/config.toml unless a directory is given.
package file
