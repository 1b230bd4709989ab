// Package mcp provides an MCP (Model Context Protocol) server adapter for debtscan.
// It lets AI assistants search the indexed filing and request the debt figures.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
