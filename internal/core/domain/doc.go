// Package domain defines the core business entities for debtscan.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Page: One physical page of a filing with its extracted text
//   - Chunk: A bounded slice of one page with provenance metadata
//   - SearchHit: A chunk resolved from a nearest-neighbour position
//   - ExtractionResult: Debt figures with evidence or the list of gaps
//   - IndexManifest: Provenance of one published index snapshot
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
