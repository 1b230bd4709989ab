// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - PageLoader: Reads a filing into per-page text (pdftotext)
//   - Chunker: Splits pages into overlapping bounded chunks
//   - EmbeddingService: Generates vector embeddings (OpenAI, Ollama)
//   - VectorIndex: Flat nearest-neighbour search by Euclidean distance
//   - SnapshotStore: Versioned persistence of index + side tables
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - BuildCatalog: History of published snapshots (SQLite).
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, normaliser, or postprocessor package
package driven
