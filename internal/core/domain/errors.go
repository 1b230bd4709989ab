package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown provider or format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrCredentialsMissing indicates a provider credential is absent.
	ErrCredentialsMissing = errors.New("credentials missing")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Pipeline Errors.

	// ErrSourceUnreadable indicates the source document cannot be opened.
	ErrSourceUnreadable = errors.New("source document unreadable")

	// ErrEmptyCorpus indicates an index build was attempted over zero chunks.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrDimensionMismatch indicates vectors of inconsistent size.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrArtifactMissing indicates a persisted index artifact is absent.
	ErrArtifactMissing = errors.New("index artifact missing")

	// ErrIndexClosed indicates the vector index has been closed.
	ErrIndexClosed = errors.New("index closed")

	// ErrIndexNotLoaded indicates search was called before the retriever was opened.
	ErrIndexNotLoaded = errors.New("index not loaded")

	// ErrExtractionIncomplete indicates an extraction result has gaps.
	// Downstream numeric models must not consume its debt total.
	ErrExtractionIncomplete = errors.New("extraction incomplete")
)

// ArtifactError reports which persisted artifact is missing and how to produce it.
type ArtifactError struct {
	// Artifact is the logical artifact name (e.g. "index", "metadata").
	Artifact string

	// Path is where the artifact was expected.
	Path string

	// Hint is the action that produces the artifact.
	Hint string
}

// Error implements the error interface.
func (e *ArtifactError) Error() string {
	msg := fmt.Sprintf("%s: %s not found at %s", ErrArtifactMissing, e.Artifact, e.Path)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

// Unwrap lets errors.Is match ErrArtifactMissing.
func (e *ArtifactError) Unwrap() error {
	return ErrArtifactMissing
}
