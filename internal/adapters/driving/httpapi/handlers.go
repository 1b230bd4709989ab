// Package httpapi exposes search and debt extraction over a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driving"
	"github.com/custodia-labs/debtscan/internal/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ManifestProvider reports the manifest of the loaded snapshot.
type ManifestProvider interface {
	Manifest() (domain.IndexManifest, bool)
}

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	search    driving.SearchService
	extractor driving.DebtExtractor
	manifest  ManifestProvider
}

// NewHandler creates a Handler. extractor and manifest may be nil.
func NewHandler(search driving.SearchService, extractor driving.DebtExtractor, manifest ManifestProvider) *Handler {
	return &Handler{
		search:    search,
		extractor: extractor,
		manifest:  manifest,
	}
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// SearchResponse is the body returned by POST /search.
type SearchResponse struct {
	Hits  []domain.SearchHit `json:"hits"`
	Count int                `json:"count"`
}

// ExtractResponse is the body returned by GET /extract.
type ExtractResponse struct {
	*domain.ExtractionResult
	Complete bool `json:"complete"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status   string                `json:"status"`
	Manifest *domain.IndexManifest `json:"manifest,omitempty"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleSearch handles POST /search requests.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	if req.K > driving.MaxSearchK {
		sendError(w, fmt.Errorf("%w: k must be at most %d, got %d", domain.ErrInvalidInput, driving.MaxSearchK, req.K))
		return
	}

	hits, err := h.search.Search(r.Context(), req.Query, req.K)
	if err != nil {
		sendError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, SearchResponse{Hits: hits, Count: len(hits)})
}

// HandleExtract handles GET /extract requests.
// An incomplete extraction is still a 200; Complete reports whether the
// total can be used.
func (h *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		sendJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "debt extraction is not configured"})
		return
	}

	result, err := h.extractor.ExtractDebtTotal(r.Context())
	if err != nil {
		sendError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, ExtractResponse{ExtractionResult: result, Complete: result.Complete()})
}

// HandleHealth handles GET /health requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.manifest != nil {
		if m, ok := h.manifest.Manifest(); ok {
			resp.Manifest = &m
		} else {
			resp.Status = "no index loaded"
			sendJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	sendJSON(w, http.StatusOK, resp)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrIndexNotLoaded),
		errors.Is(err, domain.ErrArtifactMissing),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrCredentialsMissing),
		errors.Is(err, domain.ErrRateLimited):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func sendError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Warn("request failed: %v", err)
	}
	sendJSON(w, status, ErrorResponse{Error: err.Error()})
}

// sendJSON writes a JSON response with the given status code.
func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Debug("encode response: %v", err)
	}
}
