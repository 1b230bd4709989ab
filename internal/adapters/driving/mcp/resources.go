package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for debtscan resources.
	uriScheme = "debtscan://"

	manifestURI = uriScheme + "index/manifest"
	historyURI  = uriScheme + "index/history"

	// historyLimit bounds the builds listed by the history resource.
	historyLimit = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         manifestURI,
		Name:        "index-manifest",
		Description: "Manifest of the loaded index snapshot: version, model, dimensions and chunk count",
		MIMEType:    "application/json",
	}, s.handleManifestResource)

	s.server.AddResource(&mcp.Resource{
		URI:         historyURI,
		Name:        "index-history",
		Description: "Recently published index snapshots, newest first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// handleManifestResource returns the loaded snapshot manifest.
func (s *Server) handleManifestResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Manifest == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	manifest, ok := s.ports.Manifest.Manifest()
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, manifest)
}

// handleHistoryResource returns the build history, or an empty list when
// no catalog is configured.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.History == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	builds, err := s.ports.History.List(ctx, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}
	if builds == nil {
		builds = []domain.IndexManifest{}
	}
	return jsonResource(req.Params.URI, builds)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
