package mcp

import (
	"github.com/kiddos-intellect/imgpipe/internal/assets"
	"github.com/kiddos-intellect/imgpipe/internal/catalog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name    string
	Version string

	// Catalog provides the reference catalog for search_references. Nil disables the tool.
	Catalog    catalog.CatalogProvider
	MaxResults int

	// Status backs asset_status. Nil disables the tool.
	Status *assets.StatusHandler
}

// CreateServer creates and configures the MCP server
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.Catalog != nil {
		catalog.RegisterSearchTool(s, cfg.Catalog, cfg.MaxResults)
	}
	if cfg.Status != nil {
		assets.RegisterStatusTool(s, cfg.Status)
	}

	return s
}
