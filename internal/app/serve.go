package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kiddos-intellect/imgpipe/internal/assets"
	"github.com/kiddos-intellect/imgpipe/internal/catalog"
	"github.com/kiddos-intellect/imgpipe/internal/config"
	mcputil "github.com/kiddos-intellect/imgpipe/internal/mcp"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"
)

// RunServe serves the asset_status and search_references tools over stdio.
func RunServe(ctx context.Context, params RunParams, flags *pflag.FlagSet, version, srcRoot, dstRoot string) error {
	settings, err := setup(params, flags)
	if err != nil {
		return err
	}
	if _, err := assets.CheckRoot(srcRoot); err != nil {
		return err
	}

	provider := newCatalogProvider(settings)
	defer provider.close()

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:       "imgpipe",
		Version:    version,
		Catalog:    provider.get,
		MaxResults: settings.Catalog.MaxResults,
		Status: assets.NewStatusHandler(srcRoot, dstRoot, imageFilter(settings),
			params.NewEncoder().Extension()),
	})

	// Use custom transport if provided (for testing), otherwise use stdio
	transport := params.CustomIOTransport
	if transport == nil {
		transport = &mcp.StdioTransport{}
	}

	slog.Info("Starting MCP server", "version", version, "src", srcRoot, "dst", dstRoot)
	return server.Run(ctx, transport)
}

// catalogProvider opens the on-disk catalog on first use and keeps it open.
// A failed open is retried on the next call.
type catalogProvider struct {
	settings *config.Settings

	mu      sync.Mutex
	catalog *catalog.Catalog
}

func newCatalogProvider(settings *config.Settings) *catalogProvider {
	return &catalogProvider{settings: settings}
}

func (p *catalogProvider) get() (*catalog.Catalog, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.catalog != nil {
		return p.catalog, nil
	}
	c, err := openCatalog(p.settings)
	if err != nil {
		return nil, err
	}
	p.catalog = c
	return c, nil
}

func (p *catalogProvider) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.catalog != nil {
		closeCatalog(p.catalog)
		p.catalog = nil
	}
}
