package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CatalogProvider returns the catalog to search, or an error if none is available yet.
type CatalogProvider func() (*Catalog, error)

// SearchHandler handles the search_references MCP tool.
type SearchHandler struct {
	provider   CatalogProvider
	maxResults int
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(provider CatalogProvider, maxResults int) *SearchHandler {
	return &SearchHandler{
		provider:   provider,
		maxResults: maxResults,
	}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	c, err := h.provider()
	if err != nil {
		return errorResult(fmt.Sprintf("Reference catalog is not available: %s. Run index-refs first.", err)), nil, nil
	}

	results, err := c.Search(ctx, args, h.maxResults)
	if err != nil {
		return errorResult(fmt.Sprintf("Search failed: %s", err)), nil, nil
	}

	return formatResults(results, args.Query), nil, nil
}

// formatResults formats search results for MCP response.
func formatResults(results *SearchResult, queryStr string) *mcp.CallToolResult {
	if results.Total == 0 {
		return textResult(fmt.Sprintf("No references found for: %s", queryStr))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d references for '%s':\n\n", results.Total, queryStr)
	for i, hit := range results.Hits {
		fmt.Fprintf(&sb, "%d. %s:%d  %s  (%s)\n", i+1, hit.File, hit.Line, hit.Path, hit.Style)
	}
	if results.Total > uint64(len(results.Hits)) {
		fmt.Fprintf(&sb, "... and %d more references\n", results.Total-uint64(len(results.Hits)))
	}
	return textResult(sb.String())
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_references",
		Description: "Find where image assets are referenced in the site's source files",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, provider CatalogProvider, maxResults int) {
	handler := NewSearchHandler(provider, maxResults)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	res := textResult(text)
	res.IsError = true
	return res
}
