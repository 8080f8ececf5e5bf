package assets

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgument defines asset_status parameters.
type StatusArgument struct {
	ShowMissing bool `json:"show_missing,omitempty" jsonschema_description:"List the originals that have no converted counterpart"`
	Limit       int  `json:"limit,omitempty" jsonschema_description:"Maximum number of missing originals to list (default 50)"`
}

// defaultMissingLimit caps the missing list in tool output.
const defaultMissingLimit = 50

// StatusHandler handles the asset_status MCP tool.
type StatusHandler struct {
	srcRoot    string
	dstRoot    string
	filter     *FileFilter
	targetExts []string
	widths     []int
}

// NewStatusHandler creates a handler that compares originals under srcRoot
// with converted files (targetExt) under dstRoot on every call.
func NewStatusHandler(srcRoot, dstRoot string, filter *FileFilter, targetExt string) *StatusHandler {
	return &StatusHandler{
		srcRoot:    srcRoot,
		dstRoot:    dstRoot,
		filter:     filter,
		targetExts: []string{targetExt},
	}
}

// WithWidths makes the handler expect one "<name>-<width>w" output per width
// instead of a single full-size output.
func (h *StatusHandler) WithWidths(widths []int) *StatusHandler {
	h.widths = slices.Clone(widths)
	return h
}

// Report builds a fresh status report.
func (h *StatusHandler) Report() (*StatusReport, error) {
	seq, err := NewDiscoverer(h.filter).Discover(h.srcRoot)
	if err != nil {
		return nil, err
	}
	index, err := BuildReferenceIndex(h.dstRoot, h.targetExts)
	if err != nil {
		return nil, err
	}
	return BuildStatusReport(h.srcRoot, h.dstRoot, seq, index, h.targetExts[0], h.widths)
}

// Handle executes the status check and returns a formatted summary.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgument) (*mcp.CallToolResult, any, error) {
	report, err := h.Report()
	if err != nil {
		res := textResult(fmt.Sprintf("Status check failed: %s", err))
		res.IsError = true
		return res, nil, nil
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultMissingLimit
	}
	return textResult(formatStatus(report, args.ShowMissing, limit)), nil, nil
}

func formatStatus(r *StatusReport, showMissing bool, limit int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Source: %s\nDestination: %s\n\n", r.SourceRoot, r.DestRoot)
	fmt.Fprintf(&sb, "Total images: %d\nConverted: %d\nMissing: %d\nConversion rate: %.1f%%\n",
		r.TotalImages, r.ConvertedCount, r.MissingCount, r.ConversionRate)

	if !showMissing || len(r.Missing) == 0 {
		return sb.String()
	}

	sb.WriteString("\nMissing originals:\n")
	for i, m := range r.Missing {
		if i >= limit {
			fmt.Fprintf(&sb, "... and %d more\n", len(r.Missing)-limit)
			break
		}
		fmt.Fprintf(&sb, "- %s\n", m)
	}
	return sb.String()
}

// GetToolDefinition returns the MCP tool definition.
func (h *StatusHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "asset_status",
		Description: "Report how many original images already have a converted WebP counterpart",
	}
}

// RegisterStatusTool registers the status tool with an MCP server.
func RegisterStatusTool(server *mcp.Server, handler *StatusHandler) {
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
