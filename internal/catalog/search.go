package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/kiddos-intellect/imgpipe/internal/domain"
)

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query     string `json:"query" jsonschema_description:"Asset name or path to look for (e.g. hero, books/cover, /images/hero.png)"`
	Extension string `json:"extension,omitempty" jsonschema_description:"Filter by image extension (e.g. png, jpg)"`
	Style     string `json:"style,omitempty" jsonschema_description:"Filter by reference style: quoted or css-url"`
	File      string `json:"file,omitempty" jsonschema_description:"Filter by source file path relative to the scanned root"`
}

// SearchResult is a page of matching references.
type SearchResult struct {
	Total uint64                     `json:"total"`
	Hits  []domain.ReferenceDocument `json:"hits"`
}

// Search finds references matching args, returning at most size hits.
func (c *Catalog) Search(ctx context.Context, args SearchArgument, size int) (*SearchResult, error) {
	if strings.TrimSpace(args.Query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	req := bleve.NewSearchRequest(BuildQuery(args))
	req.Size = size
	req.Fields = []string{
		domain.RefFieldFile, domain.RefFieldPath, domain.RefFieldAsset,
		domain.RefFieldExtension, domain.RefFieldStyle, domain.RefFieldLine,
	}
	req.SortBy([]string{"-_score", domain.RefFieldFile, domain.RefFieldLine})

	results, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	out := &SearchResult{Total: results.Total, Hits: make([]domain.ReferenceDocument, 0, len(results.Hits))}
	for _, hit := range results.Hits {
		doc := domain.ReferenceDocument{ID: hit.ID}
		doc.File, _ = hit.Fields[domain.RefFieldFile].(string)
		doc.Path, _ = hit.Fields[domain.RefFieldPath].(string)
		doc.Asset, _ = hit.Fields[domain.RefFieldAsset].(string)
		doc.Extension, _ = hit.Fields[domain.RefFieldExtension].(string)
		doc.Style, _ = hit.Fields[domain.RefFieldStyle].(string)
		if line, ok := hit.Fields[domain.RefFieldLine].(float64); ok {
			doc.Line = int(line)
		}
		out.Hits = append(out.Hits, doc)
	}
	return out, nil
}

// BuildQuery constructs a Bleve query from search arguments.
func BuildQuery(args SearchArgument) query.Query {
	q := strings.TrimSpace(args.Query)

	// Asset names are analyzed, so partial names match
	assetQuery := bleve.NewMatchQuery(q)
	assetQuery.SetField(domain.RefFieldAsset)
	assetQuery.SetOperator(query.MatchQueryOperatorAnd)

	// Exact literal path with boost
	pathQuery := bleve.NewTermQuery(q)
	pathQuery.SetField(domain.RefFieldPath)
	pathQuery.SetBoost(5.0)

	searchQuery := bleve.NewDisjunctionQuery(assetQuery, pathQuery)

	if args.Extension == "" && args.Style == "" && args.File == "" {
		return searchQuery
	}

	must := []query.Query{searchQuery}

	if args.Extension != "" {
		extQuery := bleve.NewTermQuery(strings.ToLower(strings.TrimPrefix(args.Extension, ".")))
		extQuery.SetField(domain.RefFieldExtension)
		must = append(must, extQuery)
	}
	if args.Style != "" {
		styleQuery := bleve.NewTermQuery(args.Style)
		styleQuery.SetField(domain.RefFieldStyle)
		must = append(must, styleQuery)
	}
	if args.File != "" {
		fileQuery := bleve.NewTermQuery(args.File)
		fileQuery.SetField(domain.RefFieldFile)
		must = append(must, fileQuery)
	}

	return bleve.NewConjunctionQuery(must...)
}
