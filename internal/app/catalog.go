package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kiddos-intellect/imgpipe/internal/catalog"
	"github.com/kiddos-intellect/imgpipe/internal/config"
	"github.com/kiddos-intellect/imgpipe/internal/rewrite"
	"github.com/spf13/pflag"
)

// RunIndexRefs rebuilds the reference catalog from the source files under sourceRoot.
func RunIndexRefs(ctx context.Context, params RunParams, flags *pflag.FlagSet, sourceRoot string) error {
	settings, err := setup(params, flags)
	if err != nil {
		return err
	}

	pattern, err := rewrite.NewPattern(settings.Rewrite.Prefix, settings.Discover.Extensions)
	if err != nil {
		return err
	}

	release, err := acquireTreeLock(settings.Catalog.Dir)
	defer release()
	if err != nil {
		return err
	}

	c, err := catalog.Create(settings.Catalog.Dir)
	if err != nil {
		return err
	}
	defer closeCatalog(c)

	n, err := c.IndexTree(ctx, sourceRoot, sourceFilter(settings), pattern)
	if err != nil {
		return err
	}

	slog.Info("Reference catalog built", "dir", settings.Catalog.Dir, "references", n)
	_, _ = fmt.Fprintf(params.stdout(), "Indexed %d references into %s\n", n, settings.Catalog.Dir)
	return nil
}

// RunSearchRefs prints the catalog entries matching query.
func RunSearchRefs(ctx context.Context, params RunParams, flags *pflag.FlagSet, query string, filters catalog.SearchArgument) error {
	settings, err := setup(params, flags)
	if err != nil {
		return err
	}

	c, err := openCatalog(settings)
	if err != nil {
		return err
	}
	defer closeCatalog(c)

	filters.Query = query
	results, err := c.Search(ctx, filters, settings.Catalog.MaxResults)
	if err != nil {
		return err
	}

	out := params.stdout()
	if results.Total == 0 {
		_, _ = fmt.Fprintf(out, "No references found for: %s\n", query)
		return nil
	}
	for _, hit := range results.Hits {
		_, _ = fmt.Fprintf(out, "%s:%d\t%s\t%s\n", hit.File, hit.Line, hit.Path, hit.Style)
	}
	if results.Total > uint64(len(results.Hits)) {
		_, _ = fmt.Fprintf(out, "... and %d more references\n", results.Total-uint64(len(results.Hits)))
	}
	return nil
}

func openCatalog(settings *config.Settings) (*catalog.Catalog, error) {
	if !catalog.Exists(settings.Catalog.Dir) {
		return nil, fmt.Errorf("no reference catalog at %s (run index-refs first)", settings.Catalog.Dir)
	}
	return catalog.Open(settings.Catalog.Dir)
}

func closeCatalog(c *catalog.Catalog) {
	if err := c.Close(); err != nil {
		slog.Error("Failed to close reference catalog", "error", err)
	}
}
