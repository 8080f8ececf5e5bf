package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/kiddos-intellect/imgpipe/internal/assets"
	"github.com/kiddos-intellect/imgpipe/internal/rewrite"
	"github.com/spf13/pflag"
)

// RunRewriteRefs points image references under sourceRoot at the converted assets in assetRoot
// and writes the migration report.
func RunRewriteRefs(ctx context.Context, params RunParams, flags *pflag.FlagSet, sourceRoot, assetRoot string) error {
	settings, err := setup(params, flags)
	if err != nil {
		return err
	}

	targetExt := settings.Rewrite.TargetExtension
	index, err := assets.BuildReferenceIndex(assetRoot, []string{targetExt})
	if err != nil {
		return err
	}
	slog.Info("Built reference index", "root", index.Root(), "assets", index.Len())

	destPrefix := settings.Rewrite.DestPrefix
	if destPrefix == "" {
		destPrefix = DefaultDestPrefix(index.Root())
	}

	rw, err := rewrite.New(rewrite.Options{
		SourceRoot:      sourceRoot,
		Prefix:          settings.Rewrite.Prefix,
		DestPrefix:      destPrefix,
		TargetExtension: targetExt,
		ImageExtensions: settings.Discover.Extensions,
		Filter:          sourceFilter(settings),
		DryRun:          settings.Rewrite.DryRun,
		Concurrency:     settings.Rewrite.Concurrency,
	}, index)
	if err != nil {
		return err
	}

	if _, err := assets.CheckRoot(sourceRoot); err != nil {
		return err
	}
	release, err := acquireTreeLock(sourceRoot)
	defer release()
	if err != nil {
		return err
	}

	report, runErr := rw.Run(ctx)
	if report == nil {
		return runErr
	}
	printReport(params.stdout(), report)

	// Files already rewritten stay rewritten, so an interrupted run still records them
	if path := settings.Rewrite.ReportPath; path != "" {
		if err := report.Save(path); err != nil {
			return err
		}
		slog.Info("Migration report written", "path", path, "interrupted", report.Interrupted)
	}
	if runErr != nil {
		return fmt.Errorf("rewrite interrupted: %w", runErr)
	}
	return nil
}

// DefaultDestPrefix derives the public URL prefix of converted assets from
// the asset root's directory name, e.g. "public/images-webp" -> "/images-webp/".
func DefaultDestPrefix(assetRoot string) string {
	return "/" + filepath.Base(filepath.Clean(assetRoot)) + "/"
}

func printReport(w io.Writer, r *rewrite.Report) {
	if r.DryRun {
		_, _ = fmt.Fprintln(w, "Dry run: no files were written")
	}
	_, _ = fmt.Fprintf(w, "Files scanned: %d\n", r.FilesScanned)
	_, _ = fmt.Fprintf(w, "Files updated: %d\n", r.FilesUpdated)
	_, _ = fmt.Fprintf(w, "Files failed: %d\n", r.FilesFailed)
	_, _ = fmt.Fprintf(w, "Replacements: %d\n", r.Replacements)
	_, _ = fmt.Fprintf(w, "Broken references: %d\n", len(r.BrokenReferences))
	for _, b := range r.BrokenReferences {
		_, _ = fmt.Fprintf(w, "  %s (%d files)\n", b.Path, len(b.Files))
	}
}
