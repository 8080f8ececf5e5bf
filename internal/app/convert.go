package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/kiddos-intellect/imgpipe/internal/assets"
	"github.com/kiddos-intellect/imgpipe/internal/config"
	"github.com/kiddos-intellect/imgpipe/internal/domain"
	"github.com/spf13/pflag"
)

// RunDiscover prints the absolute path of every matching image under root, one per line.
func RunDiscover(ctx context.Context, params RunParams, flags *pflag.FlagSet, root string) error {
	settings, err := setup(params, flags)
	if err != nil {
		return err
	}

	seq, err := assets.NewDiscoverer(imageFilter(settings)).Discover(root)
	if err != nil {
		return err
	}

	out := params.stdout()
	count := 0
	for path := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, path)
		count++
	}

	slog.Info("Discovery complete", "root", root, "images", count)
	return nil
}

// RunConvert converts every image under srcRoot into dstRoot. With responsive set,
// one output per configured width is produced instead of a single full-size output.
func RunConvert(ctx context.Context, params RunParams, flags *pflag.FlagSet, srcRoot, dstRoot string, responsive bool) error {
	settings, err := setup(params, flags)
	if err != nil {
		return err
	}

	filter := imageFilter(settings)
	seq, err := assets.NewDiscoverer(filter).Discover(srcRoot)
	if err != nil {
		return err
	}

	release, err := acquireTreeLock(dstRoot)
	defer release()
	if err != nil {
		return err
	}

	converter, err := newConverter(params, settings, srcRoot, dstRoot, responsive)
	if err != nil {
		return err
	}

	slog.Info("Converting images", "src", srcRoot, "dst", dstRoot,
		"quality", settings.Convert.Quality, "widths", converter.Options().Widths)

	result, err := converter.Run(ctx, seq)
	if result != nil {
		printSummary(params.stdout(), result.Summary)
	}
	if err != nil {
		return fmt.Errorf("conversion interrupted: %w", err)
	}

	if settings.Convert.ReportPath != "" {
		handler := assets.NewStatusHandler(srcRoot, dstRoot, filter, params.NewEncoder().Extension()).
			WithWidths(converter.Options().Widths)
		report, err := handler.Report()
		if err != nil {
			return fmt.Errorf("failed to build status report: %w", err)
		}
		if err := report.Save(settings.Convert.ReportPath); err != nil {
			return err
		}
		slog.Info("Status report written", "path", settings.Convert.ReportPath)
	}

	return nil
}

func newConverter(params RunParams, settings *config.Settings, srcRoot, dstRoot string, responsive bool) (*assets.Converter, error) {
	opts := assets.ConverterOptions{
		SrcRoot:     srcRoot,
		DstRoot:     dstRoot,
		Quality:     settings.Convert.Quality,
		Concurrency: settings.Convert.Concurrency,
	}
	if responsive {
		if len(settings.Convert.Widths) == 0 {
			return nil, fmt.Errorf("generate-responsive requires at least one width")
		}
		opts.Widths = settings.Convert.Widths
	}
	return assets.NewConverter(opts, params.NewEncoder())
}

func printSummary(w io.Writer, s assets.Summary) {
	_, _ = fmt.Fprintf(w, "Converted: %d\n", s.Converted)
	_, _ = fmt.Fprintf(w, "Failed: %d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Skipped: %d\n", s.Skipped)
	_, _ = fmt.Fprintf(w, "Outputs: %d\n", s.Outputs)
	_, _ = fmt.Fprintf(w, "Original size: %d bytes\n", s.OriginalBytes)
	_, _ = fmt.Fprintf(w, "Converted size: %d bytes\n", s.ConvertedBytes)
	_, _ = fmt.Fprintf(w, "Savings: %.1f%%\n", s.SavingsPercent())
}

// RunStatus reports which originals under srcRoot have a converted counterpart under dstRoot.
func RunStatus(ctx context.Context, params RunParams, flags *pflag.FlagSet, srcRoot, dstRoot string) error {
	settings, err := setup(params, flags)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	handler := assets.NewStatusHandler(srcRoot, dstRoot, imageFilter(settings), params.NewEncoder().Extension())
	report, err := handler.Report()
	if err != nil {
		return err
	}

	out := params.stdout()
	_, _ = fmt.Fprintf(out, "Total images: %d\n", report.TotalImages)
	_, _ = fmt.Fprintf(out, "Converted: %d\n", report.ConvertedCount)
	_, _ = fmt.Fprintf(out, "Missing: %d\n", report.MissingCount)
	_, _ = fmt.Fprintf(out, "Conversion rate: %.1f%%\n", report.ConversionRate)
	for _, m := range report.Missing {
		_, _ = fmt.Fprintf(out, "  missing: %s\n", m)
	}

	if settings.Status.ReportPath != "" {
		if err := report.Save(settings.Status.ReportPath); err != nil {
			return err
		}
		slog.Info("Status report written", "path", settings.Status.ReportPath)
	}
	return nil
}

// RunWatch converts images under srcRoot as they change until ctx is canceled.
func RunWatch(ctx context.Context, params RunParams, flags *pflag.FlagSet, srcRoot, dstRoot string) error {
	settings, err := setup(params, flags)
	if err != nil {
		return err
	}
	if _, err := assets.CheckRoot(srcRoot); err != nil {
		return err
	}

	release, err := acquireTreeLock(dstRoot)
	defer release()
	if err != nil {
		return err
	}

	converter, err := newConverter(params, settings, srcRoot, dstRoot, false)
	if err != nil {
		return err
	}

	watcher, err := assets.NewWatcher(converter, imageFilter(settings), settings.Watch.Debounce)
	if err != nil {
		return err
	}

	out := params.stdout()
	var mu sync.Mutex
	watcher.OnConverted = func(rec domain.ConversionRecord) {
		mu.Lock()
		defer mu.Unlock()
		if rec.Error != "" {
			_, _ = fmt.Fprintf(out, "failed %s: %s\n", rec.Source, rec.Error)
			return
		}
		for _, o := range rec.Outputs {
			_, _ = fmt.Fprintf(out, "converted %s -> %s\n", rec.Source, o)
		}
	}

	return watcher.Run(ctx)
}
