package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiddos-intellect/imgpipe/internal/app"
	"github.com/kiddos-intellect/imgpipe/internal/catalog"
	"github.com/spf13/cobra"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "imgpipe"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	return executeWithParams(app.DefaultRunParams(), version, programName, args)
}

func executeWithParams(params app.RunParams, version, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "WebP asset migration pipeline",
		Long:         "Discover raster images, convert them to WebP, and point source references at the converted assets.",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)
	app.RegisterGlobalFlags(rootCmd.PersistentFlags())

	discoverCmd := &cobra.Command{
		Use:   "discover <root>",
		Short: "List raster images under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunDiscover(cmd.Context(), params, cmd.Flags(), args[0])
		},
	}
	app.RegisterDiscoverFlags(discoverCmd.Flags())

	convertCmd := &cobra.Command{
		Use:   "convert <srcRoot> <dstRoot>",
		Short: "Convert images to WebP into a mirrored destination tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunConvert(cmd.Context(), params, cmd.Flags(), args[0], args[1], false)
		},
	}
	app.RegisterConvertFlags(convertCmd.Flags())

	responsiveCmd := &cobra.Command{
		Use:   "generate-responsive <srcRoot> <dstRoot>",
		Short: "Convert images to WebP at several widths",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunConvert(cmd.Context(), params, cmd.Flags(), args[0], args[1], true)
		},
	}
	app.RegisterResponsiveFlags(responsiveCmd.Flags())

	rewriteCmd := &cobra.Command{
		Use:   "rewrite-refs <sourceRoot> <assetRoot>",
		Short: "Point image references in source files at converted assets",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunRewriteRefs(cmd.Context(), params, cmd.Flags(), args[0], args[1])
		},
	}
	app.RegisterRewriteFlags(rewriteCmd.Flags())

	statusCmd := &cobra.Command{
		Use:   "status <srcRoot> <dstRoot>",
		Short: "Report which images already have a converted counterpart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunStatus(cmd.Context(), params, cmd.Flags(), args[0], args[1])
		},
	}
	app.RegisterStatusFlags(statusCmd.Flags())

	indexCmd := &cobra.Command{
		Use:   "index-refs <sourceRoot>",
		Short: "Build the searchable catalog of image references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunIndexRefs(cmd.Context(), params, cmd.Flags(), args[0])
		},
	}
	app.RegisterIndexFlags(indexCmd.Flags())

	searchCmd := &cobra.Command{
		Use:   "search-refs <query>",
		Short: "Find where an image is referenced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := catalog.SearchArgument{}
			filters.Extension, _ = cmd.Flags().GetString("extension")
			filters.Style, _ = cmd.Flags().GetString("style")
			filters.File, _ = cmd.Flags().GetString("file")
			return app.RunSearchRefs(cmd.Context(), params, cmd.Flags(), args[0], filters)
		},
	}
	app.RegisterSearchFlags(searchCmd.Flags())

	watchCmd := &cobra.Command{
		Use:   "watch <srcRoot> <dstRoot>",
		Short: "Convert images as they are added or changed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunWatch(cmd.Context(), params, cmd.Flags(), args[0], args[1])
		},
	}
	app.RegisterWatchFlags(watchCmd.Flags())

	serveCmd := &cobra.Command{
		Use:   "serve <srcRoot> <dstRoot>",
		Short: "Serve asset status and reference search as MCP tools over stdio",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunServe(cmd.Context(), params, cmd.Flags(), version, args[0], args[1])
		},
	}
	app.RegisterServeFlags(serveCmd.Flags())

	rootCmd.AddCommand(discoverCmd, convertCmd, responsiveCmd, rewriteCmd, statusCmd,
		indexCmd, searchCmd, watchCmd, serveCmd)
	rootCmd.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}
