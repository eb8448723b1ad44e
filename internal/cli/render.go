package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowgrid/flowgrid/pkg/cache"
	"github.com/flowgrid/flowgrid/pkg/errors"
	"github.com/flowgrid/flowgrid/pkg/flow"
	"github.com/flowgrid/flowgrid/pkg/render"
	"github.com/flowgrid/flowgrid/pkg/wire"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file path (or base path for multiple formats)
	formats  []string
	module   string // module to render
	detailed bool   // include class and data in node labels
	noCache  bool   // bypass the artifact cache
}

// newRenderCmd creates the render command for rasterizing diagram files.
func newRenderCmd(configPath *string) *cobra.Command {
	var formatsStr string
	opts := renderOpts{module: flow.DefaultModule}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a diagram file to SVG, PNG or DOT",
		Long: `Render a diagram JSON file to one or more image formats.

Examples:
  flowgrid render diagram.json
  flowgrid render diagram.json -f svg,png -o out/diagram
  flowgrid render diagram.json --module Inputs --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			return runRender(cmd.Context(), cfg, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot (comma-separated)")
	cmd.Flags().StringVarP(&opts.module, "module", "m", opts.module, "module to render")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include class and data in node labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the artifact cache")

	return cmd
}

func runRender(ctx context.Context, cfg Config, path string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	snap, err := wire.ImportFile(path)
	if err != nil {
		return err
	}
	mod, ok := snap.Graph[opts.module]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "module %q not in %s", opts.module, path)
	}

	artifacts := newRenderCache(cfg, opts.noCache)
	defer artifacts.Close()

	dot := render.ToDOT(snap, opts.module, render.Options{Detailed: opts.detailed})

	for _, format := range opts.formats {
		data, err := renderArtifact(ctx, artifacts, dot, format)
		if err != nil {
			return err
		}
		out := outputPath(path, opts.output, format, len(opts.formats) > 1)
		if err := os.WriteFile(out, data, 0644); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "write %s", out)
		}
		printFile(out)
	}

	prog.done(fmt.Sprintf("Rendered %d nodes", len(mod.Data)))
	return nil
}

// newRenderCache picks the artifact cache for a CLI run: the file cache so
// artifacts survive across invocations, or the null cache with --no-cache.
func newRenderCache(cfg Config, noCache bool) cache.Cache {
	if noCache || !cfg.Cache.Enabled {
		return cache.NewNullCache()
	}
	dir, err := cfg.Cache.cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

func renderArtifact(ctx context.Context, artifacts cache.Cache, dot, format string) ([]byte, error) {
	if format == "dot" {
		return []byte(dot), nil
	}

	key := cache.ArtifactKey(format, dot)
	if data, ok, _ := artifacts.Get(ctx, key); ok {
		return data, nil
	}

	var data []byte
	var err error
	switch format {
	case "svg":
		data, err = render.RenderSVG(ctx, dot)
	case "png":
		data, err = render.RenderPNG(ctx, dot)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}

	_ = artifacts.Set(ctx, key, data, 0)
	return data, nil
}

// outputPath derives the output file name. With multiple formats, the
// explicit --output is treated as a base path and the extension appended.
func outputPath(input, output, format string, multi bool) string {
	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		return base + "." + format
	}
	if multi {
		return output + "." + format
	}
	return output
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{"svg"}
	}
	return strings.Split(s, ",")
}

func validateFormats(formats []string) error {
	for _, f := range formats {
		switch f {
		case "svg", "png", "dot":
		default:
			return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", f)
		}
	}
	return nil
}
