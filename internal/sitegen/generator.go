package sitegen

import (
	"context"
	"fmt"
	"os"

	"log/slog"

	"github.com/clean-dependency-project/steamcat/internal/catalog"
)

// Generator orchestrates the HTML site generation process.
// Following Dave Cheney's principle: "Accept interfaces, return structs"
type Generator struct {
	reader   CatalogReader
	resolver DetailResolver
	logger   *slog.Logger
}

// NewGenerator creates a new Generator. A nil resolver renders placeholder details.
func NewGenerator(reader CatalogReader, resolver DetailResolver, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		reader:   reader,
		resolver: resolver,
		logger:   logger,
	}
}

// GenerateOptions contains options for site generation.
type GenerateOptions struct {
	OutputDir   string
	DryRun      bool
	PageSize    int
	Concurrency int
}

// Generate resolves every catalog entry and renders the static site.
// In dry-run mode the model is built but nothing is written.
func (g *Generator) Generate(ctx context.Context, opts GenerateOptions) (*SiteModel, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.PageSize < 1 {
		opts.PageSize = catalog.DefaultPageSize
	}

	g.logger.Info("starting site generation", "output_dir", opts.OutputDir, "dry_run", opts.DryRun)

	entries := g.reader.Entries()
	if len(entries) == 0 {
		g.logger.Warn("catalog is empty")
	}

	var records []catalog.DetailRecord
	if g.resolver != nil {
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.Identifier
		}
		records = g.resolver.ResolveAll(ctx, ids, opts.Concurrency)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model := BuildModel(entries, records, opts.PageSize)
	g.logger.Info("built site model",
		"apps", model.TotalApps,
		"pages", len(model.Pages),
		"genres", len(model.Genres),
	)

	if opts.DryRun {
		g.logger.Info("dry-run mode: skipping file writes")
		return model, nil
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := RenderHumanPages(model, opts.OutputDir, g.logger); err != nil {
		return nil, fmt.Errorf("failed to render human pages: %w", err)
	}
	if err := RenderCatalogJSON(model, opts.PageSize, opts.OutputDir, g.logger); err != nil {
		return nil, fmt.Errorf("failed to render catalog.json: %w", err)
	}

	g.logger.Info("site generation completed successfully")
	return model, nil
}
