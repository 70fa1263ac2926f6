package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/clean-dependency-project/steamcat/internal/catalog"
	"github.com/clean-dependency-project/steamcat/internal/config"
	gh "github.com/clean-dependency-project/steamcat/internal/github"
	"github.com/clean-dependency-project/steamcat/internal/steam"
	"github.com/clean-dependency-project/steamcat/internal/storage"
)

// services bundles the components a command works with.
type services struct {
	cfg    *config.Config
	source *catalog.Source
	store  *catalog.Store
}

// loadServices reads the configuration and wires the catalog source,
// the detail resolver and the browsing store from it.
func loadServices(configPath string, logger *slog.Logger) (*services, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newServices(cfg, logger)
}

func newServices(cfg *config.Config, logger *slog.Logger) (*services, error) {
	ignore, err := config.LoadIgnoreList(cfg.Catalog.IgnoreFile)
	if err != nil {
		return nil, err
	}
	if ignore.Len() > 0 {
		logger.Info("loaded ignore list", "file", cfg.Catalog.IgnoreFile, "patterns", ignore.Len())
	}

	client, err := gh.NewClientWithBaseURL(
		os.Getenv("GITHUB_TOKEN"),
		cfg.Catalog.Repository,
		gh.Directory{Path: cfg.Catalog.Path, Ref: cfg.Catalog.Ref},
		cfg.Catalog.APIBaseURL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	rawBase := cfg.Catalog.RawBaseURL
	if rawBase == "" {
		rawBase = client.RawBaseURL()
	}
	source := catalog.NewSource(client, catalog.SourceConfig{
		RawBaseURL:    rawBase,
		ArchiveSuffix: cfg.Catalog.ArchiveSuffix,
		Skip:          ignore.IsIgnored,
	})

	lookup, err := steam.NewLookup(steam.ClientConfig{
		Provider: cfg.Steam.MetadataProvider(),
		BaseURL:  cfg.Steam.BaseURL,
		Timeout:  cfg.Steam.GetTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata lookup: %w", err)
	}

	resolver := catalog.NewResolver(catalog.NewDetailCache(), lookup, catalog.ResolverConfig{
		ImageBaseURL:    cfg.Steam.ImageBaseURL,
		ScreenshotSlots: cfg.Steam.ScreenshotSlots,
	}, logger)

	logger.Debug("services ready",
		"repository", client.Repository(),
		"path", cfg.Catalog.Path,
		"raw_base_url", rawBase,
		"metadata_provider", cfg.Steam.MetadataProvider())

	return &services{
		cfg:    cfg,
		source: source,
		store:  catalog.NewStore(source, resolver, cfg.Catalog.PageSize, logger),
	}, nil
}

// entryFor returns the catalog entry for identifier, or the templated
// entry when the identifier is not in the loaded catalog.
func (s *services) entryFor(identifier string) (catalog.Entry, bool) {
	if entry, ok := s.store.Entry(identifier); ok {
		return entry, true
	}
	return s.source.EntryFor(identifier), false
}

// initDB initializes the download ledger based on the provided configuration.
func initDB(cfg *config.Config) (*storage.DB, error) {
	return storage.InitDB(storage.Config{
		DatabasePath: cfg.Storage.DatabasePath,
		LogLevel:     "silent",
	})
}
