// Package cli provides the command-line interface for browsing, downloading
// and publishing the game archive catalog.
// It supports YAML configuration files and falls back to built-in defaults.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/clean-dependency-project/steamcat/internal/catalog"
	"github.com/clean-dependency-project/steamcat/internal/clamav"
	"github.com/clean-dependency-project/steamcat/internal/config"
	"github.com/clean-dependency-project/steamcat/internal/download"
	"github.com/clean-dependency-project/steamcat/internal/logger"
	"github.com/clean-dependency-project/steamcat/internal/sitegen"
	"github.com/clean-dependency-project/steamcat/internal/tui"
)

// ErrAppIDRequired is returned when a command needs at least one app ID argument.
var ErrAppIDRequired = errors.New("at least one app ID is required")

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "output",
		Value: "text",
		Usage: "output format (text, json)",
	}
}

// NewApp creates and configures the main CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:     "steamcat",
		Usage:    "Browse and download the game archive catalog",
		Version:  "1.0.0",
		Compiled: time.Now(),
		Authors: []*cli.Author{
			{
				Name:  "Clean Dependency Project",
				Email: "info@example.com",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultConfigFile,
				Usage:   "path to configuration file (defaults apply when it does not exist)",
				EnvVars: []string{"STEAMCAT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level for structured JSON output (debug, info, warn, error)",
				EnvVars: []string{"STEAMCAT_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Print one page of the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "case-insensitive search on app ID and resolved name",
					},
					&cli.IntFlag{
						Name:    "page",
						Aliases: []string{"p"},
						Value:   1,
						Usage:   "page to show, clamped to the available range",
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "entries per page (default from config)",
					},
					&cli.BoolFlag{
						Name:  "resolve",
						Usage: "resolve names and images for the shown page",
					},
					outputFlag(),
				},
				Action: listCommand,
			},
			{
				Name:      "show",
				Usage:     "Resolve and print the details of one app",
				ArgsUsage: "<appid>",
				Flags:     []cli.Flag{outputFlag()},
				Action:    showCommand,
			},
			{
				Name:      "download",
				Usage:     "Download archives into the output directory",
				ArgsUsage: "<appid> [appid...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output-dir",
						Usage: "output directory for downloads (default from config)",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "number of concurrent downloads (default from config)",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "download again even when the ledger has the archive",
					},
					&cli.BoolFlag{
						Name:  "scan",
						Usage: "scan archives with ClamAV before keeping them (default from config)",
					},
					outputFlag(),
				},
				Action: downloadCommand,
			},
			{
				Name:  "history",
				Usage: "Print the download ledger",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "app",
						Usage: "only show attempts for this app ID",
					},
					outputFlag(),
				},
				Action: historyCommand,
			},
			{
				Name:  "browse",
				Usage: "Browse the catalog in an interactive terminal UI",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "log-file",
						Value: "steamcat.log",
						Usage: "file receiving logs while the UI owns the terminal",
					},
				},
				Action: browseCommand,
			},
			{
				Name:  "site",
				Usage: "Generate a static HTML catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Usage:    "output directory for generated HTML files",
						Required: true,
						EnvVars:  []string{"STEAMCAT_SITE_OUT"},
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "build the site model without writing files",
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "apps per index page (default from config)",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Value: catalog.DefaultResolveConcurrency,
						Usage: "number of concurrent metadata lookups",
					},
				},
				Action: siteCommand,
			},
			{
				Name:  "serve",
				Usage: "Preview a generated site over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Value: "site",
						Usage: "directory holding the generated site",
					},
					&cli.StringFlag{
						Name:  "addr",
						Value: "127.0.0.1:8080",
						Usage: "listen address",
					},
				},
				Action: serveCommand,
			},
			{
				Name:  "config",
				Usage: "Inspect or create the configuration file",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the effective configuration",
						Action: configShowCommand,
					},
					{
						Name:  "init",
						Usage: "Write the default configuration to the config path",
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "overwrite an existing file",
							},
						},
						Action: configInitCommand,
					},
				},
			},
		},
	}
}

// commandLoggers creates loggers from the global log-level flag, tagged
// with the running command.
func commandLoggers(c *cli.Context) (*slog.Logger, *slog.Logger) {
	progress, errs := NewLoggers(ParseLogLevelOrDefault(c.String("log-level")))
	if c.Command != nil && c.Command.Name != "" {
		progress = progress.With("command", c.Command.Name)
		errs = errs.With("command", c.Command.Name)
	}
	return progress, errs
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// signalContext cancels on interrupt for long-running commands.
func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

// listCommand implements the list command.
func listCommand(c *cli.Context) error {
	format := c.String("output")
	if err := checkFormat(format); err != nil {
		return err
	}
	stdout, stderr := commandLoggers(c)

	cfg, err := loadConfig(c)
	if err != nil {
		stderr.Error("failed to load config", "error", err)
		return err
	}
	if size := c.Int("page-size"); size > 0 {
		cfg.Catalog.PageSize = size
	}
	svc, err := newServices(cfg, stdout)
	if err != nil {
		return err
	}

	if err := svc.store.Reload(c.Context); err != nil {
		stderr.Error("failed to load catalog", "error", err)
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	svc.store.SetQuery(c.String("query"))
	svc.store.SetPage(c.Int("page"))
	if c.Bool("resolve") {
		svc.store.PrefetchVisible(c.Context, catalog.DefaultResolveConcurrency)
	}

	out := newListOutput(svc.store.View(), svc.store.Resolver().Cache())
	return writeOutput(c.App.Writer, format, out, func(w io.Writer) error {
		return writeListText(w, out)
	})
}

// showCommand implements the show command.
func showCommand(c *cli.Context) error {
	format := c.String("output")
	if err := checkFormat(format); err != nil {
		return err
	}
	identifier := c.Args().First()
	if identifier == "" {
		return ErrAppIDRequired
	}
	stdout, stderr := commandLoggers(c)

	svc, err := loadServices(c.String("config"), stdout)
	if err != nil {
		stderr.Error("failed to initialize", "error", err)
		return err
	}

	// The detail view does not need the listing; without it the entry is templated.
	if err := svc.store.Reload(c.Context); err != nil {
		stderr.Warn("catalog unavailable, using templated entry", "error", err)
	}

	entry, inCatalog := svc.entryFor(identifier)
	out := ShowOutput{
		Entry:     entry,
		InCatalog: inCatalog,
		Detail:    svc.store.Resolver().Resolve(c.Context, identifier),
	}
	return writeOutput(c.App.Writer, format, out, func(w io.Writer) error {
		return writeShowText(w, out)
	})
}

// downloadCommand implements the download command.
func downloadCommand(c *cli.Context) error {
	format := c.String("output")
	if err := checkFormat(format); err != nil {
		return err
	}
	if c.NArg() == 0 {
		return ErrAppIDRequired
	}
	stdout, stderr := commandLoggers(c)

	svc, err := loadServices(c.String("config"), stdout)
	if err != nil {
		stderr.Error("failed to initialize", "error", err)
		return err
	}
	cfg := svc.cfg

	outputDir := c.String("output-dir")
	if outputDir == "" {
		outputDir = cfg.Download.OutputDir
	}
	concurrency := c.Int("concurrency")
	if concurrency < 1 {
		concurrency = cfg.Download.Concurrency
	}

	if err := svc.store.Reload(c.Context); err != nil {
		stderr.Warn("catalog unavailable, using templated download URLs", "error", err)
	}

	entries := make([]catalog.Entry, 0, c.NArg())
	for _, identifier := range c.Args().Slice() {
		entry, inCatalog := svc.entryFor(identifier)
		if !inCatalog {
			stderr.Warn("app not in catalog listing, using templated download URL",
				"identifier", identifier,
				"url", entry.DownloadURL)
		}
		entries = append(entries, entry)
	}

	db, err := initDB(cfg)
	if err != nil {
		stderr.Error("failed to initialize database", "error", err)
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			// Log close error but don't fail - we're in cleanup
			stderr.Warn("failed to close database", "error", closeErr)
		}
	}()

	if c.IsSet("scan") {
		cfg.Download.Scan.Enabled = c.Bool("scan")
	}

	stdout.Info("starting download",
		"apps", len(entries),
		"output_dir", outputDir,
		"concurrency", concurrency,
		"force", c.Bool("force"),
		"scan", cfg.Download.Scan.Enabled)

	ctx, cancel := signalContext(c)
	defer cancel()

	dlConfig := download.Config{
		OutputDir:   outputDir,
		UserAgent:   cfg.Download.UserAgent,
		Timeout:     cfg.Download.GetTimeout(),
		Concurrency: concurrency,
		Force:       c.Bool("force"),
	}
	if cfg.Download.Scan.Enabled {
		scanner, err := clamav.New(clamav.Config{
			Mode:  cfg.Download.Scan.Mode,
			Image: cfg.Download.Scan.Image,
		}, nil, stdout)
		if err != nil {
			return fmt.Errorf("failed to create scanner: %w", err)
		}
		dlConfig.Scanner = scanner
	}

	downloader := download.New(dlConfig, db, stdout)
	summary := newDownloadSummary(outputDir, downloader.DownloadAll(ctx, entries))

	stdout.Info("download summary",
		"total", summary.TotalFiles,
		"successful", summary.Successful,
		"skipped", summary.Skipped,
		"failed", summary.Failed)

	if err := writeOutput(c.App.Writer, format, summary, func(w io.Writer) error {
		return writeDownloadText(w, summary)
	}); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", summary.Failed, summary.TotalFiles)
	}
	return nil
}

// historyCommand implements the history command.
func historyCommand(c *cli.Context) error {
	format := c.String("output")
	if err := checkFormat(format); err != nil {
		return err
	}
	_, stderr := commandLoggers(c)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := initDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			stderr.Warn("failed to close database", "error", closeErr)
		}
	}()

	out, err := collectHistory(db, c.String("app"))
	if err != nil {
		return fmt.Errorf("failed to read download history: %w", err)
	}
	return writeOutput(c.App.Writer, format, out, func(w io.Writer) error {
		return writeHistoryText(w, out)
	})
}

// browseCommand implements the browse command. Logs go to a file because
// the terminal UI owns stdout and stderr while it runs.
func browseCommand(c *cli.Context) error {
	fileLogger, closeLog, err := logger.NewFile(c.String("log-level"), "json", c.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = closeLog() }()

	svc, err := loadServices(c.String("config"), fileLogger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(c)
	defer cancel()

	browser := tui.New(svc.store, tui.Options{
		PrefetchConcurrency: catalog.DefaultResolveConcurrency,
		Logger:              fileLogger,
	})
	return browser.Run(ctx)
}

// siteCommand implements the site command.
func siteCommand(c *cli.Context) error {
	stdout, stderr := commandLoggers(c)

	svc, err := loadServices(c.String("config"), stdout)
	if err != nil {
		stderr.Error("failed to initialize", "error", err)
		return err
	}

	ctx, cancel := signalContext(c)
	defer cancel()

	if err := svc.store.Reload(ctx); err != nil {
		stderr.Error("failed to load catalog", "error", err)
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	pageSize := c.Int("page-size")
	if pageSize < 1 {
		pageSize = svc.cfg.Catalog.PageSize
	}

	generator := sitegen.NewGenerator(svc.store, svc.store.Resolver(), stdout)
	model, err := generator.Generate(ctx, sitegen.GenerateOptions{
		OutputDir:   c.String("out"),
		DryRun:      c.Bool("dry-run"),
		PageSize:    pageSize,
		Concurrency: c.Int("concurrency"),
	})
	if err != nil {
		return fmt.Errorf("site generation failed: %w", err)
	}

	stdout.Info("site generation completed successfully",
		"apps", model.TotalApps,
		"pages", len(model.Pages),
		"genres", len(model.Genres))
	return nil
}

// serveCommand implements the serve command.
func serveCommand(c *cli.Context) error {
	stdout, _ := commandLoggers(c)

	ctx, cancel := signalContext(c)
	defer cancel()

	return sitegen.Serve(ctx, c.String("dir"), c.String("addr"), stdout)
}

// configShowCommand prints the configuration after defaults are applied.
func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = c.App.Writer.Write(data)
	return err
}

// configInitCommand writes the default configuration file.
func configInitCommand(c *cli.Context) error {
	stdout, _ := commandLoggers(c)
	path := c.String("config")

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}
	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		return err
	}
	stdout.Info("wrote default configuration", "path", path)
	return nil
}
