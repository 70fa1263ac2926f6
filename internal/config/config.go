// Package config provides configuration management for steamcat.
// It handles the YAML settings file covering the catalog source, Steam
// metadata, downloads and the local ledger.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is looked up in the working directory when no path is given
	DefaultConfigFile = "steamcat.yaml"

	// SupportedVersions is the semver constraint the version field must satisfy
	SupportedVersions = "^1.0"

	DefaultRepository    = "sushi-dev55-alt/sushitools-games-repo-alt"
	DefaultRef           = "main"
	DefaultArchiveSuffix = ".zip"
	DefaultPageSize      = 12

	DefaultSteamBaseURL    = "https://store.steampowered.com/api"
	DefaultImageBaseURL    = "https://cdn.cloudflare.steamstatic.com/steam/apps"
	DefaultScreenshotSlots = 4
	DefaultSteamTimeout    = 15 * time.Second

	DefaultOutputDir           = "downloads"
	DefaultDownloadTimeout     = 5 * time.Minute
	DefaultUserAgent           = "steamcat/1.0"
	DefaultDownloadConcurrency = 2

	DefaultDatabasePath = "steamcat.db"
)

// Sentinel errors for configuration validation
var (
	ErrVersionRequired     = errors.New("version is required")
	ErrVersionUnsupported  = errors.New("unsupported config version")
	ErrRepositoryRequired  = errors.New("catalog.repository is required")
	ErrInvalidPageSize     = errors.New("catalog.page_size must not be negative")
	ErrInvalidSlots        = errors.New("steam.screenshot_slots must not be negative")
	ErrInvalidConcurrency  = errors.New("download.concurrency must not be negative")
	ErrInvalidDuration     = errors.New("invalid duration")
	ErrDatabasePathMissing = errors.New("storage.database_path is required")
	ErrInvalidScanMode     = errors.New("download.scan.mode must be local or docker")
)

// Config represents the top-level configuration structure.
type Config struct {
	Version  string         `yaml:"version"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Steam    SteamConfig    `yaml:"steam"`
	Download DownloadConfig `yaml:"download"`
	Storage  StorageConfig  `yaml:"storage"`
}

// CatalogConfig describes where the archive listing comes from.
type CatalogConfig struct {
	Repository    string `yaml:"repository"` // "owner/repo"
	Path          string `yaml:"path"`
	Ref           string `yaml:"ref"`
	APIBaseURL    string `yaml:"api_base_url"` // GitHub API root, empty for api.github.com
	RawBaseURL    string `yaml:"raw_base_url"` // overrides the URL derived from repository and ref
	ArchiveSuffix string `yaml:"archive_suffix"`
	PageSize      int    `yaml:"page_size"`
	IgnoreFile    string `yaml:"ignore_file"` // YAML or JSON list of app IDs hidden from the catalog
}

// SteamConfig controls detail resolution.
type SteamConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Provider        string `yaml:"provider"` // steam, mock or none
	BaseURL         string `yaml:"base_url"`
	ImageBaseURL    string `yaml:"image_base_url"`
	ScreenshotSlots int    `yaml:"screenshot_slots"`
	Timeout         string `yaml:"timeout"`
}

// DownloadConfig controls archive downloads.
type DownloadConfig struct {
	OutputDir   string     `yaml:"output_dir"`
	Timeout     string     `yaml:"timeout"`
	UserAgent   string     `yaml:"user_agent"`
	Concurrency int        `yaml:"concurrency"`
	Scan        ScanConfig `yaml:"scan"`
}

// ScanConfig enables ClamAV scanning of downloaded archives.
type ScanConfig struct {
	Enabled bool   `yaml:"enabled"`
	Mode    string `yaml:"mode"`  // local or docker
	Image   string `yaml:"image"` // container image for docker mode
}

// StorageConfig represents storage configuration for download tracking.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// GetTimeout parses and returns the Steam API timeout
func (s *SteamConfig) GetTimeout() time.Duration {
	return parseDurationOr(s.Timeout, DefaultSteamTimeout)
}

// GetTimeout parses and returns the download timeout
func (d *DownloadConfig) GetTimeout() time.Duration {
	return parseDurationOr(d.Timeout, DefaultDownloadTimeout)
}

// MetadataProvider returns the provider the Steam section selects.
// A disabled section always resolves offline.
func (s *SteamConfig) MetadataProvider() string {
	if !s.Enabled {
		return "none"
	}
	if s.Provider == "" {
		return "steam"
	}
	return s.Provider
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// LoadConfig loads and parses the configuration from a YAML file.
// Missing fields are filled from DefaultConfig.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// LoadOrDefault loads filePath, or returns DefaultConfig when the file does not exist.
func LoadOrDefault(filePath string) (*Config, error) {
	if filePath == "" {
		filePath = DefaultConfigFile
	}
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return LoadConfig(filePath)
}

// applyDefaults fills fields a YAML file explicitly blanked.
func (c *Config) applyDefaults() {
	if c.Catalog.ArchiveSuffix == "" {
		c.Catalog.ArchiveSuffix = DefaultArchiveSuffix
	}
	if c.Catalog.PageSize == 0 {
		c.Catalog.PageSize = DefaultPageSize
	}
	if c.Steam.BaseURL == "" {
		c.Steam.BaseURL = DefaultSteamBaseURL
	}
	if c.Steam.ImageBaseURL == "" {
		c.Steam.ImageBaseURL = DefaultImageBaseURL
	}
	if c.Steam.ScreenshotSlots == 0 {
		c.Steam.ScreenshotSlots = DefaultScreenshotSlots
	}
	if c.Download.OutputDir == "" {
		c.Download.OutputDir = DefaultOutputDir
	}
	if c.Download.UserAgent == "" {
		c.Download.UserAgent = DefaultUserAgent
	}
	if c.Download.Concurrency == 0 {
		c.Download.Concurrency = DefaultDownloadConcurrency
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = DefaultDatabasePath
	}
}

// Validate validates the configuration structure and required fields.
func (c *Config) Validate() error {
	if c.Version == "" {
		return ErrVersionRequired
	}
	if err := checkVersion(c.Version); err != nil {
		return err
	}
	if c.Catalog.Repository == "" {
		return ErrRepositoryRequired
	}
	if c.Catalog.PageSize < 0 {
		return ErrInvalidPageSize
	}
	if c.Steam.ScreenshotSlots < 0 {
		return ErrInvalidSlots
	}
	if c.Download.Concurrency < 0 {
		return ErrInvalidConcurrency
	}
	if c.Storage.DatabasePath == "" {
		return ErrDatabasePathMissing
	}
	switch c.Download.Scan.Mode {
	case "", "local", "docker":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScanMode, c.Download.Scan.Mode)
	}
	for field, value := range map[string]string{
		"steam.timeout":    c.Steam.Timeout,
		"download.timeout": c.Download.Timeout,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w for %s: %q", ErrInvalidDuration, field, value)
		}
	}
	return nil
}

func checkVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q is not a semantic version", ErrVersionUnsupported, version)
	}
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrVersionUnsupported, version, SupportedVersions)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Catalog: CatalogConfig{
			Repository:    DefaultRepository,
			Ref:           DefaultRef,
			ArchiveSuffix: DefaultArchiveSuffix,
			PageSize:      DefaultPageSize,
		},
		Steam: SteamConfig{
			Enabled:         true,
			Provider:        "steam",
			BaseURL:         DefaultSteamBaseURL,
			ImageBaseURL:    DefaultImageBaseURL,
			ScreenshotSlots: DefaultScreenshotSlots,
			Timeout:         DefaultSteamTimeout.String(),
		},
		Download: DownloadConfig{
			OutputDir:   DefaultOutputDir,
			Timeout:     DefaultDownloadTimeout.String(),
			UserAgent:   DefaultUserAgent,
			Concurrency: DefaultDownloadConcurrency,
		},
		Storage: StorageConfig{
			DatabasePath: DefaultDatabasePath,
		},
	}
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filePath, err)
	}
	return nil
}
