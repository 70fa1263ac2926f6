package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "steamcat.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		configData  string
		expectError bool
		errorIs     error
		errorMsg    string
	}{
		{
			name: "valid config",
			configData: `
version: "1.2"
catalog:
  repository: "someone/games"
  path: "archives"
  ref: "release"
  archive_suffix: ".7z"
  page_size: 24
steam:
  enabled: true
  base_url: "https://proxy.example.com/api"
  screenshot_slots: 2
  timeout: "5s"
download:
  output_dir: "/tmp/games"
  timeout: "10m"
  concurrency: 3
storage:
  database_path: "/tmp/steamcat.db"
`,
		},
		{
			name: "minimal config fills defaults",
			configData: `
version: "1.0"
`,
		},
		{
			name: "missing version",
			configData: `
version: ""
catalog:
  repository: "someone/games"
`,
			expectError: true,
			errorIs:     ErrVersionRequired,
		},
		{
			name: "future major version",
			configData: `
version: "2.0"
`,
			expectError: true,
			errorIs:     ErrVersionUnsupported,
		},
		{
			name: "version not semver",
			configData: `
version: "latest"
`,
			expectError: true,
			errorIs:     ErrVersionUnsupported,
		},
		{
			name: "blank repository",
			configData: `
version: "1.0"
catalog:
  repository: ""
`,
			expectError: true,
			errorIs:     ErrRepositoryRequired,
		},
		{
			name: "negative page size",
			configData: `
version: "1.0"
catalog:
  page_size: -1
`,
			expectError: true,
			errorIs:     ErrInvalidPageSize,
		},
		{
			name: "bad timeout",
			configData: `
version: "1.0"
download:
  timeout: "soon"
`,
			expectError: true,
			errorIs:     ErrInvalidDuration,
		},
		{
			name: "unknown scan mode",
			configData: `
version: "1.0"
download:
  scan:
    enabled: true
    mode: "cloud"
`,
			expectError: true,
			errorIs:     ErrInvalidScanMode,
		},
		{
			name: "docker scan",
			configData: `
version: "1.0"
download:
  scan:
    enabled: true
    mode: "docker"
    image: "clamav/clamav:stable"
`,
		},
		{
			name:        "invalid yaml",
			configData:  "version: [1.0",
			expectError: true,
			errorMsg:    "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.configData)

			config, err := LoadConfig(path)
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				if tt.errorIs != nil && !errors.Is(err, tt.errorIs) {
					t.Errorf("Expected error %v, got %v", tt.errorIs, err)
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if config == nil {
				t.Fatal("Expected config but got nil")
			}
		})
	}
}

func TestLoadConfig_Values(t *testing.T) {
	path := writeConfig(t, `
version: "1.0"
catalog:
  repository: "someone/games"
  page_size: 24
steam:
  enabled: false
  timeout: "5s"
download:
  timeout: "10m"
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if config.Catalog.Repository != "someone/games" {
		t.Errorf("Repository = %q", config.Catalog.Repository)
	}
	if config.Catalog.PageSize != 24 {
		t.Errorf("PageSize = %d, want 24", config.Catalog.PageSize)
	}
	if config.Catalog.Ref != DefaultRef {
		t.Errorf("Ref = %q, want default %q", config.Catalog.Ref, DefaultRef)
	}
	if config.Catalog.ArchiveSuffix != DefaultArchiveSuffix {
		t.Errorf("ArchiveSuffix = %q", config.Catalog.ArchiveSuffix)
	}
	if config.Steam.GetTimeout() != 5*time.Second {
		t.Errorf("Steam timeout = %v, want 5s", config.Steam.GetTimeout())
	}
	if config.Steam.MetadataProvider() != "none" {
		t.Errorf("disabled steam provider = %q, want none", config.Steam.MetadataProvider())
	}
	if config.Download.GetTimeout() != 10*time.Minute {
		t.Errorf("Download timeout = %v, want 10m", config.Download.GetTimeout())
	}
	if config.Storage.DatabasePath != DefaultDatabasePath {
		t.Errorf("DatabasePath = %q", config.Storage.DatabasePath)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	config, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if config.Catalog.Repository != DefaultRepository {
		t.Errorf("Repository = %q, want default", config.Catalog.Repository)
	}

	path := writeConfig(t, "version: \"1.0\"\ncatalog:\n  repository: \"x/y\"\n")
	config, err = LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if config.Catalog.Repository != "x/y" {
		t.Errorf("Repository = %q, want x/y", config.Catalog.Repository)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if err := config.Validate(); err != nil {
		t.Fatalf("DefaultConfig() is invalid: %v", err)
	}
	if config.Catalog.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d", config.Catalog.PageSize)
	}
	if config.Steam.ScreenshotSlots != DefaultScreenshotSlots {
		t.Errorf("ScreenshotSlots = %d", config.Steam.ScreenshotSlots)
	}
	if config.Steam.MetadataProvider() != "steam" {
		t.Errorf("provider = %q, want steam", config.Steam.MetadataProvider())
	}
	if config.Download.GetTimeout() != DefaultDownloadTimeout {
		t.Errorf("download timeout = %v", config.Download.GetTimeout())
	}
}

func TestGetTimeout_Fallbacks(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", DefaultSteamTimeout},
		{"garbage", DefaultSteamTimeout},
		{"-1s", DefaultSteamTimeout},
		{"250ms", 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			s := SteamConfig{Timeout: tt.value}
			if got := s.GetTimeout(); got != tt.want {
				t.Errorf("GetTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSaveConfig(t *testing.T) {
	config := DefaultConfig()
	config.Catalog.Repository = "someone/games"
	config.Catalog.PageSize = 30

	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := SaveConfig(config, path); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.Catalog.Repository != "someone/games" || loaded.Catalog.PageSize != 30 {
		t.Errorf("round trip lost values: %+v", loaded.Catalog)
	}
}
