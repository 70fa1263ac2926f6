package sitegen

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"log/slog"
)

// writeFileIfChanged writes content to a file only if it differs from existing content.
// Regenerating with the same data produces no changes.
func writeFileIfChanged(path string, content []byte, logger *slog.Logger) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if existingContent, err := os.ReadFile(path); err == nil {
		if contentMatches(existingContent, content) {
			logger.Debug("file unchanged, skipping", "path", path)
			return nil
		}
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Debug("file written", "path", path)
	return nil
}

// contentMatches compares two byte slices for equality.
// Uses SHA256 hash comparison for large files.
func contentMatches(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) < 1024 {
		return bytes.Equal(a, b)
	}
	return sha256.Sum256(a) == sha256.Sum256(b)
}

// catalogDocument is the shape of catalog.json
type catalogDocument struct {
	TotalApps int        `json:"total_apps"`
	PageSize  int        `json:"page_size"`
	Apps      []AppModel `json:"apps"`
}

// RenderCatalogJSON writes catalog.json with every app in catalog order.
func RenderCatalogJSON(model *SiteModel, pageSize int, outDir string, logger *slog.Logger) error {
	doc := catalogDocument{
		TotalApps: model.TotalApps,
		PageSize:  pageSize,
		Apps:      model.Apps,
	}
	if doc.Apps == nil {
		doc.Apps = []AppModel{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	data = append(data, '\n')
	return writeFileIfChanged(filepath.Join(outDir, "catalog.json"), data, logger)
}
