package sitegen

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"log/slog"

	"github.com/clean-dependency-project/steamcat/internal/catalog"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed assets/style.css
var assetsFS embed.FS

// RenderHumanPages generates the browsable HTML catalog.
// Creates directory structure:
//
//	/index.html                 page 1
//	/page/<n>/index.html        page n
//	/app/<id>/index.html        app detail
//	/genres/index.html          genre index
func RenderHumanPages(model *SiteModel, outDir string, logger *slog.Logger) error {
	tmpl, err := loadTemplates()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	if err := writeSiteAssets(outDir, logger); err != nil {
		return fmt.Errorf("failed to write site assets: %w", err)
	}

	for _, page := range model.Pages {
		if err := renderIndexPage(tmpl, model, page, outDir, logger); err != nil {
			return fmt.Errorf("failed to render index page %d: %w", page.Number, err)
		}
	}

	for _, app := range model.Apps {
		if err := renderAppPage(tmpl, model, app, outDir, logger); err != nil {
			return fmt.Errorf("failed to render app page for %s: %w", app.Identifier, err)
		}
	}

	if err := renderGenres(tmpl, model, outDir, logger); err != nil {
		return fmt.Errorf("failed to render genre index: %w", err)
	}

	return nil
}

// writeSiteAssets writes embedded static assets (like CSS) to the output directory.
func writeSiteAssets(outDir string, logger *slog.Logger) error {
	data, err := fs.ReadFile(assetsFS, "assets/style.css")
	if err != nil {
		return fmt.Errorf("failed to read embedded style.css: %w", err)
	}

	path := filepath.Join(outDir, "assets", "style.css")
	if err := writeFileIfChanged(path, data, logger); err != nil {
		return fmt.Errorf("failed to write style.css: %w", err)
	}
	return nil
}

// loadTemplates loads all HTML templates with helper functions.
func loadTemplates() (*template.Template, error) {
	tmpl := template.New("").Funcs(template.FuncMap{
		"formatBytes": catalog.FormatSize,
		"appURL":      appURL,
	})

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read templates directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", entry.Name(), err)
		}
		// Parse with the filename as the template name
		if _, err := tmpl.New(entry.Name()).Parse(string(data)); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", entry.Name(), err)
		}
	}

	return tmpl, nil
}

// renderIndexPage renders one page of the catalog index.
func renderIndexPage(tmpl *template.Template, model *SiteModel, page IndexPageModel, outDir string, logger *slog.Logger) error {
	data := struct {
		Title     string
		TotalApps int
		Page      IndexPageModel
	}{
		Title:     model.Title,
		TotalApps: model.TotalApps,
		Page:      page,
	}

	path := filepath.Join(outDir, "index.html")
	if page.Number > 1 {
		path = filepath.Join(outDir, "page", strconv.Itoa(page.Number), "index.html")
	}
	return executeTo(tmpl, "index.tmpl", data, path, logger)
}

// renderAppPage renders the detail page of one app.
func renderAppPage(tmpl *template.Template, model *SiteModel, app AppModel, outDir string, logger *slog.Logger) error {
	data := struct {
		Title string
		App   AppModel
	}{
		Title: model.Title,
		App:   app,
	}
	path := filepath.Join(outDir, "app", app.Identifier, "index.html")
	return executeTo(tmpl, "app.tmpl", data, path, logger)
}

// renderGenres renders the genre index.
func renderGenres(tmpl *template.Template, model *SiteModel, outDir string, logger *slog.Logger) error {
	path := filepath.Join(outDir, "genres", "index.html")
	return executeTo(tmpl, "genres.tmpl", model, path, logger)
}

func executeTo(tmpl *template.Template, name string, data any, path string, logger *slog.Logger) error {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to execute %s: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return writeFileIfChanged(path, buf.Bytes(), logger)
}

// appURL is the site-relative path of an app page.
func appURL(identifier string) string {
	return "/app/" + identifier + "/"
}

