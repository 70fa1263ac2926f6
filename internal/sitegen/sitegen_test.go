package sitegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clean-dependency-project/steamcat/internal/catalog"
)

type mockCatalogReader struct {
	entries []catalog.Entry
}

func (m *mockCatalogReader) Entries() []catalog.Entry {
	return m.entries
}

// mapLookup serves metadata from a map; unknown apps fail
type mapLookup map[string]*catalog.Metadata

func (m mapLookup) Lookup(ctx context.Context, identifier string) (*catalog.Metadata, error) {
	if meta, ok := m[identifier]; ok {
		return meta, nil
	}
	return nil, errors.New("app not found")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEntries(ids ...string) []catalog.Entry {
	entries := make([]catalog.Entry, len(ids))
	for i, id := range ids {
		entries[i] = catalog.Entry{
			Identifier:  id,
			SourceName:  id + ".zip",
			DownloadURL: "https://github.com/owner/repo/raw/main/" + id + ".zip",
			SizeBytes:   int64(2048 * (i + 1)),
		}
	}
	return entries
}

func testResolver(lookup catalog.MetadataLookup) *catalog.Resolver {
	return catalog.NewResolver(catalog.NewDetailCache(), lookup, catalog.ResolverConfig{
		ImageBaseURL: "https://img.example.com/apps",
	}, quietLogger())
}

func TestBuildModel(t *testing.T) {
	entries := testEntries("730", "570", "440")
	records := []catalog.DetailRecord{
		{Identifier: "730", DisplayName: "Counter-Strike 2", Genres: []string{"action", "free to play"}, State: catalog.StateResolved},
		{Identifier: "570", DisplayName: "Dota 2", Genres: []string{"Strategy", "action"}, State: catalog.StateResolved},
		{Identifier: "440", DisplayName: "App 440", State: catalog.StateFailed},
	}

	model := BuildModel(entries, records, 2)

	if model.TotalApps != 3 {
		t.Errorf("TotalApps = %d, want 3", model.TotalApps)
	}
	if len(model.Pages) != 2 {
		t.Fatalf("Pages = %d, want 2", len(model.Pages))
	}

	first, second := model.Pages[0], model.Pages[1]
	if len(first.Apps) != 2 || first.Apps[0].Identifier != "730" || first.Apps[1].Identifier != "570" {
		t.Errorf("page 1 apps = %+v", first.Apps)
	}
	if first.PrevURL != "" || first.NextURL != "/page/2/" {
		t.Errorf("page 1 links = %q / %q", first.PrevURL, first.NextURL)
	}
	if len(second.Apps) != 1 || second.PrevURL != "/" || second.NextURL != "" {
		t.Errorf("page 2 = %+v", second)
	}

	if got := model.Apps[0].Genres; fmt.Sprint(got) != "[Action Free To Play]" {
		t.Errorf("genres not title-cased: %v", got)
	}
	if model.Apps[2].State != "failed" {
		t.Errorf("State = %q, want failed", model.Apps[2].State)
	}

	var names []string
	for _, g := range model.Genres {
		names = append(names, g.Name)
	}
	if fmt.Sprint(names) != "[Action Free To Play Strategy]" {
		t.Errorf("genres = %v", names)
	}
	if model.Genres[0].Slug != "action" || len(model.Genres[0].Apps) != 2 {
		t.Errorf("Action genre = %+v", model.Genres[0])
	}
	if model.Genres[1].Slug != "free-to-play" {
		t.Errorf("slug = %q", model.Genres[1].Slug)
	}
}

func TestBuildModel_WithoutRecords(t *testing.T) {
	model := BuildModel(testEntries("730"), nil, 0)

	if len(model.Pages) != 1 {
		t.Fatalf("Pages = %d, want 1", len(model.Pages))
	}
	app := model.Apps[0]
	if app.Name != "App 730" || app.State != "unresolved" {
		t.Errorf("app = %+v", app)
	}
}

func TestBuildModel_Empty(t *testing.T) {
	model := BuildModel(nil, nil, 12)

	if model.TotalApps != 0 || len(model.Apps) != 0 {
		t.Errorf("model = %+v", model)
	}
	if len(model.Pages) != 1 || model.Pages[0].TotalPages != 1 {
		t.Errorf("empty catalog should render one empty page, got %+v", model.Pages)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Action":           "action",
		"Free To Play":     "free-to-play",
		"Massively  Multi": "massively-multi",
		"RPG/Adventure":    "rpg-adventure",
		"":                 "",
	}
	for in, want := range tests {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteFileIfChanged(t *testing.T) {
	tests := []struct {
		name        string
		initialData []byte
		newData     []byte
		shouldWrite bool
	}{
		{name: "new file", initialData: nil, newData: []byte("test content"), shouldWrite: true},
		{name: "file unchanged", initialData: []byte("test content"), newData: []byte("test content"), shouldWrite: false},
		{name: "file changed", initialData: []byte("old content"), newData: []byte("new content"), shouldWrite: true},
		{name: "empty file", initialData: nil, newData: []byte(""), shouldWrite: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(t.TempDir(), "nested", "test.txt")

			if tt.initialData != nil {
				if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(filePath, tt.initialData, 0644); err != nil {
					t.Fatalf("Failed to create initial file: %v", err)
				}
				old := time.Now().Add(-time.Hour)
				if err := os.Chtimes(filePath, old, old); err != nil {
					t.Fatal(err)
				}
			}
			infoBefore, _ := os.Stat(filePath)

			if err := writeFileIfChanged(filePath, tt.newData, quietLogger()); err != nil {
				t.Fatalf("writeFileIfChanged() error = %v", err)
			}

			infoAfter, err := os.Stat(filePath)
			if err != nil {
				t.Fatalf("Failed to stat file after write: %v", err)
			}
			content, err := os.ReadFile(filePath)
			if err != nil {
				t.Fatalf("Failed to read file: %v", err)
			}
			if string(content) != string(tt.newData) {
				t.Errorf("File content = %q, want %q", content, tt.newData)
			}

			written := infoBefore == nil || !infoAfter.ModTime().Equal(infoBefore.ModTime())
			if written != tt.shouldWrite {
				t.Errorf("written = %v, want %v", written, tt.shouldWrite)
			}
		})
	}
}

func TestContentMatches(t *testing.T) {
	large := make([]byte, 2048)
	changed := make([]byte, 2048)
	changed[2000] = 1

	tests := []struct {
		name string
		a    []byte
		b    []byte
		want bool
	}{
		{name: "identical small files", a: []byte("test"), b: []byte("test"), want: true},
		{name: "different small files", a: []byte("test1"), b: []byte("test2"), want: false},
		{name: "identical large files", a: large, b: make([]byte, 2048), want: true},
		{name: "different large files", a: large, b: changed, want: false},
		{name: "different sizes", a: []byte("test"), b: []byte("test longer"), want: false},
		{name: "empty files", a: []byte{}, b: []byte{}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contentMatches(tt.a, tt.b); got != tt.want {
				t.Errorf("contentMatches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewGenerator(t *testing.T) {
	logger := quietLogger()
	reader := &mockCatalogReader{}

	gen := NewGenerator(reader, nil, logger)
	if gen == nil {
		t.Fatal("NewGenerator() returned nil")
	}
	if gen.reader != reader {
		t.Error("NewGenerator() reader mismatch")
	}
	if gen.logger != logger {
		t.Error("NewGenerator() logger mismatch")
	}
}

func TestGenerator_Generate(t *testing.T) {
	lookup := mapLookup{
		"730": {Name: "Counter-Strike 2", ShortDescription: "Tactical <shooter>", Genres: []string{"Action"}},
		"570": {Name: "Dota 2", Genres: []string{"Strategy"}},
	}

	tests := []struct {
		name      string
		entries   []catalog.Entry
		opts      GenerateOptions
		wantErr   bool
		wantFiles []string
		noFiles   bool
	}{
		{
			name:    "missing output dir",
			entries: testEntries("730"),
			opts:    GenerateOptions{},
			wantErr: true,
		},
		{
			name:    "dry run",
			entries: testEntries("730", "570"),
			opts:    GenerateOptions{OutputDir: "tmp", DryRun: true},
			noFiles: true,
		},
		{
			name:    "full site",
			entries: testEntries("730", "570", "440"),
			opts:    GenerateOptions{OutputDir: "tmp", PageSize: 2},
			wantFiles: []string{
				"index.html",
				"page/2/index.html",
				"app/730/index.html",
				"app/570/index.html",
				"app/440/index.html",
				"genres/index.html",
				"assets/style.css",
				"catalog.json",
			},
		},
		{
			name:      "empty catalog",
			entries:   nil,
			opts:      GenerateOptions{OutputDir: "tmp"},
			wantFiles: []string{"index.html", "catalog.json", "genres/index.html"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.opts.OutputDir == "tmp" {
				tt.opts.OutputDir = filepath.Join(t.TempDir(), "site")
			}
			gen := NewGenerator(&mockCatalogReader{entries: tt.entries}, testResolver(lookup), quietLogger())

			model, err := gen.Generate(context.Background(), tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Error("Generate() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate() unexpected error: %v", err)
			}
			if model.TotalApps != len(tt.entries) {
				t.Errorf("TotalApps = %d, want %d", model.TotalApps, len(tt.entries))
			}

			if tt.noFiles {
				if _, err := os.Stat(tt.opts.OutputDir); !os.IsNotExist(err) {
					t.Error("dry run created the output directory")
				}
				return
			}
			for _, f := range tt.wantFiles {
				if _, err := os.Stat(filepath.Join(tt.opts.OutputDir, f)); err != nil {
					t.Errorf("expected %s: %v", f, err)
				}
			}
		})
	}
}

func TestGenerator_Generate_Content(t *testing.T) {
	lookup := mapLookup{
		"730": {Name: "Counter-Strike 2", ShortDescription: "Tactical <shooter>", Genres: []string{"action"}},
	}
	outDir := t.TempDir()
	gen := NewGenerator(&mockCatalogReader{entries: testEntries("730", "999")}, testResolver(lookup), quietLogger())

	if _, err := gen.Generate(context.Background(), GenerateOptions{OutputDir: outDir}); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	appPage, err := os.ReadFile(filepath.Join(outDir, "app", "730", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	html := string(appPage)
	if !strings.Contains(html, "Counter-Strike 2") {
		t.Error("app page missing name")
	}
	if !strings.Contains(html, "Tactical &lt;shooter&gt;") {
		t.Error("description not escaped")
	}
	if !strings.Contains(html, "https://github.com/owner/repo/raw/main/730.zip") {
		t.Error("app page missing download link")
	}

	index, err := os.ReadFile(filepath.Join(outDir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(index), "App 999") {
		t.Error("failed resolution should render the placeholder name")
	}

	data, err := os.ReadFile(filepath.Join(outDir, "catalog.json"))
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		TotalApps int        `json:"total_apps"`
		PageSize  int        `json:"page_size"`
		Apps      []AppModel `json:"apps"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("catalog.json invalid: %v", err)
	}
	if doc.TotalApps != 2 || doc.PageSize != catalog.DefaultPageSize || doc.Apps[1].State != "failed" {
		t.Errorf("catalog.json = %+v", doc)
	}
}

func TestGenerator_Generate_Idempotent(t *testing.T) {
	outDir := t.TempDir()
	gen := NewGenerator(&mockCatalogReader{entries: testEntries("730", "570")}, testResolver(nil), quietLogger())
	opts := GenerateOptions{OutputDir: outDir}

	if _, err := gen.Generate(context.Background(), opts); err != nil {
		t.Fatalf("first Generate() error: %v", err)
	}

	index := filepath.Join(outDir, "index.html")
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(index, old, old); err != nil {
		t.Fatal(err)
	}

	if _, err := gen.Generate(context.Background(), opts); err != nil {
		t.Fatalf("second Generate() error: %v", err)
	}
	info, err := os.Stat(index)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(old) {
		t.Error("unchanged index.html was rewritten")
	}
}

func TestGenerator_Generate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := NewGenerator(&mockCatalogReader{entries: testEntries("730")}, testResolver(mapLookup{}), quietLogger())
	if _, err := gen.Generate(ctx, GenerateOptions{OutputDir: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}

func TestNewPreviewHandler(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>catalog</h1>"), 0644); err != nil {
		t.Fatal(err)
	}

	handler, err := NewPreviewHandler(dir)
	if err != nil {
		t.Fatalf("NewPreviewHandler() error: %v", err)
	}
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "catalog") {
		t.Errorf("preview returned %d %q", resp.StatusCode, body)
	}

	if _, err := NewPreviewHandler(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
	if _, err := NewPreviewHandler(filepath.Join(dir, "index.html")); err == nil {
		t.Error("expected error for a file path")
	}
}
