package sitegen

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/clean-dependency-project/steamcat/internal/catalog"
)

// DefaultTitle is the heading of the generated site
const DefaultTitle = "Game Catalog"

// BuildModel joins entries with their detail records and pages them.
// records must be in the same order as entries. Catalog order is kept on
// the index pages; genres are sorted by name.
func BuildModel(entries []catalog.Entry, records []catalog.DetailRecord, pageSize int) *SiteModel {
	if pageSize < 1 {
		pageSize = catalog.DefaultPageSize
	}

	titler := cases.Title(language.English)
	apps := make([]AppModel, len(entries))
	byID := make(map[string]AppModel, len(entries))
	for i, e := range entries {
		app := AppModel{
			Identifier:  e.Identifier,
			Name:        catalog.PlaceholderName(e.Identifier),
			SourceName:  e.SourceName,
			DownloadURL: e.DownloadURL,
			SizeBytes:   e.SizeBytes,
			State:       catalog.StateUnresolved.String(),
		}
		if i < len(records) && records[i].Identifier == e.Identifier {
			rec := records[i]
			app.Name = rec.DisplayName
			app.CoverURL = rec.CoverImageURL
			app.Description = rec.ShortDescription
			app.Screenshots = rec.ScreenshotURLs
			app.State = rec.State.String()
			for _, g := range rec.Genres {
				app.Genres = append(app.Genres, titler.String(strings.TrimSpace(g)))
			}
		}
		apps[i] = app
		byID[app.Identifier] = app
	}

	return &SiteModel{
		Title:     DefaultTitle,
		TotalApps: len(apps),
		Pages:     buildPages(entries, byID, pageSize),
		Apps:      apps,
		Genres:    buildGenres(apps),
	}
}

// buildPages pages the catalog with the same pager the CLI and TUI use.
func buildPages(entries []catalog.Entry, byID map[string]AppModel, pageSize int) []IndexPageModel {
	total := catalog.TotalPages(len(entries), pageSize)
	pages := make([]IndexPageModel, 0, total)
	for n := 1; n <= total; n++ {
		page := catalog.Paginate(entries, pageSize, n)
		model := IndexPageModel{
			Number:     page.CurrentPage,
			TotalPages: page.TotalPages,
		}
		for _, e := range page.Items {
			model.Apps = append(model.Apps, byID[e.Identifier])
		}
		if page.HasPrev() {
			model.PrevURL = pageURL(n - 1)
		}
		if page.HasNext() {
			model.NextURL = pageURL(n + 1)
		}
		pages = append(pages, model)
	}
	return pages
}

// buildGenres groups apps by genre. An app appears once per genre.
func buildGenres(apps []AppModel) []GenreModel {
	genreMap := make(map[string][]AppModel)
	for _, app := range apps {
		seen := make(map[string]bool)
		for _, g := range app.Genres {
			if g == "" || seen[g] {
				continue
			}
			seen[g] = true
			genreMap[g] = append(genreMap[g], app)
		}
	}

	genres := make([]GenreModel, 0, len(genreMap))
	for _, name := range sortedStringKeys(genreMap) {
		genres = append(genres, GenreModel{
			Name: name,
			Slug: slugify(name),
			Apps: genreMap[name],
		})
	}
	return genres
}

// pageURL is the site-relative path of index page n.
func pageURL(n int) string {
	if n <= 1 {
		return "/"
	}
	return "/page/" + strconv.Itoa(n) + "/"
}

// slugify lowercases a label and joins its words with hyphens.
func slugify(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, "-")
}

// sortedStringKeys returns sorted keys from a map[string]T.
func sortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
