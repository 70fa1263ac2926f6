package sitegen

// SiteModel represents the complete site structure for HTML generation.
type SiteModel struct {
	Title     string
	TotalApps int
	Pages     []IndexPageModel
	Apps      []AppModel
	Genres    []GenreModel
}

// IndexPageModel is one page of the paged catalog index.
type IndexPageModel struct {
	Number     int
	TotalPages int
	Apps       []AppModel
	PrevURL    string
	NextURL    string
}

// AppModel represents one catalog entry with its resolved details.
type AppModel struct {
	Identifier  string   `json:"identifier"`
	Name        string   `json:"name"`
	CoverURL    string   `json:"cover_url"`
	Description string   `json:"description,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Screenshots []string `json:"screenshots,omitempty"`
	SourceName  string   `json:"source_name"`
	DownloadURL string   `json:"download_url"`
	SizeBytes   int64    `json:"size_bytes"`
	State       string   `json:"state"`
}

// GenreModel lists the apps tagged with one genre.
type GenreModel struct {
	Name string
	Slug string
	Apps []AppModel
}
