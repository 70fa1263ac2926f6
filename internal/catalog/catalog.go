// Package catalog provides the in-memory game catalog: loading archive
// listings, searching, paging, lazy detail resolution and selection.
// Following Dave Cheney's principle: "Accept interfaces, return structs"
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultArchiveSuffix is the file suffix of downloadable archives
	DefaultArchiveSuffix = ".zip"

	// FileTypeFile is the listing type of a regular file
	FileTypeFile = "file"
)

// ErrFetch matches every catalog load failure via errors.Is.
var ErrFetch = errors.New("catalog fetch failed")

// FetchError represents a failed catalog load.
// StatusCode is zero for transport failures.
type FetchError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog fetch failed: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("catalog fetch failed: %s", e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// Entry represents one downloadable archive in the catalog.
type Entry struct {
	Identifier  string `json:"identifier"`
	SourceName  string `json:"source_name"`
	DownloadURL string `json:"download_url"`
	SizeBytes   int64  `json:"size_bytes"`
}

// FormatSize formats a byte count as a human-readable string.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FileDescriptor is one item of a remote directory listing.
type FileDescriptor struct {
	Name string
	Type string
	Size int64
}

// Lister abstracts the remote directory listing.
type Lister interface {
	// ListFiles returns the listing in remote order.
	ListFiles(ctx context.Context) ([]FileDescriptor, error)
}

// Loader abstracts catalog loading for the store.
type Loader interface {
	LoadCatalog(ctx context.Context) ([]Entry, error)
}

// SourceConfig holds the URL construction settings of a Source.
type SourceConfig struct {
	RawBaseURL    string
	ArchiveSuffix string

	// Skip hides identifiers from the catalog when it returns true. Optional.
	Skip func(identifier string) bool
}

// Source turns a remote directory listing into catalog entries.
type Source struct {
	lister Lister
	config SourceConfig
}

// NewSource creates a Source reading from lister.
func NewSource(lister Lister, config SourceConfig) *Source {
	if config.ArchiveSuffix == "" {
		config.ArchiveSuffix = DefaultArchiveSuffix
	}
	return &Source{
		lister: lister,
		config: config,
	}
}

// LoadCatalog fetches the listing and keeps archive files in listing order.
// Duplicate names are passed through unchanged.
// On failure it returns a *FetchError and no entries.
func (s *Source) LoadCatalog(ctx context.Context) ([]Entry, error) {
	files, err := s.lister.ListFiles(ctx)
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, &FetchError{Message: err.Error(), Err: err}
	}

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		if f.Type != FileTypeFile || !strings.HasSuffix(f.Name, s.config.ArchiveSuffix) {
			continue
		}
		identifier := strings.TrimSuffix(f.Name, s.config.ArchiveSuffix)
		if s.config.Skip != nil && s.config.Skip(identifier) {
			continue
		}
		size := f.Size
		if size < 0 {
			size = 0
		}
		entries = append(entries, Entry{
			Identifier:  identifier,
			SourceName:  f.Name,
			DownloadURL: DownloadURL(s.config.RawBaseURL, f.Name),
			SizeBytes:   size,
		})
	}
	return entries, nil
}

// EntryFor builds the entry an identifier would have without a listing.
func (s *Source) EntryFor(identifier string) Entry {
	name := identifier + s.config.ArchiveSuffix
	return Entry{
		Identifier:  identifier,
		SourceName:  name,
		DownloadURL: DownloadURL(s.config.RawBaseURL, name),
	}
}

// DownloadURL joins the raw-content base and a source file name.
func DownloadURL(rawBase, sourceName string) string {
	return strings.TrimSuffix(rawBase, "/") + "/" + sourceName
}
