package catalog

import (
	"context"
	"errors"
	"testing"
)

// fakeLister returns a fixed listing or error
type fakeLister struct {
	files []FileDescriptor
	err   error
	calls int
}

func (f *fakeLister) ListFiles(ctx context.Context) ([]FileDescriptor, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.files, nil
}

func TestSource_LoadCatalog(t *testing.T) {
	lister := &fakeLister{
		files: []FileDescriptor{
			{Name: "730.zip", Type: "file", Size: 1024},
			{Name: "README.md", Type: "file", Size: 10},
			{Name: "archive", Type: "dir", Size: 0},
			{Name: "570.zip", Type: "file", Size: 2048},
			{Name: "nested.zip", Type: "dir", Size: 0},
			{Name: "440.zip", Type: "file", Size: -5},
		},
	}
	source := NewSource(lister, SourceConfig{RawBaseURL: "https://github.com/owner/repo/raw/main/"})

	entries, err := source.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("LoadCatalog() unexpected error: %v", err)
	}

	want := []Entry{
		{Identifier: "730", SourceName: "730.zip", DownloadURL: "https://github.com/owner/repo/raw/main/730.zip", SizeBytes: 1024},
		{Identifier: "570", SourceName: "570.zip", DownloadURL: "https://github.com/owner/repo/raw/main/570.zip", SizeBytes: 2048},
		{Identifier: "440", SourceName: "440.zip", DownloadURL: "https://github.com/owner/repo/raw/main/440.zip", SizeBytes: 0},
	}
	if len(entries) != len(want) {
		t.Fatalf("LoadCatalog() returned %d entries, want %d", len(entries), len(want))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
	if lister.calls != 1 {
		t.Errorf("expected exactly one listing call, got %d", lister.calls)
	}
}

func TestSource_LoadCatalog_Skip(t *testing.T) {
	lister := &fakeLister{
		files: []FileDescriptor{
			{Name: "730.zip", Type: "file"},
			{Name: "570.zip", Type: "file"},
			{Name: "440.zip", Type: "file"},
		},
	}
	source := NewSource(lister, SourceConfig{
		Skip: func(identifier string) bool { return identifier == "570" },
	})

	entries, err := source.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("LoadCatalog() unexpected error: %v", err)
	}
	if got := identifiers(entries); len(got) != 2 || got[0] != "730" || got[1] != "440" {
		t.Errorf("entries = %v, want [730 440]", got)
	}
}

func TestSource_LoadCatalog_PassesDuplicatesThrough(t *testing.T) {
	lister := &fakeLister{
		files: []FileDescriptor{
			{Name: "730.zip", Type: "file"},
			{Name: "730.zip", Type: "file"},
		},
	}
	entries, err := NewSource(lister, SourceConfig{}).LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("LoadCatalog() unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected duplicates to pass through, got %d entries", len(entries))
	}
}

func TestSource_LoadCatalog_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "http status error kept",
			err:        &FetchError{StatusCode: 500, Message: "500 Internal Server Error"},
			wantStatus: 500,
		},
		{
			name:       "transport error wrapped",
			err:        errors.New("connection refused"),
			wantStatus: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := NewSource(&fakeLister{err: tt.err}, SourceConfig{})
			entries, err := source.LoadCatalog(context.Background())
			if err == nil {
				t.Fatal("LoadCatalog() expected error, got nil")
			}
			if entries != nil {
				t.Errorf("expected no entries on failure, got %d", len(entries))
			}
			if !errors.Is(err, ErrFetch) {
				t.Errorf("expected errors.Is(err, ErrFetch), got %v", err)
			}
			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected *FetchError, got %T", err)
			}
			if fetchErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", fetchErr.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestFetchError_Error(t *testing.T) {
	withStatus := &FetchError{StatusCode: 404, Message: "Not Found"}
	if got := withStatus.Error(); got != "catalog fetch failed: 404 Not Found" {
		t.Errorf("Error() = %q", got)
	}
	transport := &FetchError{Message: "timeout"}
	if got := transport.Error(); got != "catalog fetch failed: timeout" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSource_EntryFor(t *testing.T) {
	source := NewSource(nil, SourceConfig{RawBaseURL: "https://example.com/raw"})
	got := source.EntryFor("252490")
	if got.SourceName != "252490.zip" {
		t.Errorf("SourceName = %q, want 252490.zip", got.SourceName)
	}
	if got.DownloadURL != "https://example.com/raw/252490.zip" {
		t.Errorf("DownloadURL = %q", got.DownloadURL)
	}
}

// entriesOf builds entries with the given identifiers
func entriesOf(ids ...string) []Entry {
	entries := make([]Entry, len(ids))
	for i, id := range ids {
		entries[i] = Entry{Identifier: id, SourceName: id + ".zip"}
	}
	return entries
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 << 30, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
