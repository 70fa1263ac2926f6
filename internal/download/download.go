// Package download fetches catalog archives to disk, hashing them on the way
// and recording every attempt in the download ledger.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clean-dependency-project/steamcat/internal/catalog"
	"github.com/clean-dependency-project/steamcat/internal/clamav"
	"github.com/clean-dependency-project/steamcat/internal/storage"
)

const (
	// DefaultTimeout is the timeout for one archive download
	DefaultTimeout = 5 * time.Minute

	// DefaultUserAgent is the default User-Agent header
	DefaultUserAgent = "steamcat/1.0"

	// DefaultConcurrency bounds parallel downloads in DownloadAll
	DefaultConcurrency = 2
)

var (
	// ErrBadStatus indicates the archive host answered with a non-200 status
	ErrBadStatus = errors.New("unexpected HTTP status")

	// ErrSizeMismatch indicates the body length differs from the listed size
	ErrSizeMismatch = errors.New("downloaded size does not match catalog size")

	// ErrNoURL indicates the entry has no download URL
	ErrNoURL = errors.New("entry has no download URL")

	// ErrUnsafeName indicates an archive name that would leave the output directory
	ErrUnsafeName = errors.New("archive name is not a plain file name")
)

// HTTPClient defines the interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Ledger is the subset of storage.Store the downloader needs.
// GetDownload returns storage.ErrNotFound when no attempt succeeded.
type Ledger interface {
	GetDownload(identifier string) (*storage.Download, error)
	RecordDownload(*storage.Download) error
}

// Config holds configuration for the Downloader
type Config struct {
	OutputDir   string
	UserAgent   string
	Timeout     time.Duration
	Concurrency int
	// Force re-downloads archives the ledger already has
	Force      bool
	HTTPClient HTTPClient
	// Progress, when set, receives byte counts as they arrive
	Progress func(identifier string, n int64)
	// Scanner, when set, checks each archive before it leaves staging
	Scanner clamav.Scanner
}

// Result describes one archive download
type Result struct {
	Identifier string `json:"identifier"`
	Path       string `json:"path,omitempty"`
	Size       int64  `json:"size"`
	SHA256     string `json:"sha256,omitempty"`
	Skipped    bool   `json:"skipped"`
	Err        error  `json:"-"`
}

// Downloader fetches archives into OutputDir.
type Downloader struct {
	config Config
	ledger Ledger
	logger *slog.Logger
}

// New creates a Downloader. Ledger may be nil, which disables skip and recording.
func New(config Config, ledger Ledger, logger *slog.Logger) *Downloader {
	if config.OutputDir == "" {
		config.OutputDir = "."
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Concurrency < 1 {
		config.Concurrency = DefaultConcurrency
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{config: config, ledger: ledger, logger: logger}
}

// Download fetches one archive. Archives already in the ledger are skipped
// unless Force is set. Every attempt that reaches the network is recorded.
func (d *Downloader) Download(ctx context.Context, entry catalog.Entry) (*Result, error) {
	result := &Result{Identifier: entry.Identifier}
	if entry.DownloadURL == "" {
		return result, fmt.Errorf("%w: %s", ErrNoURL, entry.Identifier)
	}
	if !safeName(entry.SourceName) {
		return result, fmt.Errorf("%w: %q", ErrUnsafeName, entry.SourceName)
	}

	if d.ledger != nil && !d.config.Force {
		prev, err := d.ledger.GetDownload(entry.Identifier)
		switch {
		case err == nil:
			d.logger.Info("archive already downloaded, skipping",
				"identifier", entry.Identifier,
				"path", prev.LocalPath,
				"downloaded_at", prev.DownloadedAt)
			result.Skipped = true
			result.Path = prev.LocalPath
			result.Size = prev.FileSize
			result.SHA256 = prev.SHA256
			return result, nil
		case !errors.Is(err, storage.ErrNotFound):
			return result, err
		}
	}

	dest := filepath.Join(d.config.OutputDir, entry.SourceName)
	size, sum, err := d.fetch(ctx, entry, dest)
	result.Size = size
	result.SHA256 = sum
	if err == nil {
		result.Path = dest
	}

	d.record(entry, result, err)
	if err != nil {
		d.logger.Error("download failed", "identifier", entry.Identifier, "error", err)
		return result, err
	}
	d.logger.Info("download complete", "identifier", entry.Identifier, "size", size, "sha256", sum)
	return result, nil
}

// DownloadAll downloads entries with bounded concurrency.
// Results are in input order; one failure does not stop the others.
func (d *Downloader) DownloadAll(ctx context.Context, entries []catalog.Entry) []Result {
	results := make([]Result, len(entries))
	var g errgroup.Group
	g.SetLimit(d.config.Concurrency)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			res, err := d.Download(ctx, entry)
			res.Err = err
			results[i] = *res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// safeName reports whether name can be joined to the output directory
// without escaping it.
func safeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// fetch streams the archive into a staging file, then moves it to dest.
func (d *Downloader) fetch(ctx context.Context, entry catalog.Entry, dest string) (int64, string, error) {
	staging, err := storage.NewTempDir(d.config.OutputDir, entry.Identifier)
	if err != nil {
		return 0, "", err
	}
	defer d.discard(staging, entry.Identifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.DownloadURL, nil)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.config.UserAgent)

	resp, err := d.config.HTTPClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("failed to download %s: %w", entry.SourceName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("%w: %s for %s", ErrBadStatus, resp.Status, entry.SourceName)
	}

	out, err := os.Create(staging.Path(entry.SourceName))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create output file: %w", err)
	}

	h := sha256.New()
	w := io.MultiWriter(out, h)

	var downloaded int64
	reader := &ProgressReader{
		Reader: resp.Body,
		Reporter: func(n int64) {
			downloaded += n
			if d.config.Progress != nil {
				d.config.Progress(entry.Identifier, n)
			}
		},
	}

	_, copyErr := io.Copy(w, reader)
	closeErr := out.Close()
	sum := hex.EncodeToString(h.Sum(nil))
	if copyErr != nil {
		return downloaded, "", fmt.Errorf("failed to save file: %w", copyErr)
	}
	if closeErr != nil {
		return downloaded, "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if entry.SizeBytes > 0 && downloaded != entry.SizeBytes {
		return downloaded, sum, fmt.Errorf("%w: expected %d bytes, got %d", ErrSizeMismatch, entry.SizeBytes, downloaded)
	}

	if d.config.Scanner != nil {
		res, err := d.config.Scanner.Scan(ctx, staging.Path(entry.SourceName))
		if err != nil {
			return downloaded, sum, fmt.Errorf("failed to scan %s: %w", entry.SourceName, err)
		}
		if err := res.Err(); err != nil {
			return downloaded, sum, err
		}
	}

	if err := staging.Promote(entry.SourceName, dest); err != nil {
		return downloaded, sum, err
	}
	return downloaded, sum, nil
}

// discard removes the staging directory. Files still staged at this point
// belong to an attempt that failed before promotion.
func (d *Downloader) discard(staging *storage.TempDir, identifier string) {
	if files, err := staging.ListFiles(); err == nil && len(files) > 0 {
		d.logger.Debug("discarding staged files",
			"identifier", identifier,
			"staging_dir", staging.Root(),
			"files", len(files),
			"age", staging.Age().String())
	}
	if err := staging.Remove(); err != nil {
		d.logger.Warn("failed to remove staging directory", "staging_dir", staging.Root(), "error", err)
	}
}

func (d *Downloader) record(entry catalog.Entry, result *Result, fetchErr error) {
	if d.ledger == nil {
		return
	}
	row := &storage.Download{
		Identifier:   entry.Identifier,
		SourceName:   entry.SourceName,
		SourceURL:    entry.DownloadURL,
		LocalPath:    result.Path,
		FileSize:     result.Size,
		ExpectedSize: entry.SizeBytes,
		SHA256:       result.SHA256,
		DownloadedAt: time.Now(),
		Status:       storage.StatusSuccess,
	}
	if fetchErr != nil {
		row.Status = storage.StatusFailed
		row.ErrorMessage = fetchErr.Error()
	}
	if err := d.ledger.RecordDownload(row); err != nil {
		d.logger.Warn("failed to record download", "identifier", entry.Identifier, "error", err)
	}
}

// ProgressReader wraps an io.Reader to provide progress updates
type ProgressReader struct {
	Reader   io.Reader
	Reporter func(r int64)
}

func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.Reader.Read(p)
	if n > 0 {
		pr.Reporter(int64(n))
	}
	return
}
