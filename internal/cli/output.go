package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/clean-dependency-project/steamcat/internal/catalog"
	"github.com/clean-dependency-project/steamcat/internal/download"
	"github.com/clean-dependency-project/steamcat/internal/storage"
)

// ErrUnknownFormat is returned for an --output value other than text or json.
var ErrUnknownFormat = errors.New("unknown output format")

// ListItem is one catalog entry in list output
type ListItem struct {
	Identifier  string `json:"identifier"`
	Name        string `json:"name"`
	SourceName  string `json:"source_name"`
	DownloadURL string `json:"download_url"`
	SizeBytes   int64  `json:"size_bytes"`
	State       string `json:"state"`
	CoverURL    string `json:"cover_url,omitempty"`
}

// ListOutput represents one page of the catalog for JSON output
type ListOutput struct {
	Query       string     `json:"query,omitempty"`
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_pages"`
	TotalItems  int        `json:"total_items"`
	CatalogSize int        `json:"catalog_size"`
	LoadID      string     `json:"load_id,omitempty"`
	Items       []ListItem `json:"items"`
}

// ShowOutput is the detail view of one app
type ShowOutput struct {
	Entry     catalog.Entry        `json:"entry"`
	InCatalog bool                 `json:"in_catalog"`
	Detail    catalog.DetailRecord `json:"detail"`
}

// DownloadResult represents a download operation result for JSON output
type DownloadResult struct {
	Identifier string `json:"identifier"`
	LocalPath  string `json:"local_path,omitempty"`
	FileSize   int64  `json:"file_size"`
	SHA256     string `json:"sha256,omitempty"`
	Skipped    bool   `json:"skipped"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// DownloadSummary represents the summary of download operations for JSON output
type DownloadSummary struct {
	TotalFiles int              `json:"total_files"`
	Successful int              `json:"successful"`
	Skipped    int              `json:"skipped"`
	Failed     int              `json:"failed"`
	OutputDir  string           `json:"output_dir"`
	Results    []DownloadResult `json:"results"`
}

// HistoryItem is one ledger row in history output
type HistoryItem struct {
	Identifier   string    `json:"identifier"`
	SourceName   string    `json:"source_name"`
	Status       string    `json:"status"`
	FileSize     int64     `json:"file_size"`
	SHA256       string    `json:"sha256,omitempty"`
	DownloadedAt time.Time `json:"downloaded_at"`
	Error        string    `json:"error,omitempty"`
}

// HistoryOutput is the ledger summary printed by the history command
type HistoryOutput struct {
	Stats     *storage.Stats `json:"stats"`
	Downloads []HistoryItem  `json:"downloads"`
}

func checkFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	}
	return fmt.Errorf("%w: %q (want text or json)", ErrUnknownFormat, format)
}

// writeOutput prints v as indented JSON, or through text otherwise.
func writeOutput(w io.Writer, format string, v any, text func(io.Writer) error) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == "json" {
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(output))
		return err
	}
	return text(w)
}

// newListOutput builds list output from a view. Entries without a cached
// record are reported under their placeholder name.
func newListOutput(view catalog.View, details catalog.DetailLookup) ListOutput {
	out := ListOutput{
		Query:       view.Query,
		CurrentPage: view.Page.CurrentPage,
		TotalPages:  view.Page.TotalPages,
		TotalItems:  view.Page.TotalItems,
		CatalogSize: view.CatalogSize,
		LoadID:      view.LoadID,
		Items:       make([]ListItem, 0, len(view.Page.Items)),
	}
	for _, entry := range view.Page.Items {
		item := ListItem{
			Identifier:  entry.Identifier,
			Name:        catalog.PlaceholderName(entry.Identifier),
			SourceName:  entry.SourceName,
			DownloadURL: entry.DownloadURL,
			SizeBytes:   entry.SizeBytes,
			State:       catalog.StateUnresolved.String(),
		}
		if rec, ok := details.Lookup(entry.Identifier); ok {
			item.Name = rec.DisplayName
			item.State = rec.State.String()
			item.CoverURL = rec.CoverImageURL
		}
		out.Items = append(out.Items, item)
	}
	return out
}

func writeListText(w io.Writer, out ListOutput) error {
	header := fmt.Sprintf("Page %d/%d, %d of %d games", out.CurrentPage, out.TotalPages, out.TotalItems, out.CatalogSize)
	if out.Query != "" {
		header += fmt.Sprintf(" matching %q", out.Query)
	}
	fmt.Fprintln(w, header)
	if len(out.Items) == 0 {
		_, err := fmt.Fprintln(w, "No games found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "APP ID\tNAME\tSIZE\tSTATE")
	for _, item := range out.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.Identifier, item.Name, catalog.FormatSize(item.SizeBytes), item.State)
	}
	return tw.Flush()
}

func writeShowText(w io.Writer, out ShowOutput) error {
	d := out.Detail
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", d.DisplayName)
	fmt.Fprintf(tw, "App ID:\t%s\n", d.Identifier)
	fmt.Fprintf(tw, "State:\t%s\n", d.State)
	if len(d.Genres) > 0 {
		fmt.Fprintf(tw, "Genres:\t%s\n", strings.Join(d.Genres, ", "))
	}
	if d.ShortDescription != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", d.ShortDescription)
	}
	fmt.Fprintf(tw, "Cover:\t%s\n", d.CoverImageURL)
	for i, s := range d.ScreenshotURLs {
		fmt.Fprintf(tw, "Screenshot %d:\t%s\n", i+1, s)
	}
	fmt.Fprintf(tw, "Archive:\t%s\n", out.Entry.SourceName)
	if out.Entry.SizeBytes > 0 {
		fmt.Fprintf(tw, "Size:\t%s\n", catalog.FormatSize(out.Entry.SizeBytes))
	}
	fmt.Fprintf(tw, "Download:\t%s\n", out.Entry.DownloadURL)
	if !out.InCatalog {
		fmt.Fprintln(tw, "Note:\tnot in the current catalog listing")
	}
	return tw.Flush()
}

func newDownloadSummary(outputDir string, results []download.Result) DownloadSummary {
	summary := DownloadSummary{
		TotalFiles: len(results),
		OutputDir:  outputDir,
		Results:    make([]DownloadResult, 0, len(results)),
	}
	for _, r := range results {
		item := DownloadResult{
			Identifier: r.Identifier,
			LocalPath:  r.Path,
			FileSize:   r.Size,
			SHA256:     r.SHA256,
			Skipped:    r.Skipped,
			Success:    r.Err == nil,
		}
		switch {
		case r.Err != nil:
			item.Error = r.Err.Error()
			summary.Failed++
		case r.Skipped:
			summary.Skipped++
		default:
			summary.Successful++
		}
		summary.Results = append(summary.Results, item)
	}
	return summary
}

func writeDownloadText(w io.Writer, summary DownloadSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "APP ID\tRESULT\tSIZE\tPATH")
	for _, r := range summary.Results {
		result := "ok"
		switch {
		case r.Error != "":
			result = "failed: " + r.Error
		case r.Skipped:
			result = "skipped"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Identifier, result, catalog.FormatSize(r.FileSize), r.LocalPath)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d downloaded, %d skipped, %d failed\n", summary.Successful, summary.Skipped, summary.Failed)
	return err
}

// collectHistory reads the ledger, limited to one app when identifier is set.
func collectHistory(reader HistoryReader, identifier string) (*HistoryOutput, error) {
	var (
		rows []*storage.Download
		err  error
	)
	if identifier != "" {
		rows, err = reader.ListByIdentifier(identifier)
	} else {
		rows, err = reader.ListAll()
	}
	if err != nil {
		return nil, err
	}
	stats, err := reader.GetStats()
	if err != nil {
		return nil, err
	}

	out := &HistoryOutput{Stats: stats, Downloads: make([]HistoryItem, 0, len(rows))}
	for _, row := range rows {
		out.Downloads = append(out.Downloads, HistoryItem{
			Identifier:   row.Identifier,
			SourceName:   row.SourceName,
			Status:       row.Status,
			FileSize:     row.FileSize,
			SHA256:       row.SHA256,
			DownloadedAt: row.DownloadedAt,
			Error:        row.ErrorMessage,
		})
	}
	return out, nil
}

func writeHistoryText(w io.Writer, out *HistoryOutput) error {
	if out.Stats != nil {
		fmt.Fprintf(w, "%d downloads of %d apps, %s fetched\n",
			out.Stats.TotalDownloads, out.Stats.UniqueApps, catalog.FormatSize(out.Stats.TotalBytes))
	}
	if len(out.Downloads) == 0 {
		_, err := fmt.Fprintln(w, "No downloads recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tAPP ID\tSTATUS\tSIZE\tERROR")
	for _, d := range out.Downloads {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			d.DownloadedAt.Format(time.DateTime), d.Identifier, d.Status, catalog.FormatSize(d.FileSize), d.Error)
	}
	return tw.Flush()
}
