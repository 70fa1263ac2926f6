package catalog

import (
	"fmt"
	"sync"
)

// ResolutionState describes how far detail resolution got for an identifier.
type ResolutionState int

const (
	StateUnresolved ResolutionState = iota
	StateResolved
	StateFailed
)

func (s ResolutionState) String() string {
	switch s {
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unresolved"
	}
}

// MarshalText renders the state as its name in JSON output.
func (s ResolutionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DetailRecord holds descriptive metadata for one identifier.
type DetailRecord struct {
	Identifier       string          `json:"identifier"`
	DisplayName      string          `json:"display_name"`
	CoverImageURL    string          `json:"cover_image_url"`
	ShortDescription string          `json:"short_description,omitempty"`
	Genres           []string        `json:"genres,omitempty"`
	ScreenshotURLs   []string        `json:"screenshot_urls"`
	State            ResolutionState `json:"state"`
}

// PlaceholderName is the display name used until a richer source provides one.
func PlaceholderName(identifier string) string {
	return fmt.Sprintf("App %s", identifier)
}

func (r DetailRecord) clone() DetailRecord {
	out := r
	if r.Genres != nil {
		out.Genres = append([]string(nil), r.Genres...)
	}
	if r.ScreenshotURLs != nil {
		out.ScreenshotURLs = append([]string(nil), r.ScreenshotURLs...)
	}
	return out
}

// DetailLookup reads cached detail records.
type DetailLookup interface {
	Lookup(identifier string) (DetailRecord, bool)
}

// DetailCache is the session cache of detail records keyed by identifier.
// It is safe for concurrent use; records are copied on the way in and out.
type DetailCache struct {
	mu      sync.RWMutex
	records map[string]DetailRecord
}

// NewDetailCache creates an empty cache.
func NewDetailCache() *DetailCache {
	return &DetailCache{
		records: make(map[string]DetailRecord),
	}
}

// Lookup returns the record for identifier, if any.
func (c *DetailCache) Lookup(identifier string) (DetailRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[identifier]
	if !ok {
		return DetailRecord{}, false
	}
	return rec.clone(), true
}

// Store writes rec, replacing any previous record for its identifier.
func (c *DetailCache) Store(rec DetailRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[rec.Identifier] = rec.clone()
}

// Len returns the number of cached records.
func (c *DetailCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.records)
}

// Reset drops every record. Used when the catalog is fully replaced.
func (c *DetailCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = make(map[string]DetailRecord)
}
