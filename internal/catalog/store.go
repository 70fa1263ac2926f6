package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownEntry is returned when an identifier is not in the loaded catalog.
var ErrUnknownEntry = errors.New("identifier not in catalog")

// View is everything a presentation layer needs to draw the catalog.
type View struct {
	Query       string `json:"query"`
	Page        Page   `json:"page"`
	CatalogSize int    `json:"catalog_size"`
	LoadID      string `json:"load_id,omitempty"`
	Loaded      bool   `json:"loaded"`
	Err         error  `json:"-"`
}

// Store owns the catalog state: entries, query, page position, the detail
// cache (through its resolver) and the selection.
// Derived values are recomputed by View from those inputs on every call.
type Store struct {
	mu       sync.Mutex
	loader   Loader
	resolver *Resolver
	selector *Selector
	logger   *slog.Logger

	pageSize int
	entries  []Entry
	loaded   bool
	loadID   string
	lastErr  error
	query    string
	page     int
}

// NewStore creates an empty store. Call Reload to populate it.
func NewStore(loader Loader, resolver *Resolver, pageSize int, logger *slog.Logger) *Store {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		loader:   loader,
		resolver: resolver,
		selector: NewSelector(resolver),
		logger:   logger,
		pageSize: pageSize,
		page:     1,
	}
}

// Reload fetches the catalog and replaces the current one wholesale.
// The reload that completes last wins; a failed reload leaves the previous
// catalog in place and is reported by View until the next success.
func (s *Store) Reload(ctx context.Context) error {
	loadID := uuid.NewString()
	s.logger.Info("loading catalog", "load_id", loadID)

	entries, err := s.loader.LoadCatalog(ctx)
	if err != nil {
		s.logger.Error("catalog load failed", "load_id", loadID, "error", err)
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.entries = entries
	s.loaded = true
	s.loadID = loadID
	s.lastErr = nil
	s.mu.Unlock()

	s.resolver.Cache().Reset()
	s.logger.Info("catalog loaded", "load_id", loadID, "entries", len(entries))
	return nil
}

// Entries returns a copy of the loaded catalog.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Entry returns the catalog entry for identifier.
func (s *Store) Entry(identifier string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.Identifier == identifier {
			return e, true
		}
	}
	return Entry{}, false
}

// Query returns the current search query.
func (s *Store) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetQuery changes the search query. A different query resets the page to 1.
func (s *Store) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if query == s.query {
		return
	}
	s.query = query
	s.page = 1
}

// SetPage requests a page; View clamps it into range.
func (s *Store) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = page
}

// NextPage advances one page, stopping at the last.
func (s *Store) NextPage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = s.viewLocked().Page.CurrentPage + 1
}

// PrevPage goes back one page, stopping at the first.
func (s *Store) PrevPage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = s.viewLocked().Page.CurrentPage - 1
}

// View derives the visible page from the current catalog, query and cache.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Store) viewLocked() View {
	filtered := Filter(s.entries, s.query, s.resolver.Cache())
	page := Paginate(filtered, s.pageSize, s.page)
	s.page = page.CurrentPage

	return View{
		Query:       s.query,
		Page:        page,
		CatalogSize: len(s.entries),
		LoadID:      s.loadID,
		Loaded:      s.loaded,
		Err:         s.lastErr,
	}
}

// PrefetchVisible resolves details for the entries on the visible page.
func (s *Store) PrefetchVisible(ctx context.Context, concurrency int) []DetailRecord {
	view := s.View()
	ids := make([]string, len(view.Page.Items))
	for i, e := range view.Page.Items {
		ids[i] = e.Identifier
	}
	return s.resolver.ResolveAll(ctx, ids, concurrency)
}

// Resolver returns the store's resolver.
func (s *Store) Resolver() *Resolver {
	return s.resolver
}

// Selector returns the store's selection controller.
func (s *Store) Selector() *Selector {
	return s.selector
}

// Select opens the detail view for a catalog entry.
func (s *Store) Select(ctx context.Context, identifier string) (<-chan struct{}, error) {
	entry, ok := s.Entry(identifier)
	if !ok {
		return nil, ErrUnknownEntry
	}
	return s.selector.Select(ctx, entry), nil
}

// Dismiss closes the detail view.
func (s *Store) Dismiss() {
	s.selector.Dismiss()
}
