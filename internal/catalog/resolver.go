package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultImageBaseURL is the Steam CDN base for app artwork
	DefaultImageBaseURL = "https://cdn.cloudflare.steamstatic.com/steam/apps"

	// DefaultScreenshotSlots is the number of screenshot URLs per record
	DefaultScreenshotSlots = 4

	// DefaultResolveConcurrency bounds ResolveAll
	DefaultResolveConcurrency = 4
)

// Metadata is the descriptive data a remote lookup returns for one app.
type Metadata struct {
	Name             string
	HeaderImage      string
	ShortDescription string
	Genres           []string
	Screenshots      []string
}

// MetadataLookup abstracts the remote metadata source.
type MetadataLookup interface {
	Lookup(ctx context.Context, identifier string) (*Metadata, error)
}

// ResolverConfig holds the URL construction settings of a Resolver.
type ResolverConfig struct {
	ImageBaseURL    string
	ScreenshotSlots int
}

// Resolver produces detail records lazily and memoizes them in a DetailCache.
type Resolver struct {
	cache  *DetailCache
	lookup MetadataLookup
	config ResolverConfig
	logger *slog.Logger
	group  singleflight.Group
}

// NewResolver creates a Resolver. A nil lookup synthesizes every record
// without network access.
func NewResolver(cache *DetailCache, lookup MetadataLookup, config ResolverConfig, logger *slog.Logger) *Resolver {
	if config.ImageBaseURL == "" {
		config.ImageBaseURL = DefaultImageBaseURL
	}
	if config.ScreenshotSlots < 0 {
		config.ScreenshotSlots = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		cache:  cache,
		lookup: lookup,
		config: config,
		logger: logger,
	}
}

// Cache returns the cache the resolver writes into.
func (r *Resolver) Cache() *DetailCache {
	return r.cache
}

// Synthesize builds the deterministic placeholder record for identifier.
func (r *Resolver) Synthesize(identifier string, state ResolutionState) DetailRecord {
	base := strings.TrimSuffix(r.config.ImageBaseURL, "/")
	screenshots := make([]string, 0, r.config.ScreenshotSlots)
	for n := 1; n <= r.config.ScreenshotSlots; n++ {
		screenshots = append(screenshots, fmt.Sprintf("%s/%s/ss_%d.jpg", base, identifier, n))
	}
	return DetailRecord{
		Identifier:     identifier,
		DisplayName:    PlaceholderName(identifier),
		CoverImageURL:  fmt.Sprintf("%s/%s/header.jpg", base, identifier),
		ScreenshotURLs: screenshots,
		State:          state,
	}
}

// Resolve returns the detail record for identifier.
// A cached record, resolved or failed, is returned without refetching.
// Resolve never fails: lookup errors degrade to a placeholder marked failed.
// Concurrent callers share one lookup, which outlives any single caller; a
// caller whose ctx ends first gets an uncached failed placeholder.
func (r *Resolver) Resolve(ctx context.Context, identifier string) DetailRecord {
	if rec, ok := r.cache.Lookup(identifier); ok {
		return rec
	}
	if ctx.Err() != nil {
		return r.cancelled(ctx, identifier)
	}

	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(identifier, func() (interface{}, error) {
		if rec, ok := r.cache.Lookup(identifier); ok {
			return rec, nil
		}
		rec := r.resolve(shared, identifier)
		r.cache.Store(rec)
		return rec, nil
	})

	select {
	case res := <-ch:
		return res.Val.(DetailRecord).clone()
	case <-ctx.Done():
		return r.cancelled(ctx, identifier)
	}
}

func (r *Resolver) cancelled(ctx context.Context, identifier string) DetailRecord {
	r.logger.Debug("detail resolution cancelled", "identifier", identifier, "error", ctx.Err())
	return r.Synthesize(identifier, StateFailed)
}

// ResolveAll resolves identifiers with at most concurrency lookups in flight.
// Records are returned in input order.
func (r *Resolver) ResolveAll(ctx context.Context, identifiers []string, concurrency int) []DetailRecord {
	if concurrency < 1 {
		concurrency = DefaultResolveConcurrency
	}
	records := make([]DetailRecord, len(identifiers))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, id := range identifiers {
		i, id := i, id
		g.Go(func() error {
			records[i] = r.Resolve(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
	return records
}

func (r *Resolver) resolve(ctx context.Context, identifier string) DetailRecord {
	if r.lookup == nil {
		return r.Synthesize(identifier, StateResolved)
	}

	meta, err := r.lookup.Lookup(ctx, identifier)
	if err != nil || meta == nil {
		r.logger.Warn("detail resolution failed, using placeholder", "identifier", identifier, "error", err)
		return r.Synthesize(identifier, StateFailed)
	}

	rec := r.Synthesize(identifier, StateResolved)
	if meta.Name != "" {
		rec.DisplayName = meta.Name
	}
	if meta.HeaderImage != "" {
		rec.CoverImageURL = meta.HeaderImage
	}
	rec.ShortDescription = meta.ShortDescription
	rec.Genres = append([]string(nil), meta.Genres...)
	if len(meta.Screenshots) > 0 {
		shots := meta.Screenshots
		if len(shots) > r.config.ScreenshotSlots {
			shots = shots[:r.config.ScreenshotSlots]
		}
		rec.ScreenshotURLs = append([]string{}, shots...)
	}

	r.logger.Debug("detail resolved", "identifier", identifier, "display_name", rec.DisplayName)
	return rec
}
