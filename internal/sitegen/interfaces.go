// Package sitegen generates a static HTML catalog for GitHub Pages.
// Following Dave Cheney's principle: "Accept interfaces, return structs"
package sitegen

import (
	"context"

	"github.com/clean-dependency-project/steamcat/internal/catalog"
)

// CatalogReader abstracts access to the loaded catalog.
type CatalogReader interface {
	// Entries returns the catalog in listing order.
	Entries() []catalog.Entry
}

// DetailResolver abstracts detail resolution for the rendered apps.
type DetailResolver interface {
	// ResolveAll returns one record per identifier, in input order.
	ResolveAll(ctx context.Context, identifiers []string, concurrency int) []catalog.DetailRecord
}
