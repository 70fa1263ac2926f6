// Package cli provides command-line interface components with testable abstractions.
package cli

import (
	"github.com/clean-dependency-project/steamcat/internal/storage"
)

// HistoryReader abstracts the ledger queries behind the history command.
// Following Dave Cheney's principle: "Accept interfaces, return structs"
type HistoryReader interface {
	// ListAll returns every recorded download attempt, newest first.
	ListAll() ([]*storage.Download, error)

	// ListByIdentifier returns the attempts for one app, newest first.
	ListByIdentifier(identifier string) ([]*storage.Download, error)

	// GetStats summarises the ledger.
	GetStats() (*storage.Stats, error)
}
