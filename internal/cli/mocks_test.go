package cli

import (
	"github.com/clean-dependency-project/steamcat/internal/storage"
)

// mockHistoryReader implements HistoryReader for testing.
type mockHistoryReader struct {
	listAllFn          func() ([]*storage.Download, error)
	listByIdentifierFn func(identifier string) ([]*storage.Download, error)
	getStatsFn         func() (*storage.Stats, error)
}

// ListAll implements HistoryReader.
func (m *mockHistoryReader) ListAll() ([]*storage.Download, error) {
	if m.listAllFn != nil {
		return m.listAllFn()
	}
	return nil, nil
}

// ListByIdentifier implements HistoryReader.
func (m *mockHistoryReader) ListByIdentifier(identifier string) ([]*storage.Download, error) {
	if m.listByIdentifierFn != nil {
		return m.listByIdentifierFn(identifier)
	}
	return nil, nil
}

// GetStats implements HistoryReader.
func (m *mockHistoryReader) GetStats() (*storage.Stats, error) {
	if m.getStatsFn != nil {
		return m.getStatsFn()
	}
	return &storage.Stats{}, nil
}
