package steam

import (
	"context"
	"fmt"

	"github.com/clean-dependency-project/steamcat/internal/catalog"
)

// MockClient implements catalog.MetadataLookup for testing and offline use.
// Apps listed in Missing fail with ErrAppNotFound.
type MockClient struct {
	Missing map[string]bool
}

// NewMockClient creates a new mock client
func NewMockClient() *MockClient {
	return &MockClient{Missing: make(map[string]bool)}
}

func (m *MockClient) Lookup(ctx context.Context, identifier string) (*catalog.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Missing[identifier] {
		return nil, fmt.Errorf("%w: %s", ErrAppNotFound, identifier)
	}
	return &catalog.Metadata{
		Name:             fmt.Sprintf("Mock Game %s", identifier),
		HeaderImage:      fmt.Sprintf("https://mock.invalid/%s/header.jpg", identifier),
		ShortDescription: fmt.Sprintf("Mock description for %s", identifier),
		Genres:           []string{"Action"},
	}, nil
}
