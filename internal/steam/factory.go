package steam

import (
	"fmt"
	"time"

	"github.com/clean-dependency-project/steamcat/internal/catalog"
)

// ClientConfig represents configuration for creating metadata lookups
type ClientConfig struct {
	Provider string
	BaseURL  string
	Timeout  time.Duration
}

// NewLookup creates a metadata lookup for the configured provider.
// The "none" provider returns nil, which makes the resolver synthesize records offline.
func NewLookup(clientConfig ClientConfig) (catalog.MetadataLookup, error) {
	switch clientConfig.Provider {
	case "steam", "":
		config := DefaultConfig()
		if clientConfig.BaseURL != "" {
			config.BaseURL = clientConfig.BaseURL
		}
		if clientConfig.Timeout > 0 {
			config.Timeout = clientConfig.Timeout
			config.HTTPClient = nil
		}
		return NewClient(config), nil
	case "mock":
		return NewMockClient(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported metadata provider: %s", clientConfig.Provider)
	}
}
