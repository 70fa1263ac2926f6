// Package steam provides integration with the Steam store appdetails API
// for retrieving game metadata.
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clean-dependency-project/steamcat/internal/catalog"
)

const (
	// DefaultBaseURL is the default Steam store API base URL
	DefaultBaseURL = "https://store.steampowered.com/api"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 15 * time.Second

	// DefaultUserAgent is the default User-Agent header
	DefaultUserAgent = "steamcat/1.0"
)

var (
	// ErrAppNotFound indicates the store has no data for the app ID
	ErrAppNotFound = errors.New("app not found")

	// ErrInvalidResponse indicates the API response was invalid
	ErrInvalidResponse = errors.New("invalid API response")

	// ErrNetworkError indicates a network-related error
	ErrNetworkError = errors.New("network error")
)

// ErrAPIError represents an API-specific error
type ErrAPIError struct {
	StatusCode int
	Message    string
	AppID      string
}

func (e ErrAPIError) Error() string {
	if e.AppID != "" {
		return fmt.Sprintf("API error for app %s: %d %s", e.AppID, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: %d %s", e.StatusCode, e.Message)
}

func (e ErrAPIError) Is(target error) bool {
	if target == ErrAppNotFound && e.StatusCode == http.StatusNotFound {
		return true
	}
	if target == ErrInvalidResponse && e.StatusCode >= 400 && e.StatusCode < 500 {
		return true
	}
	if target == ErrNetworkError && (e.StatusCode == 0 || e.StatusCode >= 500) {
		return true
	}
	return false
}

// Genre is a store genre tag
type Genre struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Screenshot is a store screenshot
type Screenshot struct {
	ID            int    `json:"id"`
	PathThumbnail string `json:"path_thumbnail"`
	PathFull      string `json:"path_full"`
}

// AppData is the data block of an appdetails response
type AppData struct {
	Name                string       `json:"name"`
	Type                string       `json:"type"`
	DetailedDescription string       `json:"detailed_description"`
	ShortDescription    string       `json:"short_description"`
	HeaderImage         string       `json:"header_image"`
	Genres              []Genre      `json:"genres"`
	Screenshots         []Screenshot `json:"screenshots"`
}

// appEnvelope wraps one app in an appdetails response keyed by app ID
type appEnvelope struct {
	Success bool     `json:"success"`
	Data    *AppData `json:"data"`
}

// HTTPClient defines the interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds configuration for the Steam client
type Config struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient HTTPClient
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultTimeout,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Client is a Steam store API client. It implements catalog.MetadataLookup.
type Client struct {
	config Config
}

// NewClient creates a new Steam store API client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return &Client{config: config}
}

// GetAppDetails retrieves store data for a single app ID
func (c *Client) GetAppDetails(ctx context.Context, appID string) (*AppData, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return nil, ErrAPIError{
			StatusCode: http.StatusBadRequest,
			Message:    "app ID cannot be empty",
		}
	}

	apiURL, err := url.JoinPath(c.config.BaseURL, "appdetails")
	if err != nil {
		return nil, fmt.Errorf("failed to construct API URL: %w", err)
	}
	apiURL += "?" + url.Values{"appids": {appID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return nil, ErrAPIError{
			StatusCode: 0,
			Message:    err.Error(),
			AppID:      appID,
		}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrAPIError{
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
			AppID:      appID,
		}
	}

	var payload map[string]*appEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, ErrAPIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to decode response: %v", err),
			AppID:      appID,
		}
	}

	envelope := payload[appID]
	if envelope == nil || !envelope.Success || envelope.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrAppNotFound, appID)
	}
	return envelope.Data, nil
}

// Lookup adapts GetAppDetails to catalog metadata.
func (c *Client) Lookup(ctx context.Context, identifier string) (*catalog.Metadata, error) {
	data, err := c.GetAppDetails(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return ToMetadata(data), nil
}

// ToMetadata converts store data into catalog metadata.
// Screenshots prefer thumbnails and fall back to full-size images.
func ToMetadata(data *AppData) *catalog.Metadata {
	meta := &catalog.Metadata{
		Name:             data.Name,
		HeaderImage:      data.HeaderImage,
		ShortDescription: data.ShortDescription,
	}
	for _, g := range data.Genres {
		if g.Description != "" {
			meta.Genres = append(meta.Genres, g.Description)
		}
	}
	for _, s := range data.Screenshots {
		switch {
		case s.PathThumbnail != "":
			meta.Screenshots = append(meta.Screenshots, s.PathThumbnail)
		case s.PathFull != "":
			meta.Screenshots = append(meta.Screenshots, s.PathFull)
		}
	}
	return meta
}
