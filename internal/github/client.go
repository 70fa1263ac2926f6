// Package github provides a client for listing archive files through the GitHub contents API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/clean-dependency-project/steamcat/internal/catalog"
)

// DefaultTimeout is the default HTTP timeout for GitHub API calls
const DefaultTimeout = 15 * time.Second

// Sentinel errors for GitHub operations.
var (
	ErrInvalidRepo  = errors.New("repository must be in format 'owner/repo'")
	ErrNotDirectory = errors.New("listing path is not a directory")
)

// Directory selects the listed folder inside the repository.
// An empty Path lists the repository root; an empty Ref uses the default branch.
type Directory struct {
	Path string
	Ref  string
}

// Client wraps the GitHub API client for directory listings.
// It implements catalog.Lister.
type Client struct {
	client *github.Client
	owner  string
	repo   string
	dir    Directory
}

// NewClient creates a new GitHub API client for the specified repository.
// Token is optional: public repositories can be listed anonymously, at a lower rate limit.
// Repository must be in the format "owner/repo".
func NewClient(token, repository string, dir Directory) (*Client, error) {
	owner, repo, err := parseRepository(repository)
	if err != nil {
		return nil, err
	}

	client := github.NewClient(&http.Client{Timeout: DefaultTimeout})
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Client{
		client: client,
		owner:  owner,
		repo:   repo,
		dir:    dir,
	}, nil
}

// NewClientWithBaseURL is NewClient against a different API root,
// such as a GitHub Enterprise server. An empty baseURL uses api.github.com.
func NewClientWithBaseURL(token, repository string, dir Directory, baseURL string) (*Client, error) {
	c, err := NewClient(token, repository, dir)
	if err != nil || baseURL == "" {
		return c, err
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	c.client.BaseURL = parsedURL
	return c, nil
}

// Repository returns the "owner/repo" this client lists.
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// ListFiles lists the configured directory in API order.
// Failures are returned as *catalog.FetchError carrying the HTTP status when one was received.
func (c *Client) ListFiles(ctx context.Context) ([]catalog.FileDescriptor, error) {
	if c.client == nil || c.owner == "" || c.repo == "" {
		return nil, fmt.Errorf("client not initialized: use NewClient to create instances")
	}

	var opts *github.RepositoryContentGetOptions
	if c.dir.Ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: c.dir.Ref}
	}

	_, contents, resp, err := c.client.Repositories.GetContents(ctx, c.owner, c.repo, c.dir.Path, opts)
	if err != nil {
		if resp != nil && resp.Response != nil {
			return nil, &catalog.FetchError{
				StatusCode: resp.StatusCode,
				Message:    http.StatusText(resp.StatusCode),
				Err:        fmt.Errorf("failed to list %s/%s: %w", c.Repository(), c.dir.Path, err),
			}
		}
		return nil, &catalog.FetchError{
			Message: err.Error(),
			Err:     fmt.Errorf("failed to list %s/%s: %w", c.Repository(), c.dir.Path, err),
		}
	}
	if contents == nil {
		return nil, &catalog.FetchError{
			Message: ErrNotDirectory.Error(),
			Err:     fmt.Errorf("%w: %s", ErrNotDirectory, c.dir.Path),
		}
	}

	files := make([]catalog.FileDescriptor, 0, len(contents))
	for _, item := range contents {
		if item == nil {
			continue
		}
		files = append(files, catalog.FileDescriptor{
			Name: item.GetName(),
			Type: item.GetType(),
			Size: int64(item.GetSize()),
		})
	}
	return files, nil
}

// RawBaseURL returns the raw-content base for files in the listed directory.
func (c *Client) RawBaseURL() string {
	ref := c.dir.Ref
	if ref == "" {
		ref = "HEAD"
	}
	base := fmt.Sprintf("https://github.com/%s/%s/raw/%s", c.owner, c.repo, ref)
	if p := strings.Trim(c.dir.Path, "/"); p != "" {
		base += "/" + p
	}
	return base
}

// parseRepository splits a repository string into owner and repo.
// Returns an error if the format is invalid.
func parseRepository(repository string) (owner, repo string, err error) {
	if repository == "" {
		return "", "", ErrInvalidRepo
	}

	parts := strings.Split(repository, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: got %s", ErrInvalidRepo, repository)
	}

	owner = strings.TrimSpace(parts[0])
	repo = strings.TrimSpace(parts[1])

	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("%w: owner or repo is empty", ErrInvalidRepo)
	}

	return owner, repo, nil
}
