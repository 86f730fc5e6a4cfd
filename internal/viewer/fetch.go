package viewer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inkwell/api/internal/sitemap"
)

// DefaultTimeout bounds a single fetch against the public server.
const DefaultTimeout = 15 * time.Second

// Fetcher retrieves the published sitemap and post bodies.
type Fetcher interface {
	FetchSitemap(ctx context.Context) (sitemap.Sitemap, error)
	FetchBody(ctx context.Context, filename string) (string, error)
}

// FetchError describes a failed request against the public server.
type FetchError struct {
	URL     string
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// HTTPFetcher reads sitemap.json and posts/{filename} below a base URL.
type HTTPFetcher struct {
	base   *url.URL
	client *http.Client
}

func NewHTTPFetcher(baseURL string, client *http.Client) (*HTTPFetcher, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &FetchError{URL: baseURL, Message: "invalid base URL", Cause: err}
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPFetcher{base: parsed, client: client}, nil
}

func (f *HTTPFetcher) FetchSitemap(ctx context.Context) (sitemap.Sitemap, error) {
	data, err := f.get(ctx, sitemap.FileName)
	if err != nil {
		return sitemap.Sitemap{}, err
	}
	return sitemap.Parse(data)
}

func (f *HTTPFetcher) FetchBody(ctx context.Context, filename string) (string, error) {
	data, err := f.get(ctx, sitemap.PostsPrefix+url.PathEscape(filename))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *HTTPFetcher) get(ctx context.Context, path string) ([]byte, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, &FetchError{URL: path, Message: "invalid path", Cause: err}
	}
	target := f.base.ResolveReference(ref).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Message: "failed to create request", Cause: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: target, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: target, Message: "failed to read response body", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: target, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	return body, nil
}
