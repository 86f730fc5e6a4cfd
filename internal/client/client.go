// Package client talks to the content API on behalf of inkctl.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inkwell/api/internal/sitemap"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// PostWithContent is an entry of the published post listing.
type PostWithContent struct {
	sitemap.Post
	Content string `json:"content"`
}

// PostDetail is the answer of GET /posts/{slug}.
type PostDetail struct {
	Post    sitemap.Post `json:"post"`
	Content string       `json:"content"`
}

type NewPost struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Content  string `json:"content"`
}

// PostUpdate sends only the non-nil fields.
type PostUpdate struct {
	Content  *string `json:"content,omitempty"`
	Title    *string `json:"title,omitempty"`
	Category *string `json:"category,omitempty"`
}

type Client struct {
	baseURL string
	key     string
	http    *http.Client
}

func New(baseURL, key string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		http:    httpClient,
	}
}

func (c *Client) ListPosts(ctx context.Context) ([]PostWithContent, error) {
	var posts []PostWithContent
	err := c.do(ctx, http.MethodGet, "/posts", nil, &posts)
	return posts, err
}

func (c *Client) GetPost(ctx context.Context, slug string) (PostDetail, error) {
	var detail PostDetail
	err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(slug), nil, &detail)
	return detail, err
}

func (c *Client) CreatePost(ctx context.Context, post NewPost) (string, error) {
	return c.message(ctx, http.MethodPost, "/posts", post)
}

func (c *Client) UpdatePost(ctx context.Context, slug string, update PostUpdate) (string, error) {
	return c.message(ctx, http.MethodPut, "/posts/"+url.PathEscape(slug), update)
}

func (c *Client) DeletePost(ctx context.Context, slug string) (string, error) {
	return c.message(ctx, http.MethodDelete, "/posts/"+url.PathEscape(slug), nil)
}

func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := c.do(ctx, http.MethodGet, "/categories", nil, &categories)
	return categories, err
}

func (c *Client) AddCategory(ctx context.Context, name string) (string, error) {
	return c.message(ctx, http.MethodPost, "/categories", map[string]string{"category": name})
}

func (c *Client) UpdateCategory(ctx context.Context, old, name string) (string, error) {
	return c.message(ctx, http.MethodPut, "/categories/"+url.PathEscape(old), map[string]string{"newCategory": name})
}

func (c *Client) DeleteCategory(ctx context.Context, name string) (string, error) {
	return c.message(ctx, http.MethodDelete, "/categories/"+url.PathEscape(name), nil)
}

func (c *Client) message(ctx context.Context, method, path string, body any) (string, error) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, method, path, body, &payload); err != nil {
		return "", err
	}
	return payload.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.key != "" {
		req.Header.Set("Authorization", c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error string `json:"error"`
		}
		if jsonErr := json.Unmarshal(data, &envelope); jsonErr != nil || envelope.Error == "" {
			envelope.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: envelope.Error}
	}
	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
