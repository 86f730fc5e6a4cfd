package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsKeyAndDecodesPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k1", r.Header.Get("Authorization"))
		assert.Equal(t, "/posts", r.URL.Path)
		_, _ = w.Write([]byte(`[{"slug":"a","filename":"a.md","title":"A","category":"tech","published":true,"content":"# A"}]`))
	}))
	defer srv.Close()

	posts, err := New(srv.URL+"/", "k1", srv.Client()).ListPosts(context.Background())

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "a", posts[0].Slug)
	assert.Equal(t, "# A", posts[0].Content)
}

func TestClientUpdateSendsOnlyPresentFields(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/posts/hello", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"message":"Post updated successfully"}`))
	}))
	defer srv.Close()

	title := "New title"
	msg, err := New(srv.URL, "k", srv.Client()).UpdatePost(context.Background(), "hello", PostUpdate{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, "Post updated successfully", msg)
	assert.Equal(t, map[string]any{"title": "New title"}, body)
}

func TestClientMapsErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Category not found"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "k", srv.Client()).DeleteCategory(context.Background(), "ghost")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Category not found", apiErr.Message)
}

func TestClientFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "k", srv.Client()).ListCategories(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestClientCategoryBodies(t *testing.T) {
	var got []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got = append(got, body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()
	c := New(srv.URL, "k", srv.Client())

	_, err := c.AddCategory(context.Background(), "tech")
	require.NoError(t, err)
	_, err = c.UpdateCategory(context.Background(), "tech", "technology")
	require.NoError(t, err)

	assert.Equal(t, []map[string]string{{"category": "tech"}, {"newCategory": "technology"}}, got)
}
