package blob

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3RequiresEndpointAndBucket(t *testing.T) {
	_, err := NewS3(S3Config{Bucket: "content"})
	require.Error(t, err)
	_, err = NewS3(S3Config{Endpoint: "localhost:9000"})
	require.Error(t, err)

	store, err := NewS3(S3Config{Endpoint: "localhost:9000", Bucket: "content", Prefix: "/site/"})
	require.NoError(t, err)
	assert.Equal(t, "site", store.prefix)
}

func TestS3ObjectNames(t *testing.T) {
	store, err := NewS3(S3Config{Endpoint: "localhost:9000", Bucket: "content", Prefix: "site"})
	require.NoError(t, err)

	name, err := store.objectName("posts/hello.md")
	require.NoError(t, err)
	assert.Equal(t, "site/posts/hello.md", name)

	_, err = store.objectName("../hello.md")
	assert.True(t, errors.Is(err, ErrInvalidKey))

	assert.Equal(t, "sitemap.json", objectName("", "sitemap.json"))
}

func TestS3RejectsInvalidKeysBeforeNetwork(t *testing.T) {
	store, err := NewS3(S3Config{Endpoint: "localhost:9000", Bucket: "content"})
	require.NoError(t, err)
	_, err = store.Get(context.Background(), "")
	assert.True(t, errors.Is(err, ErrInvalidKey))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/markdown; charset=utf-8", contentType("posts/a.md"))
	assert.Equal(t, "application/json", contentType("sitemap.json"))
	assert.Equal(t, "application/octet-stream", contentType("blob"))
}
