// Package sitemap holds the manifest model shared by the content store and the viewer.
package sitemap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// All is the pseudo-category that selects every published post. It is never stored.
const All = "all"

// FileName is the name of the persisted manifest document.
const FileName = "sitemap.json"

// PostsPrefix is the key prefix under which post bodies are stored.
const PostsPrefix = "posts/"

var ErrInvalid = errors.New("invalid sitemap")

type Post struct {
	Slug      string `json:"slug" validate:"required"`
	Filename  string `json:"filename" validate:"required"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Published bool   `json:"published"`
}

// Sitemap is the aggregate root: ordered posts plus ordered categories.
type Sitemap struct {
	Posts      []Post   `json:"posts" validate:"dive"`
	Categories []string `json:"categories"`
}

var validate = validator.New()

// Filename derives the storage filename for a slug.
func Filename(slug string) string {
	return slug + ".md"
}

// BodyKey is the storage key of a post body.
func BodyKey(filename string) string {
	return PostsPrefix + filename
}

// Parse decodes and validates a persisted manifest. Null or absent arrays are
// normalised to empty ones.
func Parse(data []byte) (Sitemap, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return Sitemap{}, fmt.Errorf("%w: document is null", ErrInvalid)
	}
	var doc Sitemap
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&doc); err != nil {
		return Sitemap{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := validate.Struct(doc); err != nil {
		return Sitemap{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return doc.normalized(), nil
}

// Encode renders the manifest the way it is persisted: two-space indent, trailing newline.
func Encode(doc Sitemap) ([]byte, error) {
	payload, err := json.MarshalIndent(doc.normalized(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	return append(payload, '\n'), nil
}

func (s Sitemap) normalized() Sitemap {
	if s.Posts == nil {
		s.Posts = []Post{}
	}
	if s.Categories == nil {
		s.Categories = []string{}
	}
	return s
}

// PostIndex returns the index of the first post with slug, or -1.
func (s Sitemap) PostIndex(slug string) int {
	for i, post := range s.Posts {
		if post.Slug == slug {
			return i
		}
	}
	return -1
}

// CategoryIndex returns the index of the first occurrence of name, or -1.
func (s Sitemap) CategoryIndex(name string) int {
	for i, category := range s.Categories {
		if category == name {
			return i
		}
	}
	return -1
}

// IsReserved reports whether name is the reserved pseudo-category.
func IsReserved(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), All)
}
