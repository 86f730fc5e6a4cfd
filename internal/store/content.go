// Package store owns the sitemap and the post bodies it indexes. Every mutation
// is a read-modify-write of the whole sitemap performed under the write lock,
// paired in the same critical section with the matching body mutation.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"inkwell/api/internal/blob"
	"inkwell/api/internal/lock"
	"inkwell/api/internal/metrics"
	"inkwell/api/internal/sitemap"
)

// PostContent is a sitemap entry together with its body.
type PostContent struct {
	Post    sitemap.Post `json:"post"`
	Content string       `json:"content"`
}

type NewPost struct {
	Slug     string
	Title    string
	Category string
	Content  string
}

// PostUpdate carries the fields to change; nil fields are left untouched.
type PostUpdate struct {
	Content  *string
	Title    *string
	Category *string
}

type Store struct {
	blobs  blob.Store
	locker lock.Locker
	log    zerolog.Logger
}

func New(blobs blob.Store, locker lock.Locker, logger zerolog.Logger) *Store {
	if locker == nil {
		locker = lock.NewLocal()
	}
	return &Store{blobs: blobs, locker: locker, log: logger}
}

// Ensure writes an empty sitemap when none exists yet.
func (s *Store) Ensure(ctx context.Context) error {
	return s.mutate(ctx, "ensure", func(doc *sitemap.Sitemap, existed bool) (bool, error) {
		return !existed, nil
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.blobs.Ping(ctx)
}

// Sitemap returns the persisted sitemap.
func (s *Store) Sitemap(ctx context.Context) (sitemap.Sitemap, error) {
	doc, _, err := s.load(ctx)
	s.record("get_sitemap", err)
	return doc, err
}

// GetPost returns the post with slug and its body. A post whose body file is
// missing is returned with empty content rather than an error; the manifest
// entry is still the source of truth for existence.
func (s *Store) GetPost(ctx context.Context, slug string) (PostContent, error) {
	result, err := s.getPost(ctx, slug)
	s.record("get_post", err)
	return result, err
}

func (s *Store) getPost(ctx context.Context, slug string) (PostContent, error) {
	doc, _, err := s.load(ctx)
	if err != nil {
		return PostContent{}, err
	}
	idx := doc.PostIndex(slug)
	if idx < 0 {
		return PostContent{}, ErrNotFound
	}
	post := doc.Posts[idx]
	content, err := s.readBody(ctx, post)
	if err != nil {
		return PostContent{}, err
	}
	return PostContent{Post: post, Content: content}, nil
}

// ListPublished returns every published post in sitemap order with its body,
// with the same leniency as GetPost for missing bodies.
func (s *Store) ListPublished(ctx context.Context) ([]PostContent, error) {
	result, err := s.listPublished(ctx)
	s.record("list_posts", err)
	return result, err
}

func (s *Store) listPublished(ctx context.Context) ([]PostContent, error) {
	doc, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]PostContent, 0, len(doc.Posts))
	for _, post := range doc.Posts {
		if !post.Published {
			continue
		}
		content, err := s.readBody(ctx, post)
		if err != nil {
			return nil, err
		}
		items = append(items, PostContent{Post: post, Content: content})
	}
	return items, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	doc, _, err := s.load(ctx)
	s.record("list_categories", err)
	if err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

// CreatePost writes the body to {slug}.md and appends a published entry.
// An orphaned body file with the same name is overwritten; an existing entry
// with the same slug is rejected with ErrConflict.
func (s *Store) CreatePost(ctx context.Context, input NewPost) (sitemap.Post, error) {
	var created sitemap.Post
	if !urlSafeSlug(input.Slug) {
		s.record("create_post", ErrInvalidInput)
		return created, fmt.Errorf("%w: slug %q is not url-safe", ErrInvalidInput, input.Slug)
	}
	err := s.mutate(ctx, "create_post", func(doc *sitemap.Sitemap, _ bool) (bool, error) {
		if doc.PostIndex(input.Slug) >= 0 {
			return false, fmt.Errorf("%w: post %q", ErrConflict, input.Slug)
		}
		created = sitemap.Post{
			Slug:      input.Slug,
			Filename:  sitemap.Filename(input.Slug),
			Title:     input.Title,
			Category:  input.Category,
			Published: true,
		}
		if err := s.blobs.Put(ctx, sitemap.BodyKey(created.Filename), []byte(input.Content)); err != nil {
			return false, fmt.Errorf("write post body: %w", err)
		}
		doc.Posts = append(doc.Posts, created)
		return true, nil
	})
	if err != nil {
		return sitemap.Post{}, err
	}
	s.log.Info().Str("slug", created.Slug).Str("category", created.Category).Msg("post created")
	return created, nil
}

// UpdatePost applies the present fields of update to the post with slug.
func (s *Store) UpdatePost(ctx context.Context, slug string, update PostUpdate) error {
	err := s.mutate(ctx, "update_post", func(doc *sitemap.Sitemap, _ bool) (bool, error) {
		idx := doc.PostIndex(slug)
		if idx < 0 {
			return false, ErrNotFound
		}
		post := &doc.Posts[idx]
		if update.Content != nil {
			if err := s.blobs.Put(ctx, sitemap.BodyKey(post.Filename), []byte(*update.Content)); err != nil {
				return false, fmt.Errorf("write post body: %w", err)
			}
		}
		if update.Title != nil {
			post.Title = *update.Title
		}
		if update.Category != nil {
			post.Category = *update.Category
		}
		return true, nil
	})
	if err == nil {
		s.log.Info().Str("slug", slug).Msg("post updated")
	}
	return err
}

// DeletePost removes the body (ignoring a missing file) and the entry.
func (s *Store) DeletePost(ctx context.Context, slug string) error {
	err := s.mutate(ctx, "delete_post", func(doc *sitemap.Sitemap, _ bool) (bool, error) {
		idx := doc.PostIndex(slug)
		if idx < 0 {
			return false, ErrNotFound
		}
		if err := s.blobs.Delete(ctx, sitemap.BodyKey(doc.Posts[idx].Filename)); err != nil {
			return false, fmt.Errorf("remove post body: %w", err)
		}
		doc.Posts = append(doc.Posts[:idx], doc.Posts[idx+1:]...)
		return true, nil
	})
	if err == nil {
		s.log.Info().Str("slug", slug).Msg("post deleted")
	}
	return err
}

// AddCategory appends name unless it is already present.
func (s *Store) AddCategory(ctx context.Context, name string) (bool, error) {
	if err := checkCategoryName(name); err != nil {
		s.record("add_category", err)
		return false, err
	}
	added := false
	err := s.mutate(ctx, "add_category", func(doc *sitemap.Sitemap, _ bool) (bool, error) {
		if doc.CategoryIndex(name) >= 0 {
			return false, nil
		}
		doc.Categories = append(doc.Categories, name)
		added = true
		return true, nil
	})
	return added, err
}

// UpdateCategory renames the first occurrence of old. Posts keep their value.
func (s *Store) UpdateCategory(ctx context.Context, old, name string) (bool, error) {
	if err := checkCategoryName(name); err != nil {
		s.record("update_category", err)
		return false, err
	}
	updated := false
	err := s.mutate(ctx, "update_category", func(doc *sitemap.Sitemap, _ bool) (bool, error) {
		idx := doc.CategoryIndex(old)
		if idx < 0 {
			return false, nil
		}
		if name != old && doc.CategoryIndex(name) >= 0 {
			return false, fmt.Errorf("%w: category %q", ErrConflict, name)
		}
		doc.Categories[idx] = name
		updated = true
		return true, nil
	})
	return updated, err
}

// DeleteCategory removes the first occurrence of name. Posts referencing it are
// neither deleted nor reassigned.
func (s *Store) DeleteCategory(ctx context.Context, name string) (bool, error) {
	deleted := false
	err := s.mutate(ctx, "delete_category", func(doc *sitemap.Sitemap, _ bool) (bool, error) {
		idx := doc.CategoryIndex(name)
		if idx < 0 {
			return false, nil
		}
		doc.Categories = append(doc.Categories[:idx], doc.Categories[idx+1:]...)
		deleted = true
		return true, nil
	})
	return deleted, err
}

// urlSafeSlug accepts RFC 3986 unreserved characters only, excluding the "."
// and ".." path segments so the body filename stays inside posts/.
func urlSafeSlug(value string) bool {
	if value == "" || value == "." || value == ".." || strings.Contains(value, "..") {
		return false
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '.', r == '_', r == '~':
		default:
			return false
		}
	}
	return true
}

func checkCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty category", ErrInvalidInput)
	}
	if sitemap.IsReserved(name) {
		return fmt.Errorf("%w: %q", ErrReservedCategory, name)
	}
	return nil
}

// mutate runs fn against the current sitemap while holding the write lock and
// persists the result when fn reports a change.
func (s *Store) mutate(ctx context.Context, op string, fn func(doc *sitemap.Sitemap, existed bool) (bool, error)) (err error) {
	defer func() { s.record(op, err) }()

	timer := metrics.NewTimer()
	release, err := s.locker.Lock(ctx)
	if err != nil {
		return fmt.Errorf("acquire sitemap lock: %w", err)
	}
	defer release()
	timer.ObserveDuration(metrics.LockWaitDuration)

	doc, existed, err := s.load(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(&doc, existed)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.save(ctx, doc)
}

func (s *Store) load(ctx context.Context) (sitemap.Sitemap, bool, error) {
	data, err := s.blobs.Get(ctx, sitemap.FileName)
	if errors.Is(err, blob.ErrNotExist) {
		return sitemap.Sitemap{Posts: []sitemap.Post{}, Categories: []string{}}, false, nil
	}
	if err != nil {
		return sitemap.Sitemap{}, false, fmt.Errorf("read sitemap: %w", err)
	}
	doc, err := sitemap.Parse(data)
	if err != nil {
		s.log.Error().Err(err).Msg("sitemap failed validation")
		return sitemap.Sitemap{}, true, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}
	return doc, true, nil
}

func (s *Store) save(ctx context.Context, doc sitemap.Sitemap) error {
	payload, err := sitemap.Encode(doc)
	if err != nil {
		return err
	}
	if err := s.blobs.Put(ctx, sitemap.FileName, payload); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}
	metrics.SitemapPosts.Set(float64(len(doc.Posts)))
	return nil
}

func (s *Store) readBody(ctx context.Context, post sitemap.Post) (string, error) {
	data, err := s.blobs.Get(ctx, sitemap.BodyKey(post.Filename))
	if errors.Is(err, blob.ErrNotExist) {
		s.log.Warn().Str("slug", post.Slug).Str("filename", post.Filename).Msg("post body missing")
		return "", nil
	}
	if errors.Is(err, blob.ErrInvalidKey) {
		s.log.Warn().Str("slug", post.Slug).Str("filename", post.Filename).Msg("post filename is not a valid key")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read post body %s: %w", post.Filename, err)
	}
	return string(data), nil
}

func (s *Store) record(op string, err error) {
	metrics.StoreOperationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
}
