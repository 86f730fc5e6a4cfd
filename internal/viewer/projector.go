package viewer

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"inkwell/api/internal/markdown"
	"inkwell/api/internal/sitemap"
)

const (
	// DefaultPageSize is the number of posts on one list page.
	DefaultPageSize = 10
	// DefaultFetchConcurrency bounds parallel body fetches per projection.
	DefaultFetchConcurrency = 4
)

const (
	MsgNotPublished  = "This post is not published or does not exist."
	MsgLoadFailed    = "This post could not be loaded."
	MsgEmptyCategory = "No posts available in this category."
	MsgNoPosts       = "No posts available."
)

// Page is one window over an ordered list of n items.
type Page struct {
	Number     int
	TotalPages int
	Start      int
	End        int
	HasPrev    bool
	HasNext    bool
}

// Paginate clamps page to [1, max(1, ceil(n/size))] and returns its window.
func Paginate(n, size, page int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n < 0 {
		n = 0
	}
	total := (n + size - 1) / size
	last := max(total, 1)
	page = min(max(page, 1), last)

	start := min((page-1)*size, n)
	end := min(start+size, n)
	return Page{
		Number:     page,
		TotalPages: total,
		Start:      start,
		End:        end,
		HasPrev:    page > 1,
		HasNext:    page < last,
	}
}

// ListItem is a post in a list view with its preview snippet.
type ListItem struct {
	Post    sitemap.Post
	Snippet string
}

// PostView is a rendered post, or a message when it cannot be shown.
type PostView struct {
	Post    sitemap.Post
	HTML    string
	Related []sitemap.Post
	Message string
}

// Projector derives the visible post sets from the cached sitemap. Post bodies
// are fetched on demand for every projection and never cached.
type Projector struct {
	cache       *Cache
	fetcher     Fetcher
	renderer    *markdown.Renderer
	pageSize    int
	concurrency int
	log         zerolog.Logger
}

type ProjectorOption func(*Projector)

func WithPageSize(size int) ProjectorOption {
	return func(p *Projector) {
		if size > 0 {
			p.pageSize = size
		}
	}
}

func WithFetchConcurrency(n int) ProjectorOption {
	return func(p *Projector) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func NewProjector(cache *Cache, fetcher Fetcher, logger zerolog.Logger, opts ...ProjectorOption) *Projector {
	p := &Projector{
		cache:       cache,
		fetcher:     fetcher,
		renderer:    markdown.NewRenderer(),
		pageSize:    DefaultPageSize,
		concurrency: DefaultFetchConcurrency,
		log:         logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Projector) PageSize() int {
	return p.pageSize
}

// ByCategory returns the published posts of name in sitemap order; "all"
// selects every published post. An unknown category yields nothing.
func (p *Projector) ByCategory(name string) []sitemap.Post {
	var posts []sitemap.Post
	for _, post := range p.cache.Posts() {
		if !post.Published {
			continue
		}
		if name == sitemap.All || post.Category == name {
			posts = append(posts, post)
		}
	}
	return posts
}

// NormalizeQuery lowercases text, trims it and collapses inner whitespace.
func NormalizeQuery(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Search returns the candidates whose title or body contains query, keeping
// candidate order. Bodies are fetched concurrently; a failed fetch counts as
// a body miss.
func (p *Projector) Search(ctx context.Context, query string, candidates []sitemap.Post) []sitemap.Post {
	needle := NormalizeQuery(query)
	if needle == "" {
		return candidates
	}

	matched := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, post := range candidates {
		if strings.Contains(NormalizeQuery(post.Title), needle) {
			matched[i] = true
			continue
		}
		g.Go(func() error {
			body, err := p.fetcher.FetchBody(gctx, post.Filename)
			if err != nil {
				p.log.Warn().Err(err).Str("slug", post.Slug).Msg("search body fetch failed")
				return nil
			}
			matched[i] = strings.Contains(NormalizeQuery(body), needle)
			return nil
		})
	}
	_ = g.Wait()

	var results []sitemap.Post
	for i, post := range candidates {
		if matched[i] {
			results = append(results, post)
		}
	}
	return results
}

// Related returns every other post sharing the category of post, in sitemap
// order. Unpublished siblings are included. Nil when there are none.
func (p *Projector) Related(post sitemap.Post) []sitemap.Post {
	if post.Category == "" {
		return nil
	}
	var related []sitemap.Post
	for _, other := range p.cache.Posts() {
		if other.Slug != post.Slug && other.Category == post.Category {
			related = append(related, other)
		}
	}
	return related
}

// Items builds the list items for posts, each fetching and summarising its
// own body. A failed fetch leaves that item without a snippet.
func (p *Projector) Items(ctx context.Context, posts []sitemap.Post) []ListItem {
	items := make([]ListItem, len(posts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, post := range posts {
		items[i].Post = post
		g.Go(func() error {
			items[i].Snippet = p.snippet(gctx, post)
			return nil
		})
	}
	_ = g.Wait()
	return items
}

func (p *Projector) snippet(ctx context.Context, post sitemap.Post) string {
	body, err := p.fetcher.FetchBody(ctx, post.Filename)
	if err != nil {
		p.log.Warn().Err(err).Str("slug", post.Slug).Msg("snippet body fetch failed")
		return ""
	}
	html, err := p.renderer.Render([]byte(body))
	if err != nil {
		p.log.Warn().Err(err).Str("slug", post.Slug).Msg("snippet render failed")
		return ""
	}
	text, err := markdown.Snippet(html, markdown.SnippetBudget)
	if err != nil {
		p.log.Warn().Err(err).Str("slug", post.Slug).Msg("snippet extraction failed")
		return ""
	}
	return text
}

// RenderPost renders the published post with slug together with its related
// posts.
func (p *Projector) RenderPost(ctx context.Context, slug string) PostView {
	post, ok := p.cache.Post(slug)
	if !ok || !post.Published {
		return PostView{Message: MsgNotPublished}
	}
	body, err := p.fetcher.FetchBody(ctx, post.Filename)
	if err != nil {
		p.log.Warn().Err(err).Str("slug", slug).Msg("post body fetch failed")
		return PostView{Post: post, Message: MsgLoadFailed}
	}
	html, err := p.renderer.Render([]byte(body))
	if err != nil {
		p.log.Warn().Err(err).Str("slug", slug).Msg("post render failed")
		return PostView{Post: post, Message: MsgLoadFailed}
	}
	return PostView{Post: post, HTML: html, Related: p.Related(post)}
}
