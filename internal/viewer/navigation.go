package viewer

import (
	"context"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"inkwell/api/internal/sitemap"
)

type StateKind int

const (
	StateCategory StateKind = iota
	StatePost
)

// State is the controller's current location: a category listing or a post.
type State struct {
	Kind StateKind
	Name string
}

type ViewKind int

const (
	ViewList ViewKind = iota
	ViewPost
	ViewMessage
)

// View is one completed render. Seq orders renders by when they started.
type View struct {
	Seq      uint64
	Kind     ViewKind
	Category string
	Query    string
	Total    int
	Items    []ListItem
	Page     Page
	Post     *PostView
	Message  string
}

// MenuItem is one category entry of the navigation menu.
type MenuItem struct {
	Name  string
	Label string
}

// Controller turns navigation input into projections. It owns the page
// number and the search query; the cache owns posts and categories.
type Controller struct {
	cache     *Cache
	projector *Projector
	log       zerolog.Logger

	mu         sync.Mutex
	state      State
	category   string
	query      string
	page       int
	matches    []sitemap.Post
	loadFailed bool
	seq        uint64
	current    View
}

func NewController(cache *Cache, projector *Projector, logger zerolog.Logger) *Controller {
	return &Controller{
		cache:     cache,
		projector: projector,
		log:       logger,
		state:     State{Kind: StateCategory, Name: sitemap.All},
		category:  sitemap.All,
		page:      1,
	}
}

// Start loads the sitemap and resolves the initial state from fragment: a
// known category or "all", then a known post slug, else the "all" listing.
func (c *Controller) Start(ctx context.Context, fragment string) View {
	if err := c.cache.Load(ctx); err != nil {
		c.log.Error().Err(err).Msg("sitemap load failed")
		c.mu.Lock()
		c.loadFailed = true
		c.mu.Unlock()
		return c.inert()
	}

	fragment = strings.TrimPrefix(fragment, "#")
	switch {
	case fragment != "" && c.cache.IsCategory(fragment):
		return c.SelectCategory(ctx, fragment)
	case fragment != "":
		if _, ok := c.cache.Post(fragment); ok {
			return c.OpenPost(ctx, fragment)
		}
	}
	return c.SelectCategory(ctx, sitemap.All)
}

// Navigate handles a fragment change after startup. Anything that is not a
// category is treated as a post link.
func (c *Controller) Navigate(ctx context.Context, fragment string) View {
	fragment = strings.TrimPrefix(fragment, "#")
	if c.cache.IsCategory(fragment) {
		return c.SelectCategory(ctx, fragment)
	}
	return c.OpenPost(ctx, fragment)
}

func (c *Controller) SelectCategory(ctx context.Context, name string) View {
	c.mu.Lock()
	if c.loadFailed {
		c.mu.Unlock()
		return c.inert()
	}
	c.state = State{Kind: StateCategory, Name: name}
	c.category = name
	c.query = ""
	c.page = 1
	c.matches = c.projector.ByCategory(name)
	seq, matches, page := c.nextSeq(), c.matches, c.page
	c.mu.Unlock()

	return c.renderList(ctx, seq, name, "", matches, page)
}

func (c *Controller) OpenPost(ctx context.Context, slug string) View {
	c.mu.Lock()
	if c.loadFailed {
		c.mu.Unlock()
		return c.inert()
	}
	c.state = State{Kind: StatePost, Name: slug}
	seq := c.nextSeq()
	c.mu.Unlock()

	post := c.projector.RenderPost(ctx, slug)
	view := View{Seq: seq, Kind: ViewPost, Post: &post}
	if post.HTML == "" && post.Message != "" {
		view.Kind = ViewMessage
		view.Message = post.Message
	}
	return c.commit(view)
}

// Search filters the current category's posts by query. An empty query
// restores the plain category listing.
func (c *Controller) Search(ctx context.Context, query string) View {
	c.mu.Lock()
	if c.loadFailed {
		c.mu.Unlock()
		return c.inert()
	}
	category := c.category
	c.state = State{Kind: StateCategory, Name: category}
	c.query = query
	c.page = 1
	seq := c.nextSeq()
	c.mu.Unlock()

	candidates := c.projector.ByCategory(category)
	matches := candidates
	if NormalizeQuery(query) != "" {
		matches = c.projector.Search(ctx, query, candidates)
	}

	c.mu.Lock()
	if c.seq == seq {
		c.matches = matches
	}
	c.mu.Unlock()

	return c.renderList(ctx, seq, category, query, matches, 1)
}

// NextPage advances within the current match list. It is a no-op on the last
// page or while a post is shown.
func (c *Controller) NextPage(ctx context.Context) View {
	return c.turnPage(ctx, 1)
}

func (c *Controller) PrevPage(ctx context.Context) View {
	return c.turnPage(ctx, -1)
}

func (c *Controller) turnPage(ctx context.Context, delta int) View {
	c.mu.Lock()
	if c.loadFailed {
		c.mu.Unlock()
		return c.inert()
	}
	if c.state.Kind != StateCategory {
		current := c.current
		c.mu.Unlock()
		return current
	}
	window := Paginate(len(c.matches), c.projector.PageSize(), c.page)
	if (delta > 0 && !window.HasNext) || (delta < 0 && !window.HasPrev) {
		current := c.current
		c.mu.Unlock()
		return current
	}
	c.page = window.Number + delta
	seq, category, query, matches, page := c.nextSeq(), c.category, c.query, c.matches, c.page
	c.mu.Unlock()

	return c.renderList(ctx, seq, category, query, matches, page)
}

// Menu lists the stored categories with their first letter capitalised.
func (c *Controller) Menu() []MenuItem {
	categories := c.cache.Categories()
	items := make([]MenuItem, 0, len(categories))
	for _, name := range categories {
		items = append(items, MenuItem{Name: name, Label: capitalize(name)})
	}
	return items
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the most recently completed render.
func (c *Controller) Current() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) renderList(ctx context.Context, seq uint64, category, query string, matches []sitemap.Post, page int) View {
	window := Paginate(len(matches), c.projector.PageSize(), page)
	view := View{
		Seq:      seq,
		Kind:     ViewList,
		Category: category,
		Query:    query,
		Total:    len(matches),
		Page:     window,
	}
	if len(matches) == 0 && NormalizeQuery(query) == "" {
		view.Kind = ViewMessage
		view.Message = MsgEmptyCategory
		return c.commit(view)
	}
	view.Items = c.projector.Items(ctx, matches[window.Start:window.End])
	return c.commit(view)
}

func (c *Controller) inert() View {
	c.mu.Lock()
	seq := c.nextSeq()
	c.mu.Unlock()
	return c.commit(View{Seq: seq, Kind: ViewMessage, Message: MsgNoPosts})
}

// commit records view as current. Renders are not cancelled, so a slow
// earlier render that finishes last replaces a newer one.
func (c *Controller) commit(view View) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	if view.Seq < c.current.Seq {
		c.log.Debug().Uint64("seq", view.Seq).Uint64("current", c.current.Seq).Msg("stale render replaced newer view")
	}
	c.current = view
	return view
}

func (c *Controller) nextSeq() uint64 {
	c.seq++
	return c.seq
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
