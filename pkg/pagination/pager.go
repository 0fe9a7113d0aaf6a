package pagination

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"
)

// DefaultPerPage is the page size requested from the API when none is configured.
// Canvas caps per_page at 100, so larger values gain nothing.
const DefaultPerPage = 100

// Response carries the parts of an HTTP response the walker needs:
// the status, the headers (for the Link relation) and the raw body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Source is the interface a transport client must implement for single-page
// fetching. The rawurl may be a path relative to the client's base URL or an
// absolute URL taken from a Link header; query carries additional parameters
// for the request (nil when the rawurl already encodes them).
type Source interface {
	Get(ctx context.Context, rawurl string, query url.Values) (*Response, error)
}

// Config holds pager configuration.
type Config struct {
	// PerPage is the number of items requested per page.
	PerPage int
}

// DefaultConfig returns safe default configuration.
func DefaultConfig() Config {
	return Config{
		PerPage: DefaultPerPage,
	}
}

// Pager lazily walks a paginated collection one page at a time.
// T is the item type a page decodes into.
type Pager[T any] struct {
	src     Source
	rawurl  string
	query   url.Values
	unwrap  func(body []byte) ([]T, error)
	perPage int

	started bool
	done    bool
	useLink bool
	nextURL string
	page    int
	items   []T
	err     error
}

// New creates a pager over the collection at rawurl. The unwrap function
// decodes one response body into a slice of items; query parameters are sent
// with every counter-driven request (page and per_page are added by the
// pager and must not be set by the caller).
func New[T any](src Source, rawurl string, query url.Values, unwrap func([]byte) ([]T, error), cfg Config) *Pager[T] {
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}

	return &Pager[T]{
		src:     src,
		rawurl:  rawurl,
		query:   query,
		unwrap:  unwrap,
		perPage: cfg.PerPage,
	}
}

// Next fetches the next page. It returns true when a page of items is
// available via Items, and false when the collection is exhausted or an
// error occurred (check Err). Once it returns false it returns false forever.
func (p *Pager[T]) Next(ctx context.Context) bool {
	if p.done || p.err != nil {
		return false
	}

	var resp *Response
	var err error

	switch {
	case !p.started:
		p.started = true
		p.page = 1
		resp, err = p.src.Get(ctx, p.rawurl, p.pageQuery())
	case p.useLink:
		// Link URLs carry their own parameters; they take precedence
		// over the caller's query.
		p.syncPage(p.nextURL)
		resp, err = p.src.Get(ctx, p.nextURL, nil)
	default:
		p.page++
		resp, err = p.src.Get(ctx, p.rawurl, p.pageQuery())
	}

	if err != nil {
		p.fail(fmt.Errorf("fetch page %d: %w", p.page, err))
		return false
	}

	items, err := p.unwrap(resp.Body)
	if err != nil {
		p.fail(fmt.Errorf("decode page %d: %w", p.page, err))
		return false
	}

	if len(items) == 0 {
		log.Debug().
			Str("url", p.rawurl).
			Int("page", p.page).
			Msg("Empty page, walk complete")
		p.done = true
		return false
	}

	p.items = items

	// Plan the follow-up request from the Link header of this response.
	// A header without rel="next" means the convention is in use and the
	// collection is exhausted; no header at all means counter mode.
	if link := resp.Header.Get("Link"); link != "" {
		p.useLink = true
		p.nextURL = ParseNextLink(link)
		if p.nextURL == "" {
			p.done = true
		}
	} else {
		p.useLink = false
		p.nextURL = ""
	}

	log.Debug().
		Str("url", p.rawurl).
		Int("page", p.page).
		Int("items", len(items)).
		Bool("has_next", !p.done).
		Msg("Fetched page")

	return true
}

// Items returns the items of the page fetched by the last successful Next call.
func (p *Pager[T]) Items() []T {
	return p.items
}

// Err returns the error that terminated the walk, or nil for a clean finish.
func (p *Pager[T]) Err() error {
	return p.err
}

func (p *Pager[T]) fail(err error) {
	p.err = err
	p.done = true
	p.items = nil
}

// syncPage moves the page counter to the page a followed Link URL targets,
// keeping counter mode in step when a later response drops the Link header.
// Cursor-style links without a numeric page advance the counter by one.
func (p *Pager[T]) syncPage(rawurl string) {
	p.page++
	u, err := url.Parse(rawurl)
	if err != nil {
		return
	}
	if n, err := strconv.Atoi(u.Query().Get("page")); err == nil && n > 0 {
		p.page = n
	}
}

// pageQuery builds the query for a counter-driven request: the caller's
// parameters plus page and per_page.
func (p *Pager[T]) pageQuery() url.Values {
	q := url.Values{}
	for key, vals := range p.query {
		for _, v := range vals {
			q.Add(key, v)
		}
	}
	q.Set("page", strconv.Itoa(p.page))
	q.Set("per_page", strconv.Itoa(p.perPage))
	return q
}

// Collect drains the pager and returns all items in page order.
func Collect[T any](ctx context.Context, p *Pager[T]) ([]T, error) {
	var all []T
	for p.Next(ctx) {
		all = append(all, p.Items()...)
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return all, nil
}
