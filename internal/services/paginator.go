package services

import (
	"context"
	"fmt"
	"iter"

	"github.com/desertthunder/gaelon/internal/models"
)

// ErrPageLimit is returned when [Pager.MaxPages] stops a traversal that still had a next link.
// Items fetched up to the bound remain valid.
var ErrPageLimit = fmt.Errorf("page limit reached before the last page")

// Pager is a bounded, restartable, forward-only walk over a cursor-paginated endpoint.
//
// Pages are fetched strictly in order: page N+1 is requested only after page
// N's next link has been read. A Pager is not safe for concurrent use.
type Pager[T any] struct {
	client *Client
	token  string
	start  string

	// MaxPages caps the number of pages fetched; 0 is unbounded.
	MaxPages int

	path    string
	visited map[string]struct{}
	pages   int
	done    bool
}

// NewPager creates a pager starting at path. MaxPages defaults to the client's bound.
func NewPager[T any](c *Client, path, token string) *Pager[T] {
	return &Pager[T]{
		client:   c,
		token:    token,
		start:    path,
		path:     path,
		visited:  map[string]struct{}{path: {}},
		MaxPages: c.maxPages,
	}
}

// Done reports whether the sequence is exhausted (or stopped by an error).
func (p *Pager[T]) Done() bool { return p.done }

// Pages returns how many pages have been fetched since the last reset.
func (p *Pager[T]) Pages() int { return p.pages }

// Reset rewinds the pager to its first page.
func (p *Pager[T]) Reset() {
	p.path = p.start
	p.visited = map[string]struct{}{p.start: {}}
	p.pages = 0
	p.done = false
}

// Next fetches the current page and advances. It returns nil, nil once [Pager.Done].
//
// An error ends the sequence; items fetched before it remain valid.
func (p *Pager[T]) Next(ctx context.Context) ([]T, error) {
	if p.done {
		return nil, nil
	}

	var page models.Page[T]
	if err := p.client.Get(ctx, p.path, p.token, &page); err != nil {
		p.done = true
		return nil, err
	}
	p.pages++

	next := page.NextURL()
	if next == "" {
		p.done = true
		return page.Items, nil
	}

	rel, err := p.client.RelativePath(next)
	if err != nil {
		p.done = true
		return page.Items, err
	}

	switch _, seen := p.visited[rel]; {
	case seen:
		p.client.logger.Warn("next link points at a consumed page, stopping pagination", "next", next, "pages", p.pages)
		p.done = true
	case p.MaxPages > 0 && p.pages >= p.MaxPages:
		p.done = true
		return page.Items, fmt.Errorf("%w: %d pages from %s", ErrPageLimit, p.pages, p.start)
	default:
		p.visited[rel] = struct{}{}
		p.path = rel
	}

	return page.Items, nil
}

// All yields every remaining item. An error is yielded once, with a zero item, and ends the sequence.
func (p *Pager[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for !p.Done() {
			items, err := p.Next(ctx)
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
		}
	}
}

// CollectAll follows next links from path and concatenates every page's items
// in fetch order. On failure it returns the items accumulated so far together
// with the error.
func CollectAll[T any](ctx context.Context, c *Client, path, token string) ([]T, error) {
	pager := NewPager[T](c, path, token)

	var items []T
	for !pager.Done() {
		page, err := pager.Next(ctx)
		items = append(items, page...)
		if err != nil {
			return items, err
		}
	}
	return items, nil
}
