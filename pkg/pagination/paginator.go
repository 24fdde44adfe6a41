package pagination

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/movie-search-client/pkg/query"
)

// DefaultPageSize is the number of movies requested per page.
const DefaultPageSize = 12

var (
	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("invalid page")

	// ErrPageOutOfRange is returned for pages beyond the known total page count.
	ErrPageOutOfRange = errors.New("page out of range")
)

// TotalPages returns ceil(totalItems / pageSize).
// Non-positive inputs yield 0.
func TotalPages(totalItems, pageSize int) int {
	if totalItems <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}

// State is a snapshot of pagination state.
type State struct {
	// CurrentPage is 1-based.
	CurrentPage int
	PageSize    int

	// TotalItems is only meaningful when Known is true.
	TotalItems int
	Known      bool
}

// TotalPages returns the derived page count and whether it is known.
// Before the first completed search the count is unknown, which is not the
// same as zero pages.
func (s State) TotalPages() (int, bool) {
	if !s.Known {
		return 0, false
	}
	return TotalPages(s.TotalItems, s.PageSize), true
}

// HasNext reports whether a page after the current one is known to exist.
func (s State) HasNext() bool {
	total, ok := s.TotalPages()
	return ok && s.CurrentPage < total
}

// HasPrev reports whether there is a page before the current one.
func (s State) HasPrev() bool {
	return s.CurrentPage > 1
}

// Paginator tracks the current page of a search. It is not safe for
// concurrent use; the owner serializes access.
type Paginator struct {
	pageSize int
	current  int
	total    int
	known    bool
}

// New creates a paginator at page 1 with an unknown total.
// A non-positive pageSize falls back to DefaultPageSize.
func New(pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Paginator{
		pageSize: pageSize,
		current:  1,
	}
}

// OnSearchSubmitted restarts at page 1 and returns the first-page window.
// The previous total is kept until the new search completes.
func (p *Paginator) OnSearchSubmitted() query.Window {
	p.current = 1
	return p.Window()
}

// SetPage moves to page n and returns its window.
// Pages below 1 fail with ErrInvalidPage. Once the total is known, pages past
// the last one fail with ErrPageOutOfRange. A rejected call changes nothing.
func (p *Paginator) SetPage(n int) (query.Window, error) {
	if n < 1 {
		return query.Window{}, fmt.Errorf("%w: %d", ErrInvalidPage, n)
	}
	if p.known {
		if total := TotalPages(p.total, p.pageSize); n > total {
			return query.Window{}, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, n, total)
		}
	}

	p.current = n
	return p.Window(), nil
}

// Window returns the result window for the current page.
// Page 1 has offset 0, which the query builder leaves out.
func (p *Paginator) Window() query.Window {
	return query.Window{
		Offset: (p.current - 1) * p.pageSize,
		Limit:  p.pageSize,
	}
}

// SetTotal records the total item count reported by a completed search.
func (p *Paginator) SetTotal(totalItems int) {
	if totalItems < 0 {
		totalItems = 0
	}
	p.total = totalItems
	p.known = true
}

// PageSize returns the fixed page size.
func (p *Paginator) PageSize() int {
	return p.pageSize
}

// State returns a snapshot of the current pagination state.
func (p *Paginator) State() State {
	return State{
		CurrentPage: p.current,
		PageSize:    p.pageSize,
		TotalItems:  p.total,
		Known:       p.known,
	}
}
