package search

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/Sternrassler/movie-search-client/pkg/logging"
	"github.com/Sternrassler/movie-search-client/pkg/movie"
	"github.com/Sternrassler/movie-search-client/pkg/pagination"
	"github.com/Sternrassler/movie-search-client/pkg/query"
	"github.com/rs/zerolog"
)

// ErrNoResult is reported when a searcher returns neither a result nor an error.
var ErrNoResult = errors.New("search returned no result")

// Phase is the controller's lifecycle phase.
type Phase int

const (
	// PhaseIdle means no search has completed successfully yet.
	PhaseIdle Phase = iota

	// PhaseLoaded means at least one search has completed, possibly without matches.
	PhaseLoaded
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// State is a read-only snapshot of the controller.
type State struct {
	Criteria   query.Criteria
	Pagination pagination.State

	// Result is nil until the first successful search. A non-nil result
	// without movies means the search matched nothing.
	Result *movie.SearchResult

	// Err is the failure of the latest search, if it failed. Result keeps
	// the last successful page.
	Err error

	Phase Phase

	// Loading is true while the latest issued search is outstanding.
	Loading bool

	// Generation is the latest issued search generation.
	Generation uint64
}

// Options configures a Controller.
type Options struct {
	// PageSize defaults to pagination.DefaultPageSize.
	PageSize int

	// Logger defaults to a component logger from pkg/logging.
	Logger *zerolog.Logger
}

// Controller owns the search criteria, pagination and displayed result.
//
// User actions (Submit, SetPage, NextPage, PrevPage) issue searches through a
// Coordinator, so only the most recently issued search can change the
// displayed state. Subscribers are notified with a snapshot after each
// applied outcome. Controller is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	coord    *Coordinator
	pager    *pagination.Paginator
	criteria query.Criteria
	result   *movie.SearchResult
	err      error
	phase    Phase
	loading  bool
	logger   zerolog.Logger

	listeners    map[uint64]func(State)
	nextListener uint64

	// notifyMu serializes listener calls; published is the last delivered generation.
	notifyMu  sync.Mutex
	published uint64
}

// NewController creates a controller in the idle phase.
func NewController(searcher Searcher, opts Options) *Controller {
	logger := logging.NewLogger("search-controller")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	c := &Controller{
		pager:     pagination.New(opts.PageSize),
		logger:    logger,
		listeners: make(map[uint64]func(State)),
	}
	c.coord = NewCoordinator(searcher, &c.mu, logger)
	return c
}

// SetTitle updates the title filter. It does not start a search.
func (c *Controller) SetTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria.Title = title
}

// SetYear updates the year filter. It does not start a search.
func (c *Controller) SetYear(year string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria.Year = year
}

// SetCriteria replaces both filters. It does not start a search.
func (c *Controller) SetCriteria(criteria query.Criteria) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria = criteria
}

// Submit starts a new search from page 1 with the current criteria and
// returns its generation.
func (c *Controller) Submit(ctx context.Context) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	window := c.pager.OnSearchSubmitted()
	return c.issueLocked(ctx, window)
}

// SetPage moves to page n and searches it with the current criteria.
// An invalid or out-of-range page is rejected without issuing a search; see
// pagination.Paginator.SetPage.
func (c *Controller) SetPage(ctx context.Context, n int) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setPageLocked(ctx, n)
}

// NextPage moves one page forward.
func (c *Controller) NextPage(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setPageLocked(ctx, c.pager.State().CurrentPage+1)
}

// PrevPage moves one page back.
func (c *Controller) PrevPage(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setPageLocked(ctx, c.pager.State().CurrentPage-1)
}

func (c *Controller) setPageLocked(ctx context.Context, n int) (uint64, error) {
	window, err := c.pager.SetPage(n)
	if err != nil {
		c.logger.Debug().Err(err).Int("page", n).Msg("Page change rejected")
		return 0, err
	}
	return c.issueLocked(ctx, window), nil
}

func (c *Controller) issueLocked(ctx context.Context, window query.Window) uint64 {
	req := query.Build(c.criteria, window)
	c.loading = true

	gen := c.coord.Issue(ctx, req, c.applyLocked)

	c.logger.Debug().
		Uint64("generation", gen).
		Int("page", c.pager.State().CurrentPage).
		Int("page_size", c.pager.PageSize()).
		Str("request", req.String()).
		Msg("Search issued")

	return gen
}

// applyLocked is the coordinator's apply callback; c.mu is held.
func (c *Controller) applyLocked(o Outcome) func() {
	c.loading = false

	err := o.Err
	if err == nil && o.Result == nil {
		err = ErrNoResult
	}

	if err != nil {
		c.err = err
		c.logger.Warn().
			Err(err).
			Uint64("generation", o.Generation).
			Str("request", o.Request.String()).
			Msg("Search failed")
	} else {
		c.result = o.Result
		c.err = nil
		c.phase = PhaseLoaded
		c.pager.SetTotal(o.Result.Total)
	}

	snapshot := c.stateLocked()
	listeners := make([]func(State), 0, len(c.listeners))
	for _, id := range slices.Sorted(maps.Keys(c.listeners)) {
		listeners = append(listeners, c.listeners[id])
	}

	return func() {
		c.publish(snapshot, listeners)
	}
}

// publish delivers a snapshot unless a newer one has already been delivered.
func (c *Controller) publish(snapshot State, listeners []func(State)) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	if snapshot.Generation < c.published {
		return
	}
	c.published = snapshot.Generation

	for _, fn := range listeners {
		fn(snapshot)
	}
}

// Subscribe registers fn to receive a snapshot after each applied search
// outcome. Listeners run outside the controller lock and may call back into
// the controller. The returned function removes the listener.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextListener++
	id := c.nextListener
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		Criteria:   c.criteria,
		Pagination: c.pager.State(),
		Result:     c.result,
		Err:        c.err,
		Phase:      c.phase,
		Loading:    c.loading,
		Generation: c.coord.Latest(),
	}
}

// Wait blocks until all issued searches have completed and listeners for
// applied outcomes have returned.
func (c *Controller) Wait() {
	c.coord.Wait()
}
