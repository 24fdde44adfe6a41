package search

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/movie-search-client/pkg/movie"
	"github.com/Sternrassler/movie-search-client/pkg/query"
	"github.com/rs/zerolog"
)

// Searcher runs a single search call against the search service.
type Searcher interface {
	Search(ctx context.Context, req query.Request) (*movie.SearchResult, error)
}

// Outcome is the completed result of one issued search.
type Outcome struct {
	Generation uint64
	Request    query.Request
	Result     *movie.SearchResult
	Err        error
}

// ApplyFunc receives the outcome of the latest search while the owner's lock
// is held. The returned function, if any, runs after the lock is released.
type ApplyFunc func(Outcome) (after func())

// Coordinator issues searches and drops outcomes of superseded ones.
//
// Each issued search gets the next generation number. When a search
// completes, its outcome is applied only if no newer search has been issued
// since; otherwise it is discarded, whether it succeeded or failed. Searches
// are never cancelled, only their outcomes suppressed.
//
// The coordinator shares its owner's lock: Issue and Latest must be called
// with that lock held, and outcomes are applied under it.
type Coordinator struct {
	searcher Searcher
	mu       sync.Locker
	latest   uint64
	wg       sync.WaitGroup
	logger   zerolog.Logger
}

// NewCoordinator creates a coordinator guarded by mu.
func NewCoordinator(searcher Searcher, mu sync.Locker, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		searcher: searcher,
		mu:       mu,
		logger:   logger,
	}
}

// Issue starts req on its own goroutine and returns its generation.
// The caller must hold the coordinator's lock.
func (c *Coordinator) Issue(ctx context.Context, req query.Request, apply ApplyFunc) uint64 {
	c.latest++
	gen := c.latest

	generationsIssued.Inc()
	inflightSearches.Inc()
	c.wg.Add(1)

	go c.run(ctx, gen, req, apply)

	return gen
}

func (c *Coordinator) run(ctx context.Context, gen uint64, req query.Request, apply ApplyFunc) {
	defer c.wg.Done()
	defer inflightSearches.Dec()

	start := time.Now()
	result, err := c.searcher.Search(ctx, req)

	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	}
	searchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	c.mu.Lock()
	if gen != c.latest {
		latest := c.latest
		c.mu.Unlock()

		staleDiscards.WithLabelValues(outcome).Inc()
		c.logger.Debug().
			Uint64("generation", gen).
			Uint64("latest", latest).
			Str("outcome", outcome).
			Str("request", req.String()).
			Msg("Discarding stale search outcome")
		return
	}

	after := apply(Outcome{
		Generation: gen,
		Request:    req,
		Result:     result,
		Err:        err,
	})
	c.mu.Unlock()

	if after != nil {
		after()
	}
}

// Latest returns the most recently issued generation, 0 before the first search.
// The caller must hold the coordinator's lock.
func (c *Coordinator) Latest() uint64 {
	return c.latest
}

// Wait blocks until every issued search has completed and its outcome has
// been applied or discarded.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
