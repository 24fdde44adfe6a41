package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/movie-search-client/pkg/movie"
	"github.com/Sternrassler/movie-search-client/pkg/query"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrNoResult is returned when a Searcher reports neither a result nor an error.
var ErrNoResult = errors.New("search returned no result")

// Searcher runs a single search call.
type Searcher interface {
	Search(ctx context.Context, req query.Request) (*movie.SearchResult, error)
}

// Config holds collector configuration.
type Config struct {
	// PageSize is the number of movies requested per page.
	PageSize int

	// MaxConcurrency is the maximum number of parallel page requests.
	MaxConcurrency int

	// MaxPages caps the number of pages fetched (0 = no cap).
	MaxPages int

	// Timeout per page fetch.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:       DefaultPageSize,
		MaxConcurrency: 4,
		MaxPages:       100,
		Timeout:        15 * time.Second,
	}
}

// Collector fetches every page of a search.
type Collector struct {
	searcher Searcher
	config   Config
}

// NewCollector creates a new collector.
func NewCollector(searcher Searcher, config Config) *Collector {
	defaults := DefaultConfig()
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &Collector{
		searcher: searcher,
		config:   config,
	}
}

// CollectAll returns all movies matching criteria, in page order.
// Total is the count reported by the first page. If MaxPages truncates the
// collection, fewer than Total movies are returned.
func (c *Collector) CollectAll(ctx context.Context, criteria query.Criteria) (*movie.SearchResult, error) {
	start := time.Now()

	first, err := c.fetchPage(ctx, criteria, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch page 1: %w", err)
	}

	totalPages := TotalPages(first.Total, c.config.PageSize)
	if c.config.MaxPages > 0 && totalPages > c.config.MaxPages {
		log.Warn().
			Int("total_pages", totalPages).
			Int("max_pages", c.config.MaxPages).
			Msg("Truncating collection at page limit")
		totalPages = c.config.MaxPages
	}

	log.Debug().
		Str("title", criteria.Title).
		Str("year", criteria.Year).
		Int("total", first.Total).
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	// Single page optimization
	if totalPages <= 1 {
		return first, nil
	}

	pages := make([][]movie.Movie, totalPages)
	pages[0] = first.Movies

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.MaxConcurrency)

	for page := 2; page <= totalPages; page++ {
		g.Go(func() error {
			result, err := c.fetchPage(gctx, criteria, page)
			if err != nil {
				return fmt.Errorf("fetch page %d: %w", page, err)
			}
			// Each goroutine owns one slot.
			pages[page-1] = result.Movies
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Int("total_pages", totalPages).Msg("Collection failed")
		return nil, err
	}

	movies := make([]movie.Movie, 0, totalPages*c.config.PageSize)
	for _, p := range pages {
		movies = append(movies, p...)
	}

	log.Info().
		Int("pages", totalPages).
		Int("movies", len(movies)).
		Dur("duration", time.Since(start)).
		Msg("Collection complete")

	return &movie.SearchResult{Movies: movies, Total: first.Total}, nil
}

func (c *Collector) fetchPage(ctx context.Context, criteria query.Criteria, page int) (*movie.SearchResult, error) {
	pageCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	window := query.Window{
		Offset: (page - 1) * c.config.PageSize,
		Limit:  c.config.PageSize,
	}
	result, err := c.searcher.Search(pageCtx, query.Build(criteria, window))
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNoResult
	}
	return result, nil
}
