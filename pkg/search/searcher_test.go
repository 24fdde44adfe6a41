package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/movie-search-client/pkg/movie"
	"github.com/Sternrassler/movie-search-client/pkg/query"
	"github.com/rs/zerolog"
)

// pendingSearch is a search waiting for the test to answer it.
type pendingSearch struct {
	req     query.Request
	respond chan searchResponse
}

type searchResponse struct {
	result *movie.SearchResult
	err    error
}

func (p *pendingSearch) succeed(result *movie.SearchResult) {
	p.respond <- searchResponse{result: result}
}

func (p *pendingSearch) fail(err error) {
	p.respond <- searchResponse{err: err}
}

// gatedSearcher blocks every search until the test responds to it.
type gatedSearcher struct {
	calls chan *pendingSearch
}

func newGatedSearcher() *gatedSearcher {
	return &gatedSearcher{calls: make(chan *pendingSearch, 64)}
}

func (s *gatedSearcher) Search(ctx context.Context, req query.Request) (*movie.SearchResult, error) {
	p := &pendingSearch{req: req, respond: make(chan searchResponse, 1)}
	s.calls <- p

	select {
	case r := <-p.respond:
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// next returns the next search to arrive.
func (s *gatedSearcher) next(t *testing.T) *pendingSearch {
	t.Helper()
	select {
	case p := <-s.calls:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a search to be issued")
		return nil
	}
}

// collect returns the next n searches keyed by request string.
// Goroutines may start in any order, so searches are matched by request.
func (s *gatedSearcher) collect(t *testing.T, n int) map[string]*pendingSearch {
	t.Helper()
	got := make(map[string]*pendingSearch, n)
	for i := 0; i < n; i++ {
		p := s.next(t)
		got[p.req.String()] = p
	}
	return got
}

// assertIdle fails if a search was issued.
func (s *gatedSearcher) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case p := <-s.calls:
		t.Fatalf("unexpected search issued: %s", p.req.String())
	case <-time.After(50 * time.Millisecond):
	}
}

// resultOf returns a page with one movie titled after label and the given total.
func resultOf(label string, total int) *movie.SearchResult {
	return &movie.SearchResult{
		Movies: []movie.Movie{{Title: label, Year: "1999", IMDbID: "tt-" + label}},
		Total:  total,
	}
}

func firstTitle(t *testing.T, r *movie.SearchResult) string {
	t.Helper()
	if r == nil || len(r.Movies) == 0 {
		t.Fatalf("result %+v has no movies", r)
	}
	return r.Movies[0].Title
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// echoSearcher answers immediately with a movie titled after the request.
type echoSearcher struct {
	mu    sync.Mutex
	delay func(query.Request) time.Duration
	total int
}

func (s *echoSearcher) Search(ctx context.Context, req query.Request) (*movie.SearchResult, error) {
	if s.delay != nil {
		time.Sleep(s.delay(req))
	}
	s.mu.Lock()
	total := s.total
	s.mu.Unlock()
	return resultOf(req.String(), total), nil
}
