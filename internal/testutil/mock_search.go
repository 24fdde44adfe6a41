// Package testutil provides testing utilities for the movie search client.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/movie-search-client/pkg/movie"
	"github.com/Sternrassler/movie-search-client/pkg/query"
)

// DefaultServerPageSize is the page size the mock applies when size is absent.
const DefaultServerPageSize = 10

// MockResponse overrides the search endpoint's behavior.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockSearch is a configurable mock movie search service for testing.
//
// By default it serves GET /api/movies from an in-memory catalog: title is a
// case-insensitive substring filter, year an exact match, from_item and size
// select the window. Responses can be overridden or delayed per request.
type MockSearch struct {
	server *httptest.Server

	mu          sync.RWMutex
	catalog     []movie.Movie
	override    *MockResponse
	delayFor    func(r *http.Request) time.Duration
	headers     map[string]string
	requests    []string
	lastHeaders http.Header
}

// NewMockSearch creates a mock search service serving catalog.
func NewMockSearch(catalog []movie.Movie) *MockSearch {
	mock := &MockSearch{
		catalog: append([]movie.Movie(nil), catalog...),
		headers: map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"OK"}`))
	})
	mux.HandleFunc(query.Path, mock.handleSearch)

	mock.server = httptest.NewServer(mux)
	return mock
}

// URL returns the mock server URL.
func (m *MockSearch) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSearch) Close() {
	m.server.Close()
}

// Reset clears request tracking and any override.
func (m *MockSearch) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.lastHeaders = nil
	m.override = nil
	m.delayFor = nil
}

// SetResponse replaces catalog responses with resp until Reset.
func (m *MockSearch) SetResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.override = &resp
}

// SetHeader adds a header to every catalog response, e.g. Cache-Control.
func (m *MockSearch) SetHeader(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headers[key] = value
}

// SetDelay delays responses by the duration delay returns for each request.
func (m *MockSearch) SetDelay(delay func(r *http.Request) time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delayFor = delay
}

// GetRequestCount returns the number of search requests served.
func (m *MockSearch) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// Requests returns the raw query strings of all search requests in arrival order.
func (m *MockSearch) Requests() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.requests...)
}

// LastHeaders returns the headers of the most recent search request.
func (m *MockSearch) LastHeaders() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeaders.Clone()
}

func (m *MockSearch) handleSearch(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests = append(m.requests, r.URL.RawQuery)
	m.lastHeaders = r.Header.Clone()
	override := m.override
	delayFor := m.delayFor
	headers := make(map[string]string, len(m.headers))
	for k, v := range m.headers {
		headers[k] = v
	}
	m.mu.Unlock()

	if delayFor != nil {
		select {
		case <-time.After(delayFor(r)):
		case <-r.Context().Done():
			return
		}
	}

	if override != nil {
		if override.Delay > 0 {
			time.Sleep(override.Delay)
		}
		for k, v := range override.Headers {
			w.Header().Set(k, v)
		}
		status := override.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write([]byte(override.Body))
		return
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	params := r.URL.Query()
	from, err := intParam(params.Get(query.ParamFromItem), 0)
	if err != nil {
		writeUnprocessable(w, query.ParamFromItem)
		return
	}
	size, err := intParam(params.Get(query.ParamSize), DefaultServerPageSize)
	if err != nil {
		writeUnprocessable(w, query.ParamSize)
		return
	}
	year := params.Get(query.ParamYear)
	if year != "" {
		if _, err := strconv.Atoi(year); err != nil {
			writeUnprocessable(w, query.ParamYear)
			return
		}
	}

	result := m.search(params.Get(query.ParamTitle), year, from, size)
	body, err := movie.Marshal(result)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	for k, v := range headers {
		w.Header().Set(k, v)
	}
	w.Write(body)
}

func (m *MockSearch) search(title, year string, from, size int) *movie.SearchResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title = strings.ToLower(title)
	var matches []movie.Movie
	for _, mv := range m.catalog {
		if title != "" && !strings.Contains(strings.ToLower(mv.Title), title) {
			continue
		}
		if year != "" && string(mv.Year) != year {
			continue
		}
		matches = append(matches, mv)
	}

	page := []movie.Movie{}
	if from < len(matches) {
		end := min(from+size, len(matches))
		page = append(page, matches[from:end]...)
	}
	return &movie.SearchResult{Movies: page, Total: len(matches)}
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

func writeUnprocessable(w http.ResponseWriter, param string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	w.Write([]byte(`{"detail":"invalid ` + param + `"}`))
}

// SampleCatalog returns a small catalog for tests and examples.
func SampleCatalog() []movie.Movie {
	return []movie.Movie{
		{Title: "The Matrix", Year: "1999", IMDbID: "tt0133093"},
		{Title: "The Matrix Reloaded", Year: "2003", IMDbID: "tt0234215"},
		{Title: "The Matrix Revolutions", Year: "2003", IMDbID: "tt0242653"},
		{Title: "The Matrix Resurrections", Year: "2021", IMDbID: "tt10838180"},
		{Title: "Star Wars", Year: "1977", IMDbID: "tt0076759"},
		{Title: "Alien", Year: "1979", IMDbID: "tt0078748"},
		{Title: "Aliens", Year: "1986", IMDbID: "tt0090605"},
		{Title: "Blade Runner", Year: "1982", IMDbID: "tt0083658"},
		{Title: "Amélie", Year: "2001", IMDbID: "tt0211915"},
		{Title: "Spirited Away", Year: "2001", IMDbID: "tt0245429"},
	}
}

// NumberedCatalog returns n movies titled "<prefix> 1" .. "<prefix> n".
func NumberedCatalog(prefix string, n int) []movie.Movie {
	movies := make([]movie.Movie, n)
	for i := range movies {
		movies[i] = movie.Movie{
			Title:  prefix + " " + strconv.Itoa(i+1),
			Year:   movie.Year(strconv.Itoa(1950 + i%70)),
			IMDbID: "tt" + strconv.Itoa(9000000+i),
		}
	}
	return movies
}

// NewHealthyResponse creates a successful search response with the given body.
func NewHealthyResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewServerErrorResponse creates a 500 response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"detail":"internal error"}`,
	}
}

// NewRateLimitResponse creates a 429 response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Headers:    map[string]string{"Retry-After": "1"},
	}
}
