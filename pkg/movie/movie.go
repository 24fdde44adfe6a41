// Package movie defines the search service's wire model: movies and result pages.
package movie

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrInvalidPayload indicates a response body that does not match the
// expected {"movies": [...], "total": n} schema.
var ErrInvalidPayload = errors.New("invalid search payload")

// Movie is a single catalog entry. Fields are passed through unvalidated.
type Movie struct {
	Title  string `json:"title"`
	Year   Year   `json:"year"`
	IMDbID string `json:"imdb_id"`
}

// Year is a release year as sent by the server, which may encode it as a
// JSON string or a JSON number. Numeric years are re-encoded as numbers.
type Year string

// UnmarshalJSON accepts a string, a number or null.
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*y = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("year: %w", err)
		}
		*y = Year(s)
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return fmt.Errorf("year: unexpected value %s", data)
		}
		*y = Year(data)
	}
	return nil
}

// MarshalJSON writes integral years as numbers and anything else as a string.
func (y Year) MarshalJSON() ([]byte, error) {
	if y.integral() {
		return []byte(y), nil
	}
	return json.Marshal(string(y))
}

// integral reports whether the year is a plain JSON integer such as 1999.
func (y Year) integral() bool {
	s := string(y)
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (y Year) String() string {
	return string(y)
}

// SearchResult is one page of search results plus the total number of matches.
//
// A nil *SearchResult means no search has been performed yet; a non-nil result
// with no movies means the search matched nothing.
type SearchResult struct {
	Movies []Movie `json:"movies"`
	Total  int     `json:"total"`
}

// Empty reports whether the search completed without matches.
func (r *SearchResult) Empty() bool {
	return r != nil && len(r.Movies) == 0
}

// wireResult mirrors SearchResult with pointer fields so that missing keys
// can be told apart from zero values.
type wireResult struct {
	Movies *[]Movie `json:"movies"`
	Total  *int     `json:"total"`
}

// Decode reads a search response body.
// It fails with ErrInvalidPayload when the body is not JSON, when "movies" or
// "total" is missing or null, or when "total" is negative.
func Decode(r io.Reader) (*SearchResult, error) {
	var w wireResult
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return w.result()
}

// Unmarshal is Decode for an in-memory body.
func Unmarshal(data []byte) (*SearchResult, error) {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return w.result()
}

// Marshal encodes a result in the wire format.
func Marshal(r *SearchResult) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil result", ErrInvalidPayload)
	}
	movies := r.Movies
	if movies == nil {
		movies = []Movie{}
	}
	return json.Marshal(SearchResult{Movies: movies, Total: r.Total})
}

func (w wireResult) result() (*SearchResult, error) {
	if w.Movies == nil {
		return nil, fmt.Errorf("%w: missing movies", ErrInvalidPayload)
	}
	if w.Total == nil {
		return nil, fmt.Errorf("%w: missing total", ErrInvalidPayload)
	}
	if *w.Total < 0 {
		return nil, fmt.Errorf("%w: negative total %d", ErrInvalidPayload, *w.Total)
	}
	return &SearchResult{Movies: *w.Movies, Total: *w.Total}, nil
}
