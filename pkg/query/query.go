// Package query builds request descriptors for the movie search endpoint.
//
// A search is described by the user's Criteria (title and year filters) and the
// requested result Window (offset and page size). Build turns both into a
// Request, which is immutable and carries only the parameters that are present:
// empty criteria fields and absent window fields are never serialized.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Path is the resource path of the movie search endpoint.
const Path = "/api/movies"

// Query parameter names understood by the search endpoint.
const (
	ParamTitle    = "title"
	ParamYear     = "year"
	ParamFromItem = "from_item"
	ParamSize     = "size"
)

// Criteria holds the user-entered search filters.
// An empty field means "no constraint on this field".
type Criteria struct {
	Title string
	Year  string
}

// IsEmpty reports whether neither filter is set.
func (c Criteria) IsEmpty() bool {
	return c.Title == "" && c.Year == ""
}

// Window is the slice of the result set being requested.
//
// Offset is the zero-based index of the first item. Only a positive offset is
// sent: an offset of 0 is treated the same as "start of result set", which is
// also the server default.
//
// Limit is the page size. A Limit <= 0 leaves the server default in place.
type Window struct {
	Offset int
	Limit  int
}

// Param is a single key/value query parameter.
type Param struct {
	Key   string
	Value string
}

// Request describes a search call: the target resource and its ordered query
// parameters. Build is the only constructor; callers should treat it as read-only.
type Request struct {
	Path   string
	Params []Param
}

// Build converts criteria and a window into a Request.
// Parameters are emitted in the order title, year, from_item, size.
func Build(criteria Criteria, window Window) Request {
	params := make([]Param, 0, 4)

	if criteria.Title != "" {
		params = append(params, Param{Key: ParamTitle, Value: criteria.Title})
	}
	if criteria.Year != "" {
		params = append(params, Param{Key: ParamYear, Value: criteria.Year})
	}
	if window.Offset > 0 {
		params = append(params, Param{Key: ParamFromItem, Value: strconv.Itoa(window.Offset)})
	}
	if window.Limit > 0 {
		params = append(params, Param{Key: ParamSize, Value: strconv.Itoa(window.Limit)})
	}

	return Request{Path: Path, Params: params}
}

// Get returns the value of the named parameter and whether it is present.
func (r Request) Get(key string) (string, bool) {
	for _, p := range r.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Values returns the parameters as url.Values.
func (r Request) Values() url.Values {
	v := make(url.Values, len(r.Params))
	for _, p := range r.Params {
		v.Add(p.Key, p.Value)
	}
	return v
}

// Encode returns the percent-encoded query string, keeping parameter order.
// url.Values.Encode sorts keys, so the string is assembled by hand.
func (r Request) Encode() string {
	var b strings.Builder
	for i, p := range r.Params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// URL resolves the request against the search service base URL.
// Any path on the base URL is kept as a prefix.
func (r Request) URL(baseURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("base url %q must be absolute", baseURL)
	}

	u := *base
	u.Path = strings.TrimSuffix(base.Path, "/") + r.Path
	u.RawPath = ""
	u.RawQuery = r.Encode()
	u.Fragment = ""

	return u.String(), nil
}

// String returns the path and query, e.g. "/api/movies?title=matrix&size=12".
func (r Request) String() string {
	if len(r.Params) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Encode()
}
