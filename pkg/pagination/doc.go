// Package pagination derives page state from a search's total item count and
// collects complete result sets page by page.
//
// A Paginator tracks the current page for one page size. Submitting a new
// search always restarts at page 1; moving to page n requests the window
// {offset: (n-1)*pageSize, limit: pageSize}. The total page count is unknown
// until the first search completes, which is distinct from a known count of
// zero (a search without matches).
//
// Example usage:
//
//	p := pagination.New(pagination.DefaultPageSize)
//	window := p.OnSearchSubmitted()        // page 1
//	p.SetTotal(result.Total)               // after the response arrives
//	window, err := p.SetPage(2)            // {Offset: 12, Limit: 12}
//
// The Collector fetches every page of a search:
//   - Fetches the first page to learn the total
//   - Fetches remaining pages with a bounded number of parallel requests
//   - Returns movies in page order
//   - Fails as a whole if any page fails
package pagination
