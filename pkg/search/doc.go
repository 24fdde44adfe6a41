// Package search coordinates movie searches and owns the state shown to the user.
//
// The Controller holds the search criteria, the pagination state and the last
// successful result. Every user action that needs data issues a new search
// through the Coordinator, which numbers searches with a monotonically
// increasing generation. Searches may overlap; when one completes, its
// outcome is applied only if it is still the latest generation, so a slow
// older response never replaces a newer one.
//
// Example usage:
//
//	ctrl := search.NewController(client, search.Options{PageSize: 12})
//	unsubscribe := ctrl.Subscribe(func(s search.State) { render(s) })
//	defer unsubscribe()
//
//	ctrl.SetTitle("matrix")
//	ctrl.Submit(ctx)
//	ctrl.SetPage(ctx, 2)
//
// Failures are reported in State.Err and leave the previous result in place.
// Stale outcomes are dropped silently and counted in
// movie_search_stale_discards_total.
package search
