// Package feedsnap downloads every image of an infinite-scroll gallery.
// It drives a browser page until all paginated content has loaded, then
// fetches the discovered images concurrently with bounded retries.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, chromedp/, goquery/).
package feedsnap
