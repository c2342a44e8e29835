package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// muxPattern returns the ServeMux pattern for the route under prefix,
// e.g. "POST /api/create/{showCode}/{episodeNumber}".
func (r Route) muxPattern(prefix string) string {
	return r.Method + " " + prefix + r.Pattern
}
