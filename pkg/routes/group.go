// Package routes declares HTTP routes as nested prefix groups and registers
// them on a ServeMux with per-route instrumentation.
package routes

import (
	"net/http"

	"github.com/JaimeStill/reelsync/pkg/middleware"
)

// Group organizes routes under a common prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux. Each handler is
// instrumented under its full method and pattern.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		pattern := route.muxPattern(fullPrefix)
		mux.Handle(pattern, middleware.Instrument(pattern, route.Handler))
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, child)
	}
}
