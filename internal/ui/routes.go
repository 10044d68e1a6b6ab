package ui

import (
	"strings"

	"github.com/desertthunder/mvx/internal/models"
)

// Route is a navigable screen.
type Route string

const (
	RouteHome     Route = "/"
	RouteLogin    Route = "/login"
	RouteRegister Route = "/register"
	RouteExplorer Route = "/explorer"
	RouteCallback Route = "/auth/callback"
)

// Resolve maps a requested path to the route shown for id.
//
// Unknown paths fall back to home. Home and the explorer need an identity and redirect to login without one.
func Resolve(path string, id models.Identity) Route {
	path, _, _ = strings.Cut(path, "?")
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}

	route := Route(path)
	switch route {
	case RouteLogin, RouteRegister, RouteCallback:
		return route
	case RouteHome, RouteExplorer:
	default:
		route = RouteHome
	}

	if id.IsNone() {
		return RouteLogin
	}
	return route
}

// RequiresIdentity reports whether route is guarded.
func (r Route) RequiresIdentity() bool {
	return r == RouteHome || r == RouteExplorer
}
