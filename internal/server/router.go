package server

import (
	"net/http"
	"strings"

	"github.com/sundayezeilo/shortlinks/internal/httpx"
)

// Result tells the Router whether a route took the request.
type Result int

const (
	// Pass hands the request to the next route.
	Pass Result = iota
	// Handled stops evaluation. A non-nil error goes to the Rejecter.
	Handled
)

// RouteFunc matches and serves in one step. It must not write to w when
// it returns Pass.
type RouteFunc func(w http.ResponseWriter, r *http.Request) (Result, error)

// Route is a named entry in the route table.
type Route struct {
	Name  string
	Serve RouteFunc
}

// Router evaluates routes in declaration order; the first one that
// handles a request wins. Requests no route takes end in httpx.ErrNoRoute.
type Router struct {
	routes   []Route
	rejecter *httpx.Rejecter
}

// NewRouter returns a Router over routes.
func NewRouter(rj *httpx.Rejecter, routes ...Route) *Router {
	return &Router{routes: routes, rejecter: rj}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, route := range rt.routes {
		res, err := route.Serve(w, r)
		if res == Pass {
			continue
		}
		if err != nil {
			rt.rejecter.Reject(w, r, err)
		}
		return
	}
	rt.rejecter.Reject(w, r, httpx.ErrNoRoute)
}

// Routes returns the route names in evaluation order.
func (rt *Router) Routes() []string {
	names := make([]string, len(rt.routes))
	for i, route := range rt.routes {
		names[i] = route.Name
	}
	return names
}

// hasPrefixSegment reports whether path is prefix or lies below it.
func hasPrefixSegment(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// singleSegment returns the segment of a path of the form "/name" or
// "/name/".
func singleSegment(path string) (string, bool) {
	name, ok := strings.CutPrefix(path, "/")
	name = strings.TrimSuffix(name, "/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

func isRead(r *http.Request) bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}

// methodNotAllowed sets Allow and returns the rejection for a matched path.
func methodNotAllowed(w http.ResponseWriter, allow string) (Result, error) {
	w.Header().Set("Allow", allow)
	return Handled, httpx.ErrMethodNotAllowed
}
