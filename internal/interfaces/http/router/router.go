// Package router mounts the API route groups under a versioned prefix and
// keeps a listing of what was mounted.
package router

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts its routes on a versioned API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouteInfo describes one mounted endpoint. Group is the first path segment
// below the API prefix.
type RouteInfo struct {
	Group  string `json:"group"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Router mounts registrars on an engine under /api/<version>
type Router struct {
	engine     *gin.Engine
	version    string
	registrars []RouteRegistrar
	routes     []RouteInfo
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion replaces the default "v1" prefix segment
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.version = version }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a registrar for Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// BasePath is the versioned prefix every group is mounted under
func (r *Router) BasePath() string {
	return "/api/" + r.version
}

// Setup mounts every registrar and returns the endpoints under BasePath,
// sorted by path and then method
func (r *Router) Setup() []RouteInfo {
	api := r.engine.Group(r.BasePath())
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}

	base := r.BasePath() + "/"
	r.routes = r.routes[:0]
	for _, route := range r.engine.Routes() {
		rest, ok := strings.CutPrefix(route.Path, base)
		if !ok {
			continue
		}
		group, _, _ := strings.Cut(rest, "/")
		r.routes = append(r.routes, RouteInfo{Group: group, Method: route.Method, Path: route.Path})
	}
	sort.Slice(r.routes, func(i, j int) bool {
		a, b := r.routes[i], r.routes[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Method < b.Method
	})
	return r.Routes()
}

// Routes returns a copy of the listing made by the last Setup
func (r *Router) Routes() []RouteInfo {
	return append([]RouteInfo(nil), r.routes...)
}

// Group is the routes of one resource, mounted under a prefix with its own
// middleware
type Group struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewGroup starts a group mounted at prefix below the API base path
func NewGroup(prefix string) *Group {
	return &Group{prefix: prefix}
}

// Use adds middleware that runs before every route of the group
func (g *Group) Use(middleware ...gin.HandlerFunc) *Group {
	g.middleware = append(g.middleware, middleware...)
	return g
}

// Handle adds a route for any method
func (g *Group) Handle(method, relativePath string, handlers ...gin.HandlerFunc) *Group {
	g.routes = append(g.routes, route{method: method, path: relativePath, handlers: handlers})
	return g
}

func (g *Group) GET(relativePath string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodGet, relativePath, handlers...)
}

func (g *Group) POST(relativePath string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodPost, relativePath, handlers...)
}

func (g *Group) PUT(relativePath string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodPut, relativePath, handlers...)
}

func (g *Group) DELETE(relativePath string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodDelete, relativePath, handlers...)
}

// RegisterRoutes implements RouteRegistrar
func (g *Group) RegisterRoutes(rg *gin.RouterGroup) {
	mounted := rg.Group(g.prefix, g.middleware...)
	for _, rt := range g.routes {
		mounted.Handle(rt.method, rt.path, rt.handlers...)
	}
}
