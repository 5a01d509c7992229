package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vmikell/urlapi/internal/app/logger"
	"github.com/vmikell/urlapi/internal/app/metrics"
	"github.com/vmikell/urlapi/internal/app/services"
)

// Paths
const (
	HealthPath = "/health"
	URLPath    = "/url"
	URLsPath   = "/urls"
)

// Request is the transport-independent request descriptor
type Request struct {
	Method                string
	Path                  string
	QueryStringParameters map[string]string
	Body                  string
}

// Response is the transport-independent response
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// Route identifies one entry of the dispatch table
type Route int

const (
	RouteUnrouted Route = iota
	RouteHealth
	RouteGetURL
	RouteListURLs
	RouteSaveURL
	RouteModifyURL
	RouteDeleteURL
)

var routeNames = map[Route]string{
	RouteUnrouted:  "unrouted",
	RouteHealth:    "health",
	RouteGetURL:    "get_url",
	RouteListURLs:  "list_urls",
	RouteSaveURL:   "save_url",
	RouteModifyURL: "modify_url",
	RouteDeleteURL: "delete_url",
}

func (r Route) String() string {
	if name, ok := routeNames[r]; ok {
		return name
	}
	return routeNames[RouteUnrouted]
}

type routeKey struct {
	method string
	path   string
}

var routes = map[routeKey]Route{
	{http.MethodGet, HealthPath}: RouteHealth,
	{http.MethodGet, URLPath}:    RouteGetURL,
	{http.MethodGet, URLsPath}:   RouteListURLs,
	{http.MethodPost, URLPath}:   RouteSaveURL,
	{http.MethodPatch, URLPath}:  RouteModifyURL,
	{http.MethodDelete, URLPath}: RouteDeleteURL,
}

// MatchRoute resolves an exact (method, path) pair
func MatchRoute(method, path string) Route {
	return routes[routeKey{method: method, path: path}]
}

func knownPath(path string) bool {
	switch path {
	case HealthPath, URLPath, URLsPath:
		return true
	}
	return false
}

type Handlers struct {
	records services.RecordService
	metrics *metrics.Recorder
}

func NewHandlers(records services.RecordService, recorder *metrics.Recorder) Handlers {
	return Handlers{
		records: records,
		metrics: recorder,
	}
}

// Dispatch runs exactly one route handler for req
func (h Handlers) Dispatch(ctx context.Context, req Request) Response {
	start := time.Now()
	route := MatchRoute(req.Method, req.Path)

	var resp Response
	switch route {
	case RouteHealth:
		resp = h.Health(ctx, req)
	case RouteGetURL:
		resp = h.GetURL(ctx, req)
	case RouteListURLs:
		resp = h.GetURLs(ctx, req)
	case RouteSaveURL:
		resp = h.SaveURL(ctx, req)
	case RouteModifyURL:
		resp = h.ModifyURL(ctx, req)
	case RouteDeleteURL:
		resp = h.DeleteURL(ctx, req)
	default:
		resp = unrouted(req)
	}

	duration := time.Since(start)
	h.metrics.ObserveRequest(route.String(), resp.StatusCode, duration)
	logger.Log.Info("dispatched request",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.String("route", route.String()),
		zap.Int("status", resp.StatusCode),
		zap.String("duration", duration.String()),
	)

	return resp
}

func unrouted(req Request) Response {
	if knownPath(req.Path) {
		return BuildResponse(
			http.StatusMethodNotAllowed,
			ErrorBody{Message: "method " + req.Method + " not allowed for " + req.Path},
		)
	}

	return BuildResponse(
		http.StatusNotFound,
		ErrorBody{Message: "no route for " + req.Method + " " + req.Path},
	)
}
