package server

import (
	"net/http"

	"github.com/desertthunder/taskdeck/internal/models"
)

// MsgUnknownEndpoint is returned for any method and path pair the API does not serve.
const MsgUnknownEndpoint = "unknown endpoint"

// Route binds one endpoint of the task API to its handler.
type Route struct {
	Method  string
	Path    string // [http.ServeMux] pattern, e.g. "/task/{id}/start"
	Handler http.HandlerFunc
}

// APIRouter dispatches task API requests through a fixed middleware chain.
//
// Requests that match no route get an envelope with code 1 instead of a bare 404 or 405,
// so clients only ever decode one response shape.
type APIRouter struct {
	mux   *http.ServeMux
	chain []Middleware
}

// NewAPIRouter creates a router whose routes are all wrapped by middleware, first entry outermost.
func NewAPIRouter(middleware ...Middleware) *APIRouter {
	r := &APIRouter{mux: http.NewServeMux(), chain: middleware}
	r.mux.Handle("/", r.wrap(http.HandlerFunc(unknownEndpoint)))
	return r
}

// Mount registers routes.
func (r *APIRouter) Mount(routes ...Route) {
	for _, rt := range routes {
		r.mux.Handle(rt.Method+" "+rt.Path, r.wrap(rt.Handler))
	}
}

func (r *APIRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *APIRouter) wrap(handler http.Handler) http.Handler {
	for i := len(r.chain) - 1; i >= 0; i-- {
		handler = r.chain[i](handler)
	}
	return handler
}

func unknownEndpoint(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, models.Envelope{Code: 1, Msg: MsgUnknownEndpoint})
}
