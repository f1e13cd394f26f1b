package rest

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// Config is used to provide dependencies and configuration to the New function.
type Config struct {
	Logger logrus.FieldLogger

	// NotFound, when set, renders requests matching no route
	NotFound http.Handler

	// Instrument, when set, wraps every route outside its middleware, knowing the route's pattern
	Instrument func(method, path string, next http.Handler) http.Handler
}

func New(cfg Config) (engine *Engine, err error) {

	// assign a logger or fail
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	engine = &Engine{baseLogger: cfg.Logger, instrument: cfg.Instrument}

	engine.router = httprouter.New()

	// disables redirections such as `/foo/` to `/foo`
	engine.router.RedirectTrailingSlash = false

	// disables attempts to fix common path issues and redirects them, i.e. `/FoO` redirects to `/foo`
	engine.router.RedirectFixedPath = false

	if cfg.NotFound != nil {
		engine.router.NotFound = cfg.NotFound
	}

	// the request context must be available to every handler, including those registered later on
	engine.Use(engine.requestContext)

	return engine, nil
}

// Engine contains the muxer, logger and middleware.
type Engine struct {
	router *httprouter.Router

	// a middleware queue; invocation order follows insertion order
	middleware []func(http.Handler) http.Handler

	// baseLogger is a logger for non-requests contexts, like goroutines or background tasks not started by a request
	baseLogger logrus.FieldLogger

	instrument func(method, path string, next http.Handler) http.Handler
}

// Handler returns an instance of httprouter.Router that handle APIs registered here
func (e *Engine) Handler() http.Handler {
	return e.router
}

// Handle registers the path and method to the given handler, wrapped by the middleware.
// Global middleware runs first, in insertion order, followed by the per-route middleware.
func (e *Engine) Handle(method string, path string, handler http.Handler, middleware ...func(http.Handler) http.Handler) {

	// the innermost wrappers are applied first: per-route middleware, in reverse
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}

	// then the router's globally defined middleware, equally reversed
	for i := len(e.middleware) - 1; i >= 0; i-- {
		handler = e.middleware[i](handler)
	}

	if e.instrument != nil {
		handler = e.instrument(method, path, handler)
	}

	// associate the final composed handler to the selected path and method pair
	e.router.Handler(method, path, handler)
}

// Use specifies one or multiple new handlers that will be evaluated for every route registered afterwards (ie. logger).
func (e *Engine) Use(mw ...func(http.Handler) http.Handler) {
	e.middleware = append(e.middleware, mw...)
}

// Get defines a new GET method handler for the specified path.
// The variadic arguments can include middleware that will be exclusively evaluated for the path.
func (e *Engine) Get(path string, handlerFunc http.HandlerFunc, middleware ...func(http.Handler) http.Handler) {
	e.Handle(http.MethodGet, path, handlerFunc, middleware...)
}

func (e *Engine) Post(path string, handlerFunc http.HandlerFunc, middleware ...func(http.Handler) http.Handler) {
	e.Handle(http.MethodPost, path, handlerFunc, middleware...)
}

// ServeFiles serves files from the given file system; the path must end with "/*filepath".
// Only the request context middleware applies, as static files need neither sessions nor identities.
func (e *Engine) ServeFiles(path string, root http.FileSystem) {
	var files = http.StripPrefix(path[:len(path)-len("/*filepath")], http.FileServer(root))
	e.router.Handler(http.MethodGet, path, e.requestContext(files))
}

// GetParam returns the named route parameter, or an empty string.
func GetParam(request *http.Request, name string) string {
	return httprouter.ParamsFromContext(request.Context()).ByName(name)
}
