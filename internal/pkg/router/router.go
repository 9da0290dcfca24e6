// Package router is the HTTP layer: an httprouter tree behind a fixed
// middleware chain (recover, client IP, correlation ID, telemetry,
// maintenance, bearer auth) and a JSON envelope for handler results.
package router

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/datasprint/internal/pkg/config"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/shandysiswandi/datasprint/internal/pkg/jwt"
	"github.com/shandysiswandi/datasprint/internal/pkg/uid"
)

// Handler returns a value for the success envelope or an error for the
// error envelope.
type Handler func(r *Request) (any, error)

type Config struct {
	Config     config.Config
	UUID       uid.StringID
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
}

type Router struct {
	hr    *httprouter.Router
	mws   []Middleware
	debug bool
}

// publicRoutes skip bearer authentication. Everything else needs a token.
var publicRoutes = routeSet{
	http.MethodGet: {
		"/":                 {},
		"/health":           {},
		"/swagger/doc.json": {},
	},
	http.MethodPost: {
		"/api/auth/send-otp":                {},
		"/api/auth/verify-registration-otp": {},
		"/api/auth/register":                {},
		"/api/auth/login":                   {},
		"/api/auth/forgot-password":         {},
		"/api/auth/verify-otp":              {},
		"/api/auth/reset-password":          {},
	},
}

// NewRouter treats every app.env other than "production" as debug, which
// adds error causes and panic stacks to error responses.
func NewRouter(cfg Config) *Router {
	ins := cfg.Instrument
	if ins == nil {
		ins = instrument.NewNoop()
	}

	ro := &Router{
		debug: cfg.Config == nil || cfg.Config.GetString("app.env") != "production",
	}
	ro.mws = []Middleware{
		middlewareRecoverer(ro.debug),
		middlewareIP,
		middlewareCorrelationID(cfg.UUID),
		middlewareObservability(ins),
		middlewareMaintenance(cfg.Config),
		middlewareAuthentication(cfg.JWT, publicRoutes),
	}

	ro.hr = &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusNotFound, "Endpoint not found", nil, nil)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil, nil)
		}),
	}

	ro.GET("/", func(*Request) (any, error) { return welcome{}, nil })

	return ro
}

type welcome struct{}

func (welcome) Message() string { return "Welcome to DATASPRINT API" }

func (ro *Router) GET(path string, h Handler, mws ...Middleware) {
	ro.handle(http.MethodGet, path, h, mws)
}

func (ro *Router) POST(path string, h Handler, mws ...Middleware) {
	ro.handle(http.MethodPost, path, h, mws)
}

func (ro *Router) PUT(path string, h Handler, mws ...Middleware) {
	ro.handle(http.MethodPut, path, h, mws)
}

func (ro *Router) PATCH(path string, h Handler, mws ...Middleware) {
	ro.handle(http.MethodPatch, path, h, mws)
}

func (ro *Router) DELETE(path string, h Handler, mws ...Middleware) {
	ro.handle(http.MethodDelete, path, h, mws)
}

// GETRaw mounts a plain http.Handler behind the same middleware chain.
func (ro *Router) GETRaw(path string, h http.Handler, mws ...Middleware) {
	ro.hr.Handler(http.MethodGet, path, Chain(h, ro.chain(mws)...))
}

func (ro *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ro.hr.ServeHTTP(w, r)
}

func (ro *Router) handle(method, path string, h Handler, mws []Middleware) {
	endpoint := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, err := h(&Request{Request: r})
		if err != nil {
			if rec, ok := w.(interface{ SetError(error) }); ok {
				rec.SetError(err)
			}
			ro.encodeError(w, r, err)
			return
		}
		ro.encodeSuccess(r.Context(), w, resp)
	})

	ro.hr.Handler(method, path, Chain(endpoint, ro.chain(mws)...))
}

func (ro *Router) chain(extra []Middleware) []Middleware {
	return append(ro.mws[:len(ro.mws):len(ro.mws)], extra...)
}
