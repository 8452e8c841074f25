package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

var (
	errNotFound         = errors.New("Not found")
	errMethodNotAllowed = errors.New("Method not allowed")
	errOriginForbidden  = errors.New("Origin not allowed")
)

// Router returns the complete HTTP surface: the /api routes, /metrics and the
// CORS guard in front of them.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = handlerFunc(func(http.ResponseWriter, *http.Request) error {
		return NewError(http.StatusNotFound, errNotFound)
	})
	r.MethodNotAllowedHandler = handlerFunc(func(http.ResponseWriter, *http.Request) error {
		return NewError(http.StatusMethodNotAllowed, errMethodNotAllowed)
	})
	if h.opts.Metrics != nil {
		r.Path("/metrics").Handler(h.opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Path("/login").Handler(handlerFunc(h.login)).Methods(http.MethodPost)
	api.Path("/logout").Handler(handlerFunc(h.logout)).Methods(http.MethodPost)
	api.Path("/health").Handler(handlerFunc(h.health)).Methods(http.MethodGet)

	// session middleware only runs once a route here has matched, so an
	// unsupported method is answered with 405 before the cookie is looked at
	authed := api.NewRoute().Subrouter()
	authed.Use(h.sessions.Require(rejectRequest))
	authed.Path("/session").Handler(handlerFunc(h.sessionInfo)).Methods(http.MethodGet)
	authed.Path("/tickets/{id:[0-9]+}").Handler(handlerFunc(h.getTicket)).Methods(http.MethodGet)
	authed.Path("/tickets/{id:[0-9]+}").Handler(handlerFunc(h.updateTicket)).Methods(http.MethodPut)
	authed.Path("/tickets/{id:[0-9]+}/comments").Handler(handlerFunc(h.listComments)).Methods(http.MethodGet)
	authed.Path("/tickets/{id:[0-9]+}/comment").Handler(handlerFunc(h.postComment)).Methods(http.MethodPost)
	authed.Path("/zendesk").Handler(handlerFunc(h.passthrough)).
		Methods(http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins:   h.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Accept-Language", "X-Requested-With"},
		AllowCredentials: true,
	})
	return recoverPanics(guardOrigin(c, c.Handler(r)))
}

// guardOrigin refuses cross-origin requests from origins outside the allow
// list. Requests without an Origin header (curl, same-origin GET) pass.
func guardOrigin(c *cors.Cors, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Origin") != "" && !c.OriginAllowed(r) {
			zerolog.Ctx(r.Context()).Info().Str("origin", r.Header.Get("Origin")).Msg("origin blocked")
			renderError(w, r, NewError(http.StatusForbidden, errOriginForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				renderError(w, r, fmt.Errorf("panic: %v", v))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
