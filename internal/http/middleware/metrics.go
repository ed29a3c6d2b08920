package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type RequestObserver interface {
	ObserveRequest(method, route string, status int)
}

// Metrics counts requests by chi route pattern, not raw path.
func Metrics(obs RequestObserver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			obs.ObserveRequest(r.Method, route, sw.Status())
		})
	}
}
