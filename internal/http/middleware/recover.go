package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"news_ticker/internal/http/apierror"
	logctx "news_ticker/internal/pkg/log"
)

// Recover turns a handler panic into a 500 with the generic message.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logctx.From(r.Context()).
					LogAttrs(r.Context(), slog.LevelError, "panic",
						slog.String("path", r.URL.Path),
						slog.Any("reason", rec),
						slog.String("stack", string(debug.Stack())),
					)
				apierror.Write(w, http.StatusInternalServerError, apierror.MessageInternal)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
