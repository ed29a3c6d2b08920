package http

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"news_ticker/internal/http/apierror"
	"news_ticker/internal/http/handlers"
	"news_ticker/internal/http/middleware"
)

// Options configure NewRouter.
type Options struct {
	Logger  *slog.Logger
	Metrics MetricsHandler
	// StaticDir, when set, is served for every path outside /api with an
	// index.html fallback for client-side routes.
	StaticDir string
}

type MetricsHandler interface {
	middleware.RequestObserver
	Handler() http.Handler
}

// NewRouter builds the chi router with middleware and routes.
func NewRouter(h *handlers.Handlers, opts Options) http.Handler {
	root := chi.NewRouter()

	root.Use(
		middleware.RequestID(),
		middleware.Logging(opts.Logger),
	)
	if opts.Metrics != nil {
		root.Use(middleware.Metrics(opts.Metrics))
	}
	// must stay inside Logging and Metrics
	root.Use(middleware.Recover())

	if opts.Metrics != nil {
		root.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	root.Get("/healthz", h.Healthz)
	root.Get("/readyz", h.Readyz)

	root.Route("/api", func(r chi.Router) {
		registerRoutes(r, h)
		r.NotFound(apierror.NotFound)
		r.MethodNotAllowed(apierror.MethodNotAllowed)
	})

	root.MethodNotAllowed(apierror.MethodNotAllowed)
	if opts.StaticDir != "" {
		root.NotFound(spaHandler(opts.StaticDir))
	} else {
		root.NotFound(apierror.NotFound)
	}

	return root
}

func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// news
	r.Get("/news", h.ListNews)
	r.Post("/news/sync", h.SyncNews)

	// sources & client settings
	r.Get("/sources", h.ListSources)
	r.Get("/settings/defaults", h.DefaultSettings)
	r.Post("/settings/validate", h.NormalizeSettings)

	// read-later list kept by the client
	r.Route("/read-later", func(r chi.Router) {
		r.Post("/normalize", h.NormalizeSaved)
		r.Post("/save", h.SaveArticle)
		r.Post("/remove", h.RemoveArticle)
	})
}

// spaHandler serves files from dir and falls back to dir/index.html.
func spaHandler(dir string) http.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			apierror.NotFound(w, r)
			return
		}

		clean := filepath.Clean("/" + strings.TrimPrefix(r.URL.Path, "/"))
		if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}

		if _, err := os.Stat(index); err != nil {
			apierror.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}
