// Package router assembles the HTTP surface: the users API, the embedded
// browser client, and the middleware chain around them.
package router

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/rs/cors"
	"github.com/vedran77/userdesk/internal/transport/http/handlers"
	"github.com/vedran77/userdesk/internal/transport/http/middleware"
	"go.uber.org/zap"
)

type Config struct {
	CORSAllowedOrigins []string
	// Static holds the browser client; index.html is served at "/".
	Static fs.FS
	// Live, when set, serves the user change feed at /ws.
	Live http.Handler
}

func New(cfg Config, userHandler *handlers.UserHandler, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})

	// Users
	mux.HandleFunc("GET /api/users", userHandler.List)
	mux.HandleFunc("POST /api/users", userHandler.Create)
	mux.HandleFunc("GET /api/users/{id}", userHandler.Get)
	mux.HandleFunc("PUT /api/users/{id}", userHandler.Update)
	mux.HandleFunc("DELETE /api/users/{id}", userHandler.Delete)

	if cfg.Live != nil {
		mux.Handle("GET /ws", cfg.Live)
	}

	// Anything else under /api, including wrong methods, is a 404 envelope.
	mux.HandleFunc("/api", handlers.NotFound)
	mux.HandleFunc("/api/", handlers.NotFound)

	if cfg.Static != nil {
		mux.Handle("/", staticHandler(cfg.Static))
	} else {
		mux.HandleFunc("/", handlers.NotFound)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type"},
	})

	var h http.Handler = mux
	h = c.Handler(h)
	h = middleware.Logger(log)(h)
	h = middleware.Recover(log)(h)
	return h
}

func staticHandler(fsys fs.FS) http.Handler {
	files := http.FileServerFS(fsys)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			handlers.NotFound(w, r)
			return
		}

		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" {
			name = "index.html"
		}
		if info, err := fs.Stat(fsys, name); err != nil || info.IsDir() {
			handlers.NotFound(w, r)
			return
		}

		files.ServeHTTP(w, r)
	})
}
