// Package api exposes the membership check over HTTP as plain text.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/area-check/internal/membership"
)

// Checker runs one membership check.
type Checker interface {
	Check(ctx context.Context, address string) membership.Outcome
}

// Options configures the router.
type Options struct {
	// CORSOrigins lists allowed origins. Empty or "*" allows all.
	CORSOrigins []string
}

// NewRouter creates the chi router serving the check endpoints.
func NewRouter(checker Checker, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(AccessLog)
	r.Use(Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(cors.Handler(corsOptions(opts.CORSOrigins)))

	h := NewHandler(checker)

	r.Get("/health", h.Health)
	r.Get("/api/check", h.Check)
	r.Get("/check", h.Check)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowedOrigins = origins
	}
	return opts
}
