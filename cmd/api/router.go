package main

import (
	"context"
	"net/http"
	"time"

	"bookshelf/internal/auth"
	"bookshelf/internal/catalog"
	"bookshelf/internal/httpx"
	"bookshelf/internal/querycache"
	"bookshelf/internal/review"
)

const maxBodyBytes = 1 << 20

type routerDeps struct {
	catalog       *catalog.HTTPHandler
	reviews       *review.HTTPHandler
	auth          *auth.HTTPHandler
	verifier      httpx.Verifier
	reviewLimiter *httpx.RateLimitMiddleware
	ready         func(ctx context.Context) error
	cache         *querycache.Cache
	corsOrigins   []string
	enableHSTS    bool
}

func newRouter(d routerDeps) http.Handler {
	router := http.NewServeMux()
	requireAuth := httpx.AuthMiddleware(d.verifier)
	optionalAuth := httpx.OptionalAuthMiddleware(d.verifier)

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := d.ready(ctx); err != nil {
			httpx.JSONError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Review store not ready", nil)
			return
		}
		stats := d.cache.Stats()
		httpx.JSONSuccess(w, r, map[string]any{"status": "ready"}, map[string]any{
			"cache_entries":       d.cache.Len(),
			"cache_hits":          stats.Hits,
			"cache_misses":        stats.Misses,
			"cache_loads":         stats.Loads,
			"cache_revalidations": stats.Revalidations,
			"cache_evictions":     stats.Evictions,
		})
	})

	router.HandleFunc("GET /v1/search", d.catalog.Search)
	router.HandleFunc("GET /v1/books/{id}", d.catalog.GetBook)
	router.HandleFunc("GET /v1/authors/{id}", d.catalog.GetAuthor)

	router.Handle("GET /v1/books/{id}/reviews", optionalAuth(http.HandlerFunc(d.reviews.List)))
	router.HandleFunc("GET /v1/books/{id}/rating", d.reviews.Rating)
	router.Handle("GET /v1/books/{id}/reviews/me", requireAuth(http.HandlerFunc(d.reviews.Mine)))
	router.Handle("POST /v1/books/{id}/reviews", requireAuth(d.reviewLimiter.Middleware(http.HandlerFunc(d.reviews.Submit))))

	router.Handle("GET /v1/me", requireAuth(http.HandlerFunc(d.auth.Me)))
	router.Handle("POST /v1/me/signout", requireAuth(http.HandlerFunc(d.auth.SignOut)))

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware,
		httpx.RecoveryMiddleware,
		httpx.SecurityHeadersMiddleware(d.enableHSTS),
		httpx.CORSMiddleware(d.corsOrigins),
		httpx.RequestSizeLimitMiddleware(maxBodyBytes),
	)
}
