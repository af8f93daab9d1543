package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookshelf/internal/auth"
	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/querycache"
	"bookshelf/internal/review"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := review.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("review store: %v", err)
	}
	defer closeStore()

	cache := querycache.New(querycache.Config{
		FreshFor:    cfg.CacheFreshFor,
		LoadTimeout: cfg.CacheLoadTimeout,
		MaxEntries:  cfg.CacheMaxEntries,
	})

	openLibrary := openlibrary.NewClient(openlibrary.Config{
		BaseURL:    cfg.OpenLibraryBaseURL,
		CoversURL:  cfg.OpenLibraryCoversURL,
		UserAgent:  cfg.OpenLibraryUserAgent,
		RPS:        cfg.OpenLibraryRPS,
		MaxRetries: cfg.OpenLibraryMaxRetries,
	})
	catalogService := catalog.NewService(openLibrary, cache, catalog.Config{SearchLimit: cfg.SearchLimit})

	sessions := auth.NewSessions()
	defer sessions.Close()
	authService := auth.NewService(cfg.JWTSecret, auth.NewBlacklist(), sessions)
	go authService.RunCleanup(ctx, time.Minute)

	reviewService := review.NewService(repo, cache)
	unsubscribe := reviewService.Subscribe(sessions)
	defer unsubscribe()

	reviewLimiter := httpx.NewRateLimitMiddleware(cfg.ReviewRPS, cfg.ReviewBurst)
	defer reviewLimiter.Stop()

	router := newRouter(routerDeps{
		catalog:       catalog.NewHTTPHandler(catalogService),
		reviews:       review.NewHTTPHandler(reviewService),
		auth:          auth.NewHTTPHandler(authService),
		verifier:      authService,
		reviewLimiter: reviewLimiter,
		ready:         reviewService.Ping,
		cache:         cache,
		corsOrigins:   cfg.CORSOrigins,
		enableHSTS:    cfg.EnableHSTS,
	})

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	cache.Wait()
}
