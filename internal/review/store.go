package review

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"bookshelf/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenStore opens the review backend selected by cfg.DBDriver. The returned
// func releases it.
func OpenStore(ctx context.Context, cfg *config.Config) (Repository, func(), error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		repo, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("review store sqlite path=%s", cfg.SQLitePath)
		return repo, func() { _ = repo.Close() }, nil
	default:
		pool, err := pgxpool.New(ctx, cfg.DBDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("create db pool: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping database (%s): %w", config.RedactDSN(cfg.DBDSN), err)
		}
		log.Printf("review store postgres dsn=%s", config.RedactDSN(cfg.DBDSN))
		return NewPostgresRepo(pool, 5*time.Second), pool.Close, nil
	}
}
