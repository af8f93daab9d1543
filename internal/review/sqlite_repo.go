package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	book_id TEXT NOT NULL,
	rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
	text TEXT,
	user_id TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_book_user ON reviews(book_id, user_id);
CREATE INDEX IF NOT EXISTS idx_reviews_book_created ON reviews(book_id, created_at DESC);
`

// SQLiteRepo stores reviews in a local SQLite file. It mirrors the Postgres
// table, with created_at kept as unix nanoseconds.
type SQLiteRepo struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens path (":memory:" for a private in-memory database) and
// creates the schema.
func OpenSQLite(path string) (*SQLiteRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" to a single database and serialises writes.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteRepo{db: db, now: time.Now}, nil
}

func (r *SQLiteRepo) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRepo) ListByBook(ctx context.Context, bookID string) ([]Review, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, book_id, rating, text, user_id, created_at
FROM reviews
WHERE book_id = ?
ORDER BY created_at DESC, id DESC
`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) RatingsByBook(ctx context.Context, bookID string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT rating FROM reviews WHERE book_id = ?`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []int{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) GetByUser(ctx context.Context, bookID, userID string) (*Review, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, book_id, rating, text, user_id, created_at
FROM reviews
WHERE book_id = ? AND user_id = ?
LIMIT 1
`, bookID, userID)
	rv, err := scanReview(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rv, nil
}

func (r *SQLiteRepo) Insert(ctx context.Context, rv *Review) error {
	id := uuid.NewString()
	createdAt := r.now().UTC()

	_, err := r.db.ExecContext(ctx, `
INSERT INTO reviews (id, book_id, rating, text, user_id, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, id, rv.BookID, rv.Rating, rv.Text, rv.UserID, createdAt.UnixNano())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrAlreadyReviewed
		}
		return fmt.Errorf("insert review: %w", err)
	}
	rv.ID = id
	rv.CreatedAt = createdAt
	return nil
}

func (r *SQLiteRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(s scanner) (Review, error) {
	var (
		rv        Review
		text      sql.NullString
		createdAt int64
	)
	if err := s.Scan(&rv.ID, &rv.BookID, &rv.Rating, &text, &rv.UserID, &createdAt); err != nil {
		return Review{}, err
	}
	if text.Valid {
		rv.Text = &text.String
	}
	rv.CreatedAt = time.Unix(0, createdAt).UTC()
	return rv, nil
}
