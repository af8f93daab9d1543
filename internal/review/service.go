package review

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"bookshelf/internal/auth"
	"bookshelf/internal/platform/validation"
	"bookshelf/internal/querycache"
	"bookshelf/internal/rating"
)

const (
	KindReviews    = "reviews"
	KindBookRating = "book-rating"
	KindUserReview = "user-review"
)

type Service struct {
	repo  Repository
	cache *querycache.Cache
}

func NewService(repo Repository, cache *querycache.Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// ListReviews returns the reviews of a book, newest first.
func (s *Service) ListReviews(ctx context.Context, bookID string) ([]Review, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return nil, missingBookID()
	}
	return querycache.Fetch(ctx, s.cache, querycache.NewKey(KindReviews, bookID), func(ctx context.Context) ([]Review, error) {
		reviews, err := s.repo.ListByBook(ctx, bookID)
		if err != nil {
			return nil, unavailable("list reviews", err)
		}
		if reviews == nil {
			reviews = []Review{}
		}
		return reviews, nil
	})
}

// AverageRating summarizes the ratings of a book. A book without reviews
// yields a summary that reports itself as unrated.
func (s *Service) AverageRating(ctx context.Context, bookID string) (rating.Summary, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return rating.Summary{}, missingBookID()
	}
	return querycache.Fetch(ctx, s.cache, querycache.NewKey(KindBookRating, bookID), func(ctx context.Context) (rating.Summary, error) {
		ratings, err := s.repo.RatingsByBook(ctx, bookID)
		if err != nil {
			return rating.Summary{}, unavailable("book ratings", err)
		}
		return rating.Summarize(ratings), nil
	})
}

// UserReview returns the user's review of a book, or nil when there is none.
func (s *Service) UserReview(ctx context.Context, bookID, userID string) (*Review, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return nil, missingBookID()
	}
	return querycache.Fetch(ctx, s.cache, querycache.NewKey(KindUserReview, userID, bookID), func(ctx context.Context) (*Review, error) {
		return s.userReview(ctx, bookID, userID)
	})
}

func (s *Service) userReview(ctx context.Context, bookID, userID string) (*Review, error) {
	rv, err := s.repo.GetByUser(ctx, bookID, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("user review", err)
	}
	return rv, nil
}

// Submit stores a new review. The existing-review check is advisory; the
// backend's unique index is what actually rejects a duplicate.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Review, error) {
	if in.UserID == "" {
		return nil, ErrNotAuthenticated
	}
	if errs := validation.Struct(in); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	in = in.normalize()

	existing, err := s.userReview(ctx, in.BookID, in.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyReviewed
	}

	rv := &Review{
		BookID: in.BookID,
		Rating: in.Rating,
		Text:   in.Text,
		UserID: in.UserID,
	}
	if err := s.repo.Insert(ctx, rv); err != nil {
		if errors.Is(err, ErrAlreadyReviewed) {
			return nil, ErrAlreadyReviewed
		}
		return nil, unavailable("submit review", err)
	}

	s.invalidateBook(in.BookID, in.UserID)
	log.Printf("review submitted book_id=%s user_id=%s rating=%d", rv.BookID, rv.UserID, rv.Rating)
	return rv, nil
}

func (s *Service) invalidateBook(bookID, userID string) {
	s.cache.Invalidate(querycache.NewKey(KindReviews, bookID))
	s.cache.Invalidate(querycache.NewKey(KindBookRating, bookID))
	s.cache.Invalidate(querycache.NewKey(KindUserReview, userID, bookID))
}

// Subscribe drops a user's cached reviews whenever their session changes.
// The returned func detaches the hook.
func (s *Service) Subscribe(sessions *auth.Sessions) func() {
	return sessions.Subscribe(func(e auth.Event) {
		if e.UserID == "" {
			return
		}
		n := s.cache.Invalidate(querycache.NewKey(KindUserReview, e.UserID))
		log.Printf("session changed kind=%s user_id=%s invalidated=%d", e.Kind, e.UserID, n)
	})
}

// Ping reports whether the review backend is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
