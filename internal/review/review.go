package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"bookshelf/internal/platform/validation"
)

//go:generate mockgen -source=review.go -destination=mock_repository_test.go -package=review

var (
	ErrNotFound         = errors.New("review not found")
	ErrNotAuthenticated = errors.New("sign in required")
	ErrValidation       = errors.New("invalid review")
	ErrAlreadyReviewed  = errors.New("book already reviewed by this user")
	ErrStoreUnavailable = errors.New("review store unavailable")
)

const MaxTextLength = 4000

type Review struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	Rating    int       `json:"rating"`
	Text      *string   `json:"text"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository is the review backend. ListByBook returns newest first.
// GetByUser returns ErrNotFound when the user has no review for the book.
// Insert assigns ID and CreatedAt and returns ErrAlreadyReviewed when the
// (book, user) pair already exists.
type Repository interface {
	ListByBook(ctx context.Context, bookID string) ([]Review, error)
	RatingsByBook(ctx context.Context, bookID string) ([]int, error)
	GetByUser(ctx context.Context, bookID, userID string) (*Review, error)
	Insert(ctx context.Context, r *Review) error
	Ping(ctx context.Context) error
}

type SubmitInput struct {
	BookID string  `json:"book_id" validate:"notblank"`
	UserID string  `json:"-"`
	Rating int     `json:"rating" validate:"min=1,max=5"`
	Text   *string `json:"text" validate:"omitempty,max=4000"`
}

// normalize trims the text and maps blank text to nil.
func (in SubmitInput) normalize() SubmitInput {
	in.BookID = strings.TrimSpace(in.BookID)
	if in.Text != nil {
		t := strings.TrimSpace(*in.Text)
		if t == "" {
			in.Text = nil
		} else {
			in.Text = &t
		}
	}
	return in
}

// ValidationError lists the fields that failed validation. It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func missingBookID() *ValidationError {
	return &ValidationError{Fields: []validation.FieldError{{Field: "book_id", Message: "book_id is required"}}}
}
