package catalog

import (
	"context"
	"fmt"

	"bookshelf/internal/platform/openlibrary"

	"github.com/stretchr/testify/mock"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) SearchBooks(ctx context.Context, query string, limit int) ([]openlibrary.BookSummary, error) {
	args := m.Called(ctx, query, limit)
	books, _ := args.Get(0).([]openlibrary.BookSummary)
	return books, args.Error(1)
}

func (m *mockCatalog) GetWork(ctx context.Context, workID string) (*openlibrary.Work, error) {
	args := m.Called(ctx, workID)
	w, _ := args.Get(0).(*openlibrary.Work)
	return w, args.Error(1)
}

func (m *mockCatalog) GetAuthor(ctx context.Context, authorKey string) (*openlibrary.Author, error) {
	args := m.Called(ctx, authorKey)
	a, _ := args.Get(0).(*openlibrary.Author)
	return a, args.Error(1)
}

func (m *mockCatalog) GetAuthorWorks(ctx context.Context, authorKey string, limit int) ([]openlibrary.WorkSummary, error) {
	args := m.Called(ctx, authorKey, limit)
	works, _ := args.Get(0).([]openlibrary.WorkSummary)
	return works, args.Error(1)
}

func (m *mockCatalog) CoverURL(id int, size openlibrary.CoverSize) string {
	if id <= 0 {
		return ""
	}
	return fmt.Sprintf("cover:%d-%s", id, size)
}

func (m *mockCatalog) AuthorPhotoURL(id int, size openlibrary.CoverSize) string {
	if id <= 0 {
		return ""
	}
	return fmt.Sprintf("photo:%d-%s", id, size)
}
