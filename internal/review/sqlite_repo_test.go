package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return repo
}

func TestSQLiteRepo_InsertAndList(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	text := "A classic"

	first := &Review{BookID: "OL1W", Rating: 3, UserID: "u-1"}
	second := &Review{BookID: "OL1W", Rating: 5, Text: &text, UserID: "u-2"}
	other := &Review{BookID: "OL2W", Rating: 1, UserID: "u-1"}
	for _, rv := range []*Review{first, second, other} {
		require.NoError(t, repo.Insert(ctx, rv))
		assert.NotEmpty(t, rv.ID)
		assert.False(t, rv.CreatedAt.IsZero())
	}

	reviews, err := repo.ListByBook(ctx, "OL1W")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, second.ID, reviews[0].ID, "newest first")
	assert.Equal(t, first.ID, reviews[1].ID)
	require.NotNil(t, reviews[0].Text)
	assert.Equal(t, "A classic", *reviews[0].Text)
	assert.Nil(t, reviews[1].Text)
	assert.Equal(t, second.CreatedAt, reviews[0].CreatedAt)

	ratings, err := repo.RatingsByBook(ctx, "OL1W")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{3, 5}, ratings)

	empty, err := repo.ListByBook(ctx, "OL404W")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSQLiteRepo_GetByUser(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &Review{BookID: "OL1W", Rating: 4, UserID: "u-1"}))

	rv, err := repo.GetByUser(ctx, "OL1W", "u-1")
	require.NoError(t, err)
	assert.Equal(t, 4, rv.Rating)

	_, err = repo.GetByUser(ctx, "OL1W", "u-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRepo_UniquePerUserAndBook(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &Review{BookID: "OL1W", Rating: 4, UserID: "u-1"}))
	err := repo.Insert(ctx, &Review{BookID: "OL1W", Rating: 2, UserID: "u-1"})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	ratings, err := repo.RatingsByBook(ctx, "OL1W")
	require.NoError(t, err)
	assert.Equal(t, []int{4}, ratings)
}

func TestSQLiteRepo_RejectsOutOfRangeRating(t *testing.T) {
	repo := newSQLiteRepo(t)

	err := repo.Insert(context.Background(), &Review{BookID: "OL1W", Rating: 0, UserID: "u-1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyReviewed)
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite("")
	assert.Error(t, err)
}
