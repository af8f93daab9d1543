package openlibrary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		BaseURL:   srv.URL,
		CoversURL: "https://covers.example.org",
		UserAgent: "bookshelf-test",
		Backoff:   time.Millisecond,
	})
	return c, &hits
}

func TestClient_GetWork(t *testing.T) {
	t.Run("nested author refs and wrapped description", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/works/OL45883W.json", r.URL.Path)
			assert.Equal(t, "bookshelf-test", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`{
				"key": "/works/OL45883W",
				"title": "Dune",
				"authors": [
					{"author": {"key": "/authors/OL79034A"}, "type": {"key": "/type/author_role"}},
					{"author": null}
				],
				"covers": [-1, 11481354, 8231856],
				"first_publish_date": "1965",
				"description": {"type": "/type/text", "value": "Set on the desert planet Arrakis."},
				"subjects": ["Science fiction", "Arrakis"]
			}`))
		})

		w, err := c.GetWork(context.Background(), "OL45883W")
		require.NoError(t, err)
		assert.Equal(t, "OL45883W", w.ID)
		assert.Equal(t, "Dune", w.Title)
		assert.Equal(t, []AuthorRef{{Key: "/authors/OL79034A"}}, w.Authors)
		assert.Equal(t, []int{11481354, 8231856}, w.Covers)
		assert.Equal(t, "1965", w.FirstPublishDate)
		assert.Equal(t, "Set on the desert planet Arrakis.", w.Description)
		assert.Equal(t, []string{"Science fiction", "Arrakis"}, w.Subjects)
	})

	t.Run("bare author keys and plain description", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{
				"title": "Emma",
				"authors": ["/authors/OL21594A", {"key": "OL1A"}],
				"description": "A novel about youthful hubris.",
				"publishers": ["John Murray"]
			}`))
		})

		w, err := c.GetWork(context.Background(), "/works/OL66554W")
		require.NoError(t, err)
		assert.Equal(t, "OL66554W", w.ID)
		assert.Equal(t, []AuthorRef{{Key: "/authors/OL21594A"}, {Key: "OL1A"}}, w.Authors)
		assert.Equal(t, "A novel about youthful hubris.", w.Description)
		assert.Equal(t, []string{"John Murray"}, w.Publishers)
		assert.Empty(t, w.Covers)
	})

	t.Run("server error is catalog unavailable", func(t *testing.T) {
		c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		w, err := c.GetWork(context.Background(), "OL1W")
		assert.Nil(t, w)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.Equal(t, int64(1), hits.Load(), "no retries by default")

		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})

		w, err := c.GetWork(context.Background(), "OL404W")
		assert.Nil(t, w)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
	})

	t.Run("empty id", func(t *testing.T) {
		c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

		_, err := c.GetWork(context.Background(), "  ")
		assert.ErrorIs(t, err, ErrInvalidID)
		assert.Equal(t, int64(0), hits.Load())
	})

	t.Run("malformed body", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"title": `))
		})

		_, err := c.GetWork(context.Background(), "OL1W")
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
	})
}

func TestClient_Retries(t *testing.T) {
	t.Run("transient failures are retried", func(t *testing.T) {
		var calls atomic.Int64
		c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"title": "Dune"}`))
		})
		c.maxRetries = 2

		w, err := c.GetWork(context.Background(), "OL1W")
		require.NoError(t, err)
		assert.Equal(t, "Dune", w.Title)
		assert.Equal(t, int64(3), hits.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})
		c.maxRetries = 3

		_, err := c.GetWork(context.Background(), "OL1W")
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
		assert.Equal(t, int64(1), hits.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		c.maxRetries = 2

		_, err := c.GetWork(context.Background(), "OL1W")
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
		assert.Contains(t, err.Error(), "after 2 retries")
		assert.Equal(t, int64(3), hits.Load())
	})
}

func TestClient_Deadlines(t *testing.T) {
	t.Run("slow catalog is catalog unavailable", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		w, err := c.GetWork(ctx, "OL1W")
		assert.Nil(t, w)
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("deadline during retry backoff", func(t *testing.T) {
		c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		c.maxRetries = 3
		c.backoff = time.Second

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := c.GetWork(ctx, "OL1W")
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, int64(1), hits.Load())
	})

	t.Run("limiter wait past deadline", func(t *testing.T) {
		c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"title": "Dune"}`))
		})
		c.limiter = rate.NewLimiter(rate.Limit(0.001), 1)

		_, err := c.GetWork(context.Background(), "OL1W")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = c.GetWork(ctx, "OL1W")
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
		assert.Equal(t, int64(1), hits.Load())
	})
}

func TestClient_SearchBooks(t *testing.T) {
	t.Run("encodes query and maps docs", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search.json", r.URL.Path)
			assert.Equal(t, "lord of the rings & more", r.URL.Query().Get("q"))
			assert.Equal(t, "40", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`{
				"numFound": 2,
				"docs": [
					{"key": "/works/OL27448W", "title": "The Lord of the Rings", "author_name": ["J.R.R. Tolkien"], "author_key": ["OL26320A"], "cover_i": 14625765, "first_publish_year": 1954},
					{"key": "/works/OL1W", "title": "No Cover", "cover_i": -1}
				]
			}`))
		})

		books, err := c.SearchBooks(context.Background(), "lord of the rings & more", 40)
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, BookSummary{
			ID:               "OL27448W",
			Key:              "/works/OL27448W",
			Title:            "The Lord of the Rings",
			AuthorNames:      []string{"J.R.R. Tolkien"},
			AuthorIDs:        []string{"OL26320A"},
			CoverID:          14625765,
			FirstPublishYear: 1954,
		}, books[0])
		assert.Equal(t, 0, books[1].CoverID)
	})

	t.Run("empty query sends no request", func(t *testing.T) {
		c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

		books, err := c.SearchBooks(context.Background(), "   ", 10)
		require.NoError(t, err)
		assert.Empty(t, books)
		assert.NotNil(t, books)
		assert.Equal(t, int64(0), hits.Load())
	})

	t.Run("failure is not an empty result", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		books, err := c.SearchBooks(context.Background(), "dune", 10)
		assert.Nil(t, books)
		assert.ErrorIs(t, err, ErrCatalogUnavailable)
	})
}

func TestClient_GetAuthor(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/authors/OL79034A.json":
			_, _ = w.Write([]byte(`{
				"key": "/authors/OL79034A",
				"name": "Frank Herbert",
				"birth_date": "8 October 1920",
				"death_date": "11 February 1986",
				"bio": {"type": "/type/text", "value": "American science fiction author."},
				"photos": [6543210, -1]
			}`))
		case "/authors/OL79034A/works.json":
			_, _ = w.Write([]byte(`{"entries": [
				{"key": "/works/OL45883W", "title": "Dune", "covers": [11481354], "first_publish_date": "1965"}
			]}`))
		default:
			http.NotFound(w, r)
		}
	})

	a, err := c.GetAuthor(context.Background(), "/authors/OL79034A")
	require.NoError(t, err)
	assert.Equal(t, "OL79034A", a.ID)
	assert.Equal(t, "Frank Herbert", a.Name)
	assert.Equal(t, "American science fiction author.", a.Bio)
	assert.Equal(t, "11 February 1986", a.DeathDate)
	assert.Equal(t, []int{6543210}, a.Photos)

	works, err := c.GetAuthorWorks(context.Background(), "OL79034A", 0)
	require.NoError(t, err)
	require.Len(t, works, 1)
	assert.Equal(t, "OL45883W", works[0].ID)
	assert.Equal(t, "Dune", works[0].Title)

	_, err = c.GetAuthor(context.Background(), "OL0A")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthorID(t *testing.T) {
	tests := map[string]string{
		"/authors/OL123A":      "OL123A",
		"OL123A":               "OL123A",
		"/authors/OL123A/":     "OL123A",
		"/authors/OL123A.json": "OL123A",
		"":                     "",
		"  ":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, AuthorID(in), "AuthorID(%q)", in)
	}
	assert.Equal(t, "/authors/OL123A", AuthorPath("/authors/OL123A"))
	assert.Equal(t, AuthorPath("OL123A"), AuthorPath("/authors/OL123A"))
	assert.Equal(t, "", AuthorPath(""))
	assert.Equal(t, "/books/OL45883W", BookPath("/works/OL45883W"))
}

func TestCoverURL(t *testing.T) {
	c := NewClient(Config{CoversURL: "https://covers.openlibrary.org/"})

	assert.Equal(t, "https://covers.openlibrary.org/b/id/8231856-L.jpg", c.CoverURL(8231856, CoverLarge))
	assert.Equal(t, "https://covers.openlibrary.org/b/id/8231856-S.jpg", c.CoverURL(8231856, "s"))
	assert.Equal(t, "https://covers.openlibrary.org/b/id/8231856-M.jpg", c.CoverURL(8231856, "XL"))
	assert.Equal(t, "https://covers.openlibrary.org/a/id/42-L.jpg", c.AuthorPhotoURL(42, CoverLarge))
	assert.Equal(t, "", c.CoverURL(0, CoverLarge))
	assert.Equal(t, "", c.CoverURL(-1, CoverLarge))
}
