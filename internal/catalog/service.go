package catalog

import (
	"context"
	"strings"

	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/querycache"

	"golang.org/x/sync/errgroup"
)

const (
	KindBook        = "book"
	KindSearch      = "search"
	KindAuthor      = "author"
	KindAuthorWorks = "author-works"
)

// Catalog is the subset of the Open Library client the service needs.
type Catalog interface {
	AuthorLookup
	SearchBooks(ctx context.Context, query string, limit int) ([]openlibrary.BookSummary, error)
	GetWork(ctx context.Context, workID string) (*openlibrary.Work, error)
	GetAuthorWorks(ctx context.Context, authorKey string, limit int) ([]openlibrary.WorkSummary, error)
	CoverURL(id int, size openlibrary.CoverSize) string
	AuthorPhotoURL(id int, size openlibrary.CoverSize) string
}

type Config struct {
	SearchLimit int
	WorksLimit  int
}

type Service struct {
	client   Catalog
	resolver *Resolver
	cache    *querycache.Cache
	cfg      Config
}

func NewService(client Catalog, cache *querycache.Cache, cfg Config) *Service {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 40
	}
	if cfg.WorksLimit <= 0 {
		cfg.WorksLimit = 50
	}
	s := &Service{
		client: client,
		cache:  cache,
		cfg:    cfg,
	}
	s.resolver = NewResolver(cachedAuthors{s})
	return s
}

// cachedAuthors shares author records between book pages and author pages.
type cachedAuthors struct {
	s *Service
}

func (c cachedAuthors) GetAuthor(ctx context.Context, authorKey string) (*openlibrary.Author, error) {
	return c.s.author(ctx, openlibrary.AuthorID(authorKey))
}

func (s *Service) author(ctx context.Context, id string) (*openlibrary.Author, error) {
	return querycache.Fetch(ctx, s.cache, querycache.NewKey(KindAuthor, id), func(ctx context.Context) (*openlibrary.Author, error) {
		return s.client.GetAuthor(ctx, id)
	})
}

// Search returns catalog hits for query. An empty query returns an empty
// list without touching the catalog or the cache.
func (s *Service) Search(ctx context.Context, query string) ([]BookSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []BookSummary{}, nil
	}
	key := querycache.NewKey(KindSearch, strings.ToLower(query))
	return querycache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]BookSummary, error) {
		hits, err := s.client.SearchBooks(ctx, query, s.cfg.SearchLimit)
		if err != nil {
			return nil, err
		}
		out := make([]BookSummary, 0, len(hits))
		for _, h := range hits {
			out = append(out, BookSummary{
				BookSummary: h,
				CoverURL:    s.client.CoverURL(h.CoverID, openlibrary.CoverMedium),
				Path:        openlibrary.BookPath(h.Key),
			})
		}
		return out, nil
	})
}

// Book fetches a work and resolves its authors. A detail missing authors
// because their lookups failed is served once and then dropped from the
// cache, so the next read retries them.
func (s *Service) Book(ctx context.Context, workID string) (BookDetail, error) {
	id := openlibrary.WorkID(workID)
	if id == "" {
		return BookDetail{}, openlibrary.ErrInvalidID
	}
	key := querycache.NewKey(KindBook, id)
	b, err := querycache.Fetch(ctx, s.cache, key, func(ctx context.Context) (BookDetail, error) {
		w, err := s.client.GetWork(ctx, id)
		if err != nil {
			return BookDetail{}, err
		}
		authors, failed := s.resolver.resolve(ctx, w.Authors)
		b := s.merge(w, authors)
		b.unresolved = failed
		return b, nil
	})
	if err != nil {
		return BookDetail{}, err
	}
	if b.unresolved > 0 {
		s.cache.Invalidate(key)
	}
	return b, nil
}

func (s *Service) merge(w *openlibrary.Work, authors []AuthorName) BookDetail {
	b := BookDetail{
		ID:               w.ID,
		Title:            w.Title,
		Authors:          authors,
		CoverIDs:         w.Covers,
		FirstPublishDate: w.FirstPublishDate,
		Description:      w.Description,
		Subjects:         w.Subjects,
		Publishers:       w.Publishers,
	}
	if len(w.Covers) > 0 {
		canonical := w.Covers[0]
		b.Cover = &Covers{
			Small:  s.client.CoverURL(canonical, openlibrary.CoverSmall),
			Medium: s.client.CoverURL(canonical, openlibrary.CoverMedium),
			Large:  s.client.CoverURL(canonical, openlibrary.CoverLarge),
		}
	}
	return b
}

// Author fetches an author and their works concurrently. Either failure
// fails the call.
func (s *Service) Author(ctx context.Context, authorID string) (AuthorDetail, error) {
	id := openlibrary.AuthorID(authorID)
	if id == "" {
		return AuthorDetail{}, openlibrary.ErrInvalidID
	}

	var (
		author *openlibrary.Author
		works  []openlibrary.WorkSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		author, err = s.author(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		works, err = querycache.Fetch(gctx, s.cache, querycache.NewKey(KindAuthorWorks, id), func(ctx context.Context) ([]openlibrary.WorkSummary, error) {
			return s.client.GetAuthorWorks(ctx, id, s.cfg.WorksLimit)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return AuthorDetail{}, err
	}

	d := AuthorDetail{
		ID:        id,
		Name:      author.Name,
		BirthDate: author.BirthDate,
		DeathDate: author.DeathDate,
		Bio:       author.Bio,
		Works:     make([]AuthorWork, 0, len(works)),
	}
	if len(author.Photos) > 0 {
		d.PhotoURL = s.client.AuthorPhotoURL(author.Photos[0], openlibrary.CoverLarge)
	}
	for _, w := range works {
		aw := AuthorWork{WorkSummary: w, Path: openlibrary.BookPath(w.Key)}
		if len(w.Covers) > 0 {
			aw.CoverURL = s.client.CoverURL(w.Covers[0], openlibrary.CoverMedium)
		}
		d.Works = append(d.Works, aw)
	}
	return d, nil
}
