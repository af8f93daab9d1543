package catalog

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"bookshelf/internal/platform/openlibrary"
)

type AuthorLookup interface {
	GetAuthor(ctx context.Context, authorKey string) (*openlibrary.Author, error)
}

// Resolver turns author references into display names.
type Resolver struct {
	lookup AuthorLookup
}

func NewResolver(lookup AuthorLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve looks up every reference concurrently. Failed lookups are logged
// and dropped; the rest keep their input order. Resolve never fails, so a
// catalog outage yields an empty list.
func (r *Resolver) Resolve(ctx context.Context, refs []openlibrary.AuthorRef) []AuthorName {
	names, _ := r.resolve(ctx, refs)
	return names
}

// resolve also reports how many lookups failed in a way worth retrying.
// Unknown and nameless authors are dropped without counting.
func (r *Resolver) resolve(ctx context.Context, refs []openlibrary.AuthorRef) ([]AuthorName, int) {
	if len(refs) == 0 {
		return []AuthorName{}, 0
	}

	resolved := make([]*AuthorName, len(refs))
	var (
		wg     sync.WaitGroup
		failed atomic.Int64
	)
	for i, ref := range refs {
		wg.Go(func() {
			a, err := r.lookup.GetAuthor(ctx, ref.Key)
			if err != nil {
				if !errors.Is(err, openlibrary.ErrNotFound) {
					failed.Add(1)
				}
				log.Printf("author lookup failed key=%s error=%v", ref.Key, err)
				return
			}
			if a == nil || a.Name == "" {
				return
			}
			resolved[i] = &AuthorName{
				ID:   ref.ID(),
				Key:  ref.Key,
				Name: a.Name,
				Path: openlibrary.AuthorPath(ref.Key),
			}
		})
	}
	wg.Wait()

	out := make([]AuthorName, 0, len(refs))
	for _, a := range resolved {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out, int(failed.Load())
}
