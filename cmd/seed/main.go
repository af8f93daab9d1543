package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"bookshelf/internal/config"
	"bookshelf/internal/review"
)

// Well-known Open Library works, so seeded reviews show up on real pages.
var defaultBooks = []string{
	"OL45883W",   // Dune
	"OL27448W",   // The Lord of the Rings
	"OL66554W",   // Pride and Prejudice
	"OL82563W",   // Harry Potter and the Philosopher's Stone
	"OL1168083W", // Nineteen Eighty-Four
}

func main() {
	var (
		users = flag.Int("users", 25, "Number of fake reviewers")
		books = flag.String("books", strings.Join(defaultBooks, ","), "Comma separated work ids")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	repo, closeStore, err := review.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("open review store: %v", err)
	}
	defer closeStore()

	ids := strings.Split(*books, ",")
	log.Printf("Seeding reviews for %d books from %d users...", len(ids), *users)

	inserted, skipped := 0, 0
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		for u := 0; u < *users; u++ {
			// roughly two thirds of users review each book
			if rand.Intn(3) == 0 {
				continue
			}
			rv := &review.Review{
				BookID: id,
				Rating: randomRating(),
				Text:   randomText(),
				UserID: fmt.Sprintf("seed-user-%03d", u+1),
			}
			if err := repo.Insert(ctx, rv); err != nil {
				if errors.Is(err, review.ErrAlreadyReviewed) {
					skipped++
					continue
				}
				log.Fatalf("Failed to insert review: %v", err)
			}
			inserted++
		}
	}

	log.Printf("Inserted %d reviews, %d already present", inserted, skipped)
	for _, id := range ids {
		ratings, err := repo.RatingsByBook(ctx, strings.TrimSpace(id))
		if err != nil {
			log.Fatalf("Failed to read ratings: %v", err)
		}
		log.Printf("book_id=%s reviews=%d", id, len(ratings))
	}
}

// randomRating skews toward 4 and 5 stars like real review sites.
func randomRating() int {
	weights := []int{1, 2, 3, 5, 6}
	total := 0
	for _, w := range weights {
		total += w
	}
	n := rand.Intn(total)
	for i, w := range weights {
		if n < w {
			return i + 1
		}
		n -= w
	}
	return 5
}

func randomText() *string {
	if rand.Intn(2) == 0 {
		return nil
	}
	phrases := []string{
		"Could not put it down.", "Slow start but worth it.", "A classic for a reason.",
		"Not for me.", "Beautiful prose.", "The ending surprised me.", "Re-read it twice.",
		"Characters felt flat.", "Great world building.", "Would recommend to friends.",
	}
	s := phrases[rand.Intn(len(phrases))]
	return &s
}
