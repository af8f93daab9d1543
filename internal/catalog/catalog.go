package catalog

import "bookshelf/internal/platform/openlibrary"

// AuthorName is a resolved author reference.
type AuthorName struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Path string `json:"path"`
}

type Covers struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// BookDetail is the merged view of a work and its resolved authors.
type BookDetail struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Authors          []AuthorName `json:"authors"`
	CoverIDs         []int        `json:"cover_ids"`
	Cover            *Covers      `json:"cover,omitempty"`
	FirstPublishDate string       `json:"first_publish_date,omitempty"`
	Description      string       `json:"description,omitempty"`
	Subjects         []string     `json:"subjects,omitempty"`
	Publishers       []string     `json:"publishers,omitempty"`

	// unresolved counts author lookups that failed while building this detail
	unresolved int
}

type BookSummary struct {
	openlibrary.BookSummary
	CoverURL string `json:"cover_url,omitempty"`
	Path     string `json:"path"`
}

type AuthorWork struct {
	openlibrary.WorkSummary
	CoverURL string `json:"cover_url,omitempty"`
	Path     string `json:"path"`
}

type AuthorDetail struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	BirthDate string       `json:"birth_date,omitempty"`
	DeathDate string       `json:"death_date,omitempty"`
	Bio       string       `json:"bio,omitempty"`
	PhotoURL  string       `json:"photo_url,omitempty"`
	Works     []AuthorWork `json:"works"`
}
