package openlibrary

import (
	"bytes"
	"encoding/json"
	"strings"
)

const searchFields = "key,title,author_name,author_key,cover_i,first_publish_year"

// BookSummary is one search hit.
type BookSummary struct {
	ID               string   `json:"id"`
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_names,omitempty"`
	AuthorIDs        []string `json:"author_ids,omitempty"`
	CoverID          int      `json:"cover_id,omitempty"`
	FirstPublishYear int      `json:"first_publish_year,omitempty"`
}

// AuthorRef points at an author record. Key may be path shaped
// ("/authors/OL1A") or bare.
type AuthorRef struct {
	Key string `json:"key"`
}

// ID is the canonical author id of the reference.
func (r AuthorRef) ID() string {
	return AuthorID(r.Key)
}

// Work is a catalog work with its wire-format variations removed.
type Work struct {
	ID               string
	Key              string
	Title            string
	Authors          []AuthorRef
	Covers           []int
	FirstPublishDate string
	Description      string
	Subjects         []string
	Publishers       []string
}

type Author struct {
	ID           string
	Key          string
	Name         string
	PersonalName string
	BirthDate    string
	DeathDate    string
	Bio          string
	Photos       []int
}

type WorkSummary struct {
	ID               string `json:"id"`
	Key              string `json:"key"`
	Title            string `json:"title"`
	Covers           []int  `json:"covers,omitempty"`
	FirstPublishDate string `json:"first_publish_date,omitempty"`
}

type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_name"`
	AuthorKeys       []string `json:"author_key"`
	CoverID          int      `json:"cover_i"`
	FirstPublishYear int      `json:"first_publish_year"`
}

func (d searchDoc) summary() BookSummary {
	ids := make([]string, 0, len(d.AuthorKeys))
	for _, k := range d.AuthorKeys {
		if id := AuthorID(k); id != "" {
			ids = append(ids, id)
		}
	}
	cover := d.CoverID
	if cover < 0 {
		cover = 0
	}
	return BookSummary{
		ID:               WorkID(d.Key),
		Key:              d.Key,
		Title:            d.Title,
		AuthorNames:      d.AuthorNames,
		AuthorIDs:        ids,
		CoverID:          cover,
		FirstPublishYear: d.FirstPublishYear,
	}
}

type workJSON struct {
	Key              string          `json:"key"`
	Title            string          `json:"title"`
	Authors          []authorRefJSON `json:"authors"`
	Covers           []int           `json:"covers"`
	FirstPublishDate string          `json:"first_publish_date"`
	Description      textValue       `json:"description"`
	Subjects         []string        `json:"subjects"`
	Publishers       []string        `json:"publishers"`
}

func (w workJSON) normalize() *Work {
	refs := make([]AuthorRef, 0, len(w.Authors))
	for _, a := range w.Authors {
		if a.key != "" {
			refs = append(refs, AuthorRef{Key: a.key})
		}
	}
	return &Work{
		Key:              w.Key,
		Title:            w.Title,
		Authors:          refs,
		Covers:           validCovers(w.Covers),
		FirstPublishDate: w.FirstPublishDate,
		Description:      string(w.Description),
		Subjects:         w.Subjects,
		Publishers:       w.Publishers,
	}
}

type authorJSON struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	PersonalName string    `json:"personal_name"`
	BirthDate    string    `json:"birth_date"`
	DeathDate    string    `json:"death_date"`
	Bio          textValue `json:"bio"`
	Photos       []int     `json:"photos"`
}

func (a authorJSON) normalize() *Author {
	return &Author{
		Key:          a.Key,
		Name:         a.Name,
		PersonalName: a.PersonalName,
		BirthDate:    a.BirthDate,
		DeathDate:    a.DeathDate,
		Bio:          string(a.Bio),
		Photos:       validCovers(a.Photos),
	}
}

type authorWorksResponse struct {
	Entries []authorWorkEntry `json:"entries"`
}

type authorWorkEntry struct {
	Key              string `json:"key"`
	Title            string `json:"title"`
	Covers           []int  `json:"covers"`
	FirstPublishDate string `json:"first_publish_date"`
}

func (e authorWorkEntry) summary() WorkSummary {
	return WorkSummary{
		ID:               WorkID(e.Key),
		Key:              e.Key,
		Title:            e.Title,
		Covers:           validCovers(e.Covers),
		FirstPublishDate: e.FirstPublishDate,
	}
}

// textValue accepts "text" as well as {"type": "/type/text", "value": "text"}.
type textValue string

func (t *textValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = textValue(s)
		return nil
	}
	var wrapped struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	*t = textValue(wrapped.Value)
	return nil
}

// authorRefJSON accepts "/authors/OL1A", {"key": "/authors/OL1A"} and
// {"author": {"key": "/authors/OL1A"}, "type": ...}.
type authorRefJSON struct {
	key string
}

func (r *authorRefJSON) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &r.key)
	}
	var obj struct {
		Key    string          `json:"key"`
		Author json.RawMessage `json:"author"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if len(obj.Author) > 0 {
		var inner authorRefJSON
		if err := inner.UnmarshalJSON(obj.Author); err != nil {
			return err
		}
		r.key = inner.key
		return nil
	}
	r.key = obj.Key
	return nil
}

func validCovers(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			out = append(out, id)
		}
	}
	return out
}

// AuthorID returns the trailing segment of a path-shaped key, so
// "/authors/OL1A" and "OL1A" both give "OL1A".
func AuthorID(key string) string {
	return lastSegment(key)
}

// WorkID is AuthorID for works: "/works/OL1W" gives "OL1W".
func WorkID(key string) string {
	return lastSegment(key)
}

func lastSegment(key string) string {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if i := strings.LastIndex(key, "/"); i >= 0 {
		key = key[i+1:]
	}
	return strings.TrimSuffix(key, ".json")
}
