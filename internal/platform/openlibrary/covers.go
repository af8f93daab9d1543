package openlibrary

import (
	"fmt"
	"strings"
)

type CoverSize string

const (
	CoverSmall  CoverSize = "S"
	CoverMedium CoverSize = "M"
	CoverLarge  CoverSize = "L"
)

func (s CoverSize) normalize() CoverSize {
	switch CoverSize(strings.ToUpper(string(s))) {
	case CoverSmall:
		return CoverSmall
	case CoverLarge:
		return CoverLarge
	default:
		return CoverMedium
	}
}

// CoverURL builds the image URL of a book cover. No request is made.
// Non-positive ids have no image and give "".
func (c *Client) CoverURL(id int, size CoverSize) string {
	return imageURL(c.coversURL, "b", id, size)
}

// AuthorPhotoURL builds the image URL of an author photo.
func (c *Client) AuthorPhotoURL(id int, size CoverSize) string {
	return imageURL(c.coversURL, "a", id, size)
}

func imageURL(base, kind string, id int, size CoverSize) string {
	if id <= 0 {
		return ""
	}
	return fmt.Sprintf("%s/%s/id/%d-%s.jpg", base, kind, id, size.normalize())
}

// AuthorPath is the in-app link to an author page. It uses the same id
// extraction as GetAuthor so links and lookups agree.
func AuthorPath(key string) string {
	id := AuthorID(key)
	if id == "" {
		return ""
	}
	return "/authors/" + id
}

// BookPath is the in-app link to a book page.
func BookPath(key string) string {
	id := WorkID(key)
	if id == "" {
		return ""
	}
	return "/books/" + id
}
