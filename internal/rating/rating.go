package rating

import (
	"encoding/json"
	"strconv"
)

const (
	MinStar = 1
	MaxStar = 5
)

// NoRatingsLabel is what clients show instead of a numeric average when a
// book has no reviews.
const NoRatingsLabel = "No ratings"

// Average returns the arithmetic mean of ratings rounded half-up to one
// decimal place. An empty input yields 0.
func Average(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(roundTenths(sum, len(ratings))) / 10
}

// roundTenths returns round-half-up(sum*10/n) using integers only, so exact
// halves such as 1.05 never drift through float representation.
func roundTenths(sum, n int) int {
	return (20*sum + n) / (2 * n)
}

// Summary is the derived rating of a book.
type Summary struct {
	Average   float64
	Count     int
	Breakdown Breakdown
}

// Summarize aggregates ratings into a Summary.
func Summarize(ratings []int) Summary {
	return Summary{Average: Average(ratings), Count: len(ratings), Breakdown: NewBreakdown(ratings)}
}

// Rated reports whether the summary is backed by at least one rating.
func (s Summary) Rated() bool {
	return s.Count > 0
}

// Label is the display form: the average with one decimal, or NoRatingsLabel.
func (s Summary) Label() string {
	if !s.Rated() {
		return NoRatingsLabel
	}
	return strconv.FormatFloat(s.Average, 'f', 1, 64)
}

func (s Summary) MarshalJSON() ([]byte, error) {
	out := struct {
		Average   *float64  `json:"average_rating"`
		Count     int       `json:"ratings_count"`
		Label     string    `json:"label"`
		Breakdown Breakdown `json:"breakdown"`
	}{Count: s.Count, Label: s.Label(), Breakdown: s.Breakdown}
	if s.Rated() {
		avg := s.Average
		out.Average = &avg
	}
	return json.Marshal(out)
}

// Breakdown counts ratings per star value. Values outside 1..5 are ignored.
type Breakdown [MaxStar + 1]int

func NewBreakdown(ratings []int) Breakdown {
	var b Breakdown
	for _, r := range ratings {
		if r >= MinStar && r <= MaxStar {
			b[r]++
		}
	}
	return b
}

// Stars returns the number of ratings with the given star value.
func (b Breakdown) Stars(star int) int {
	if star < MinStar || star > MaxStar {
		return 0
	}
	return b[star]
}

func (b Breakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]int{
		"1": b[1], "2": b[2], "3": b[3], "4": b[4], "5": b[5],
	})
}
