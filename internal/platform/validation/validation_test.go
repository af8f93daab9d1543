package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewInput struct {
	BookID string  `json:"book_id" validate:"notblank"`
	Rating int     `json:"rating" validate:"min=1,max=5"`
	Text   *string `json:"text" validate:"omitempty,max=10"`
}

func TestStruct_Valid(t *testing.T) {
	assert.Nil(t, Struct(reviewInput{BookID: "OL1W", Rating: 4}))
}

func TestStruct_Messages(t *testing.T) {
	long := "this text is far too long"

	tests := []struct {
		name  string
		input reviewInput
		field string
		msg   string
	}{
		{name: "blank book", input: reviewInput{BookID: "  ", Rating: 3}, field: "book_id", msg: "book_id is required"},
		{name: "rating too low", input: reviewInput{BookID: "OL1W", Rating: 0}, field: "rating", msg: "rating must be at least 1"},
		{name: "rating too high", input: reviewInput{BookID: "OL1W", Rating: 6}, field: "rating", msg: "rating must be at most 5"},
		{name: "text too long", input: reviewInput{BookID: "OL1W", Rating: 2, Text: &long}, field: "text", msg: "text must be at most 10 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Struct(tt.input)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.msg, errs[0].Message)
		})
	}
}

func TestStruct_MultipleFailures(t *testing.T) {
	errs := Struct(reviewInput{})
	assert.Len(t, errs, 2)
}
