package rating

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverage(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{name: "empty is sentinel zero", ratings: nil, want: 0},
		{name: "single", ratings: []int{3}, want: 3},
		{name: "exact half", ratings: []int{4, 5}, want: 4.5},
		{name: "pinned half value", ratings: []int{3, 4}, want: 3.5},
		{name: "non-half rounds down", ratings: []int{4, 4, 5}, want: 4.3},
		{name: "non-half rounds up", ratings: []int{4, 5, 5}, want: 4.7},
		// 21/20 = 1.05: half-up gives 1.1, half-even would give 1.0
		{name: "x.x5 rounds half up", ratings: append(repeat(1, 19), 2), want: 1.1},
		// 49/20 = 2.45
		{name: "2.45 rounds half up", ratings: append(repeat(2, 11), repeat(3, 9)...), want: 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Average(tt.ratings))
		})
	}
}

func TestAverage_StaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(50)
		ratings := make([]int, n)
		for j := range ratings {
			ratings[j] = MinStar + rng.Intn(MaxStar)
		}
		avg := Average(ratings)
		require.GreaterOrEqual(t, avg, 1.0, "ratings=%v", ratings)
		require.LessOrEqual(t, avg, 5.0, "ratings=%v", ratings)
	}
}

func TestSummarize(t *testing.T) {
	t.Run("no ratings", func(t *testing.T) {
		s := Summarize(nil)
		assert.False(t, s.Rated())
		assert.Equal(t, 0.0, s.Average)
		assert.Equal(t, NoRatingsLabel, s.Label())
	})

	t.Run("rated", func(t *testing.T) {
		s := Summarize([]int{5, 4, 4})
		assert.True(t, s.Rated())
		assert.Equal(t, 3, s.Count)
		assert.Equal(t, "4.3", s.Label())
		assert.Equal(t, 2, s.Breakdown.Stars(4))
		assert.Equal(t, 1, s.Breakdown.Stars(5))
		assert.Equal(t, 0, s.Breakdown.Stars(1))
	})

	t.Run("whole average keeps one decimal", func(t *testing.T) {
		assert.Equal(t, "4.0", Summarize([]int{4}).Label())
	})
}

func TestSummary_MarshalJSON(t *testing.T) {
	t.Run("null average when unrated", func(t *testing.T) {
		b, err := json.Marshal(Summarize(nil))
		require.NoError(t, err)

		var out map[string]any
		require.NoError(t, json.Unmarshal(b, &out))
		assert.Nil(t, out["average_rating"])
		assert.Equal(t, float64(0), out["ratings_count"])
		assert.Equal(t, NoRatingsLabel, out["label"])
	})

	t.Run("numeric average when rated", func(t *testing.T) {
		b, err := json.Marshal(Summarize([]int{3, 4}))
		require.NoError(t, err)
		assert.JSONEq(t,
			`{"average_rating":3.5,"ratings_count":2,"label":"3.5","breakdown":{"1":0,"2":0,"3":1,"4":1,"5":0}}`,
			string(b))
	})
}

func TestNewBreakdown_IgnoresOutOfRange(t *testing.T) {
	b := NewBreakdown([]int{0, 1, 6, 5, -2})
	assert.Equal(t, 1, b.Stars(1))
	assert.Equal(t, 1, b.Stars(5))
	assert.Equal(t, 0, b.Stars(0))
	assert.Equal(t, 0, b.Stars(6))
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}
