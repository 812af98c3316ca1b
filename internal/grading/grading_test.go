package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLetterBoundaries(t *testing.T) {
	cases := map[float64]string{
		100:   "A",
		90:    "A",
		89:    "B",
		89.99: "B",
		80:    "B",
		79:    "C",
		70:    "C",
		69:    "D",
		60:    "D",
		59:    "E",
		50:    "E",
		49:    "F",
		0:     "F",
		-1:    Invalid,
		101:   Invalid,
	}

	for score, want := range cases {
		require.Equal(t, want, Letter(score), "score %v", score)
	}
	require.Equal(t, NotAvailable, Letter(math.NaN()))
	require.Equal(t, Invalid, Letter(math.Inf(1)))
	require.Equal(t, Invalid, Letter(math.Inf(-1)))

	_, ok := GPA(math.Inf(1))
	require.False(t, ok)
}

func TestLetterIsMonotonic(t *testing.T) {
	prev := Rank(Letter(0))
	for s := 0.0; s <= 100; s += 0.5 {
		rank := Rank(Letter(s))
		require.GreaterOrEqual(t, rank, prev, "score %v", s)
		prev = rank
	}
}

func TestGPA(t *testing.T) {
	gpa, ok := GPA(95)
	require.True(t, ok)
	require.Equal(t, 4.0, gpa)

	gpa, ok = GPA(55)
	require.True(t, ok)
	require.Equal(t, 0.5, gpa)

	_, ok = GPA(120)
	require.False(t, ok)
}

func TestParseScore(t *testing.T) {
	require.Equal(t, "B", ParseScore("85").Letter)
	require.Equal(t, "A", ParseScore(" 92,5 ").Letter)
	require.Equal(t, NotAvailable, ParseScore("abc").Letter)
	require.Equal(t, NotAvailable, ParseScore("").Letter)
	require.False(t, ParseScore("-4").Valid)
}

func TestAverageGPA(t *testing.T) {
	avg, ok := AverageGPA([]float64{95, 85, 75, 150})
	require.True(t, ok)
	require.Equal(t, 3.0, avg)

	_, ok = AverageGPA([]float64{-5, 200})
	require.False(t, ok)

	_, ok = AverageGPA(nil)
	require.False(t, ok)
}

func TestDistribution(t *testing.T) {
	dist := Distribution([]float64{95, 91, 42, 300})
	require.Equal(t, 2, dist["A"])
	require.Equal(t, 1, dist["F"])
	require.Equal(t, 0, dist["C"])
	require.Len(t, dist, 6)
}
