// Package grading converts 0-100 evaluation scores into letter grades and GPA points.
package grading

import (
	"math"
	"strconv"
	"strings"
)

const (
	// Invalid is returned for scores outside the 0-100 scale.
	Invalid = "Invalid"
	// NotAvailable is returned when no score can be read from the input.
	NotAvailable = "N/A"
)

type band struct {
	letter string
	min    float64
	gpa    float64
}

// ordered from highest to lowest
var bands = []band{
	{letter: "A", min: 90, gpa: 4.0},
	{letter: "B", min: 80, gpa: 3.0},
	{letter: "C", min: 70, gpa: 2.0},
	{letter: "D", min: 60, gpa: 1.0},
	{letter: "E", min: 50, gpa: 0.5},
	{letter: "F", min: 0, gpa: 0.0},
}

// Result is the converted form of a single score.
type Result struct {
	Score  float64 `json:"score"`
	Letter string  `json:"letter"`
	GPA    float64 `json:"gpa"`
	Valid  bool    `json:"valid"`
}

func lookup(score float64) (band, string) {
	if math.IsNaN(score) {
		return band{}, NotAvailable
	}
	if score < 0 || score > 100 {
		return band{}, Invalid
	}
	floored := math.Floor(score)
	for _, b := range bands {
		if floored >= b.min {
			return b, b.letter
		}
	}
	return bands[len(bands)-1], bands[len(bands)-1].letter
}

// Letter returns the letter grade for score.
func Letter(score float64) string {
	_, letter := lookup(score)
	return letter
}

// GPA returns the grade points for score and whether the score was valid.
func GPA(score float64) (float64, bool) {
	b, letter := lookup(score)
	if letter == Invalid || letter == NotAvailable {
		return 0, false
	}
	return b.gpa, true
}

// Convert returns the full conversion of score.
func Convert(score float64) Result {
	b, letter := lookup(score)
	res := Result{Score: score, Letter: letter}
	if letter != Invalid && letter != NotAvailable {
		res.GPA = b.gpa
		res.Valid = true
	}
	return res
}

// ParseScore converts a raw textual score. Malformed input yields NotAvailable.
func ParseScore(raw string) Result {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return Result{Letter: NotAvailable}
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Result{Letter: NotAvailable}
	}
	return Convert(score)
}

// AverageGPA averages the grade points of every valid score, rounded to two decimals.
// ok is false when scores holds no valid value.
func AverageGPA(scores []float64) (avg float64, ok bool) {
	var total float64
	var count int
	for _, s := range scores {
		if gpa, valid := GPA(s); valid {
			total += gpa
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return Round2(total / float64(count)), true
}

// AverageScore averages the valid scores, rounded to two decimals.
func AverageScore(scores []float64) (float64, bool) {
	var total float64
	var count int
	for _, s := range scores {
		if _, valid := GPA(s); valid {
			total += s
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return Round2(total / float64(count)), true
}

// Distribution counts how many scores fall into each letter. Invalid scores are ignored.
func Distribution(scores []float64) map[string]int {
	out := make(map[string]int, len(bands))
	for _, b := range bands {
		out[b.letter] = 0
	}
	for _, s := range scores {
		if letter := Letter(s); Rank(letter) > 0 {
			out[letter]++
		}
	}
	return out
}

// Rank orders letters so that a better grade has a higher rank. Unknown letters rank 0.
func Rank(letter string) int {
	for i, b := range bands {
		if b.letter == letter {
			return len(bands) - i
		}
	}
	return 0
}

// Round2 rounds v to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
