package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSlug(t *testing.T) {
	cases := map[string]string{
		"10 Essential Exercises!":          "10-essential-exercises",
		"  Leading and trailing  ":         "leading-and-trailing",
		"HIIT vs. Steady-State Cardio":     "hiit-vs-steady-state-cardio",
		"Protein: How Much?":               "protein-how-much",
		"multiple   spaces\tand\nnewlines": "multiple-spaces-and-newlines",
		"already-a-slug":                   "already-a-slug",
		"--dashes -- everywhere--":         "dashes-everywhere",
		"snake_case_stays":                 "snake_case_stays",
		"Crème brûlée":                     "crme-brle",
		"!!!":                              "",
		"":                                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeSlug(in), "NormalizeSlug(%q)", in)
	}
}

func TestNormalizeSlugIdempotent(t *testing.T) {
	inputs := []string{
		"10 Essential Exercises!",
		"  a - b  -  c ",
		"Post-Workout Recovery: 5 Tips",
		"__under__score__",
		"ünïcödé and ascii",
		"-",
		"a--b",
		"tab\tseparated",
	}
	for _, in := range inputs {
		once := NormalizeSlug(in)
		assert.Equal(t, once, NormalizeSlug(once), "input %q", in)
	}
}
