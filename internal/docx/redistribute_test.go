package docx

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestRedistribute(t *testing.T) {
	tests := []struct {
		name       string
		translated string
		lengths    []int
		want       []string
	}{
		{
			name:       "cut snaps forward to a space",
			translated: "hello world foo bar",
			lengths:    []int{9, 10},
			want:       []string{"hello world", "foo bar"},
		},
		{
			name:       "cut already on a boundary stays",
			translated: "THE QUICK BROWN FOX JUMPS.",
			lengths:    []int{4, 11, 11},
			want:       []string{"THE", "QUICK BROWN", "FOX JUMPS."},
		},
		{
			name:       "backward snap when no space follows",
			translated: "un deux troisquatre",
			lengths:    []int{18, 1},
			want:       []string{"un deux", "troisquatre"},
		},
		{
			name:       "single length keeps everything",
			translated: "  Bonjour le monde ",
			lengths:    []int{7},
			want:       []string{"Bonjour le monde"},
		},
		{
			name:       "too few pieces falls back to the first run",
			translated: "Bonjour",
			lengths:    []int{5, 5},
			want:       []string{"Bonjour", ""},
		},
		{
			name:       "empty translation",
			translated: "",
			lengths:    []int{3, 4},
			want:       []string{"", ""},
		},
		{
			name:       "no lengths",
			translated: "text",
			lengths:    nil,
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Redistribute(tt.translated, tt.lengths))
		})
	}
}

func TestRedistribute_NeverGrowsText(t *testing.T) {
	inputs := []string{
		"Le lac Supérieur est le plus grand des Grands Lacs.",
		"a b c d e f g h",
		"sansespaces",
		"  espaces   multiples   partout  ",
		"Überprüfung der Qualität ist wichtig.",
	}
	lengthSets := [][]int{{1}, {1, 1}, {3, 7}, {10, 2, 5}, {1, 1, 1, 1, 1, 1}, {40, 1, 1}}

	for _, in := range inputs {
		for _, lengths := range lengthSets {
			pieces := Redistribute(in, lengths)
			assert.Len(t, pieces, len(lengths))

			total := 0
			for _, p := range pieces {
				total += utf8.RuneCountInString(p)
				assert.Equal(t, strings.TrimSpace(p), p)
			}
			assert.LessOrEqual(t, total, utf8.RuneCountInString(in), "input %q lengths %v", in, lengths)
		}
	}
}

func TestSnap(t *testing.T) {
	runes := []rune("ab cd ef")
	tests := []struct {
		pos  int
		want int
	}{
		{0, 0},
		{1, 2},
		{2, 2},
		{3, 3},
		{4, 5},
		{7, 6},
		{8, 8},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, snap(runes, tt.pos), "pos %d", tt.pos)
	}
}
