package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func spansText(text string, spans [][2]int) []string {
	var out []string
	for _, s := range spans {
		out = append(out, text[s[0]:s[1]])
	}
	return out
}

func TestFindNames(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"two title-case words", "We met Jean Tremblay yesterday.", []string{"Jean Tremblay"}},
		{"honorific with period", "Dr. Smith reviewed the data.", []string{"Dr. Smith"}},
		{"french honorific", "Le rapport de Mme Gagnon est prêt.", []string{"Mme Gagnon"}},
		{"leading function word dropped", "The Great Slave Lake is deep.", []string{"Great Slave Lake"}},
		{"french article dropped", "Le Saint Laurent coule vers l'est.", []string{"Saint Laurent"}},
		{"hyphenated first name", "Jean-Pierre Dupont a signé.", []string{"Jean-Pierre Dupont"}},
		{"hyphenated word alone", "Jean-Pierre a signé.", nil},
		{"comma breaks sequences", "Lake Superior, Lake Huron", []string{"Lake Superior", "Lake Huron"}},
		{"single capitalised word", "Ottawa is the capital.", nil},
		{"acronyms ignored", "DFO and NOAA agreed.", nil},
		{"honorific alone", "Ask the Dr. about it.", nil},
		{"lowercase text", "nothing to see here", nil},
		{"empty", "", nil},
		{"accented names", "Émilie Côté a répondu.", []string{"Émilie Côté"}},
	}

	f := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spansText(tt.text, f.FindNames(tt.text)))
		})
	}
}

func TestFindNames_ByteOffsets(t *testing.T) {
	text := "Contact Émilie Côté."
	spans := New().FindNames(text)

	assert.Equal(t, [][2]int{{0, len("Contact Émilie Côté")}}, spans)
}

func TestIsTitle(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Salmon", true},
		{"M", true},
		{"McDonald", true},
		{"NASA", false},
		{"salmon", false},
		{"Élise", true},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isTitle(tt.in), tt.in)
	}
}
