package validator

import (
	"errors"
	"testing"

	"github.com/valpere/termshield/internal/detector"
	"github.com/valpere/termshield/internal/placeholder"
)

func TestLeakedPrefixes(t *testing.T) {
	v := New()

	tests := []struct {
		name     string
		source   string
		output   string
		expected int
	}{
		{"clean", "The lake is cold", "Le lac est froid", 0},
		{"leak", "The lake is cold", "Le NOMENCLATURE est froid", 1},
		{"prefix already in source", "NOMENCLATURE0001 is here", "NOMENCLATURE0001 est ici", 0},
		{"two leaks", "plain", "TAXON and SITE", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.LeakedPrefixes(tt.source, tt.output); len(got) != tt.expected {
				t.Errorf("LeakedPrefixes() = %v, want %d entries", got, tt.expected)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	v := New()
	mapping := placeholder.TokenMapping{{Token: "TAXON0001"}, {Token: "SITE0001"}}
	source := "TAXON0001 lives in SITE0001"

	tests := []struct {
		name    string
		output  string
		mapping placeholder.TokenMapping
		wantErr error
	}{
		{"valid exact", "TAXON0001 vit dans SITE0001", mapping, nil},
		{"valid corrupted", "TAXON 0001 vit dans SITE0001s", mapping, nil},
		{"empty", "  ", mapping, ErrEmpty},
		{"leak", "TAXON0001 vit dans SITE0001 NOMENCLATURE", mapping, ErrLeakedPlaceholder},
		{"missing", "TAXON0001 vit dans le lac", mapping, ErrMissingToken},
		{"no mapping", "anything goes", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := v.Check(source, tt.output, tt.mapping, "fr")
			if tt.wantErr == nil {
				if !r.Valid() {
					t.Errorf("expected valid, got %v", r.Err)
				}
				return
			}
			if !errors.Is(r.Err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, r.Err)
			}
		})
	}
}

func TestCheck_MissingListsTokens(t *testing.T) {
	v := New()
	r := v.Check("SITE0001 and NAME0001", "SITE0001 et Marie", placeholder.TokenMapping{{Token: "SITE0001"}, {Token: "NAME0001"}}, "")
	if len(r.Missing) != 1 || r.Missing[0] != "NAME0001" {
		t.Errorf("expected NAME0001 missing, got %v", r.Missing)
	}
}

func TestCheck_Language(t *testing.T) {
	v := New(WithLanguageCheck(detector.New()))

	english := "This is a longer piece of text that should be detected as English."
	if r := v.Check("source", english, nil, "en"); !r.Valid() {
		t.Errorf("expected valid English, got %v", r.Err)
	}
	if r := v.Check("source", english, nil, "FR"); !errors.Is(r.Err, ErrWrongLanguage) {
		t.Errorf("expected ErrWrongLanguage, got %v", r.Err)
	}
	if r := v.Check("source", "Hi there", nil, "fr"); !r.Valid() {
		t.Errorf("short text should pass, got %v", r.Err)
	}
}
