package terminology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
  "metadata": {"format_version": "2.0"},
  "translations": {
    "site": {
      "lac Supérieur": {"en": "Lake Superior", "gender": "m", "articles": ["le", "du", "au"]},
      "lac": "lake"
    },
    "acronym": {
      "MPO": "DFO"
    },
    "taxon": {
      "morue franche": "Atlantic cod"
    }
  }
}`

func TestParse_WrappedWithObjects(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())

	var found *Entry
	for i, e := range c.Entries() {
		if e.SourceTerm == "lac Supérieur" {
			found = &c.Entries()[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, Site, found.Category)
	assert.Equal(t, "Lake Superior", found.TargetTerm)
	assert.Equal(t, "m", found.Gender)
	assert.Equal(t, []string{"le", "du", "au"}, found.Articles)
}

func TestParse_BareShape(t *testing.T) {
	c, err := Parse([]byte(`{"nomenclature": {"carbon dioxide": "dioxyde de carbone"}}`))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, Nomenclature, c.Entries()[0].Category)
}

func TestParse_UnknownCategory(t *testing.T) {
	_, err := Parse([]byte(`{"weather": {"pluie": "rain"}}`))
	assert.Error(t, err)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{not json`))
	assert.Error(t, err)
}

func TestTerms_Direction(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	native := c.Terms("fr")
	require.NotEmpty(t, native)
	assert.Equal(t, "lac Supérieur", native[0].Text, "longest term first")
	assert.Equal(t, "Lake Superior", native[0].Translation)

	reverse := c.Terms("en")
	require.NotEmpty(t, reverse)
	assert.Equal(t, "Lake Superior", reverse[0].Text)
	assert.Equal(t, "lac Supérieur", reverse[0].Translation)
}

func TestTerms_LongestFirst(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	terms := c.Terms("fr")
	for i := 1; i < len(terms); i++ {
		assert.GreaterOrEqual(t, len([]rune(terms[i-1].Text)), len([]rune(terms[i].Text)))
	}
}

func TestWithNativeLanguage(t *testing.T) {
	c := New([]Entry{{Category: Nomenclature, SourceTerm: "carbon dioxide", TargetTerm: "dioxyde de carbone"}}).
		WithNativeLanguage("en")

	terms := c.Terms("en")
	require.Len(t, terms, 1)
	assert.Equal(t, "carbon dioxide", terms[0].Text)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestCategoryPrefix(t *testing.T) {
	assert.Equal(t, "NOMENCLATURE", Nomenclature.Prefix())
	assert.Equal(t, []string{"NOMENCLATURE", "TAXON", "ACRONYM", "SITE", "NAME"}, Prefixes())
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	assert.Nil(t, c.Terms("fr"))
	assert.Equal(t, 0, c.Len())
}
