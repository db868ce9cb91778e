package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyIsCaseAndWhitespaceInsensitive(t *testing.T) {
	a := Key("Daft Punk", " Get Lucky ")
	b := Key("daft punk", "get lucky")

	assert.Equal(t, b, a)
	assert.Equal(t, "daft punk", a.Artist)
	assert.Equal(t, "get lucky", a.Title)
}

func TestKeyIsIdempotent(t *testing.T) {
	k := Key("Daft Punk", "Get Lucky")
	again := Key(k.Artist, k.Title)

	assert.Equal(t, k, again)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "daft-punk", Slug("Daft Punk"))
	assert.Equal(t, "get-lucky", Slug("  Get   Lucky  "))
	assert.Equal(t, "dont-stop", Slug("Don't Stop"))
	assert.Equal(t, "blue-monday-88", Slug("Blue Monday '88"))
}

func TestSlugDropsNonASCII(t *testing.T) {
	// Dropped, not transliterated
	assert.Equal(t, "cline-dion", Slug("Céline Dion"))
}

func TestTitleSlugStripsFeatClause(t *testing.T) {
	assert.Equal(t, "work", TitleSlug("Work (feat. Rihanna)"))
	assert.Equal(t, "get-lucky", TitleSlug("Get Lucky (ft. Pharrell Williams)"))
	assert.Equal(t, "work", TitleSlug("Work"))
}

func TestTitleVariantsOrder(t *testing.T) {
	variants := TitleVariants("Work (feat. Rihanna)")

	assert.Equal(t, []string{
		"work-feat.-rihanna",
		"work--feat-rihanna",
		"work-feat-rihanna",
		"work",
	}, variants)
}

func TestTitleVariantsWithoutClauseDegrade(t *testing.T) {
	variants := TitleVariants("Get Lucky")

	assert.Len(t, variants, 4)
	for _, v := range variants {
		assert.Equal(t, "get-lucky", v)
	}
}

func TestSignificantWords(t *testing.T) {
	// Words of length <= 2 are not significant; the feat clause is ignored.
	words := SignificantWords("Break in the Action (feat. MF DOOM)")

	assert.Equal(t, []string{"break", "the", "action"}, words)
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"break", "in", "the", "action"}, Words("Break in the Action"))
}
