package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"en", "en"},
		{"eng", "en"},
		{"fre", "fr"},
		{"fra", "fr"},
		{"ger", "de"},
		{"deu", "de"},
		{"cmn", "zh"},
		{"yue", "zh"},
		{"arb", "ar"},
		{"khk", "mn"},
		{"nob", "no"},
		{"pes", "fa"},
		{"zsm", "ms"},
		{"PT", "pt"},
		{" pob ", "pob"}, // unknown 3-letter codes pass through
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.tag))
		})
	}
}

func TestSameLanguage(t *testing.T) {
	assert.True(t, SameLanguage("fre", "fra"))
	assert.True(t, SameLanguage("fr", "fra"))
	assert.True(t, SameLanguage("chi", "cmn"))
	assert.False(t, SameLanguage("fre", "spa"))
}

func TestThreeLetterForms(t *testing.T) {
	forms := ThreeLetterForms("fr")
	assert.Contains(t, forms, "fra")
	assert.Contains(t, forms, "fre")

	forms = ThreeLetterForms("fre")
	assert.Contains(t, forms, "fra")
	assert.Contains(t, forms, "fre")
}

func TestSkippable(t *testing.T) {
	assert.True(t, Skippable("mul"))
	assert.False(t, Skippable("en"))
	assert.False(t, Skippable("fra"))
}

func TestRelated(t *testing.T) {
	tests := []struct {
		expected, detected string
		want               bool
	}{
		{"bs", "hr", true},
		{"hr", "bs", true},
		{"sr", "hr", true},
		{"cs", "sk", true},
		{"da", "no", true},
		{"sv", "dan", true},
		{"gl", "es", true},
		{"es", "gl", true},
		{"pt", "es", false},
		{"ms", "id", true},
		{"ru", "ukr", true},
		{"en", "de", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Related(tt.expected, tt.detected),
			"%s vs %s", tt.expected, tt.detected)
	}
}
