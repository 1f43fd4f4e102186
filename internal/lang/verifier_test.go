package lang

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const englishSample = `There is nothing in this world quite like an evening at the cinema.
The lights dim, the curtain rises, and for two hours everybody in the room
shares the same story, the same laughter and the same silences.`

const ukrainianSample = `Немає у світі нічого кращого за вечір у кінотеатрі.
Світло гасне, завіса піднімається, і протягом двох годин усі в залі
переживають ту саму історію, той самий сміх і ту саму тишу.`

func TestVerifyMatch(t *testing.T) {
	v := NewVerifier()
	assert.Equal(t, Match, v.Verify(englishSample, "en"))
	assert.Equal(t, Match, v.Verify(ukrainianSample, "uk"))
}

func TestVerifyRelatedMatch(t *testing.T) {
	v := NewVerifier()
	verdict := v.Verify(ukrainianSample, "ru")
	assert.Equal(t, RelatedMatch, verdict)
	assert.True(t, verdict.Accepted())
}

func TestVerifyReject(t *testing.T) {
	v := NewVerifier()
	verdict := v.Verify(englishSample, "ru")
	assert.Equal(t, Reject, verdict)
	assert.False(t, verdict.Accepted())
}

func TestVerifyRejectsShortText(t *testing.T) {
	v := NewVerifier()
	assert.Equal(t, Reject, v.Verify("too short", "en"))
}

func TestVerifyRejectsReplacementHeavyText(t *testing.T) {
	v := NewVerifier()
	corrupted := englishSample + strings.Repeat("�", 20)
	assert.Equal(t, Reject, v.Verify(corrupted, "en"))
}

func TestVerifyRejectsControlHeavyText(t *testing.T) {
	v := NewVerifier()
	corrupted := englishSample + strings.Repeat("\x00\x01", 10)
	assert.Equal(t, Reject, v.Verify(corrupted, "en"))
}

func TestVerifyRejectsImpossibleScriptPair(t *testing.T) {
	v := NewVerifier()
	// Cyrillic and Thai never share a document; this is a broken decode.
	mixed := ukrainianSample + " สวัสดีครับทุกคน"
	assert.Equal(t, Reject, v.Verify(mixed, "uk"))
}

func TestSampleStripsCueScaffolding(t *testing.T) {
	v := NewVerifier()
	srt := `1
00:00:01,000 --> 00:00:04,000
<i>` + englishSample + `</i>

2
00:00:05,000 --> 00:00:08,000
The story continues exactly where it left off last week.
`
	sample := v.sample(srt)
	assert.NotContains(t, sample, "-->")
	assert.NotContains(t, sample, "<i>")
	assert.Equal(t, Match, v.Verify(srt, "en"))
}
