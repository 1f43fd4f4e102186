package lang

import (
	"regexp"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Verdict is the outcome of a language check.
type Verdict int

const (
	Reject Verdict = iota
	Match
	RelatedMatch
)

func (v Verdict) String() string {
	switch v {
	case Match:
		return "match"
	case RelatedMatch:
		return "related-match"
	default:
		return "reject"
	}
}

// Accepted reports whether the verdict lets the candidate through.
func (v Verdict) Accepted() bool {
	return v == Match || v == RelatedMatch
}

const (
	minTextLen    = 100
	sampleMax     = 30000
	headerSkipMax = 2000

	maxReplacementRatio = 0.01
	maxControlRatio     = 0.01
)

var (
	timestampRe = regexp.MustCompile(`\d{2}:\d{2}:\d{2},\d{3}\s*-->\s*\d{2}:\d{2}:\d{2},\d{3}`)
	cueNumberRe = regexp.MustCompile(`(?m)^\s*\d+\s*$`)
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRunRe  = regexp.MustCompile(`\s+`)
)

// script presence ranges used only by the corruption gate
type runeRange struct{ lo, hi rune }

var (
	hebrewBlock   = runeRange{0x0590, 0x05FF}
	arabicBlock   = runeRange{0x0600, 0x06FF}
	cyrillicBlock = runeRange{0x0400, 0x04FF}
	thaiBlock     = runeRange{0x0E00, 0x0E7F}
)

// impossiblePairs lists script combinations that never co-occur in a real
// subtitle. Their joint presence means the decode went wrong.
var impossiblePairs = [][2]runeRange{
	{hebrewBlock, thaiBlock},
	{arabicBlock, thaiBlock},
	{cyrillicBlock, thaiBlock},
}

// Verifier checks that decoded subtitle text is in the language the user
// asked for, accepting mutually intelligible relatives.
type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify returns Match when the detected language equals the expected tag,
// RelatedMatch when the two are in the same intelligibility group, and
// Reject otherwise. Corrupt text is always rejected.
func (v *Verifier) Verify(text, expected string) Verdict {
	if !v.gate(text) {
		return Reject
	}

	sample := v.sample(text)
	if sample == "" {
		return Reject
	}

	info := whatlanggo.Detect(sample)
	detected := Normalize(info.Lang.Iso6393())
	exp := Normalize(expected)

	if detected == exp {
		return Match
	}
	if Related(exp, detected) {
		return RelatedMatch
	}
	return Reject
}

// gate rejects text that cannot possibly be a clean decode.
func (v *Verifier) gate(text string) bool {
	runes := []rune(text)
	total := len(runes)
	if total < minTextLen {
		return false
	}

	var replacements, controls int
	present := make(map[runeRange]bool, 4)
	for _, r := range runes {
		switch {
		case r == '�':
			replacements++
		case r < 0x20 && r != '\t' && r != '\n' && r != '\r':
			controls++
		}
		for _, blk := range []runeRange{hebrewBlock, arabicBlock, cyrillicBlock, thaiBlock} {
			if r >= blk.lo && r <= blk.hi {
				present[blk] = true
			}
		}
	}

	if float64(replacements)/float64(total) > maxReplacementRatio {
		return false
	}
	if float64(controls)/float64(total) > maxControlRatio {
		return false
	}
	for _, pair := range impossiblePairs {
		if present[pair[0]] && present[pair[1]] {
			return false
		}
	}
	return true
}

// sample slices out the detection window, skipping a header-sized prefix,
// and strips everything that is not prose.
func (v *Verifier) sample(text string) string {
	runes := []rune(text)
	skip := len(runes) - sampleMax
	if skip < 0 {
		skip = 0
	}
	if skip > headerSkipMax {
		skip = headerSkipMax
	}
	end := skip + sampleMax
	if end > len(runes) {
		end = len(runes)
	}
	s := string(runes[skip:end])

	s = timestampRe.ReplaceAllString(s, " ")
	s = cueNumberRe.ReplaceAllString(s, " ")
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = spaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
