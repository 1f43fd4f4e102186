package codec

import "strings"

// Lead-byte classes tracked when counting double-encoding pairs. Each class
// is counted separately; the decision thresholds apply to the sum.
var leadClasses = [...]ScriptRange{
	{0xC2, 0xC2}, // Latin special
	{0xC3, 0xC3}, // Latin accented
	{0xC4, 0xC5}, // extended Latin
	{0xC6, 0xCB}, // IPA / modifiers
	{0xCC, 0xCF}, // Greek
	{0xD0, 0xD4}, // Cyrillic
	{0xD5, 0xD6}, // Armenian
	{0xD7, 0xD7}, // Hebrew
	{0xD8, 0xDB}, // Arabic
	{0xDC, 0xDF}, // Syriac / Thaana / NKo
	{0xE0, 0xEF}, // 3-byte scripts (Thai, CJK)
}

const (
	suspectPatternMin = 10
	residualShare     = 0.20
	legacyRatioMin    = 0.10
	legacyCountMin    = 50
	densityShare      = 0.30
	scriptShareMin    = 0.15
)

type patternCounts struct {
	perClass [len(leadClasses)]int
	total    int
}

// countPatterns tallies lead-plus-continuation pairs in the Latin-1 view of
// s. A hit is a rune inside a lead class immediately followed by a rune in
// U+0080..U+00BF.
func countPatterns(s string) patternCounts {
	var pc patternCounts
	runes := []rune(s)
	for i := 0; i+1 < len(runes); i++ {
		next := runes[i+1]
		if next < 0x80 || next > 0xBF {
			continue
		}
		for ci, class := range leadClasses {
			if runes[i] >= class.Lo && runes[i] <= class.Hi {
				pc.perClass[ci]++
				pc.total++
				break
			}
		}
	}
	return pc
}

type highByteStats struct {
	count int
	ratio float64
}

func highBytes(s string) highByteStats {
	var total, high int
	for _, r := range s {
		total++
		if r >= 0x80 && r <= 0xFF {
			high++
		}
	}
	st := highByteStats{count: high}
	if total > 0 {
		st.ratio = float64(high) / float64(total)
	}
	return st
}

type suspectKind int

const (
	notSuspect suspectKind = iota
	doubleEncoded
	rawLegacy
)

// classify decides whether decoded text still looks mojibake'd.
func classify(s string) suspectKind {
	if countPatterns(s).total > suspectPatternMin {
		return doubleEncoded
	}
	hb := highBytes(s)
	if hb.ratio > legacyRatioMin && hb.count > legacyCountMin {
		return rawLegacy
	}
	return notSuspect
}

// repairText re-interprets a suspect string as its original byte buffer and
// retries decoders until one produces text that no longer trips the
// mojibake heuristics. The original string comes back untouched when every
// candidate fails its acceptance rule.
func repairText(s string, kind suspectKind, hint string) string {
	raw := latin1Bytes(s)
	origPatterns := float64(countPatterns(s).total)
	origDensity := highBytes(s).ratio

	// UTF-8 first: the overwhelmingly common double-encoding.
	if t := decode("utf8", raw); !strings.ContainsRune(t, '�') {
		if float64(countPatterns(t).total) <= origPatterns*residualShare {
			return t
		}
	}

	blocks, haveBlocks := ScriptBlocksFor(hint)
	for _, name := range PriorityFor(hint) {
		t := decode(name, raw)
		if strings.ContainsRune(t, '�') {
			continue
		}
		if haveBlocks && scriptRatio(t, blocks) >= scriptShareMin {
			return t
		}
		switch kind {
		case doubleEncoded:
			if float64(countPatterns(t).total) <= origPatterns*residualShare {
				return t
			}
		case rawLegacy:
			if highBytes(t).ratio <= origDensity*densityShare {
				return t
			}
		}
	}
	return s
}
