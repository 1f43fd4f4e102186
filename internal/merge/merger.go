// Package merge aligns two monolingual cue streams into one bilingual
// stream by time overlap and start proximity.
package merge

import (
	"strings"
	"time"

	"github.com/dualsub/dualsub/internal/subtitle"
)

// DefaultThreshold is how close two cue starts must be to pair up when
// their intervals do not overlap.
const DefaultThreshold = 500 * time.Millisecond

// Merge produces a stream with exactly len(main) cues, keeping main's ids
// and timings. When a translation cue aligns, its flattened text is
// appended in italics under the flattened main text; otherwise the cue
// carries the main text alone.
//
// The translation cursor only moves forward, so total work is linear in
// len(main)+len(trans) for time-sorted inputs.
func Merge(main, trans subtitle.Stream, threshold time.Duration) subtitle.Stream {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	out := make(subtitle.Stream, 0, len(main))
	transIndex := 0

	for _, mc := range main {
		best := -1
		var bestDelta time.Duration
		found := false

		for i := transIndex; i < len(trans); i++ {
			tc := trans[i]

			// Cues entirely behind the current main cue will never match
			// again; slide the cursor past them.
			if tc.End < mc.Start-2*threshold && i == transIndex {
				transIndex = i + 1
				continue
			}
			// Everything from here on starts too late to matter.
			if tc.Start > mc.End+threshold {
				break
			}

			if !aligns(mc, tc, threshold) {
				continue
			}
			delta := absDelta(mc.Start, tc.Start)
			if !found || delta < bestDelta {
				found = true
				best = i
				bestDelta = delta
			}
		}

		text := flatten(mc.Text)
		if found {
			text = text + "\n<i>" + flatten(trans[best].Text) + "</i>"
		}
		out = append(out, subtitle.Cue{
			Index: mc.Index,
			Start: mc.Start,
			End:   mc.End,
			Text:  text,
		})
	}
	return out
}

// aligns reports whether tc can accompany mc: any interval overlap, full
// containment either way, or start times within the proximity threshold.
func aligns(mc, tc subtitle.Cue, threshold time.Duration) bool {
	switch {
	case tc.Start >= mc.Start && tc.Start < mc.End:
		return true
	case tc.End > mc.Start && tc.End <= mc.End:
		return true
	case tc.Start >= mc.Start && tc.End <= mc.End:
		return true
	case tc.Start <= mc.Start && tc.End >= mc.End:
		return true
	case absDelta(mc.Start, tc.Start) < threshold:
		return true
	}
	return false
}

func absDelta(a, b time.Duration) time.Duration {
	if a > b {
		return a - b
	}
	return b - a
}

// flatten strips markup and folds a cue onto one line, so a merged cue has
// exactly one newline: the one between the two languages.
func flatten(text string) string {
	text = stripTags(text)
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(text)
}

// stripTags removes everything between < and >. An unterminated tag keeps
// its text, markup being less common than a stray angle bracket.
func stripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '<' {
			b.WriteByte(s[i])
			continue
		}
		end := strings.IndexByte(s[i:], '>')
		if end < 0 {
			b.WriteString(s[i:])
			break
		}
		i += end
	}
	return b.String()
}
