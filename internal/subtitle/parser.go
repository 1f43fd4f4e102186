package subtitle

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// adKeywords marks promotional inserts. Any cue containing one of these is
// dropped before the stream leaves the parser.
var adKeywords = []string{
	"opensubtitles.org",
	"opensubtitles.com",
	"osdb.link",
}

// ParseError reports where an SRT document stopped making sense.
type ParseError struct {
	Block  int
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("srt parse failure at block %d line %d: %s", e.Block, e.Line, e.Reason)
}

// Parse turns SRT text into a Stream. Cues are renumbered sequentially from
// 1 and ad inserts are filtered out. Any malformed block fails the whole
// parse; the caller moves on to the next candidate.
func Parse(text string) (Stream, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimPrefix(text, "\ufeff")

	var stream Stream
	lines := strings.Split(text, "\n")

	i := 0
	block := 0
	for i < len(lines) {
		// skip blank separators
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		if i >= len(lines) {
			break
		}
		block++

		idLine := strings.TrimSpace(lines[i])
		if _, err := strconv.Atoi(idLine); err != nil {
			return nil, &ParseError{Block: block, Line: i + 1, Reason: "cue id is not an integer"}
		}
		i++

		if i >= len(lines) {
			return nil, &ParseError{Block: block, Line: i, Reason: "missing timestamp line"}
		}
		start, end, err := parseTimestamps(strings.TrimSpace(lines[i]))
		if err != nil {
			return nil, &ParseError{Block: block, Line: i + 1, Reason: err.Error()}
		}
		i++

		var textLines []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			textLines = append(textLines, strings.TrimRight(lines[i], " \t"))
			i++
		}
		if len(textLines) == 0 {
			return nil, &ParseError{Block: block, Line: i, Reason: "cue has no text"}
		}

		stream = append(stream, Cue{
			Index: len(stream) + 1,
			Start: start,
			End:   end,
			Text:  strings.Join(textLines, "\n"),
		})
	}

	if len(stream) == 0 {
		return nil, &ParseError{Block: 0, Line: 0, Reason: "no cues parsed"}
	}
	return FilterAds(stream), nil
}

// FilterAds drops cues containing an ad keyword. Relative order is kept and
// ids are left alone; renumbering happens at serialization.
func FilterAds(s Stream) Stream {
	out := make(Stream, 0, len(s))
	for _, cue := range s {
		if containsAd(cue.Text) {
			continue
		}
		out = append(out, cue)
	}
	return out
}

func containsAd(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range adKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// parseTimestamps walks "HH:MM:SS,mmm --> HH:MM:SS,mmm" by hand: exactly
// two digits for hours, minutes and seconds, three for milliseconds. The
// position of the first offending byte lands in the error.
func parseTimestamps(line string) (start, end time.Duration, err error) {
	pos := 0
	start, pos, err = parseClock(line, pos)
	if err != nil {
		return 0, 0, err
	}
	const arrow = " --> "
	if !strings.HasPrefix(line[pos:], arrow) {
		return 0, 0, fmt.Errorf("expected %q at column %d", strings.TrimSpace(arrow), pos+1)
	}
	pos += len(arrow)
	end, pos, err = parseClock(line, pos)
	if err != nil {
		return 0, 0, err
	}
	if pos != len(line) {
		return 0, 0, fmt.Errorf("trailing characters at column %d", pos+1)
	}
	return start, end, nil
}

// parseClock consumes one HH:MM:SS,mmm group starting at pos.
func parseClock(line string, pos int) (time.Duration, int, error) {
	h, pos, err := parseDigits(line, pos, 2)
	if err != nil {
		return 0, pos, err
	}
	if pos, err = expectByte(line, pos, ':'); err != nil {
		return 0, pos, err
	}
	m, pos, err := parseDigits(line, pos, 2)
	if err != nil {
		return 0, pos, err
	}
	if pos, err = expectByte(line, pos, ':'); err != nil {
		return 0, pos, err
	}
	s, pos, err := parseDigits(line, pos, 2)
	if err != nil {
		return 0, pos, err
	}
	if pos, err = expectByte(line, pos, ','); err != nil {
		return 0, pos, err
	}
	ms, pos, err := parseDigits(line, pos, 3)
	if err != nil {
		return 0, pos, err
	}

	d := time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond
	return d, pos, nil
}

func parseDigits(line string, pos, width int) (int, int, error) {
	if pos+width > len(line) {
		return 0, pos, fmt.Errorf("timestamp truncated at column %d", pos+1)
	}
	v := 0
	for i := 0; i < width; i++ {
		c := line[pos+i]
		if c < '0' || c > '9' {
			return 0, pos + i, fmt.Errorf("expected digit at column %d", pos+i+1)
		}
		v = v*10 + int(c-'0')
	}
	return v, pos + width, nil
}

func expectByte(line string, pos int, want byte) (int, error) {
	if pos >= len(line) || line[pos] != want {
		return pos, fmt.Errorf("expected %q at column %d", want, pos+1)
	}
	return pos + 1, nil
}
