package subtitle

import (
	"fmt"
	"strings"
	"time"
)

// Serialize renders a Stream as SRT text. Ids are rewritten to a contiguous
// 1-based sequence, cues are separated by a blank line and the document
// ends with a trailing newline.
func Serialize(s Stream) string {
	var b strings.Builder
	for i, cue := range s {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatDuration(cue.Start), formatDuration(cue.End))
		b.WriteString(cue.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// formatDuration renders time.Duration in SRT clock format.
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}
