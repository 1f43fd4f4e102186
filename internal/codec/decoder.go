// Package codec turns raw subtitle bytes into trustworthy text. It owns the
// encoding tables, BOM dispatch, the chardet fallback, and mojibake repair.
package codec

import (
	"errors"
	"strings"

	"github.com/saintfish/chardet"
)

// detectorSample bounds how much of the buffer feeds byte-frequency
// detection; headers and the first few cues are plenty.
const detectorSample = 1024

// ErrReplacementChars flags a decode that still contains U+FFFD after every
// repair attempt. The text travels with the error so callers can log it.
var ErrReplacementChars = errors.New("decoded text contains replacement characters")

// Decoder converts raw subtitle bytes to text. It is stateless: identical
// input bytes and hint always produce identical output.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// RepairBranch names the mojibake branch a decode went through, for
// instrumentation. Empty when no repair was attempted.
type RepairBranch string

const (
	RepairNone          RepairBranch = ""
	RepairDoubleEncoded RepairBranch = "double-encoded"
	RepairRawLegacy     RepairBranch = "raw-legacy"
)

// Decode turns data into text, repairing legacy codepages and
// double-encoded UTF forms along the way. hint is a 2-letter language code
// used to prioritize codepage candidates; it may be empty.
//
// The order is fixed: BOM dispatch, statistical detection, mojibake repair,
// tail cleanup. When every repair attempt is rejected the original text is
// kept. Decoding never fails outright: when the final text still contains
// U+FFFD it is returned together with ErrReplacementChars and the caller
// drops the candidate.
func (d *Decoder) Decode(data []byte, hint string) (string, error) {
	text, _, err := d.DecodeWithInfo(data, hint)
	return text, err
}

// DecodeWithInfo is Decode plus the repair branch taken, if any.
func (d *Decoder) DecodeWithInfo(data []byte, hint string) (string, RepairBranch, error) {
	text, ok := dispatchBOM(data)
	if !ok {
		text = d.statistical(data)
	}

	branch := RepairNone
	if kind := classify(text); kind != notSuspect {
		text = repairText(text, kind, hint)
		if kind == doubleEncoded {
			branch = RepairDoubleEncoded
		} else {
			branch = RepairRawLegacy
		}
	}

	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.TrimPrefix(text, "ï»¿")

	if strings.ContainsRune(text, '�') {
		return text, branch, ErrReplacementChars
	}
	return text, branch, nil
}

// statistical picks an encoding by byte frequency over the buffer head and
// decodes the whole buffer with it. Unsupported or failed detection falls
// back to UTF-8.
func (d *Decoder) statistical(data []byte) string {
	sample := data
	if len(sample) > detectorSample {
		sample = sample[:detectorSample]
	}

	detector := chardet.NewTextDetector()
	if res, err := detector.DetectBest(sample); err == nil {
		if name := Canonicalize(res.Charset); Supported(name) {
			return decode(name, data)
		}
	}
	return decode("utf8", data)
}
