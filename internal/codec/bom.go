package codec

import "bytes"

// BOM prefixes, in match order. The double-encoded forms are a UTF BOM that
// was read as Latin-1 and re-written as UTF-8 somewhere upstream; they must
// be tested before their plain counterparts.
var (
	bomDoubleUTF16LE = []byte{0xC3, 0xBF, 0xC3, 0xBE}
	bomUTF16LE       = []byte{0xFF, 0xFE}
	bomDoubleUTF16BE = []byte{0xC3, 0xBE, 0xC3, 0xBF}
	bomUTF16BE       = []byte{0xFE, 0xFF}
	bomDoubleUTF8    = []byte{0xC3, 0xAF, 0xC2, 0xBB, 0xC2, 0xBF}
	bomUTF8          = []byte{0xEF, 0xBB, 0xBF}
)

// dispatchBOM decodes data according to its byte-order mark. The first
// matching prefix wins. Returns ok=false when no BOM is present.
func dispatchBOM(data []byte) (text string, ok bool) {
	switch {
	case bytes.HasPrefix(data, bomDoubleUTF16LE):
		raw := latin1Bytes(decode("utf8", data))
		if len(raw) >= 2 {
			raw = raw[2:]
		}
		return decode("utf16le", raw), true

	case bytes.HasPrefix(data, bomUTF16LE):
		return decode("utf16le", data[2:]), true

	case bytes.HasPrefix(data, bomDoubleUTF16BE):
		raw := latin1Bytes(decode("utf8", data))
		if len(raw) >= 2 {
			raw = raw[2:]
		}
		return decode("utf16le", swapPairs(raw)), true

	case bytes.HasPrefix(data, bomUTF16BE):
		return decode("utf16le", swapPairs(data[2:])), true

	case bytes.HasPrefix(data, bomDoubleUTF8):
		return decode("utf8", data[len(bomDoubleUTF8):]), true

	case bytes.HasPrefix(data, bomUTF8):
		return decode("utf8", data[len(bomUTF8):]), true
	}
	return "", false
}

// latin1Bytes reads a string back as the Latin-1 byte buffer it came from.
// Runes above U+00FF keep only their low byte, matching how the buffer was
// mangled in the first place.
func latin1Bytes(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		out = append(out, byte(r&0xFF))
	}
	return out
}

// swapPairs flips byte order within each 16-bit unit. A trailing odd byte
// is dropped.
func swapPairs(data []byte) []byte {
	n := len(data) &^ 1
	out := make([]byte, n)
	for i := 0; i+1 < len(data); i += 2 {
		out[i] = data[i+1]
		out[i+1] = data[i]
	}
	return out
}
