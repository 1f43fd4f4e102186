package codec

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// encodings maps canonical names to decoders. Canonical names are the
// lowercased label with separators removed and the windows- prefix
// shortened to win.
var encodings = map[string]encoding.Encoding{
	"utf8":    unicode.UTF8,
	"utf16le": unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf16be": unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),

	"win1250": charmap.Windows1250,
	"win1251": charmap.Windows1251,
	"win1252": charmap.Windows1252,
	"win1253": charmap.Windows1253,
	"win1254": charmap.Windows1254,
	"win1255": charmap.Windows1255,
	"win1256": charmap.Windows1256,
	"win1257": charmap.Windows1257,
	"win1258": charmap.Windows1258,
	"win874":  charmap.Windows874,

	"iso88591":  charmap.ISO8859_1,
	"iso88592":  charmap.ISO8859_2,
	"iso88593":  charmap.ISO8859_3,
	"iso88594":  charmap.ISO8859_4,
	"iso88595":  charmap.ISO8859_5,
	"iso88596":  charmap.ISO8859_6,
	"iso88597":  charmap.ISO8859_7,
	"iso88598":  charmap.ISO8859_8,
	"iso88599":  charmap.ISO8859_9,
	"iso885910": charmap.ISO8859_10,
	"iso885913": charmap.ISO8859_13,
	"iso885914": charmap.ISO8859_14,
	"iso885915": charmap.ISO8859_15,
	"iso885916": charmap.ISO8859_16,

	// x/text carries no ISO-8859-11 or TIS-620 table; Windows-874 is the
	// compatible superset both collapse into.
	"iso885911": charmap.Windows874,
	"tis620":    charmap.Windows874,

	"koi8r": charmap.KOI8R,
	"koi8u": charmap.KOI8U,

	"gbk":     simplifiedchinese.GBK,
	"gb2312":  simplifiedchinese.GBK,
	"gb18030": simplifiedchinese.GB18030,
	"big5":    traditionalchinese.Big5,

	"shiftjis":  japanese.ShiftJIS,
	"eucjp":     japanese.EUCJP,
	"iso2022jp": japanese.ISO2022JP,

	"euckr": korean.EUCKR,
	"cp949": korean.EUCKR,
}

// encodingPriority orders the codepages a repair attempt tries for a given
// language, most likely first. Languages absent here go straight to the
// global fallback order.
var encodingPriority = map[string][]string{
	"ru": {"win1251", "iso88595", "koi8r"},
	"uk": {"win1251", "koi8u", "iso88595"},
	"be": {"win1251", "iso88595"},
	"bg": {"win1251", "iso88595"},
	"mk": {"win1251", "iso88595"},
	"sr": {"win1250", "iso88592", "win1251"},
	"el": {"win1253", "iso88597"},
	"th": {"win874", "tis620", "iso885911"},
	"he": {"win1255", "iso88598"},
	"yi": {"win1255", "iso88598"},
	"ar": {"win1256", "iso88596"},
	"fa": {"win1256"},
	"ur": {"win1256"},
	"tr": {"win1254", "iso88599"},
	"az": {"win1254", "iso88599"},
	"ja": {"shiftjis", "eucjp", "iso2022jp"},
	"ko": {"euckr", "cp949"},
	"zh": {"gbk", "gb2312", "big5", "gb18030"},
	"cs": {"win1250", "iso88592"},
	"sk": {"win1250", "iso88592"},
	"pl": {"win1250", "iso88592"},
	"hu": {"win1250", "iso88592"},
	"hr": {"win1250", "iso88592"},
	"bs": {"win1250", "iso88592"},
	"sl": {"win1250", "iso88592"},
	"sq": {"win1250", "iso88591"},
	"ro": {"win1250", "iso88592", "iso885916"},
	"et": {"win1257", "iso885913", "iso88594"},
	"lv": {"win1257", "iso885913"},
	"lt": {"win1257", "iso885913"},
	"vi": {"win1258"},
}

// fallbackOrder is tried after the hint-prioritized list, covering the
// subtitles whose declared language lied.
var fallbackOrder = []string{
	"win1252", "iso88591", "win1250", "iso88592", "win1251", "iso88595",
	"win1254", "win1253", "win1255", "win1256", "win874", "shiftjis",
	"gbk", "big5", "euckr",
}

// labelAliases resolves detector spellings that survive canonicalization in
// a shape the registry does not use.
var labelAliases = map[string]string{
	"usascii":     "utf8",
	"ascii":       "utf8",
	"latin1":      "iso88591",
	"ibm866":      "win1251",
	"maccyrillic": "win1251",
}

// Canonicalize folds a detector or catalog charset label into the registry
// spelling: lowercase, separators dropped, windows- shortened to win.
func Canonicalize(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if strings.HasPrefix(name, "windows") {
		name = "win" + name[len("windows"):]
	}
	if alias, ok := labelAliases[name]; ok {
		return alias
	}
	return name
}

// Supported reports whether the canonical name has a registered decoder.
func Supported(name string) bool {
	_, ok := encodings[name]
	return ok
}

// PriorityFor returns the repair candidates for a 2-letter language code,
// hint-prioritized codepages first, then the global fallback order, with
// duplicates removed.
func PriorityFor(lang string) []string {
	pri := encodingPriority[lang]
	out := make([]string, 0, len(pri)+len(fallbackOrder))
	seen := make(map[string]struct{}, len(pri)+len(fallbackOrder))
	for _, lst := range [][]string{pri, fallbackOrder} {
		for _, name := range lst {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// decode runs the named decoder over data. Bytes with no mapping come out
// as U+FFFD rather than an error.
func decode(name string, data []byte) string {
	enc, ok := encodings[name]
	if !ok {
		enc = unicode.UTF8
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// x/text decoders substitute rather than fail; an error here
		// means a stateful decoder (ISO-2022) hit garbage mid-stream.
		return strings.ToValidUTF8(string(data), "�")
	}
	return strings.ToValidUTF8(string(out), "�")
}
