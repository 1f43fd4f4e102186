package lang

import "strings"

// iso3to1 maps ISO 639-3 (and legacy 639-2) codes to ISO 639-1. Both the
// bibliographic and terminological three-letter variants are present, plus
// macrolanguage rollups for the codes the trigram detector emits.
var iso3to1 = map[string]string{
	// plain mappings
	"eng": "en", "spa": "es", "por": "pt", "ita": "it", "rus": "ru",
	"ukr": "uk", "bel": "be", "bul": "bg", "pol": "pl", "hun": "hu",
	"tur": "tr", "heb": "he", "ara": "ar", "tha": "th", "vie": "vi",
	"ind": "id", "jpn": "ja", "kor": "ko", "hin": "hi", "ben": "bn",
	"tam": "ta", "tel": "te", "mar": "mr", "urd": "ur", "fin": "fi",
	"swe": "sv", "dan": "da", "nor": "no", "est": "et", "lav": "lv",
	"lit": "lt", "hrv": "hr", "bos": "bs", "slv": "sl", "srp": "sr",
	"ron": "ro", "ces": "cs", "slk": "sk", "ell": "el", "kat": "ka",
	"hye": "hy", "aze": "az", "kaz": "kk", "uzb": "uz", "mon": "mn",
	"nep": "ne", "sin": "si", "khm": "km", "lao": "lo", "mya": "my",
	"amh": "am", "swa": "sw", "afr": "af", "cat": "ca", "glg": "gl",
	"eus": "eu", "epo": "eo", "gle": "ga", "lat": "la", "ltz": "lb",
	"mlt": "mt", "tgl": "tl", "fil": "tl", "msa": "ms", "fas": "fa",
	"mkd": "mk", "sqi": "sq", "nld": "nl", "deu": "de", "fra": "fr",
	"isl": "is", "cym": "cy", "kan": "kn", "guj": "gu", "pan": "pa",
	"mal": "ml", "ori": "or", "yid": "yi", "jav": "jv", "tuk": "tk",
	"aka": "ak", "zul": "zu", "sna": "sn", "som": "so", "hau": "ha",
	"yor": "yo", "ibo": "ig", "tir": "ti", "uig": "ug", "tat": "tt",
	"bak": "ba", "chv": "cv", "kir": "ky", "tgk": "tg", "pus": "ps",
	"kur": "ku", "bre": "br", "oci": "oc", "fry": "fy", "gla": "gd",
	"san": "sa", "bod": "bo",

	// bibliographic aliases (ISO 639-2/B)
	"alb": "sq", "arm": "hy", "baq": "eu", "bur": "my", "chi": "zh",
	"cze": "cs", "dut": "nl", "fre": "fr", "geo": "ka", "ger": "de",
	"gre": "el", "ice": "is", "mac": "mk", "may": "ms", "per": "fa",
	"rum": "ro", "slo": "sk", "tib": "bo", "wel": "cy",

	// macrolanguage rollups
	"zho": "zh", "cmn": "zh", "yue": "zh", "wuu": "zh", "nan": "zh",
	"hak": "zh",
	"arb": "ar", "arz": "ar", "apc": "ar", "ary": "ar",
	"zsm": "ms", "zlm": "ms",
	"pes": "fa", "prs": "fa",
	"nob": "no", "nno": "no",
	"khk": "mn",
	"azj": "az", "azb": "az",
	"uzn": "uz", "uzs": "uz",
	"pnb": "pa",
	"plt": "mg", "mlg": "mg",
	"ydd": "yi",
	"ekk": "et",
	"lvs": "lv",
	"als": "sq",
	"hbs": "sh",
	"swh": "sw",
	"gaz": "om", "orm": "om",
	"knc": "kr",
	"kmr": "ku", "ckb": "ku",
}

// iso1to3 lists the three-letter spellings of a two-letter code, the
// terminological variant first. Used when filtering catalog availability,
// where upstreams disagree on fre vs fra and friends.
var iso1to3 = map[string][]string{
	"sq": {"sqi", "alb"}, "hy": {"hye", "arm"}, "eu": {"eus", "baq"},
	"my": {"mya", "bur"}, "zh": {"zho", "chi"}, "cs": {"ces", "cze"},
	"nl": {"nld", "dut"}, "fr": {"fra", "fre"}, "ka": {"kat", "geo"},
	"de": {"deu", "ger"}, "el": {"ell", "gre"}, "is": {"isl", "ice"},
	"mk": {"mkd", "mac"}, "ms": {"msa", "may"}, "fa": {"fas", "per"},
	"ro": {"ron", "rum"}, "sk": {"slk", "slo"}, "bo": {"bod", "tib"},
	"cy": {"cym", "wel"},
}

// skipSet holds tags that can never feed the merge pipeline. "mul" marks
// upstream files that are already bilingual.
var skipSet = map[string]struct{}{
	"mul": {},
}

// Normalize reduces a 2- or 3-letter tag to its 2-letter form. Unknown
// 3-letter codes and anything longer pass through lowercased, so callers
// can still compare tags for equality.
func Normalize(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	if len(t) == 2 {
		return t
	}
	if two, ok := iso3to1[t]; ok {
		return two
	}
	return t
}

// ThreeLetterForms returns every 3-letter spelling that means the same
// language as tag, including tag itself when it is already 3 letters.
func ThreeLetterForms(tag string) []string {
	t := strings.ToLower(strings.TrimSpace(tag))
	two := Normalize(t)
	forms := make([]string, 0, 3)
	if aliases, ok := iso1to3[two]; ok {
		forms = append(forms, aliases...)
	}
	if len(t) == 3 {
		seen := false
		for _, f := range forms {
			if f == t {
				seen = true
				break
			}
		}
		if !seen {
			forms = append(forms, t)
		}
	} else {
		// reverse-scan the table for 3-letter codes that normalize to two
		for three, m := range iso3to1 {
			if m != two {
				continue
			}
			seen := false
			for _, f := range forms {
				if f == three {
					seen = true
					break
				}
			}
			if !seen {
				forms = append(forms, three)
			}
		}
	}
	return forms
}

// SameLanguage reports whether two tags name the same language once
// aliases and 3-letter variants are collapsed.
func SameLanguage(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Skippable reports whether tag is in the fixed skip-set.
func Skippable(tag string) bool {
	_, ok := skipSet[strings.ToLower(strings.TrimSpace(tag))]
	if ok {
		return true
	}
	_, ok = skipSet[Normalize(tag)]
	return ok
}
