package thirteenf

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// NormalizeText normalizes the Unicode and HTML-entity issues that show up
// in raw EDGAR filing documents. It runs before section extraction so the
// embedded information table is searched and parsed over consistent text.
//
// Normalizations performed:
// - common HTML entities (&nbsp;, &amp;, numeric forms) -> Unicode
// - non-breaking and exotic Unicode spaces -> regular spaces
// - zero-width characters removed
// - CRLF/CR -> LF
func NormalizeText(data []byte) []byte {
	text := string(data)
	text = normalizeEntities(text)
	text = normalizeWhitespace(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return []byte(text)
}

var numericEntityPattern = regexp.MustCompile(`&#(\d+);`)

func normalizeEntities(text string) string {
	replacements := [][2]string{
		{"&nbsp;", " "},
		{"&amp;", "&"},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&quot;", "\""},
		{"&apos;", "'"},
		{"&#160;", " "},
	}
	for _, r := range replacements {
		text = strings.ReplaceAll(text, r[0], r[1])
	}

	return numericEntityPattern.ReplaceAllStringFunc(text, func(match string) string {
		code, err := strconv.Atoi(match[2 : len(match)-1])
		if err != nil || code >= 0x110000 {
			return match
		}
		if code == 160 {
			return " "
		}
		return string(rune(code))
	})
}

func normalizeWhitespace(text string) string {
	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		switch r {
		case '\u00A0', '\u2000', '\u2001', '\u2002', '\u2003', '\u2004',
			'\u2005', '\u2006', '\u2007', '\u2008', '\u2009', '\u200A',
			'\u202F', '\u205F', '\u3000':
			result.WriteRune(' ')
		case '\u200B', '\u200C', '\u200D', '\uFEFF':
			// Zero-width characters break tag matching; drop them.
		default:
			if unicode.Is(unicode.Cf, r) && r != '\t' && r != '\n' {
				continue
			}
			result.WriteRune(r)
		}
	}

	return result.String()
}

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// NormalizeCUSIP strips everything but letters and digits from a security
// identifier, e.g. "123-ABC 45" -> "123ABC45".
func NormalizeCUSIP(cusip string) string {
	return nonAlphanumeric.ReplaceAllString(cusip, "")
}

var nonDigit = regexp.MustCompile(`\D`)

// NormalizeCIK strips non-digits and zero-pads a CIK to the 10-digit form
// the submissions endpoint expects.
func NormalizeCIK(cik string) string {
	digits := nonDigit.ReplaceAllString(cik, "")
	if len(digits) >= 10 {
		return digits
	}
	return strings.Repeat("0", 10-len(digits)) + digits
}

// NormalizeFundName uppercases a fund name and strips common entity
// suffixes so differently-punctuated spellings of the same fund compare
// equal. Used as the key for the in-run name resolution cache.
func NormalizeFundName(name string) string {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	for _, suffix := range []string{" LLC", " LP", " L.P.", " INC", " CORP", " CORPORATION"} {
		normalized = strings.TrimSuffix(normalized, suffix)
	}
	return strings.TrimSpace(normalized)
}

var numberPattern = regexp.MustCompile(`-?[0-9,]+\.?[0-9]*`)

// parseIntDefault coerces free-form numeric text to an int64, returning def
// when nothing parsable is present. Upstream cells contain commas, footnote
// markers and empty strings; those degrade to the default rather than
// failing the row. Every silent numeric coercion in the module goes through
// this helper or parseFloatDefault so the behavior stays auditable.
func parseIntDefault(s string, def int64) int64 {
	f, ok := parseNumber(s)
	if !ok {
		return def
	}
	return int64(f)
}

// parseFloatDefault is the float counterpart of parseIntDefault.
func parseFloatDefault(s string, def float64) float64 {
	f, ok := parseNumber(s)
	if !ok {
		return def
	}
	return f
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	match := numberPattern.FindString(s)
	if match == "" {
		return 0, false
	}
	match = strings.ReplaceAll(match, ",", "")
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
