package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	reWhitespace  = regexp.MustCompile(`[\s\p{Z}]+`)
	reDisallowed  = regexp.MustCompile(`[^\p{L}\p{N}_\s.,\-€():;]`)
	reDigitRun    = regexp.MustCompile(`\d+`)
	reYearContext = regexp.MustCompile(`(?i)(?:veranlagungszeitraum|besch(?:ä|ae)ftigungsjahr|steuerjahr|kalenderjahr|jahr)\s*:?\s*$`)
)

var ligatures = strings.NewReplacer(
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬀ", "ff",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	"ﬆ", "st",
	"\u00ad", "", // soft hyphen
)

// Normalize cleans raw PDF text and repairs currency figures whose decimal
// point was lost when the text layer was reflowed. It never fails.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	if !utf8.ValidString(raw) {
		raw = strings.ToValidUTF8(raw, " ")
	}

	text := norm.NFC.String(ligatures.Replace(raw))
	text = reWhitespace.ReplaceAllString(text, " ")
	text = reDisallowed.ReplaceAllString(text, "")
	// Stripping can leave double spaces behind. Line breaks are folded too, so
	// the result is a single line.
	text = strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))

	return repairNumbers(text)
}

// repairNumbers inserts a decimal point two digits from the right of every
// standalone digit token that looks like a currency amount in cents.
func repairNumbers(text string) string {
	matches := reDigitRun.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + len(matches))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		token := text[start:end]
		if !isStandalone(text, start, end) || !looksLikeCents(token) || followsYearLabel(text[:start], token) {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(token[:len(token)-2])
		b.WriteByte('.')
		b.WriteString(token[len(token)-2:])
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// looksLikeCents applies the repair predicate: 4-6 digits in [1000, 999999],
// and either at least 5 digits or a 4-digit value above 2000. The 6-7 digit
// rule for values in [100000, 999999] only ever admits 6-digit tokens, which
// the first rule already covers.
func looksLikeCents(token string) bool {
	if len(token) < 4 || len(token) > 6 {
		return false
	}
	value, err := strconv.Atoi(token)
	if err != nil || value < 1000 || value > 999999 {
		return false
	}
	if len(token) >= 5 {
		return true
	}
	return value > 2000
}

// isStandalone reports whether text[start:end] is a digit token that is not
// part of a word and not glued to another digit group by '.' or ','.
func isStandalone(text string, start, end int) bool {
	if start > 0 {
		prev, size := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(prev) {
			return false
		}
		if (prev == '.' || prev == ',') && start-size > 0 {
			before, _ := utf8.DecodeLastRuneInString(text[:start-size])
			if unicode.IsDigit(before) {
				return false
			}
		}
	}
	if end < len(text) {
		next, size := utf8.DecodeRuneInString(text[end:])
		if isWordRune(next) {
			return false
		}
		if (next == '.' || next == ',') && end+size < len(text) {
			after, _ := utf8.DecodeRuneInString(text[end+size:])
			if unicode.IsDigit(after) {
				return false
			}
		}
	}
	return true
}

func followsYearLabel(prefix, token string) bool {
	if len(token) != 4 || !strings.HasPrefix(token, "20") {
		return false
	}
	if len(prefix) > 64 {
		prefix = prefix[len(prefix)-64:]
		for !utf8.ValidString(prefix) && len(prefix) > 0 {
			prefix = prefix[1:]
		}
	}
	return reYearContext.MatchString(prefix)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
