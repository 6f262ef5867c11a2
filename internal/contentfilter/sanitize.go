package contentfilter

import (
	"strings"
	"unicode"
)

// MaxAPIInputRunes is the longest text SanitizeForAPI lets through.
const MaxAPIInputRunes = 2000

// SanitizeForAPI prepares text for an external API such as the LLM: control
// characters become spaces, angle brackets, quotes and backticks are
// dropped, whitespace is collapsed and the result is capped at 2000 runes.
func SanitizeForAPI(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '<', r == '>', r == '"', r == '\'', r == '`':
		case unicode.IsControl(r):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	if runes := []rune(out); len(runes) > MaxAPIInputRunes {
		out = strings.TrimSpace(string(runes[:MaxAPIInputRunes]))
	}
	return out
}

// MaxNameRunes is the longest full name IsValidName accepts.
const MaxNameRunes = 100

var placeholderNames = map[string]struct{}{
	"test": {}, "testing": {}, "tester": {}, "dummy": {}, "fake": {}, "sample": {},
	"example": {}, "asdf": {}, "qwerty": {}, "foo": {}, "bar": {}, "foobar": {},
	"null": {}, "none": {}, "nil": {}, "undefined": {}, "n/a": {}, "na": {},
	"xxx": {}, "abc": {}, "name": {}, "first name": {}, "last name": {},
	"anonymous": {}, "nobody": {}, "user": {}, "admin": {},
}

// IsValidName screens a name for plausibility: 1 to 100 characters of
// letters, spaces, hyphens, apostrophes and periods, not a known placeholder,
// not all digits and not a single character repeated.
func IsValidName(name string) bool {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) == 0 || len(runes) > MaxNameRunes {
		return false
	}
	if _, bad := placeholderNames[strings.ToLower(name)]; bad {
		return false
	}

	allDigits := true
	for _, r := range runes {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '\'' && r != '.' {
			return false
		}
	}
	return !repeatedChar(strings.ToLower(name))
}

func repeatedChar(s string) bool {
	runes := []rune(s)
	if len(runes) < 2 {
		return false
	}
	for _, r := range runes[1:] {
		if r != runes[0] {
			return false
		}
	}
	return true
}
