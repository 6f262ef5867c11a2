package contentfilter

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	ssnRe   = regexp.MustCompile(`\b\d{3}[- ]\d{2}[- ]\d{4}\b`)
	cardRe  = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)
	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	phoneRe = regexp.MustCompile(`(?:\+|\b)\d[\d\s\-().]{7,}\d\b`)
	isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// redactPersonal replaces social security numbers, Luhn-valid card numbers
// and, unless contact details are allowed, email addresses and phone
// numbers. kind names the first kind of data found.
func (f *Filter) redactPersonal(text string) (out, kind string, hit bool) {
	out = text
	note := func(k string) {
		if !hit {
			kind = k
		}
		hit = true
	}

	if ssnRe.MatchString(out) {
		out = ssnRe.ReplaceAllString(out, MarkRedacted)
		note("social security number")
	}
	out = cardRe.ReplaceAllStringFunc(out, func(m string) string {
		if !luhn(m) {
			return m
		}
		note("payment card number")
		return MarkRedacted
	})
	if f.allowContact {
		return out, kind, hit
	}
	if emailRe.MatchString(out) {
		out = emailRe.ReplaceAllString(out, MarkRedacted)
		note("email address")
	}
	out = phoneRe.ReplaceAllStringFunc(out, func(m string) string {
		n := countDigits(m)
		if n < 10 || n > 15 || isoDate.MatchString(strings.TrimSpace(m)) {
			return m
		}
		note("phone number")
		return MarkRedacted
	})
	return out, kind, hit
}

// luhn reports whether the digits in s form a valid card number.
func luhn(s string) bool {
	var digits []int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum := 0
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if (len(digits)-1-i)%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// sqlIdent is a possibly quoted or schema-qualified table name.
const sqlIdent = "[\\w.`\"\\[\\]]+"

// maliciousPatterns are SQL-injection, script-injection and
// command-injection signatures.
var maliciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bunion\s+(?:all\s+)?select\b`),
	regexp.MustCompile(`(?i)\b(?:drop|truncate|alter)\s+table\b`),
	regexp.MustCompile(`(?i)\binsert\s+into\s+` + sqlIdent + `\s*(?:\([^)]*\)\s*)?values\b`),
	regexp.MustCompile(`(?i)\bdelete\s+from\s+` + sqlIdent + `\s*(?:where\b|;|$)`),
	regexp.MustCompile(`(?i)'\s*or\s+'?\d+'?\s*=\s*'?\d+`),
	regexp.MustCompile(`(?i)\bor\s+1\s*=\s*1\b`),
	regexp.MustCompile(`;\s*--`),
	regexp.MustCompile(`(?i)<\s*/?\s*(?:script|iframe|object|embed)\b[^>]*>?`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\bon(?:error|load|click|mouseover)\s*=`),
	regexp.MustCompile(`(?i)(?:;|&&|\|\|?)\s*(?:rm|cat|wget|curl|bash|sh|nc|python|chmod)\b`),
	regexp.MustCompile(`\$\([^)]*\)`),
	regexp.MustCompile("`[^`]+`"),
	regexp.MustCompile(`(?:\.\./){2,}`),
}

const (
	spamCharRun = 10
	spamWordRun = 5
	spamCapsRun = 30
)

// spam flags long single-character runs, a word repeated back to back and
// oversized all-caps runs. A caps run is unbroken upper-case letters; any
// other rune resets it. Go's regexp has no back-references, so runs are
// counted by hand.
func spam(text string) (string, bool) {
	var (
		prev    rune
		run     int
		capsRun int
	)
	for _, r := range text {
		if r == prev && !unicode.IsSpace(r) {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= spamCharRun {
			return "message looks like spam (repeated characters)", true
		}

		if unicode.IsUpper(r) {
			capsRun++
		} else {
			capsRun = 0
		}
		if capsRun >= spamCapsRun {
			return "message looks like spam (excessive capitals)", true
		}
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	run = 0
	for i := range words {
		if i > 0 && words[i] == words[i-1] {
			run++
		} else {
			run = 1
		}
		if run >= spamWordRun {
			return "message looks like spam (repeated words)", true
		}
	}
	return "", false
}
