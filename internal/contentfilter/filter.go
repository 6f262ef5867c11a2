// Package contentfilter screens user utterances before they reach the intent
// classifier or the LLM.
//
// [Filter.Classify] checks categories in a fixed priority order and stops at
// the first hit: profanity, personal information, malicious input, spam, hate
// speech. Each category redacts with its own marker so downstream logs show
// what was removed without revealing it.
//
// The word and pattern tables are compiled once in [New]; a Filter is
// read-only afterwards and safe for concurrent use.
package contentfilter

import (
	"regexp"
	"strings"
)

// Redaction markers.
const (
	MarkFiltered = "[filtered]"
	MarkRedacted = "[REDACTED]"
	MarkBlocked  = "[BLOCKED]"
)

// Category names the rule that rejected an utterance.
type Category string

const (
	CategoryNone         Category = ""
	CategoryProfanity    Category = "profanity"
	CategoryPersonalInfo Category = "personal_info"
	CategoryMalicious    Category = "malicious_input"
	CategorySpam         Category = "spam"
	CategoryHateSpeech   Category = "hate_speech"
)

// Verdict is the outcome of [Filter.Classify].
type Verdict struct {
	Appropriate bool
	// Filtered is the input with offending spans replaced by a marker.
	// It equals the input when Appropriate is true.
	Filtered string
	Reason   string
	Category Category
}

var defaultProfanity = []string{
	"fuck", "fucking", "fucker", "motherfucker", "shit", "bullshit", "bitch",
	"bastard", "asshole", "cunt", "piss", "twat", "wanker",
}

var defaultHatePhrases = []string{
	`kill\s+all`, `exterminate\s+(?:all|them)`, `ethnic\s+cleansing`, `inferior\s+race`,
	`subhuman`, `white\s+power`, `heil\s+hitler`, `go\s+back\s+to\s+your\s+(?:own\s+)?country`,
	`(?:all|those)\s+\w+\s+should\s+die`,
}

// Option configures a Filter.
type Option func(*Filter)

// WithContactDetails lets email addresses and phone numbers through. Social
// security and card numbers are always redacted.
func WithContactDetails(allow bool) Option {
	return func(f *Filter) {
		f.allowContact = allow
	}
}

// WithProfanity adds words to the built-in profanity list.
func WithProfanity(words ...string) Option {
	return func(f *Filter) {
		f.extraProfanity = append(f.extraProfanity, words...)
	}
}

// Filter classifies utterances.
type Filter struct {
	allowContact   bool
	extraProfanity []string

	profanity []*regexp.Regexp
	hate      []*regexp.Regexp
}

// New compiles the filter tables.
func New(opts ...Option) *Filter {
	f := &Filter{}
	for _, o := range opts {
		o(f)
	}
	for _, w := range append(append([]string{}, defaultProfanity...), f.extraProfanity...) {
		f.profanity = append(f.profanity, obfuscatedWord(w))
	}
	for _, p := range defaultHatePhrases {
		f.hate = append(f.hate, regexp.MustCompile(`(?i)\b`+p+`\b`))
	}
	return f
}

// Classify checks text against every category in priority order.
func (f *Filter) Classify(text string) Verdict {
	if out, hit := replaceAll(f.profanity, text, MarkFiltered); hit {
		return Verdict{Filtered: out, Reason: "message contains inappropriate language", Category: CategoryProfanity}
	}
	if out, kind, hit := f.redactPersonal(text); hit {
		return Verdict{Filtered: out, Reason: "message contains personal information (" + kind + ")", Category: CategoryPersonalInfo}
	}
	if out, hit := replaceAll(maliciousPatterns, text, MarkBlocked); hit {
		return Verdict{Filtered: out, Reason: "message contains potentially malicious input", Category: CategoryMalicious}
	}
	if reason, hit := spam(text); hit {
		return Verdict{Filtered: MarkBlocked, Reason: reason, Category: CategorySpam}
	}
	if out, hit := replaceAll(f.hate, text, MarkFiltered); hit {
		return Verdict{Filtered: out, Reason: "message contains hate speech", Category: CategoryHateSpeech}
	}
	return Verdict{Appropriate: true, Filtered: text}
}

// leet maps a letter to the characters commonly substituted for it.
var leet = map[rune]string{
	'a': "a@4", 'b': "b8", 'e': "e3", 'g': "g9", 'i': "i1!|", 'l': "l1|",
	'o': "o0", 's': "s$5", 't': "t7+", 'u': "uv*", 'c': "c(k", 'k': "kc",
}

// obfuscatedWord compiles word into a pattern that also matches leetspeak
// substitutions, stretched letters and single separators between letters:
// "f.u.c.k", "sh1t", "fuuuck".
func obfuscatedWord(word string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?i)(?:^|[^\pL\pN])(`)
	for i, r := range strings.ToLower(word) {
		if i > 0 {
			b.WriteString(`[\s._\-*]?`)
		}
		chars, ok := leet[r]
		if !ok {
			chars = string(r)
		}
		b.WriteString(`[` + regexp.QuoteMeta(chars) + `]+`)
	}
	b.WriteString(`)(?:$|[^\pL\pN])`)
	return regexp.MustCompile(b.String())
}

// replaceAll substitutes the first capture group of every match (or the whole
// match when the pattern has no group) with mark. Scanning resumes after the
// inserted mark, so back-to-back matches sharing a separator are all caught.
func replaceAll(patterns []*regexp.Regexp, text, mark string) (string, bool) {
	hit := false
	for _, re := range patterns {
		for from := 0; from <= len(text); {
			loc := re.FindStringSubmatchIndex(text[from:])
			if loc == nil {
				break
			}
			start, end := loc[0], loc[1]
			if len(loc) >= 4 && loc[2] >= 0 {
				start, end = loc[2], loc[3]
			}
			start, end = start+from, end+from
			text = text[:start] + mark + text[end:]
			from = start + len(mark)
			hit = true
		}
	}
	return text, hit
}
