// Package catalog is the immutable city and airport lookup table used to
// normalize user-supplied locations.
//
// A [Catalog] is built once at startup (from [Default], a YAML file, or the
// PostgreSQL loader in the postgres subpackage) and injected into the
// validator and the entity extractor. All methods are safe for concurrent use;
// the Catalog is read-only after construction.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// City is a bookable city with its primary IATA code and spoken aliases.
type City struct {
	Name    string   `yaml:"name"`
	Code    string   `yaml:"code"`
	Country string   `yaml:"country,omitempty"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// Match is the result of a successful [Catalog.Lookup].
type Match struct {
	City City
	// Confidence is 1.0 for an exact airport code and 0.9 for a name or alias.
	Confidence float64
	// ByCode is true when the input was an airport code.
	ByCode bool
}

// Mention is a city found inside free text by [Catalog.FindMentions].
type Mention struct {
	City City
	// Start and End are byte offsets of the matched phrase in the text.
	Start, End int
}

// Catalog is an immutable city lookup table.
type Catalog struct {
	cities []City
	byCode map[string]int
	byName map[string]int
	// maxWords is the longest name or alias in tokens.
	maxWords int
	// keys holds every normalized name and alias for fuzzy matching.
	keys []fuzzyKey
}

// New validates cities and builds a Catalog. Codes must be three letters and
// unique; names and aliases must not collide across cities.
func New(cities []City) (*Catalog, error) {
	c := &Catalog{
		cities: make([]City, 0, len(cities)),
		byCode: make(map[string]int, len(cities)),
		byName: make(map[string]int, len(cities)*3),
	}

	var errs []error
	for _, city := range cities {
		city.Name = strings.TrimSpace(city.Name)
		city.Code = strings.ToUpper(strings.TrimSpace(city.Code))
		if city.Name == "" {
			errs = append(errs, fmt.Errorf("catalog: city with code %q has no name", city.Code))
			continue
		}
		if !isCode(city.Code) {
			errs = append(errs, fmt.Errorf("catalog: city %q: code %q is not a three-letter airport code", city.Name, city.Code))
			continue
		}
		if _, dup := c.byCode[city.Code]; dup {
			errs = append(errs, fmt.Errorf("catalog: duplicate airport code %q", city.Code))
			continue
		}

		idx := len(c.cities)
		c.cities = append(c.cities, city)
		c.byCode[city.Code] = idx
		for _, name := range append([]string{city.Name}, city.Aliases...) {
			key := Normalize(name)
			if key == "" {
				continue
			}
			if other, dup := c.byName[key]; dup && other != idx {
				errs = append(errs, fmt.Errorf("catalog: %q names both %s and %s", name, c.cities[other].Name, city.Name))
				continue
			}
			c.byName[key] = idx
			c.keys = append(c.keys, newFuzzyKey(key, idx))
			if n := len(strings.Fields(key)); n > c.maxWords {
				c.maxWords = n
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// Len returns the number of cities.
func (c *Catalog) Len() int { return len(c.cities) }

// Cities returns a copy of every city in table order.
func (c *Catalog) Cities() []City {
	out := make([]City, len(c.cities))
	copy(out, c.cities)
	return out
}

// Lookup resolves raw as an airport code, a city name, or an alias.
// Codes are matched case-insensitively.
func (c *Catalog) Lookup(raw string) (Match, bool) {
	trimmed := strings.TrimSpace(raw)
	if isCode(strings.ToUpper(trimmed)) {
		if idx, ok := c.byCode[strings.ToUpper(trimmed)]; ok {
			return Match{City: c.cities[idx], Confidence: 1.0, ByCode: true}, true
		}
	}
	if idx, ok := c.byName[Normalize(trimmed)]; ok {
		return Match{City: c.cities[idx], Confidence: 0.9}, true
	}
	return Match{}, false
}

// FindMentions scans text left to right for city names, aliases and airport
// codes, preferring the longest phrase at each position. Codes are only
// recognised when written in upper case, so everyday words like "sea" or
// "den" are not mistaken for airports.
func (c *Catalog) FindMentions(text string) []Mention {
	toks := tokenize(text)
	var out []Mention
	for i := 0; i < len(toks); {
		matched := false
		for n := min(c.maxWords, len(toks)-i); n >= 1; n-- {
			words := make([]string, n)
			for k := range n {
				words[k] = toks[i+k].norm
			}
			if idx, ok := c.byName[strings.Join(words, " ")]; ok {
				out = append(out, Mention{City: c.cities[idx], Start: toks[i].start, End: toks[i+n-1].end})
				i += n
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if raw := toks[i].raw; isCode(raw) {
			if idx, ok := c.byCode[raw]; ok {
				out = append(out, Mention{City: c.cities[idx], Start: toks[i].start, End: toks[i].end})
			}
		}
		i++
	}
	return out
}

// Normalize lower-cases s, drops punctuation other than inner apostrophes and
// hyphens-as-spaces, and collapses whitespace. "St. Louis" and "st louis"
// normalize to the same key.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case r == '\'' || r == '.':
			// dropped without splitting: "o'hare" -> "ohare", "l.a." -> "la"
		default:
			space = true
		}
	}
	return b.String()
}

func isCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

type token struct {
	raw        string
	norm       string
	start, end int
}

// tokenize splits text into word tokens, keeping byte offsets.
func tokenize(text string) []token {
	var toks []token
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		raw := text[start:end]
		if norm := Normalize(raw); norm != "" {
			toks = append(toks, token{raw: strings.Trim(raw, ".'"), norm: norm, start: start, end: end})
		}
		start = -1
	}
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '.' {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return toks
}
