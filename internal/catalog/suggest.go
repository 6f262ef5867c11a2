package catalog

import (
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	// phoneticThreshold is the minimum Jaro-Winkler score for a candidate
	// whose Double Metaphone codes overlap the input.
	phoneticThreshold = 0.70
	// fuzzyThreshold applies to candidates without phonetic overlap.
	fuzzyThreshold = 0.82
)

// fuzzyKey is a normalized name or alias with its precomputed phonetic codes.
type fuzzyKey struct {
	key    string
	tokens []string
	codes  map[string]struct{}
	city   int
}

func newFuzzyKey(key string, city int) fuzzyKey {
	tokens := strings.Fields(key)
	return fuzzyKey{key: key, tokens: tokens, codes: codesForTokens(tokens), city: city}
}

// Suggest returns up to limit city names that resemble raw, best first.
//
// Candidates are found in two stages. Names whose Double Metaphone codes
// overlap the input's are accepted at a Jaro-Winkler score of 0.70; all other
// names need 0.82. Phonetic candidates rank ahead of purely fuzzy ones.
func (c *Catalog) Suggest(raw string, limit int) []string {
	input := Normalize(raw)
	if input == "" || limit <= 0 {
		return nil
	}
	inputTokens := strings.Fields(input)
	inputCodes := codesForTokens(inputTokens)

	type candidate struct {
		city     int
		score    float64
		phonetic bool
	}
	best := make(map[int]candidate)

	for _, k := range c.keys {
		score := bestJWScore(inputTokens, k.tokens, input, k.key)
		phonetic := codesOverlap(inputCodes, k.codes)
		switch {
		case phonetic && score >= phoneticThreshold:
		case score >= fuzzyThreshold:
			phonetic = false
		default:
			continue
		}
		cur, seen := best[k.city]
		if !seen || (phonetic && !cur.phonetic) || (phonetic == cur.phonetic && score > cur.score) {
			best[k.city] = candidate{city: k.city, score: score, phonetic: phonetic}
		}
	}

	ranked := make([]candidate, 0, len(best))
	for _, cand := range best {
		ranked = append(ranked, cand)
	}
	slices.SortFunc(ranked, func(a, b candidate) int {
		if a.phonetic != b.phonetic {
			if a.phonetic {
				return -1
			}
			return 1
		}
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return strings.Compare(c.cities[a.city].Name, c.cities[b.city].Name)
	})

	out := make([]string, 0, min(limit, len(ranked)))
	for _, cand := range ranked {
		if len(out) == limit {
			break
		}
		out = append(out, c.cities[cand.city].Name)
	}
	return out
}

// codesForTokens returns the union of all Double Metaphone codes for tokens.
// Empty codes are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore is the highest Jaro-Winkler similarity over the full strings,
// the space-stripped strings, and (for multi-word inputs against multi-word
// names) the mean of each input token's best pairwise score. Averaging keeps
// a shared "san" from making San Diego look like San Francisco.
func bestJWScore(inputTokens, keyTokens []string, inputFull, keyFull string) float64 {
	score := matchr.JaroWinkler(inputFull, keyFull, false)

	if len(inputTokens) > 1 || len(keyTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(inputTokens, ""), strings.Join(keyTokens, ""), false); s > score {
			score = s
		}
	}
	if len(inputTokens) > 1 && len(keyTokens) > 1 {
		var sum float64
		for _, it := range inputTokens {
			var tokBest float64
			for _, kt := range keyTokens {
				tokBest = max(tokBest, matchr.JaroWinkler(it, kt, false))
			}
			sum += tokBest
		}
		if s := sum / float64(len(inputTokens)); s > score {
			score = s
		}
	}
	return score
}
