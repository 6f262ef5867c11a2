// Package validate normalizes and checks raw slot values before they are
// written to a booking store.
//
// Every function is pure and returns a [Result]; none of them fail with an
// error. Invalid input yields Valid == false together with a user-facing
// message and, where useful, suggestions.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/MrWong99/flightdesk/internal/booking"
	"github.com/MrWong99/flightdesk/internal/catalog"
	"github.com/MrWong99/flightdesk/internal/dateparse"
)

// Result is the outcome of validating one raw value.
type Result[T any] struct {
	Valid       bool
	Confidence  float64
	Value       T
	Message     string
	Suggestions []string
}

func ok[T any](v T, confidence float64) Result[T] {
	return Result[T]{Valid: true, Confidence: confidence, Value: v}
}

func invalid[T any](msg string, suggestions ...string) Result[T] {
	return Result[T]{Message: msg, Suggestions: suggestions}
}

// MaxSuggestions caps the suggestions returned for an unknown city.
const MaxSuggestions = 5

// Validator validates slot values against an injected city catalog.
// It is safe for concurrent use.
type Validator struct {
	cities *catalog.Catalog
}

// New returns a Validator backed by cities.
func New(cities *catalog.Catalog) *Validator {
	return &Validator{cities: cities}
}

// City resolves raw to a canonical city name. Airport codes score 1.0, names
// and aliases 0.9. Unknown input is invalid, with up to five fuzzy
// suggestions when any resemble it.
func (v *Validator) City(raw string) Result[string] {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return invalid[string]("Please tell me a city.")
	}
	if m, found := v.cities.Lookup(raw); found {
		return ok(m.City.Name, m.Confidence)
	}
	if sug := v.cities.Suggest(raw, MaxSuggestions); len(sug) > 0 {
		return invalid[string](fmt.Sprintf("I couldn't find %q. Did you mean %s?", raw, orList(sug)), sug...)
	}
	return invalid[string](fmt.Sprintf("Sorry, %q isn't a city I can book flights for.", raw))
}

// CityPair is a validated origin and destination.
type CityPair struct {
	From, To string
}

// CityPair validates both cities and rejects a pair that normalizes to the
// same city. Confidence is the lower of the two.
func (v *Validator) CityPair(from, to string) Result[CityPair] {
	f := v.City(from)
	if !f.Valid {
		return Result[CityPair]{Message: f.Message, Suggestions: f.Suggestions}
	}
	t := v.City(to)
	if !t.Valid {
		return Result[CityPair]{Message: t.Message, Suggestions: t.Suggestions}
	}
	if f.Value == t.Value {
		return invalid[CityPair](fmt.Sprintf("Your departure and arrival city can't both be %s.", f.Value))
	}
	return ok(CityPair{From: f.Value, To: t.Value}, min(f.Confidence, t.Confidence))
}

// dateLayouts are tried in order before falling back to dateparse. Layouts
// without a year get the year inferred.
var dateLayouts = []struct {
	layout  string
	hasYear bool
}{
	{"2006-01-02", true},
	{"1/2/2006", true},
	{"1-2-2006", true},
	{"January 2, 2006", true},
	{"January 2 2006", true},
	{"Jan 2, 2006", true},
	{"Jan 2 2006", true},
	{"2 January 2006", true},
	{"January 2", false},
	{"Jan 2", false},
	{"1/2", false},
}

// MaxDaysAhead is how far into the future a travel date may lie.
const MaxDaysAhead = 365

// Date parses raw against the fixed layouts, then the natural-language
// parser. Dates before yesterday or more than 365 days after now are
// rejected. Confidence is 1.0 when the year was explicit, 0.8 otherwise.
func (v *Validator) Date(raw string, now time.Time) Result[time.Time] {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return invalid[time.Time]("Please tell me a date.")
	}
	today := dateparse.Midnight(now)

	d, explicit, found := parseLayouts(raw, today)
	if !found {
		r, parsed := dateparse.Parse(raw, now)
		if !parsed && dateparse.IsImpossible(raw) {
			return invalid[time.Time](fmt.Sprintf("%s isn't a real date. Which day did you mean?", capitalize(raw)))
		}
		if !parsed {
			return invalid[time.Time](fmt.Sprintf("I couldn't understand %q as a date. Try something like \"March 15\" or \"next Friday\".", raw))
		}
		d, explicit = r.Date, r.ExplicitYear
	}
	if msg := checkWindow(d, today); msg != "" {
		return invalid[time.Time](msg)
	}
	if explicit {
		return ok(d, 1.0)
	}
	return ok(d, 0.8)
}

// DateOrder checks a departure/return pair. Both dates must lie in the
// bookable window and the return must be strictly after the departure. Trips
// longer than 30 days are accepted with confidence 0.7.
func (v *Validator) DateOrder(departure, ret, now time.Time) Result[time.Time] {
	today := dateparse.Midnight(now)
	if msg := checkWindow(departure, today); msg != "" {
		return invalid[time.Time]("Departure date: " + msg)
	}
	if msg := checkWindow(ret, today); msg != "" {
		return invalid[time.Time]("Return date: " + msg)
	}
	if !ret.After(departure) {
		return invalid[time.Time](fmt.Sprintf("Your return date needs to be after your departure on %s.", departure.Format(dateparse.LabelLayout)))
	}
	// Calendar days, not hours: a trip across a DST change is an hour
	// longer or shorter than 30*24h.
	if ret.After(departure.AddDate(0, 0, 30)) {
		return ok(ret, 0.7)
	}
	return ok(ret, 1.0)
}

func checkWindow(d, today time.Time) string {
	if d.Before(today.AddDate(0, 0, -1)) {
		return fmt.Sprintf("%s is in the past.", d.Format(dateparse.LabelLayout))
	}
	if d.After(today.AddDate(0, 0, MaxDaysAhead)) {
		return fmt.Sprintf("%s is too far ahead; we can only book up to %d days out.", d.Format(dateparse.LabelLayout), MaxDaysAhead)
	}
	return ""
}

func parseLayouts(raw string, today time.Time) (time.Time, bool, bool) {
	for _, l := range dateLayouts {
		t, err := time.ParseInLocation(l.layout, raw, today.Location())
		if err != nil {
			continue
		}
		if l.hasYear {
			return t, true, true
		}
		d := time.Date(today.Year(), t.Month(), t.Day(), 0, 0, 0, 0, today.Location())
		if d.Month() != t.Month() {
			// Feb 29 outside a leap year normalized into March.
			continue
		}
		if d.Before(today) {
			d = d.AddDate(1, 0, 0)
		}
		return d, false, true
	}
	return time.Time{}, false, false
}

// MaxNameLength is the longest accepted first or last name.
const MaxNameLength = 50

// Name validates a single first or last name and normalizes it to title case,
// special-casing "Mc" and "O'" prefixes.
func (v *Validator) Name(raw string) Result[string] {
	raw = strings.Join(strings.Fields(raw), " ")
	if raw == "" {
		return invalid[string]("Please tell me your name.")
	}
	if len([]rune(raw)) > MaxNameLength {
		return invalid[string](fmt.Sprintf("That name is longer than %d characters.", MaxNameLength))
	}
	hasLetter := false
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case r == ' ' || r == '-' || r == '\'' || r == '.':
		default:
			return invalid[string]("Names can only contain letters, spaces, hyphens and apostrophes.")
		}
	}
	if !hasLetter {
		return invalid[string]("Please tell me your name.")
	}
	return ok(TitleName(raw), 0.9)
}

// TitleName title-cases each space- or hyphen-separated part of name:
// "mary-kate mcdonald" becomes "Mary-Kate McDonald", "o'brien" "O'Brien".
func TitleName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		parts := strings.Split(w, "-")
		for j, p := range parts {
			parts[j] = titlePart(p)
		}
		words[i] = strings.Join(parts, "-")
	}
	return strings.Join(words, " ")
}

func titlePart(p string) string {
	lower := []rune(strings.ToLower(p))
	if len(lower) == 0 {
		return ""
	}
	lower[0] = unicode.ToUpper(lower[0])
	switch {
	case len(lower) > 2 && lower[0] == 'M' && lower[1] == 'c':
		lower[2] = unicode.ToUpper(lower[2])
	case len(lower) > 2 && lower[0] == 'O' && lower[1] == '\'':
		lower[2] = unicode.ToUpper(lower[2])
	}
	return string(lower)
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

var emailRe = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// Email lower-cases and checks an address.
func (v *Validator) Email(raw string) Result[string] {
	e := strings.ToLower(strings.TrimSpace(raw))
	if !emailRe.MatchString(e) || strings.Contains(e, "..") {
		return invalid[string](fmt.Sprintf("%q doesn't look like an email address.", raw))
	}
	return ok(e, 1.0)
}

// Phone normalizes North American numbers to "(617) 555-0123" and other
// numbers with 8 to 15 digits to "+<digits>".
func (v *Validator) Phone(raw string) Result[string] {
	var digits strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')' || r == '+':
		default:
			return invalid[string](fmt.Sprintf("%q doesn't look like a phone number.", raw))
		}
	}
	d := digits.String()
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	switch {
	case len(d) == 10:
		return ok(fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:]), 1.0)
	case len(d) >= 8 && len(d) <= 15 && strings.HasPrefix(strings.TrimSpace(raw), "+"):
		return ok("+"+d, 0.9)
	default:
		return invalid[string](fmt.Sprintf("%q doesn't look like a phone number.", raw))
	}
}

// MaxPassengers is the largest party bookable in one reservation.
const MaxPassengers = 9

var countWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
	"eight": 8, "nine": 9, "ten": 10, "just me": 1, "myself": 1, "me": 1,
	"a couple": 2, "couple": 2,
}

// PassengerCount accepts digits or number words in 1..9.
func (v *Validator) PassengerCount(raw string) Result[int] {
	s := strings.ToLower(strings.TrimSpace(raw))
	n, found := countWords[s]
	if !found {
		var err error
		if n, err = strconv.Atoi(s); err != nil {
			return invalid[int](fmt.Sprintf("How many people are travelling? I didn't understand %q.", raw))
		}
	}
	if n < 1 || n > MaxPassengers {
		return invalid[int](fmt.Sprintf("I can book between 1 and %d passengers.", MaxPassengers))
	}
	return ok(n, 1.0)
}

// cabinAliases is searched in order; longer phrases come first so
// "premium economy" wins over "economy".
var cabinAliases = []struct {
	alias string
	class booking.CabinClass
}{
	{"premium economy", booking.PremiumEconomy},
	{"economy plus", booking.PremiumEconomy},
	{"premium", booking.PremiumEconomy},
	{"first class", booking.First},
	{"first", booking.First},
	{"business", booking.Business},
	{"biz", booking.Business},
	{"economy", booking.Economy},
	{"coach", booking.Economy},
	{"main cabin", booking.Economy},
	{"standard", booking.Economy},
}

// CabinClass maps free text ("coach", "business class") to a cabin class.
func (v *Validator) CabinClass(raw string) Result[booking.CabinClass] {
	s := " " + catalog.Normalize(strings.ReplaceAll(raw, "_", " ")) + " "
	for _, a := range cabinAliases {
		if strings.Contains(s, " "+a.alias+" ") {
			return ok(a.class, 1.0)
		}
	}
	return invalid[booking.CabinClass]("Which cabin would you like: economy, premium economy, business or first?")
}

// TripType maps free text to one-way or round-trip.
func (v *Validator) TripType(raw string) Result[booking.TripType] {
	s := catalog.Normalize(raw)
	switch {
	case strings.Contains(s, "one way"), strings.Contains(s, "oneway"), strings.Contains(s, "single"):
		return ok(booking.OneWay, 0.9)
	case strings.Contains(s, "round"), strings.Contains(s, "return"), strings.Contains(s, "both ways"):
		return ok(booking.RoundTrip, 0.9)
	}
	return invalid[booking.TripType]("Is this a one-way or a round trip?")
}

func orList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " or " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
}
