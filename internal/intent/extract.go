package intent

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/MrWong99/flightdesk/internal/booking"
	"github.com/MrWong99/flightdesk/internal/catalog"
	"github.com/MrWong99/flightdesk/internal/dateparse"
)

// Extractor pulls entities out of an utterance with patterns and the city
// catalog. It is the post-processing pass applied to every classification
// and the entity source of the rule-based classifier.
//
// Extract is deterministic in (utterance, state) and safe for concurrent use.
type Extractor struct {
	cities *catalog.Catalog
}

// NewExtractor returns an Extractor that recognizes the cities in cat.
func NewExtractor(cat *catalog.Catalog) *Extractor {
	return &Extractor{cities: cat}
}

// Extract returns every entity found in utterance. state narrows a few
// ambiguous patterns: a bare "Jane Doe" is a name only while collecting the
// name, a bare "2" is an option number only while presenting options.
func (x *Extractor) Extract(utterance string, state booking.State) Entities {
	var e Entities
	text := strings.TrimSpace(utterance)
	if text == "" {
		return e
	}
	lower := strings.ToLower(text)

	nameStart, nameEnd := x.names(text, state, &e)
	x.cityEntities(text, lower, state, nameStart, nameEnd, &e)
	dates(lower, &e)
	e.TripType = tripType(lower)

	if state == booking.StatePresentingOptions || optionKeywordRe.MatchString(lower) {
		e.OptionNumber = optionNumber(lower)
	}
	e.TimePreference = timePreference(greetingRe.ReplaceAllString(lower, ""))
	e.Flexible = flexibleRe.MatchString(lower)
	e.PassengerCount = passengers(lower)
	e.CabinClass = cabin(lower)
	e.Email = emailRe.FindString(lower)
	if m := phoneRe.FindString(text); countDigits(m) >= 10 {
		e.Phone = strings.TrimSpace(m)
	}
	e.Topic = topic(lower)

	if state == booking.StateCollectingName && !strings.Contains(text, "?") {
		switch {
		case !e.HasSlotData():
			bareName(text, &e)
		case x.cityInsideName(text, e):
			var n Entities
			bareName(text, &n)
			if n.HasName() {
				e.FirstName, e.LastName = n.FirstName, n.LastName
				e.City = ""
			}
		}
	}
	return e
}

// cityInsideName reports whether a reply to the name question only found a
// city because a name word doubles as one ("Austin Miller"). The city must
// be unlabeled, be the only slot data, and leave at least one word of the
// reply uncovered; "Boston" or "New York" alone stay cities.
func (x *Extractor) cityInsideName(text string, e Entities) bool {
	if e.City == "" || e.DepartureCity != "" || e.ArrivalCity != "" {
		return false
	}
	rest := e
	rest.City = ""
	if rest.HasSlotData() {
		return false
	}
	trimmed := strings.Trim(text, " .!,")
	covered := 0
	for _, m := range x.cities.FindMentions(trimmed) {
		covered += len(strings.Fields(trimmed[m.Start:m.End]))
	}
	return covered < len(strings.Fields(trimmed))
}

var (
	lastNameRe  = regexp.MustCompile(`(?i)\b(?:last\s+name|surname|family\s+name)\s*(?:is|'s|:)?\s+(\p{L}[\p{L}'\-]*)`)
	firstNameRe = regexp.MustCompile(`(?i)\bfirst\s+name\s*(?:is|'s|:)?\s+(\p{L}[\p{L}'\-]*)`)

	// nameIntroRe captures up to three name words after an introduction.
	// Group 1 is the introduction, groups 2-4 the words.
	nameIntroRe = regexp.MustCompile(`(?i)\b(my\s+name\s+is|my\s+name's|name\s+is|call\s+me|this\s+is|i\s+am|i'm|im)\s+(\p{L}[\p{L}'\-.]*)(?:\s+(\p{L}[\p{L}'\-.]*))?(?:\s+(\p{L}[\p{L}'\-.]*))?`)
)

// strongIntros introduce a name unambiguously; the others ("I'm", "this is")
// also introduce states and destinations, so their first word must be
// capitalized or the engine must be asking for a name.
var strongIntros = map[string]bool{
	"my name is": true, "my name's": true, "name is": true, "call me": true,
}

// notName are words that end or reject a run of name words.
var notName = setOf(
	"a", "about", "actually", "also", "am", "an", "and", "at", "back", "based",
	"booking", "but", "calling", "coming", "departing", "fine", "flying", "for",
	"from", "glad", "going", "good", "great", "happy", "heading", "here",
	"hoping", "i", "im", "in", "interested", "just", "leaving", "like",
	"looking", "my", "no", "not", "ok", "okay", "on", "planning", "please",
	"ready", "really", "returning", "so", "sorry", "sure", "thanks", "thank",
	"the", "to", "travelling", "traveling", "trying", "very", "want",
	"wanting", "with", "would", "yes", "you",
	"help", "what", "who", "how", "why", "where", "when", "maybe", "dunno",
	"idk", "nothing", "cancel", "stop", "restart", "wait", "hmm", "um", "uh",
)

// names extracts first and last name and returns the byte span they occupy
// in text, or (-1, -1).
func (x *Extractor) names(text string, state booking.State, e *Entities) (int, int) {
	start, end := -1, -1
	span := func(s, t int) {
		if start < 0 || s < start {
			start = s
		}
		end = max(end, t)
	}
	if m := lastNameRe.FindStringSubmatchIndex(text); m != nil {
		e.LastName = cleanName(text[m[2]:m[3]])
		span(m[2], m[3])
	}
	if m := firstNameRe.FindStringSubmatchIndex(text); m != nil {
		e.FirstName = cleanName(text[m[2]:m[3]])
		span(m[2], m[3])
	}
	if e.HasName() {
		return start, end
	}

	for _, m := range nameIntroRe.FindAllStringSubmatchIndex(text, -1) {
		intro := strings.ToLower(strings.Join(strings.Fields(text[m[2]:m[3]]), " "))
		var words []string
		wordEnd := -1
		for g := 2; g <= 4; g++ {
			s, t := m[2*g], m[2*g+1]
			if s < 0 {
				break
			}
			w := cleanName(text[s:t])
			if w == "" || notName[strings.ToLower(w)] {
				break
			}
			words = append(words, w)
			wordEnd = t
		}
		if len(words) == 0 {
			continue
		}
		if !strongIntros[intro] && state != booking.StateCollectingName {
			if r := []rune(words[0]); !unicode.IsUpper(r[0]) {
				continue
			}
		}
		// "I'm Boston bound" or "this is Chicago" are not names.
		if _, isCity := x.cities.Lookup(words[0]); isCity && !strongIntros[intro] {
			continue
		}
		e.FirstName = words[0]
		if len(words) > 1 {
			e.LastName = strings.Join(words[1:], " ")
		}
		return m[4], wordEnd
	}
	return -1, -1
}

// bareName treats a short all-letter reply as a name.
func bareName(text string, e *Entities) {
	words := strings.Fields(strings.Trim(text, " .!,"))
	if len(words) == 0 || len(words) > 3 {
		return
	}
	for i, w := range words {
		w = cleanName(w)
		if w == "" || notName[strings.ToLower(w)] || greetingWords[strings.ToLower(w)] {
			return
		}
		for _, r := range w {
			if !unicode.IsLetter(r) && r != '\'' && r != '-' && r != '.' {
				return
			}
		}
		words[i] = w
	}
	e.FirstName = words[0]
	if len(words) > 1 {
		e.LastName = strings.Join(words[1:], " ")
	}
}

func cleanName(w string) string {
	return strings.TrimRight(w, ".'-")
}

var (
	arrivalCueRe   = regexp.MustCompile(`\b(?:to|into|towards?|visit|visiting|arrive\s+in|arriving\s+in|arrive\s+at|land\s+in|landing\s+in|destination\s+is|destination|heading\s+to|going\s+to|bound\s+for)\s*$`)
	departureCueRe = regexp.MustCompile(`\b(?:from|leaving|leaving\s+from|departing|departing\s+from|out\s+of|based\s+in|live\s+in|i'm\s+in|i\s+am\s+in|origin\s+is)\s*$`)

	// fromToRe and travelToRe catch city phrases the catalog does not know,
	// so the validator can offer suggestions.
	fromToRe   = regexp.MustCompile(`\bfrom\s+([a-z][a-z'.]*(?:\s+[a-z][a-z'.]*){0,2}?)\s+to\s+([a-z][a-z'.]*(?:\s+[a-z][a-z'.]*){0,2}?)(?:\s*[,.!?]|\s+(?:on|next|this|in|for|leaving|departing|returning|and|tomorrow|today|please)\b|\s*$)`)
	fromRe     = regexp.MustCompile(`\bfrom\s+([a-z][a-z'.]*(?:\s+[a-z][a-z'.]*){0,2}?)(?:\s*[,.!?]|\s+(?:to|on|next|this|in|for|leaving|departing|returning|and|tomorrow|today|please)\b|\s*$)`)
	travelToRe = regexp.MustCompile(`\b(?:fly|flying|go|going|travel|traveling|travelling|heading|trip|flight)\s+to\s+([a-z][a-z'.]*(?:\s+[a-z][a-z'.]*){0,2}?)(?:\s*[,.!?]|\s+(?:on|next|this|in|for|from|leaving|departing|returning|and|tomorrow|today|please)\b|\s*$)`)
)

type role int

const (
	roleUnknown role = iota
	roleDeparture
	roleArrival
)

func (x *Extractor) cityEntities(text, lower string, state booking.State, nameStart, nameEnd int, e *Entities) {
	type found struct {
		name string
		role role
	}
	var cities []found
	for _, m := range x.cities.FindMentions(text) {
		if nameStart >= 0 && m.Start < nameEnd && m.End > nameStart {
			continue
		}
		prefix := strings.ToLower(text[:m.Start])
		r := roleUnknown
		switch {
		case arrivalCueRe.MatchString(prefix):
			r = roleArrival
		case departureCueRe.MatchString(prefix):
			r = roleDeparture
		}
		cities = append(cities, found{m.City.Name, r})
	}

	// "Boston to Chicago": an unlabeled city before a destination is the
	// origin, and after an origin is the destination.
	if len(cities) >= 2 {
		a, b := &cities[0], &cities[1]
		switch {
		case a.role == roleUnknown && b.role == roleArrival:
			a.role = roleDeparture
		case a.role == roleDeparture && b.role == roleUnknown:
			b.role = roleArrival
		case a.role == roleUnknown && b.role == roleUnknown:
			a.role, b.role = roleDeparture, roleArrival
		}
	}
	for _, c := range cities {
		switch {
		case c.role == roleDeparture && e.DepartureCity == "":
			e.DepartureCity = c.name
		case c.role == roleArrival && e.ArrivalCity == "":
			e.ArrivalCity = c.name
		case c.role == roleUnknown && e.City == "":
			e.City = c.name
		}
	}

	x.unknownCities(lower, e)

	if !e.HasCity() && (state == booking.StateCollectingDeparture || state == booking.StateCollectingDestination) {
		x.bareCity(lower, e)
	}
}

// unknownCities fills city slots from "from X to Y" style phrases whose
// cities are not in the catalog.
func (x *Extractor) unknownCities(lower string, e *Entities) {
	usable := func(p string) bool {
		if _, isDate := dateparse.Find(p); isDate {
			return false
		}
		_, known := x.cities.Lookup(p)
		return !known && !notCity[strings.Fields(p)[0]]
	}
	if m := fromToRe.FindStringSubmatch(lower); m != nil {
		if e.DepartureCity == "" && usable(m[1]) {
			e.DepartureCity = titleWords(m[1])
		}
		if e.ArrivalCity == "" && usable(m[2]) {
			e.ArrivalCity = titleWords(m[2])
		}
		return
	}
	if m := fromRe.FindStringSubmatch(lower); m != nil && e.DepartureCity == "" && usable(m[1]) {
		e.DepartureCity = titleWords(m[1])
	}
	if m := travelToRe.FindStringSubmatch(lower); m != nil && e.ArrivalCity == "" && usable(m[1]) {
		e.ArrivalCity = titleWords(m[1])
	}
}

// notCity are words that start phrases like "from the airport" or "to my
// mom's".
var notCity = setOf(
	"a", "an", "the", "my", "your", "here", "there", "home", "work", "me", "us",
	"it", "see", "visit", "be", "book", "fly", "go", "get", "make", "change",
	"somewhere", "anywhere", "wherever", "where", "i", "we", "not", "no",
	"what", "which", "how", "can", "maybe", "idk", "dunno", "help", "cancel",
)

// bareCity treats a short reply as a city while the engine is asking for one.
func (x *Extractor) bareCity(lower string, e *Entities) {
	if strings.Contains(lower, "?") {
		return
	}
	s := strings.Trim(lower, " .!,")
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > 3 || notCity[words[0]] || greetingWords[words[0]] || yesNoWords[words[0]] {
		return
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && r != ' ' && r != '.' && r != '\'' && r != '-' {
			return
		}
	}
	if _, isDate := dateparse.Find(s); isDate {
		return
	}
	e.City = titleWords(s)
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

var (
	returnCueRe    = regexp.MustCompile(`\b(?:returning|return|coming\s+back|come\s+back|fly\s+back|back\s+on|back|until|till|through)\b`)
	departureCueDt = regexp.MustCompile(`\b(?:leaving|leave|departing|depart|departure|outbound)\b`)
)

// dates finds date fragments and assigns them to a leg when the utterance
// says which.
func dates(lower string, e *Entities) {
	if loc := returnCueRe.FindStringIndex(lower); loc != nil {
		before, after := lower[:loc[0]], lower[loc[0]:]
		if d, ok := dateparse.Find(after); ok {
			e.ReturnDate = d
			if d, ok := dateparse.Find(before); ok {
				e.DepartureDate = d
			}
			return
		}
	}
	d, ok := dateparse.Find(lower)
	if !ok {
		return
	}
	if departureCueDt.MatchString(lower) {
		e.DepartureDate = d
		return
	}
	e.Date = d
}

var (
	oneWayRe    = regexp.MustCompile(`\b(?:one[\s-]?way|single|no\s+return|not\s+coming\s+back)\b`)
	roundTripRe = regexp.MustCompile(`\b(?:round[\s-]?trip|return\s+(?:trip|ticket|flight)|both\s+ways|there\s+and\s+back|returning|coming\s+back|come\s+back|fly\s+back)\b`)
)

func tripType(lower string) booking.TripType {
	switch {
	case oneWayRe.MatchString(lower):
		return booking.OneWay
	case roundTripRe.MatchString(lower):
		return booking.RoundTrip
	}
	return ""
}

var (
	optionKeywordRe = regexp.MustCompile(`\b(?:option|choice)\s*#?\s*(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten)\b`)
	optionNumberRe  = regexp.MustCompile(`(?:\bnumber|\bflight|#)\s*(\d{1,2})\b`)
	ordinalRe       = regexp.MustCompile(`\b(first|second|third|fourth|fifth|1st|2nd|3rd|4th|5th)(?:\s+(\w+))?`)
	bareNumberRe    = regexp.MustCompile(`^\s*(?:the\s+|number\s+)?(\d{1,2}|one|two|three|four|five)\s*[.!]?\s*$`)
)

var optionWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
	"eight": 8, "nine": 9, "ten": 10,
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"1st": 1, "2nd": 2, "3rd": 3, "4th": 4, "5th": 5,
}

func optionNumber(lower string) int {
	for _, re := range []*regexp.Regexp{optionKeywordRe, optionNumberRe, bareNumberRe} {
		if m := re.FindStringSubmatch(lower); m != nil {
			return atoiWord(m[1])
		}
	}
	for _, m := range ordinalRe.FindAllStringSubmatch(lower, -1) {
		// "first class" is a cabin, "first name" a slot.
		if m[2] == "class" || m[2] == "name" {
			continue
		}
		return optionWords[m[1]]
	}
	return 0
}

func atoiWord(s string) int {
	if n, ok := optionWords[s]; ok {
		return n
	}
	n, _ := strconv.Atoi(s)
	return n
}

var timePrefRe = regexp.MustCompile(`\b(early\s+morning|morning|afternoon|midday|noon|evening|late\s+night|night|red[\s-]?eye|overnight)\b`)

func timePreference(lower string) string {
	m := timePrefRe.FindStringSubmatch(lower)
	if m == nil {
		return ""
	}
	switch p := strings.Join(strings.Fields(m[1]), " "); p {
	case "early morning", "morning":
		return "morning"
	case "afternoon", "midday", "noon":
		return "afternoon"
	case "evening", "night":
		return "evening"
	default:
		return "red-eye"
	}
}

var flexibleRe = regexp.MustCompile(`\b(?:flexible|flex|any\s*day|any\s+date|whichever\s+day|cheapest\s+(?:day|date)s?|give\s+or\s+take|plus\s+or\s+minus|around\s+then|doesn'?t\s+matter|don'?t\s+care\s+(?:which|what)\s+day|whenever|open\s+dates?|a\s+few\s+days\s+either\s+way)\b`)

var (
	paxRe     = regexp.MustCompile(`\b(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten)\s+(?:passengers?|people|persons?|adults?|travell?ers|tickets?|seats?|of\s+us)\b`)
	soloRe    = regexp.MustCompile(`\b(?:just\s+me|only\s+me|by\s+myself|travell?ing\s+alone|solo)\b`)
	plusOneRe = regexp.MustCompile(`\b(?:me\s+and\s+my|with\s+my)\s+(?:wife|husband|partner|friend|son|daughter|mom|dad|mother|father|boyfriend|girlfriend|colleague)\b`)
)

func passengers(lower string) int {
	if m := paxRe.FindStringSubmatch(lower); m != nil {
		return atoiWord(m[1])
	}
	if soloRe.MatchString(lower) {
		return 1
	}
	if plusOneRe.MatchString(lower) {
		return 2
	}
	return 0
}

var (
	cabinRe    = regexp.MustCompile(`\b(premium\s+economy|economy\s+plus|economy|coach|main\s+cabin|business\s+class|first\s+class)\b`)
	cabinFlyRe = regexp.MustCompile(`\b(?:in|fly|flying|sit\s+in)\s+(business|first)\b`)
)

func cabin(lower string) booking.CabinClass {
	m := cabinRe.FindStringSubmatch(lower)
	if m == nil {
		m = cabinFlyRe.FindStringSubmatch(lower)
	}
	if m == nil {
		return ""
	}
	switch strings.Fields(m[1])[0] {
	case "premium":
		return booking.PremiumEconomy
	case "economy":
		if strings.HasSuffix(m[1], "plus") {
			return booking.PremiumEconomy
		}
		return booking.Economy
	case "business":
		return booking.Business
	case "first":
		return booking.First
	default:
		return booking.Economy
	}
}

var (
	emailRe = regexp.MustCompile(`[a-z0-9._%+\-]+@[a-z0-9\-]+(?:\.[a-z0-9\-]+)+`)
	phoneRe = regexp.MustCompile(`\+?\(?\d[\d\s().\-]{8,}\d`)
)

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

var topics = []struct {
	name string
	re   *regexp.Regexp
}{
	{"baggage", regexp.MustCompile(`\b(?:bags?|baggage|luggage|carry[\s-]?on|suitcases?|checked\s+bag)\b`)},
	{"refund", regexp.MustCompile(`\b(?:refunds?|refundable|cancellation|cancel\s+policy)\b`)},
	{"changes", regexp.MustCompile(`\b(?:change\s+fee|change\s+my\s+flight\s+later|reschedul\w*)\b`)},
	{"pets", regexp.MustCompile(`\b(?:pets?|dogs?|cats?|animals?)\b`)},
	{"seats", regexp.MustCompile(`\b(?:seat\s+selection|choose\s+(?:my\s+)?seats?|window\s+seat|aisle\s+seat|legroom)\b`)},
	{"checkin", regexp.MustCompile(`\b(?:check[\s-]?in|boarding\s+pass)\b`)},
	{"payment", regexp.MustCompile(`\b(?:pay|payment|credit\s+card|price|cost|how\s+much|fare)\b`)},
	{"meals", regexp.MustCompile(`\b(?:meals?|food|snacks?|drinks?)\b`)},
	{"wifi", regexp.MustCompile(`\b(?:wi-?fi|internet)\b`)},
}

func topic(lower string) string {
	for _, t := range topics {
		if t.re.MatchString(lower) {
			return t.name
		}
	}
	return ""
}

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
