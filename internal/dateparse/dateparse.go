// Package dateparse resolves free-text date expressions ("next Friday",
// "in two weeks", "March 3rd", "12/24", "Thanksgiving") to calendar dates.
//
// [Parse] is a pure function of its inputs: the reference time is always
// passed in and the system clock is never read. Resolved dates are midnight
// in the reference time's location.
//
// Strategies are tried in a fixed order and the first one that matches wins:
//
//  1. relative days: today, tomorrow, the day after tomorrow
//  2. offsets: "in N days/weeks/months" (digits or number words)
//  3. weekdays, optionally with "this", "next" or "coming"
//  4. month and day in either order, with an optional year
//  5. numeric MM/DD or MM/DD/YYYY
//  6. ordinal day of month: "the 15th"
//  7. named holidays
//  8. relative phrases: this weekend, next week, end or beginning of the month
//
// A month/day without a year resolves to this year, or to next year when that
// month/day has already passed.
package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result is a resolved date.
type Result struct {
	// Date is midnight of the resolved day in the reference location.
	Date time.Time
	// Label is a human-readable rendering, e.g. "Friday, October 23, 2026".
	Label string
	// Match is the fragment of the input that produced the date.
	Match string
	// ExplicitYear is true when the input spelled out the year.
	ExplicitYear bool
}

// LabelLayout is the layout of [Result.Label].
const LabelLayout = "Monday, January 2, 2006"

type strategy func(text string, today time.Time) (time.Time, string, bool, bool)

var strategies = []strategy{
	relativeDay,
	offset,
	weekday,
	monthDay,
	numeric,
	ordinalDay,
	holiday,
	relativePhrase,
}

// Parse resolves the first date expression found in text relative to now.
func Parse(text string, now time.Time) (Result, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Result{}, false
	}
	today := Midnight(now)
	for _, s := range strategies {
		d, match, explicitYear, ok := s(lower, today)
		if !ok {
			continue
		}
		return Result{
			Date:         d,
			Label:        d.Format(LabelLayout),
			Match:        match,
			ExplicitYear: explicitYear,
		}, true
	}
	return Result{}, false
}

// Find returns the fragment of text that [Parse] would resolve, without
// resolving it. Which fragment matches does not depend on the reference time.
//
// Month/day and numeric fragments naming a day that does not exist
// ("February 30", "4/31") are reported too, so callers can reject them
// rather than overlook them.
func Find(text string) (string, bool) {
	if r, ok := Parse(text, time.Date(2000, time.January, 3, 0, 0, 0, 0, time.UTC)); ok {
		return r.Match, true
	}
	return calendarFragment(strings.ToLower(strings.TrimSpace(text)))
}

// calendarFragment matches the month/day and numeric forms without checking
// that the day exists.
func calendarFragment(lower string) (string, bool) {
	if m := monthFirstRe.FindString(lower); m != "" {
		return m, true
	}
	if m := dayFirstRe.FindString(lower); m != "" {
		return m, true
	}
	if m := numericRe.FindStringSubmatch(lower); m != nil {
		if month, _ := strconv.Atoi(m[1]); month >= 1 && month <= 12 {
			return m[0], true
		}
	}
	return "", false
}

// IsImpossible reports whether text holds a month/day or numeric date whose
// day does not exist in any year, such as "February 30" or "April 31".
func IsImpossible(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if _, ok := Parse(lower, time.Date(2000, time.January, 3, 0, 0, 0, 0, time.UTC)); ok {
		return false
	}
	_, ok := calendarFragment(lower)
	return ok
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var relativeDayRe = regexp.MustCompile(`\b(?:the\s+)?(day\s+after\s+tomorrow|tomorrow|today|tonight)\b`)

func relativeDay(text string, today time.Time) (time.Time, string, bool, bool) {
	m := relativeDayRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, "", false, false
	}
	switch {
	case strings.HasPrefix(m[1], "day"):
		return today.AddDate(0, 0, 2), m[0], false, true
	case m[1] == "tomorrow":
		return today.AddDate(0, 0, 1), m[0], false, true
	default:
		return today, m[0], false, true
	}
}

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11,
	"twelve": 12, "couple": 2, "a couple": 2, "a couple of": 2, "few": 3, "a few": 3,
}

var offsetRe = regexp.MustCompile(`\bin\s+(\d{1,3}|a couple of|a couple|a few|an|a|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s+(day|week|month)s?\b`)

func offset(text string, today time.Time) (time.Time, string, bool, bool) {
	m := offsetRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, "", false, false
	}
	n, ok := numberWords[m[1]]
	if !ok {
		var err error
		if n, err = strconv.Atoi(m[1]); err != nil {
			return time.Time{}, "", false, false
		}
	}
	switch m[2] {
	case "day":
		return today.AddDate(0, 0, n), m[0], false, true
	case "week":
		return today.AddDate(0, 0, 7*n), m[0], false, true
	default:
		return today.AddDate(0, n, 0), m[0], false, true
	}
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

var weekdayRe = regexp.MustCompile(`\b(?:(this|next|coming|upcoming)\s+)?(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)

// weekday resolves "this X" to the occurrence in the current week (today
// included) and bare, "next" or "coming" X to the next occurrence strictly
// after today.
func weekday(text string, today time.Time) (time.Time, string, bool, bool) {
	m := weekdayRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, "", false, false
	}
	days := (int(weekdays[m[2]]) - int(today.Weekday()) + 7) % 7
	if days == 0 && m[1] != "this" {
		days = 7
	}
	return today.AddDate(0, 0, days), m[0], false, true
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

const monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

var (
	monthFirstRe = regexp.MustCompile(`\b` + monthPattern + `\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`)
	dayFirstRe   = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthPattern + `(?:,?\s+(\d{4})\b)?`)
)

func monthDay(text string, today time.Time) (time.Time, string, bool, bool) {
	var (
		match, monthStr, dayStr, yearStr string
	)
	if m := monthFirstRe.FindStringSubmatch(text); m != nil {
		match, monthStr, dayStr, yearStr = m[0], m[1], m[2], m[3]
	} else if m := dayFirstRe.FindStringSubmatch(text); m != nil {
		match, dayStr, monthStr, yearStr = m[0], m[1], m[2], m[3]
	} else {
		return time.Time{}, "", false, false
	}
	month := months[monthStr[:3]]
	day, _ := strconv.Atoi(dayStr)
	d, explicit, ok := resolve(today, month, day, yearStr)
	return d, match, explicit, ok
}

var numericRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?\b`)

func numeric(text string, today time.Time) (time.Time, string, bool, bool) {
	m := numericRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, "", false, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return time.Time{}, "", false, false
	}
	d, explicit, ok := resolve(today, time.Month(month), day, m[3])
	return d, m[0], explicit, ok
}

var ordinalDayRe = regexp.MustCompile(`\bthe\s+(\d{1,2})(?:st|nd|rd|th)\b`)

// ordinalDay resolves "the 15th" to that day of the current month, or of the
// next month once it has passed.
func ordinalDay(text string, today time.Time) (time.Time, string, bool, bool) {
	m := ordinalDayRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, "", false, false
	}
	day, _ := strconv.Atoi(m[1])
	y, mon, _ := today.Date()
	for range 2 {
		if day >= 1 && day <= daysIn(y, mon) {
			d := time.Date(y, mon, day, 0, 0, 0, 0, today.Location())
			if !d.Before(today) {
				return d, m[0], false, true
			}
		}
		y, mon = nextMonth(y, mon)
	}
	return time.Time{}, "", false, false
}

// resolve builds a date from month/day and an optional year string. Without
// a year the date lands this year, or next year if it has already passed.
func resolve(today time.Time, month time.Month, day int, yearStr string) (time.Time, bool, bool) {
	if yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return time.Time{}, false, false
		}
		if len(yearStr) == 2 {
			year += 2000
		}
		if day < 1 || day > daysIn(year, month) {
			return time.Time{}, false, false
		}
		return time.Date(year, month, day, 0, 0, 0, 0, today.Location()), true, true
	}
	year := today.Year()
	if day < 1 || day > daysIn(year, month) {
		// Feb 29 outside a leap year: try the next year before giving up.
		if day > daysIn(year+1, month) || day < 1 {
			return time.Time{}, false, false
		}
		year++
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, today.Location())
	if d.Before(today) {
		d = rollYear(d, month, day)
	}
	if d.IsZero() {
		return time.Time{}, false, false
	}
	return d, false, true
}

func rollYear(d time.Time, month time.Month, day int) time.Time {
	for y := d.Year() + 1; y <= d.Year()+4; y++ {
		if day <= daysIn(y, month) {
			return time.Date(y, month, day, 0, 0, 0, 0, d.Location())
		}
	}
	return time.Time{}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}
