package dateparse

import (
	"regexp"
	"time"
)

type holidayRule struct {
	re *regexp.Regexp
	// on returns the holiday's date in year.
	on func(year int, loc *time.Location) time.Time
}

func fixed(month time.Month, day int) func(int, *time.Location) time.Time {
	return func(year int, loc *time.Location) time.Time {
		return time.Date(year, month, day, 0, 0, 0, 0, loc)
	}
}

// nthWeekday returns the nth (1-based) wd of month. n = -1 means the last.
func nthWeekday(month time.Month, wd time.Weekday, n int) func(int, *time.Location) time.Time {
	return func(year int, loc *time.Location) time.Time {
		if n < 0 {
			last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
			back := (int(last.Weekday()) - int(wd) + 7) % 7
			return last.AddDate(0, 0, -back)
		}
		first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		ahead := (int(wd) - int(first.Weekday()) + 7) % 7
		return first.AddDate(0, 0, ahead+7*(n-1))
	}
}

// Eves are listed before the day itself so "christmas eve" is not read as
// Christmas.
var holidays = []holidayRule{
	{regexp.MustCompile(`\bchristmas\s+eve\b|\bxmas\s+eve\b`), fixed(time.December, 24)},
	{regexp.MustCompile(`\bchristmas\b|\bxmas\b`), fixed(time.December, 25)},
	{regexp.MustCompile(`\bnew\s+year'?s\s+eve\b`), fixed(time.December, 31)},
	{regexp.MustCompile(`\bnew\s+year'?s(?:\s+day)?\b`), fixed(time.January, 1)},
	{regexp.MustCompile(`\bvalentine'?s(?:\s+day)?\b`), fixed(time.February, 14)},
	{regexp.MustCompile(`\b(?:independence\s+day|fourth\s+of\s+july|4th\s+of\s+july)\b`), fixed(time.July, 4)},
	{regexp.MustCompile(`\bhalloween\b`), fixed(time.October, 31)},
	{regexp.MustCompile(`\bthanksgiving\b`), nthWeekday(time.November, time.Thursday, 4)},
	{regexp.MustCompile(`\bmemorial\s+day\b`), nthWeekday(time.May, time.Monday, -1)},
	{regexp.MustCompile(`\blabou?r\s+day\b`), nthWeekday(time.September, time.Monday, 1)},
}

func holiday(text string, today time.Time) (time.Time, string, bool, bool) {
	for _, h := range holidays {
		loc := h.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		d := h.on(today.Year(), today.Location())
		if d.Before(today) {
			d = h.on(today.Year()+1, today.Location())
		}
		return d, text[loc[0]:loc[1]], false, true
	}
	return time.Time{}, "", false, false
}

var (
	weekendRe    = regexp.MustCompile(`\b(?:(this|next|the)\s+)?weekend\b`)
	nextWeekRe   = regexp.MustCompile(`\bnext\s+week\b`)
	endOfMonthRe = regexp.MustCompile(`\b(?:the\s+)?end\s+of\s+(?:the\s+|this\s+)?month\b`)
	startMonthRe = regexp.MustCompile(`\b(?:the\s+)?(?:beginning|start)\s+of\s+(?:the\s+|next\s+)?month\b`)
)

// relativePhrase handles the remaining vague expressions.
//
// "this weekend" is the upcoming Saturday (today if it is Saturday) and
// "next weekend" the Saturday after that. "end of the month" is the last day
// of this month, or of next month once today is past the 25th. "beginning of
// the month" is the first of next month unless today is the first.
func relativePhrase(text string, today time.Time) (time.Time, string, bool, bool) {
	if m := weekendRe.FindStringSubmatch(text); m != nil {
		days := (int(time.Saturday) - int(today.Weekday()) + 7) % 7
		if m[1] == "next" {
			days += 7
		}
		return today.AddDate(0, 0, days), m[0], false, true
	}
	if m := nextWeekRe.FindString(text); m != "" {
		return today.AddDate(0, 0, 7), m, false, true
	}
	if m := endOfMonthRe.FindString(text); m != "" {
		y, mon, day := today.Date()
		if day > 25 {
			y, mon = nextMonth(y, mon)
		}
		return time.Date(y, mon, daysIn(y, mon), 0, 0, 0, 0, today.Location()), m, false, true
	}
	if m := startMonthRe.FindString(text); m != "" {
		y, mon, day := today.Date()
		if day == 1 {
			return today, m, false, true
		}
		y, mon = nextMonth(y, mon)
		return time.Date(y, mon, 1, 0, 0, 0, 0, today.Location()), m, false, true
	}
	return time.Time{}, "", false, false
}
