package dateparse

import (
	"testing"
	"time"
)

// Monday, October 19, 2026.
var ref = time.Date(2026, time.October, 19, 10, 15, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want time.Time
	}{
		// relative days
		{"today", day(2026, 10, 19)},
		{"Tomorrow please", day(2026, 10, 20)},
		{"the day after tomorrow", day(2026, 10, 21)},
		// offsets
		{"in 3 days", day(2026, 10, 22)},
		{"in two weeks", day(2026, 11, 2)},
		{"in a month", day(2026, 11, 19)},
		{"in a couple of days", day(2026, 10, 21)},
		// weekdays
		{"Next Friday", day(2026, 10, 23)},
		{"friday", day(2026, 10, 23)},
		{"Sunday", day(2026, 10, 25)},
		{"this Monday", day(2026, 10, 19)},
		{"Monday", day(2026, 10, 26)},
		{"next monday", day(2026, 10, 26)},
		// month and day
		{"March 3rd", day(2027, 3, 3)},
		{"december 5", day(2026, 12, 5)},
		{"5th of November", day(2026, 11, 5)},
		{"Oct 19", day(2026, 10, 19)},
		{"October 18", day(2027, 10, 18)},
		{"Sept. 2nd", day(2027, 9, 2)},
		// numeric
		{"12/24", day(2026, 12, 24)},
		{"1/5", day(2027, 1, 5)},
		{"11/03/2026", day(2026, 11, 3)},
		// ordinal day
		{"on the 25th", day(2026, 10, 25)},
		{"the 15th", day(2026, 11, 15)},
		// holidays
		{"christmas eve", day(2026, 12, 24)},
		{"Christmas", day(2026, 12, 25)},
		{"thanksgiving", day(2026, 11, 26)},
		{"memorial day weekend", day(2027, 5, 31)},
		{"labor day", day(2027, 9, 6)},
		{"halloween", day(2026, 10, 31)},
		{"new year's eve", day(2026, 12, 31)},
		{"new years day", day(2027, 1, 1)},
		// relative phrases
		{"this weekend", day(2026, 10, 24)},
		{"next weekend", day(2026, 10, 31)},
		{"next week", day(2026, 10, 26)},
		{"end of the month", day(2026, 10, 31)},
		{"beginning of next month", day(2026, 11, 1)},
		// strategy order: relative day wins over a later weekday
		{"tomorrow or maybe friday", day(2026, 10, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Parse(tt.text, ref)
			if !ok {
				t.Fatalf("Parse(%q) found no date", tt.text)
			}
			if !got.Date.Equal(tt.want) {
				t.Errorf("Parse(%q) = %s, want %s", tt.text, got.Date.Format(time.DateOnly), tt.want.Format(time.DateOnly))
			}
			if got.Label != got.Date.Format(LabelLayout) {
				t.Errorf("Label = %q", got.Label)
			}
		})
	}
}

func TestParse_NoDate(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "   ", "no idea", "2/30", "the 45th", "May I ask something"} {
		if got, ok := Parse(text, ref); ok {
			t.Errorf("Parse(%q) = %v, want no match", text, got.Date)
		}
	}
}

func TestParse_ExplicitYear(t *testing.T) {
	t.Parallel()

	got, ok := Parse("January 15, 2027", ref)
	if !ok || !got.ExplicitYear || !got.Date.Equal(day(2027, 1, 15)) {
		t.Fatalf("got %+v, %v", got, ok)
	}
	got, ok = Parse("January 15", ref)
	if !ok || got.ExplicitYear {
		t.Fatalf("implicit year reported as explicit: %+v", got)
	}
}

func TestParse_EndOfMonthLate(t *testing.T) {
	t.Parallel()

	late := time.Date(2026, time.October, 27, 8, 0, 0, 0, time.UTC)
	got, ok := Parse("end of month", late)
	if !ok || !got.Date.Equal(day(2026, 11, 30)) {
		t.Fatalf("got %v, %v; want 2026-11-30", got.Date, ok)
	}
}

func TestParse_Deterministic(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"next friday", "in 2 weeks", "thanksgiving", "3/14"} {
		a, okA := Parse(text, ref)
		b, okB := Parse(text, ref)
		if okA != okB || a != b {
			t.Errorf("Parse(%q) not deterministic: %+v vs %+v", text, a, b)
		}
	}
}

func TestParse_KeepsLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("EST", -5*3600)
	got, ok := Parse("tomorrow", time.Date(2026, time.October, 19, 23, 30, 0, 0, loc))
	if !ok {
		t.Fatal("no match")
	}
	if got.Date.Location() != loc || got.Date.Day() != 20 || got.Date.Hour() != 0 {
		t.Errorf("got %v", got.Date)
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text, want string
		ok         bool
	}{
		{"leaving next Friday from Boston", "next friday", true},
		{"on March 3rd", "march 3rd", true},
		{"from Boston to Chicago", "", false},
		{"how about February 30", "february 30", true},
		{"leaving 4/31", "4/31", true},
	}
	for _, tt := range tests {
		got, ok := Find(tt.text)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Find(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsImpossible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want bool
	}{
		{"February 30", true},
		{"april 31st", true},
		{"31 june", true},
		{"2/30", true},
		{"February 29", false},
		{"February 28", false},
		{"next Friday", false},
		{"blue", false},
	}
	for _, tt := range tests {
		if got := IsImpossible(tt.text); got != tt.want {
			t.Errorf("IsImpossible(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
