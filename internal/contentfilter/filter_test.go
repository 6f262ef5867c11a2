package contentfilter

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	f := New()
	tests := []struct {
		name     string
		text     string
		category Category
		marker   string
	}{
		{"clean request", "Can you help me book a flight to Chicago", CategoryNone, ""},
		{"clean with date", "leaving 2026-10-23 and back 10/25", CategoryNone, ""},
		{"clean name", "My name is Dick Van Dyke", CategoryNone, ""},
		{"profanity", "this is fucking ridiculous", CategoryProfanity, MarkFiltered},
		{"leetspeak", "what a load of sh1t", CategoryProfanity, MarkFiltered},
		{"separated letters", "f.u.c.k this", CategoryProfanity, MarkFiltered},
		{"ssn", "My SSN is 123-45-6789", CategoryPersonalInfo, MarkRedacted},
		{"card", "card 4111 1111 1111 1111 please", CategoryPersonalInfo, MarkRedacted},
		{"email", "write me at jane@example.com", CategoryPersonalInfo, MarkRedacted},
		{"phone", "call 617-555-0123", CategoryPersonalInfo, MarkRedacted},
		{"sql injection", "Boston' OR '1'='1", CategoryMalicious, MarkBlocked},
		{"drop table", "x; DROP TABLE bookings; --", CategoryMalicious, MarkBlocked},
		{"xss", "<script>alert(1)</script>", CategoryMalicious, MarkBlocked},
		{"command", "Chicago && rm -rf /", CategoryMalicious, MarkBlocked},
		{"char spam", "helloooooooooooo", CategorySpam, MarkBlocked},
		{"word spam", "book book book book book now", CategorySpam, MarkBlocked},
		{"caps spam", "FLIGHTSFLIGHTSFLIGHTSFLIGHTSFLIGHTS", CategorySpam, MarkBlocked},
		{"shouted request", "I NEED A FLIGHT FROM BOSTON TO CHICAGO NEXT FRIDAY PLEASE THANKS", CategoryNone, ""},
		{"delete in speech", "please delete from my booking the return leg", CategoryNone, ""},
		{"insert in speech", "can you insert into the notes that I want a window seat", CategoryNone, ""},
		{"sql delete", "DELETE FROM bookings WHERE id = 1", CategoryMalicious, MarkBlocked},
		{"sql insert", "insert into users (name) values ('x')", CategoryMalicious, MarkBlocked},
		{"hate", "they should ethnic cleansing", CategoryHateSpeech, MarkFiltered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := f.Classify(tt.text)
			if v.Category != tt.category {
				t.Fatalf("Classify(%q).Category = %q, want %q (reason %q)", tt.text, v.Category, tt.category, v.Reason)
			}
			if tt.category == CategoryNone {
				if !v.Appropriate || v.Filtered != tt.text || v.Reason != "" {
					t.Errorf("clean text altered: %+v", v)
				}
				return
			}
			if v.Appropriate {
				t.Error("expected inappropriate")
			}
			if !strings.Contains(v.Filtered, tt.marker) {
				t.Errorf("Filtered = %q, want marker %q", v.Filtered, tt.marker)
			}
			if v.Reason == "" {
				t.Error("missing reason")
			}
		})
	}
}

func TestClassify_SSNReason(t *testing.T) {
	t.Parallel()

	v := New().Classify("My SSN is 123-45-6789")
	if v.Appropriate {
		t.Fatal("SSN must be inappropriate")
	}
	if !strings.Contains(v.Filtered, "[REDACTED]") || strings.Contains(v.Filtered, "6789") {
		t.Errorf("Filtered = %q", v.Filtered)
	}
	if !strings.Contains(v.Reason, "personal information") {
		t.Errorf("Reason = %q", v.Reason)
	}
}

func TestClassify_Priority(t *testing.T) {
	t.Parallel()

	// Profanity outranks personal information.
	v := New().Classify("shit, my SSN is 123-45-6789")
	if v.Category != CategoryProfanity {
		t.Errorf("Category = %q, want profanity", v.Category)
	}
}

func TestClassify_RepeatedProfanity(t *testing.T) {
	t.Parallel()

	v := New().Classify("shit shit")
	if strings.Contains(strings.ToLower(v.Filtered), "shit") {
		t.Errorf("Filtered = %q, every occurrence should be masked", v.Filtered)
	}
}

func TestClassify_ContactDetailsAllowed(t *testing.T) {
	t.Parallel()

	f := New(WithContactDetails(true))
	if v := f.Classify("my email is jane@example.com and phone 617-555-0123"); !v.Appropriate {
		t.Errorf("contact details should pass: %+v", v)
	}
	if v := f.Classify("SSN 123-45-6789"); v.Category != CategoryPersonalInfo {
		t.Errorf("SSN must still be redacted: %+v", v)
	}
}

func TestClassify_ExtraProfanity(t *testing.T) {
	t.Parallel()

	f := New(WithProfanity("frak"))
	if v := f.Classify("oh frak"); v.Category != CategoryProfanity {
		t.Errorf("custom word not filtered: %+v", v)
	}
}

func TestLuhn(t *testing.T) {
	t.Parallel()

	if !luhn("4111 1111 1111 1111") {
		t.Error("valid Visa test number rejected")
	}
	if luhn("4111 1111 1111 1112") {
		t.Error("invalid checksum accepted")
	}
	if luhn("1234") {
		t.Error("short number accepted")
	}
}

func TestSanitizeForAPI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"  hello\tworld\n", "hello world"},
		{`<b>"quoted"</b> 'x' ` + "`y`", "bquoted/b x y"},
		{"a\x00b\x1bc", "a b c"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeForAPI(tt.in); got != tt.want {
			t.Errorf("SanitizeForAPI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("é", 2500)
	if got := []rune(SanitizeForAPI(long)); len(got) != MaxAPIInputRunes {
		t.Errorf("len = %d, want %d", len(got), MaxAPIInputRunes)
	}
}

func TestIsValidName(t *testing.T) {
	t.Parallel()

	valid := []string{"Jane", "Doe", "O'Brien", "Mary-Kate", "J.R.", "Jane Smith", "Zoë"}
	for _, n := range valid {
		if !IsValidName(n) {
			t.Errorf("IsValidName(%q) = false", n)
		}
	}
	invalid := []string{"", "test", "Dummy", "12345", "aaaa", "Jane2", "jane@doe", strings.Repeat("a", 101) + "b"}
	for _, n := range invalid {
		if IsValidName(n) {
			t.Errorf("IsValidName(%q) = true", n)
		}
	}
}
