package catalog

import (
	"slices"
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	c := Default()
	tests := []struct {
		in       string
		wantName string
		wantConf float64
		wantOK   bool
	}{
		{"BOS", "Boston", 1.0, true},
		{"bos", "Boston", 1.0, true},
		{"Boston", "Boston", 0.9, true},
		{"  chicago ", "Chicago", 0.9, true},
		{"NYC", "New York", 0.9, true},
		{"the big apple", "New York", 0.9, true},
		{"L.A.", "Los Angeles", 0.9, true},
		{"St Louis", "St. Louis", 0.9, true},
		{"Springfield", "", 0, false},
		{"", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, ok := c.Lookup(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if m.City.Name != tt.wantName || m.Confidence != tt.wantConf {
				t.Errorf("Lookup(%q) = %s/%v, want %s/%v", tt.in, m.City.Name, m.Confidence, tt.wantName, tt.wantConf)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	c := Default()
	tests := []struct {
		in   string
		want string
	}{
		{"Bostin", "Boston"},
		{"Chicgo", "Chicago"},
		{"Filadelfia", "Philadelphia"},
		{"san fransisco", "San Francisco"},
	}
	for _, tt := range tests {
		got := c.Suggest(tt.in, 5)
		if len(got) == 0 || got[0] != tt.want {
			t.Errorf("Suggest(%q) = %v, want %q first", tt.in, got, tt.want)
		}
		if len(got) > 5 {
			t.Errorf("Suggest(%q) returned %d > 5 suggestions", tt.in, len(got))
		}
	}

	if got := c.Suggest("xqzt", 5); len(got) != 0 {
		t.Errorf("Suggest(nonsense) = %v, want none", got)
	}
	if got := c.Suggest("Boston", 0); got != nil {
		t.Errorf("Suggest with limit 0 = %v", got)
	}
}

func TestFindMentions(t *testing.T) {
	t.Parallel()

	c := Default()
	tests := []struct {
		text string
		want []string
	}{
		{"From Boston to Chicago", []string{"Boston", "Chicago"}},
		{"round trip from new york city to salt lake city please", []string{"New York", "Salt Lake City"}},
		{"flying BOS to ORD", []string{"Boston", "Chicago"}},
		{"I want to see the sea in den", nil},
		{"St. Louis, then Miami.", []string{"St. Louis", "Miami"}},
	}
	for _, tt := range tests {
		var got []string
		for _, m := range c.FindMentions(tt.text) {
			got = append(got, m.City.Name)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("FindMentions(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestFindMentions_Offsets(t *testing.T) {
	t.Parallel()

	text := "to San Diego tomorrow"
	ms := Default().FindMentions(text)
	if len(ms) != 1 {
		t.Fatalf("got %d mentions", len(ms))
	}
	if got := text[ms[0].Start:ms[0].End]; got != "San Diego" {
		t.Errorf("span = %q", got)
	}
}

func TestNew_RejectsBadTables(t *testing.T) {
	t.Parallel()

	_, err := New([]City{
		{Name: "A", Code: "AAA"},
		{Name: "B", Code: "AAA"},
		{Name: "", Code: "CCC"},
		{Name: "D", Code: "DD"},
		{Name: "E", Code: "EEE", Aliases: []string{"a"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"duplicate airport code", "has no name", "three-letter", "names both"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestLoadYAMLAndMerge(t *testing.T) {
	t.Parallel()

	src := `
cities:
  - name: Buffalo
    code: buf
    aliases: [buffalo niagara]
  - name: Boston Logan
    code: BOS
`
	cities, err := LoadYAML(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	c, err := New(Merge(Defaults(), cities))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m, ok := c.Lookup("BUF"); !ok || m.City.Name != "Buffalo" {
		t.Errorf("Lookup(BUF) = %+v, %v", m, ok)
	}
	if m, ok := c.Lookup("beantown"); !ok || m.City.Name != "Boston Logan" {
		t.Errorf("override should keep aliases: %+v, %v", m, ok)
	}
	if c.Len() != len(defaultCities)+1 {
		t.Errorf("Len() = %d", c.Len())
	}
}

func TestLoadYAML_UnknownField(t *testing.T) {
	t.Parallel()
	if _, err := LoadYAML(strings.NewReader("cities:\n  - name: X\n    iata: XXX\n")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}
