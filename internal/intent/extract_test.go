package intent

import (
	"testing"

	"github.com/MrWong99/flightdesk/internal/booking"
	"github.com/MrWong99/flightdesk/internal/catalog"
)

func newExtractor() *Extractor {
	return NewExtractor(catalog.Default())
}

func TestExtract(t *testing.T) {
	t.Parallel()
	x := newExtractor()

	tests := []struct {
		name  string
		state booking.State
		text  string
		want  Entities
	}{
		{"name intro", booking.StateGreeting, "My name is Jane Doe", Entities{FirstName: "Jane", LastName: "Doe"}},
		{"from to", booking.StateCollectingDeparture, "From Boston to Chicago", Entities{DepartureCity: "Boston", ArrivalCity: "Chicago"}},
		{"airport code", booking.StateCollectingDeparture, "BOS", Entities{City: "Boston"}},
		{"bare name", booking.StateCollectingName, "jane doe", Entities{FirstName: "jane", LastName: "doe"}},
		{"bare date", booking.StateCollectingDate, "Next Friday", Entities{Date: "next friday"}},
		{
			"both legs", booking.StateCollectingDate, "leaving next friday and returning sunday",
			Entities{DepartureDate: "next friday", ReturnDate: "sunday", TripType: booking.RoundTrip},
		},
		{
			"aliases and trip type", booking.StateGreeting, "round trip from nyc to la",
			Entities{DepartureCity: "New York", ArrivalCity: "Los Angeles", TripType: booking.RoundTrip},
		},
		{"unknown origin", booking.StateGreeting, "I'm flying from Bostn to Chicago", Entities{DepartureCity: "Bostn", ArrivalCity: "Chicago"}},
		{"ordinal option", booking.StatePresentingOptions, "I'll take the second one", Entities{OptionNumber: 2}},
		{"bare option", booking.StatePresentingOptions, "2", Entities{OptionNumber: 2}},
		{"party and cabin", booking.StateGreeting, "Two passengers in business class", Entities{PassengerCount: 2, CabinClass: booking.Business}},
		{"time preference", booking.StatePresentingOptions, "Do you have morning flights?", Entities{TimePreference: "morning"}},
		{"greeting is not a time", booking.StateGreeting, "Good morning", Entities{}},
		{"name that is a city", booking.StateGreeting, "My name is Austin Reed", Entities{FirstName: "Austin", LastName: "Reed"}},
		{"where I am", booking.StateGreeting, "I'm in Boston", Entities{DepartureCity: "Boston"}},
		{"bare name starting with a city", booking.StateCollectingName, "Austin Miller", Entities{FirstName: "Austin", LastName: "Miller"}},
		{"bare name ending with a city", booking.StateCollectingName, "Jane Charlotte Smith", Entities{FirstName: "Jane", LastName: "Charlotte Smith"}},
		{"bare city while asking for a name", booking.StateCollectingName, "New York", Entities{City: "New York"}},
		{"labeled city while asking for a name", booking.StateCollectingName, "from Austin", Entities{DepartureCity: "Austin"}},
		{"last name only", booking.StateCollectingName, "My last name is Smith", Entities{LastName: "Smith"}},
		{"flexible", booking.StateCollectingDate, "I can be flexible with dates", Entities{Flexible: true}},
		{"topic", booking.StateGreeting, "Is there a baggage fee?", Entities{Topic: "baggage"}},
		{"first class is not an option", booking.StatePresentingOptions, "I want to fly first class", Entities{CabinClass: booking.First}},
		{"correction keeps names only", booking.StatePresentingOptions, "Actually my name is Jane Smith, not Doe", Entities{FirstName: "Jane", LastName: "Smith"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := x.Extract(tt.text, tt.state)
			if got != tt.want {
				t.Errorf("Extract(%q, %s)\n got: %+v\nwant: %+v", tt.text, tt.state, got, tt.want)
			}
		})
	}
}

func TestExtract_Empty(t *testing.T) {
	t.Parallel()
	if got := newExtractor().Extract("   ", booking.StateCollectingName); got != (Entities{}) {
		t.Errorf("Extract(blank) = %+v, want zero", got)
	}
}

func TestEntities_Merge(t *testing.T) {
	t.Parallel()
	e := Entities{ArrivalCity: "Chicago", TripType: booking.OneWay}
	e.Merge(Entities{DepartureCity: "Boston", ArrivalCity: "Denver", TripType: booking.RoundTrip, Flexible: true})

	want := Entities{DepartureCity: "Boston", ArrivalCity: "Chicago", TripType: booking.OneWay, Flexible: true}
	if e != want {
		t.Errorf("Merge = %+v, want %+v", e, want)
	}
}
