package intent

import (
	"context"
	"testing"

	"github.com/MrWong99/flightdesk/internal/booking"
)

func TestRules(t *testing.T) {
	t.Parallel()
	c := NewRuleBasedClassifier(newExtractor())

	tests := []struct {
		state booking.State
		text  string
		want  Intent
	}{
		{booking.StateGreeting, "hello there", Greeting},
		{booking.StateGreeting, "Good morning", Greeting},
		{booking.StateGreeting, "My name is Jane Doe", ProvideName},
		{booking.StateCollectingName, "Jane Doe", ProvideName},
		{booking.StateCollectingDeparture, "From Boston to Chicago", ProvideCity},
		{booking.StateGreeting, "Hi, I need a round trip ticket", ProvideCity},
		{booking.StateCollectingTripType, "Round trip", ProvideCity},
		{booking.StateCollectingTripType, "one way please", ProvideCity},
		{booking.StateCollectingDate, "Next Friday", ProvideDate},
		{booking.StateCollectingReturnDate, "Sunday", ProvideDate},
		{booking.StateCollectingDate, "My dates are flexible", FlexibleSearch},
		{booking.StatePresentingOptions, "option 2", SelectOption},
		{booking.StatePresentingOptions, "something in the evening", TimePreference},
		{booking.StateConfirmingSelection, "yes please book it", ConfirmYes},
		{booking.StateConfirmingSelection, "no, show me other options", ConfirmNo},
		{booking.StatePresentingOptions, "Actually my name is Jane Smith, not Doe", Correction},
		{booking.StateCollectingDate, "I want to start over", Cancel},
		{booking.StateCollectingDate, "Can I cancel later?", Question},
		{booking.StateCollectingDate, "What is your baggage allowance?", Question},
		{booking.StateGreeting, "asdfgh", Question},
		{booking.StateGreeting, "", Question},
	}

	for _, tt := range tests {
		t.Run(tt.state.String()+"/"+tt.text, func(t *testing.T) {
			got := c.Rules(tt.text, tt.state)
			if got.Intent != tt.want {
				t.Fatalf("Rules(%q, %s) = %s (%+v), want %s", tt.text, tt.state, got.Intent, got.Entities, tt.want)
			}
			if got.Source != SourceRules {
				t.Errorf("source = %q, want rules", got.Source)
			}
			if got.Confidence <= 0 || got.Confidence > 1 {
				t.Errorf("confidence = %v out of (0, 1]", got.Confidence)
			}
		})
	}
}

func TestRules_TripTypeInTripTypeState(t *testing.T) {
	t.Parallel()
	c := NewRuleBasedClassifier(newExtractor())

	got := c.Rules("Round trip", booking.StateCollectingTripType)
	if got.Entities.TripType != booking.RoundTrip || got.Confidence != 0.9 {
		t.Errorf("got %+v, want provide_city with roundtrip at 0.9", got)
	}
}

func TestRules_DefaultConfidence(t *testing.T) {
	t.Parallel()
	c := NewRuleBasedClassifier(newExtractor())

	got := c.Rules("asdfgh", booking.StateGreeting)
	if got.Confidence != DefaultConfidence {
		t.Errorf("confidence = %v, want %v", got.Confidence, DefaultConfidence)
	}
}

func TestRuleBasedClassifier_Deterministic(t *testing.T) {
	t.Parallel()
	c := NewRuleBasedClassifier(newExtractor())
	req := Request{Utterance: "round trip from Boston to Miami next Friday", State: booking.StateCollectingName}

	a, errA := c.Classify(context.Background(), req)
	b, errB := c.Classify(context.Background(), req)
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v, %v", errA, errB)
	}
	if a != b {
		t.Errorf("results differ:\n%+v\n%+v", a, b)
	}
	if a.Entities.DepartureCity != "Boston" || a.Entities.ArrivalCity != "Miami" || a.Entities.Date != "next friday" {
		t.Errorf("entities = %+v", a.Entities)
	}
}

func TestMentionsTrip(t *testing.T) {
	t.Parallel()
	if !MentionsTrip("Actually I'm flying out of Denver") {
		t.Error("flying is trip vocabulary")
	}
	if MentionsTrip("Actually my name is Jane Smith") {
		t.Error("a plain name correction is not trip talk")
	}
}
