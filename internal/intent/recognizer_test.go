package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/flightdesk/internal/booking"
	"github.com/MrWong99/flightdesk/internal/contentfilter"
	"github.com/MrWong99/flightdesk/pkg/provider/llm"
	llmmock "github.com/MrWong99/flightdesk/pkg/provider/llm/mock"
)

// newTestRecognizer wires the production pipeline around p.
func newTestRecognizer(p llm.Provider) *Recognizer {
	x := newExtractor()
	remote := NewRemoteLLMClassifier(p, fastRetry())
	return NewRecognizer(contentfilter.New(), NewFallbackClassifier(remote, NewRuleBasedClassifier(x), nil), x, nil)
}

type classifierFunc func(context.Context, Request) (Result, error)

func (f classifierFunc) Classify(ctx context.Context, req Request) (Result, error) { return f(ctx, req) }

func TestRecognize_ContentFilterShortCircuits(t *testing.T) {
	t.Parallel()
	p := &llmmock.Provider{CompleteResponse: reply(`{"intent":"greeting","confidence":0.9}`)}
	r := newTestRecognizer(p)

	res := r.Recognize(context.Background(), Request{Utterance: "My SSN is 123-45-6789", State: booking.StateCollectingName})
	if res.Intent != InappropriateContent || res.Confidence != 1 || res.Source != SourceFilter {
		t.Fatalf("result = %+v", res)
	}
	if res.Entities.Category != string(contentfilter.CategoryPersonalInfo) || res.Entities.Reason == "" {
		t.Errorf("entities = %+v", res.Entities)
	}
	if n := len(p.Calls()); n != 0 {
		t.Errorf("LLM called %d times for filtered input", n)
	}
}

func TestRecognize_FallsBackToRules(t *testing.T) {
	t.Parallel()
	p := &llmmock.Provider{CompleteErr: errors.New("503 service unavailable")}
	r := newTestRecognizer(p)

	res := r.Recognize(context.Background(), Request{Utterance: "From Boston to Chicago", State: booking.StateCollectingDeparture})
	if res.Intent != ProvideCity || res.Source != SourceRules {
		t.Fatalf("result = %+v", res)
	}
	if res.Entities.DepartureCity != "Boston" || res.Entities.ArrivalCity != "Chicago" {
		t.Errorf("entities = %+v", res.Entities)
	}
	if n := len(p.Calls()); n != 3 {
		t.Errorf("LLM calls = %d, want 3", n)
	}
}

func TestRecognize_MergesExtractedEntities(t *testing.T) {
	t.Parallel()
	p := &llmmock.Provider{CompleteResponse: reply(`{"intent":"provide_city","confidence":0.9,"entities":{"arrival_city":"Chicago"}}`)}
	r := newTestRecognizer(p)

	res := r.Recognize(context.Background(), Request{Utterance: "From Boston to Chicago", State: booking.StateCollectingDeparture})
	if res.Source != SourceLLM || res.Confidence != 0.9 {
		t.Fatalf("result = %+v", res)
	}
	if res.Entities.DepartureCity != "Boston" || res.Entities.ArrivalCity != "Chicago" {
		t.Errorf("entities = %+v", res.Entities)
	}
}

func TestRecognize_KeepsClassifierEntities(t *testing.T) {
	t.Parallel()
	p := &llmmock.Provider{CompleteResponse: reply(`{"intent":"provide_city","confidence":0.9,"entities":{"departure_city":"Denver","arrival_city":"Chicago"}}`)}
	r := newTestRecognizer(p)

	res := r.Recognize(context.Background(), Request{Utterance: "From Boston to Chicago", State: booking.StateCollectingDeparture})
	if res.Entities.DepartureCity != "Denver" {
		t.Errorf("departure = %q, classifier value must win", res.Entities.DepartureCity)
	}
}

func TestRecognize_DropsNameInTripSentence(t *testing.T) {
	t.Parallel()
	p := &llmmock.Provider{CompleteResponse: reply(`{"intent":"provide_city","confidence":0.8,"entities":{"first_name":"Austin"}}`)}
	r := newTestRecognizer(p)

	res := r.Recognize(context.Background(), Request{Utterance: "I'm flying to Austin", State: booking.StateCollectingDestination})
	if res.Entities.FirstName != "" {
		t.Errorf("first name = %q, want cleared", res.Entities.FirstName)
	}
	if res.Entities.ArrivalCity != "Austin" {
		t.Errorf("arrival = %q, want Austin", res.Entities.ArrivalCity)
	}
}

func TestRecognize_ClassifierFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		c    Classifier
	}{
		{"panic", classifierFunc(func(context.Context, Request) (Result, error) { panic("boom") })},
		{"error", classifierFunc(func(context.Context, Request) (Result, error) { return Result{}, errors.New("down") })},
		{"invalid intent", classifierFunc(func(context.Context, Request) (Result, error) {
			return Result{Intent: "book_hotel", Confidence: 0.9}, nil
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewRecognizer(contentfilter.New(), tt.c, newExtractor(), nil)
			res := r.Recognize(context.Background(), Request{Utterance: "hello", State: booking.StateGreeting})
			if res.Intent != Question || res.Confidence != DefaultConfidence {
				t.Errorf("result = %+v, want question at %v", res, DefaultConfidence)
			}
		})
	}
}

func TestFallbackClassifier_NilPrimary(t *testing.T) {
	t.Parallel()
	f := NewFallbackClassifier(nil, NewRuleBasedClassifier(newExtractor()), nil)

	res, err := f.Classify(context.Background(), Request{Utterance: "hello", State: booking.StateGreeting})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Intent != Greeting || res.Source != SourceRules {
		t.Errorf("result = %+v", res)
	}
}
