// Package intent turns one user utterance into a classified intent with
// structured entities.
//
// Classification is two-tier. A [RemoteLLMClassifier] asks the LLM
// collaborator for strict JSON and retries transient failures; a
// [RuleBasedClassifier] applies deterministic keyword and pattern rules and
// always produces an answer. [FallbackClassifier] composes the two. The
// [Recognizer] wraps the composed classifier with the content-safety gate and
// the [Extractor] post-processing pass.
package intent

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/flightdesk/internal/booking"
)

var (
	// ErrMalformedResponse is returned when the LLM reply does not contain a
	// usable JSON classification.
	ErrMalformedResponse = errors.New("intent: malformed classifier response")

	// ErrUnknownIntent is returned for an intent name outside the fixed set.
	ErrUnknownIntent = errors.New("intent: unknown intent")
)

// Intent is the classified purpose of an utterance.
type Intent string

const (
	Greeting             Intent = "greeting"
	ProvideName          Intent = "provide_name"
	ProvideCity          Intent = "provide_city"
	ProvideDate          Intent = "provide_date"
	SelectOption         Intent = "select_option"
	TimePreference       Intent = "time_preference"
	FlexibleSearch       Intent = "flexible_search"
	ConfirmYes           Intent = "confirm_yes"
	ConfirmNo            Intent = "confirm_no"
	Correction           Intent = "correction"
	Question             Intent = "question"
	Cancel               Intent = "cancel"
	InappropriateContent Intent = "inappropriate_content"
)

// All lists every intent in a stable order.
var All = []Intent{
	Greeting, ProvideName, ProvideCity, ProvideDate, SelectOption,
	TimePreference, FlexibleSearch, ConfirmYes, ConfirmNo, Correction,
	Question, Cancel, InappropriateContent,
}

// Valid reports whether i is one of [All].
func (i Intent) Valid() bool {
	for _, a := range All {
		if i == a {
			return true
		}
	}
	return false
}

// Parse converts a name to an Intent.
func Parse(s string) (Intent, error) {
	if i := Intent(s); i.Valid() {
		return i, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIntent, s)
}

// Source records which stage produced a [Result].
type Source string

const (
	SourceLLM    Source = "llm"
	SourceRules  Source = "rules"
	SourceFilter Source = "content_filter"
)

// Entities carries the structured values found in one utterance. Every field
// is optional; the zero value means "not mentioned". City and date fields
// hold the user's phrasing (or a canonical city name when it was recognized)
// and still have to pass validation before they are stored.
type Entities struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`

	DepartureCity string `json:"departure_city,omitempty"`
	ArrivalCity   string `json:"arrival_city,omitempty"`
	// City is a city mentioned without saying whether it is the origin or
	// the destination.
	City string `json:"city,omitempty"`

	DepartureDate string `json:"departure_date,omitempty"`
	ReturnDate    string `json:"return_date,omitempty"`
	// Date is a date mentioned without saying which leg it belongs to.
	Date string `json:"date,omitempty"`

	TripType       booking.TripType   `json:"trip_type,omitempty"`
	PassengerCount int                `json:"passenger_count,omitempty"`
	CabinClass     booking.CabinClass `json:"cabin_class,omitempty"`

	// OptionNumber is the 1-based flight option the user picked.
	OptionNumber int `json:"option_number,omitempty"`
	// TimePreference is one of morning, afternoon, evening, red-eye.
	TimePreference string `json:"time_preference,omitempty"`
	Flexible       bool   `json:"flexible,omitempty"`

	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	// Topic names the subject of a question, e.g. "baggage".
	Topic string `json:"topic,omitempty"`

	// Reason and Category explain an inappropriate_content result.
	Reason   string `json:"reason,omitempty"`
	Category string `json:"category,omitempty"`
}

// Merge fills every zero field of e from o. Fields e already has are kept.
func (e *Entities) Merge(o Entities) {
	fill(&e.FirstName, o.FirstName)
	fill(&e.LastName, o.LastName)
	fill(&e.DepartureCity, o.DepartureCity)
	fill(&e.ArrivalCity, o.ArrivalCity)
	fill(&e.City, o.City)
	fill(&e.DepartureDate, o.DepartureDate)
	fill(&e.ReturnDate, o.ReturnDate)
	fill(&e.Date, o.Date)
	fill(&e.TripType, o.TripType)
	fill(&e.PassengerCount, o.PassengerCount)
	fill(&e.CabinClass, o.CabinClass)
	fill(&e.OptionNumber, o.OptionNumber)
	fill(&e.TimePreference, o.TimePreference)
	fill(&e.Flexible, o.Flexible)
	fill(&e.Email, o.Email)
	fill(&e.Phone, o.Phone)
	fill(&e.Topic, o.Topic)
	fill(&e.Reason, o.Reason)
	fill(&e.Category, o.Category)
}

func fill[T comparable](dst *T, src T) {
	var zero T
	if *dst == zero {
		*dst = src
	}
}

// HasName reports whether a first or last name was found.
func (e Entities) HasName() bool { return e.FirstName != "" || e.LastName != "" }

// HasCity reports whether any city was found.
func (e Entities) HasCity() bool {
	return e.DepartureCity != "" || e.ArrivalCity != "" || e.City != ""
}

// HasDate reports whether any date was found.
func (e Entities) HasDate() bool {
	return e.DepartureDate != "" || e.ReturnDate != "" || e.Date != ""
}

// HasSlotData reports whether e carries anything that can fill a booking
// slot.
func (e Entities) HasSlotData() bool {
	return e.HasName() || e.HasCity() || e.HasDate() || e.TripType != "" ||
		e.PassengerCount != 0 || e.CabinClass != "" || e.Email != "" || e.Phone != ""
}

// Result is the outcome of classifying one utterance.
type Result struct {
	Intent     Intent
	Confidence float64
	Entities   Entities
	Source     Source
}

// Exchange is one earlier turn, used as classifier context.
type Exchange struct {
	User      string
	Assistant string
}

// Request is the input to a [Classifier].
type Request struct {
	Utterance string
	State     booking.State
	Snapshot  booking.View
	// History holds the most recent turns, oldest first.
	History []Exchange
}

// Classifier maps a request to a [Result].
type Classifier interface {
	Classify(ctx context.Context, req Request) (Result, error)
}
