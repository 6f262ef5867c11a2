// Package booking holds the per-session booking record: confidence-scored
// customer and trip slots, the dialog state enum, flight options and the
// search request handed to the flight collaborator.
//
// A [Store] is created once per session and mutated turn by turn. It performs
// no validation of its own; callers validate raw values (see package validate)
// before writing them. A Store is not safe for concurrent mutation. The dialog
// engine works on a [Store.Clone] and swaps it in only once a turn completes.
package booking

import (
	"errors"
	"time"
)

// ErrConfidenceOutOfRange is returned by [Set] when confidence is outside [0, 1].
var ErrConfidenceOutOfRange = errors.New("booking: confidence must be within [0, 1]")

// Source records where a slot value came from.
type Source string

const (
	SourceUserInput       Source = "user_input"
	SourceInference       Source = "inference"
	SourceValidation      Source = "validation"
	SourceCorrection      Source = "correction"
	SourceAPI             Source = "api"
	SourceFlightSelection Source = "flight_selection"
)

// Value is a slot value together with its confidence and provenance.
// Values are immutable once stored; every write replaces the whole Value.
type Value[T any] struct {
	Value      T
	Confidence float64
	Source     Source
	Timestamp  time.Time
}

// ConfidenceThreshold is the minimum confidence for a slot to count as filled.
const ConfidenceThreshold = 0.7

// TripType is either one-way or round-trip.
type TripType string

const (
	OneWay    TripType = "oneway"
	RoundTrip TripType = "roundtrip"
)

// CabinClass is the seating class of a booking.
type CabinClass string

const (
	Economy        CabinClass = "economy"
	PremiumEconomy CabinClass = "premium_economy"
	Business       CabinClass = "business"
	First          CabinClass = "first"
)
