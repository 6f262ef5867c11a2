package booking

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the canonical calendar-date format used in views and requests.
const DateLayout = "2006-01-02"

// Customer holds the traveller's personal slots.
type Customer struct {
	FirstName     *Value[string]
	LastName      *Value[string]
	Email         *Value[string]
	Phone         *Value[string]
	FrequentFlyer *Value[string]
}

// Trip holds the itinerary slots.
type Trip struct {
	DepartureCity      *Value[string]
	ArrivalCity        *Value[string]
	DepartureDate      *Value[time.Time]
	ReturnDate         *Value[time.Time]
	TripType           *Value[TripType]
	PassengerCount     *Value[int]
	CabinClass         *Value[CabinClass]
	OutboundFlight     *Value[FlightOption]
	ReturnFlight       *Value[FlightOption]
	ConfirmationNumber *Value[string]
}

// Store is the confidence-scored slot record of one session.
type Store struct {
	Customer Customer
	Trip     Trip

	now func() time.Time
}

// NewStore returns an empty Store. now stamps every write; nil means time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now}
}

// Field identifies one typed slot of a Store.
type Field[T any] struct {
	name string
	ref  func(*Store) **Value[T]
}

// Name returns the snake_case slot name, e.g. "departure_city".
func (f Field[T]) Name() string { return f.name }

func (f Field[T]) confidence(s *Store) (float64, bool) {
	v := *f.ref(s)
	if v == nil {
		return 0, false
	}
	return v.Confidence, true
}

// slot is the type-erased view of a Field used for bookkeeping.
type slot interface {
	Name() string
	confidence(*Store) (float64, bool)
}

// Slot descriptors.
var (
	FirstName          = Field[string]{"first_name", func(s *Store) **Value[string] { return &s.Customer.FirstName }}
	LastName           = Field[string]{"last_name", func(s *Store) **Value[string] { return &s.Customer.LastName }}
	Email              = Field[string]{"email", func(s *Store) **Value[string] { return &s.Customer.Email }}
	Phone              = Field[string]{"phone", func(s *Store) **Value[string] { return &s.Customer.Phone }}
	FrequentFlyer      = Field[string]{"frequent_flyer", func(s *Store) **Value[string] { return &s.Customer.FrequentFlyer }}
	DepartureCity      = Field[string]{"departure_city", func(s *Store) **Value[string] { return &s.Trip.DepartureCity }}
	ArrivalCity        = Field[string]{"arrival_city", func(s *Store) **Value[string] { return &s.Trip.ArrivalCity }}
	DepartureDate      = Field[time.Time]{"departure_date", func(s *Store) **Value[time.Time] { return &s.Trip.DepartureDate }}
	ReturnDate         = Field[time.Time]{"return_date", func(s *Store) **Value[time.Time] { return &s.Trip.ReturnDate }}
	TripKind           = Field[TripType]{"trip_type", func(s *Store) **Value[TripType] { return &s.Trip.TripType }}
	PassengerCount     = Field[int]{"passenger_count", func(s *Store) **Value[int] { return &s.Trip.PassengerCount }}
	Cabin              = Field[CabinClass]{"cabin_class", func(s *Store) **Value[CabinClass] { return &s.Trip.CabinClass }}
	OutboundFlight     = Field[FlightOption]{"outbound_flight", func(s *Store) **Value[FlightOption] { return &s.Trip.OutboundFlight }}
	ReturnFlight       = Field[FlightOption]{"return_flight", func(s *Store) **Value[FlightOption] { return &s.Trip.ReturnFlight }}
	ConfirmationNumber = Field[string]{"confirmation_number", func(s *Store) **Value[string] { return &s.Trip.ConfirmationNumber }}
)

// required lists the slots that must reach ConfidenceThreshold before a
// flight search can be issued, in collection order.
var required = []slot{FirstName, LastName, DepartureCity, ArrivalCity, DepartureDate}

// Set overwrites field with a freshly stamped Value. There is no merge: the
// previous value, confidence and source are discarded.
func Set[T any](s *Store, f Field[T], v T, confidence float64, src Source) error {
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return fmt.Errorf("%w: %s=%v", ErrConfidenceOutOfRange, f.name, confidence)
	}
	*f.ref(s) = &Value[T]{
		Value:      v,
		Confidence: confidence,
		Source:     src,
		Timestamp:  s.now(),
	}
	return nil
}

// Get returns the stored Value of field and whether it is set.
func Get[T any](s *Store, f Field[T]) (Value[T], bool) {
	v := *f.ref(s)
	if v == nil {
		var zero Value[T]
		return zero, false
	}
	return *v, true
}

// Filled reports whether field is set with at least ConfidenceThreshold.
func Filled[T any](s *Store, f Field[T]) bool {
	c, ok := f.confidence(s)
	return ok && c >= ConfidenceThreshold
}

// Clear unsets field.
func Clear[T any](s *Store, f Field[T]) {
	*f.ref(s) = nil
}

// MissingRequired returns the names of required slots whose confidence is
// below ConfidenceThreshold, in collection order.
func (s *Store) MissingRequired() []string {
	var missing []string
	for _, f := range required {
		if c, ok := f.confidence(s); !ok || c < ConfidenceThreshold {
			missing = append(missing, f.Name())
		}
	}
	return missing
}

// CompletionPercentage returns the share of required slots filled, 0..100.
func (s *Store) CompletionPercentage() float64 {
	filled := len(required) - len(s.MissingRequired())
	return float64(filled) * 100 / float64(len(required))
}

// Clone returns an independent copy. Stored Values are never mutated in
// place, so copying the pointers is sufficient.
func (s *Store) Clone() *Store {
	c := *s
	return &c
}

// Reset discards every slot.
func (s *Store) Reset() {
	s.Customer = Customer{}
	s.Trip = Trip{}
}
