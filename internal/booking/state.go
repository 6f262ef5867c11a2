package booking

// State is the dialog state of a conversation.
type State int

const (
	StateIdle State = iota
	StateGreeting
	StateCollectingName
	StateCollectingDeparture
	StateCollectingDestination
	StateCollectingTripType
	StateCollectingDate
	StateCollectingReturnDate
	StateFlexibleSearch
	StatePresentingOptions
	StateConfirmingSelection
	StateBookingComplete
	StateError
)

var stateNames = [...]string{
	StateIdle:                  "IDLE",
	StateGreeting:              "GREETING",
	StateCollectingName:        "COLLECTING_NAME",
	StateCollectingDeparture:   "COLLECTING_DEPARTURE",
	StateCollectingDestination: "COLLECTING_DESTINATION",
	StateCollectingTripType:    "COLLECTING_TRIP_TYPE",
	StateCollectingDate:        "COLLECTING_DATE",
	StateCollectingReturnDate:  "COLLECTING_RETURN_DATE",
	StateFlexibleSearch:        "FLEXIBLE_SEARCH",
	StatePresentingOptions:     "PRESENTING_OPTIONS",
	StateConfirmingSelection:   "CONFIRMING_SELECTION",
	StateBookingComplete:       "BOOKING_COMPLETE",
	StateError:                 "ERROR",
}

// String returns the upper-case state name, e.g. "COLLECTING_DATE".
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Terminal reports whether no further slot collection happens in s.
func (s State) Terminal() bool {
	return s == StateBookingComplete || s == StateError
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
