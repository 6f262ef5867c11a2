package dialog

import (
	"fmt"

	"github.com/MrWong99/flightdesk/internal/booking"
	"github.com/MrWong99/flightdesk/internal/dateparse"
)

// step is the next thing the conversation needs.
type step struct {
	state  booking.State
	prompt string
}

// next walks the canonical slot order and returns the first unmet step. It
// is recomputed on every turn, so it depends only on what is stored, never
// on the state the turn started in.
func (t *turn) next() step {
	s := t.conv.store
	tripType, _ := booking.Get(s, booking.TripKind)

	switch {
	case !booking.Filled(s, booking.FirstName) && !booking.Filled(s, booking.LastName):
		return step{booking.StateCollectingName, "May I have your full name, please?"}
	case !booking.Filled(s, booking.FirstName):
		return step{booking.StateCollectingName, "And your first name?"}
	case !booking.Filled(s, booking.LastName):
		return step{booking.StateCollectingName, "And what's your last name?"}
	case !booking.Filled(s, booking.DepartureCity):
		return step{booking.StateCollectingDeparture, "Which city will you be flying from?"}
	case !booking.Filled(s, booking.ArrivalCity):
		return step{booking.StateCollectingDestination, "Where would you like to fly to?"}
	case !booking.Filled(s, booking.TripKind):
		return step{booking.StateCollectingTripType, "Is this a one-way trip or a round trip?"}
	case !booking.Filled(s, booking.DepartureDate) && t.conv.flexible:
		return step{booking.StateFlexibleSearch, fmt.Sprintf(
			"Since your dates are flexible, roughly when would you like to leave? I'll look %d days either side.", t.e.cfg.FlexibleDays)}
	case !booking.Filled(s, booking.DepartureDate):
		return step{booking.StateCollectingDate, "What date would you like to leave?"}
	case tripType.Value == booking.RoundTrip && !booking.Filled(s, booking.ReturnDate):
		return step{booking.StateCollectingReturnDate, "And when would you like to come back?"}
	}

	if _, selected := booking.Get(s, booking.OutboundFlight); !selected {
		return t.presentStep()
	}
	if _, booked := booking.Get(s, booking.ConfirmationNumber); !booked {
		f, _ := booking.Get(s, booking.OutboundFlight)
		return step{booking.StateConfirmingSelection, fmt.Sprintf("Shall I go ahead and book %s for you?", flightName(f.Value))}
	}
	return step{booking.StateBookingComplete, t.completeMessage()}
}

// searchRequest describes the trip to the flight collaborator. Passenger
// count and cabin default to one traveller in economy.
func (t *turn) searchRequest() booking.SearchRequest {
	v := t.conv.store.PublicView()
	req := booking.SearchRequest{
		DepartureCity:  v.DepartureCity,
		ArrivalCity:    v.ArrivalCity,
		DepartureDate:  v.DepartureDate,
		TripType:       v.TripType,
		PassengerCount: max(v.PassengerCount, 1),
		CabinClass:     v.CabinClass,
		TimePreference: t.conv.timePreference,
	}
	if req.TripType == booking.RoundTrip {
		req.ReturnDate = v.ReturnDate
	}
	if req.CabinClass == "" {
		req.CabinClass = booking.Economy
	}
	if t.conv.flexible {
		req.FlexibleDates = true
		req.FlexibleDays = t.e.cfg.FlexibleDays
	}
	return req
}

func (t *turn) searchAnnouncement(req booking.SearchRequest) string {
	when := req.DepartureDate
	if d, ok := booking.Get(t.conv.store, booking.DepartureDate); ok {
		when = d.Value.Format(dateparse.LabelLayout)
	}
	msg := fmt.Sprintf("Let me look up flights from %s to %s on %s", req.DepartureCity, req.ArrivalCity, when)
	if d, ok := booking.Get(t.conv.store, booking.ReturnDate); ok && req.TripType == booking.RoundTrip {
		msg += fmt.Sprintf(", returning %s", d.Value.Format(dateparse.LabelLayout))
	}
	return msg + "."
}

func (t *turn) completeMessage() string {
	code, _ := booking.Get(t.conv.store, booking.ConfirmationNumber)
	first, _ := booking.Get(t.conv.store, booking.FirstName)
	return fmt.Sprintf("You're all set, %s! Your confirmation number is %s.", first.Value, code.Value)
}

func (t *turn) completeReminder() string {
	code, _ := booking.Get(t.conv.store, booking.ConfirmationNumber)
	return fmt.Sprintf("Your booking is confirmed with confirmation number %s. Say \"start over\" if you'd like to book another flight.", code.Value)
}
