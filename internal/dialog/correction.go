package dialog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MrWong99/flightdesk/internal/booking"
	"github.com/MrWong99/flightdesk/internal/intent"
)

// correct routes a correction to the slots it names.
//
// Policy, in order:
//   - A name in an utterance that also talks about the itinerary (trip
//     vocabulary, a city or a date) is discarded; it is almost always a
//     misread city or date.
//   - A city or date given without a direction goes to the slot being
//     collected, otherwise to the most recently written slot of its kind.
//   - Every remaining candidate is applied; candidates never conflict since
//     each targets a distinct slot.
//   - With no candidate left the user is asked what to change.
func (t *turn) correct() {
	e := t.res.Entities
	if e.HasName() && (intent.MentionsTrip(t.utterance) || e.HasCity() || e.HasDate()) {
		e.FirstName, e.LastName = "", ""
	}
	if c := e.City; c != "" {
		switch t.correctionCityTarget() {
		case booking.DepartureCity.Name():
			if e.DepartureCity == "" {
				e.DepartureCity = c
			}
		default:
			if e.ArrivalCity == "" {
				e.ArrivalCity = c
			}
		}
		e.City = ""
	}
	if d := e.Date; d != "" {
		switch t.correctionDateTarget() {
		case booking.ReturnDate.Name():
			if e.ReturnDate == "" {
				e.ReturnDate = d
			}
		default:
			if e.DepartureDate == "" {
				e.DepartureDate = d
			}
		}
		e.Date = ""
	}

	if !correctable(e) {
		t.say(msgWhatToChange)
		return
	}
	t.apply(e, booking.SourceCorrection)
	if len(t.updated) > 0 {
		t.say(t.updateSummary())
	}
}

func correctable(e intent.Entities) bool {
	return e.HasName() || e.DepartureCity != "" || e.ArrivalCity != "" ||
		e.DepartureDate != "" || e.ReturnDate != "" || e.TripType != "" ||
		e.PassengerCount > 0 || e.CabinClass != "" || e.Email != "" || e.Phone != ""
}

func (t *turn) correctionCityTarget() string {
	switch t.conv.state {
	case booking.StateCollectingDeparture:
		return booking.DepartureCity.Name()
	case booking.StateCollectingDestination:
		return booking.ArrivalCity.Name()
	}
	return latest(t.conv.store, booking.DepartureCity, booking.ArrivalCity)
}

func (t *turn) correctionDateTarget() string {
	switch t.conv.state {
	case booking.StateCollectingDate, booking.StateFlexibleSearch:
		return booking.DepartureDate.Name()
	case booking.StateCollectingReturnDate:
		return booking.ReturnDate.Name()
	}
	return latest(t.conv.store, booking.DepartureDate, booking.ReturnDate)
}

// latest returns the name of whichever of a and b was written last. An unset
// slot loses and a tie goes to b; with neither set the answer is a.
func latest[T any](s *booking.Store, a, b booking.Field[T]) string {
	va, okA := booking.Get(s, a)
	vb, okB := booking.Get(s, b)
	switch {
	case !okB:
		return a.Name()
	case !okA:
		return b.Name()
	case va.Timestamp.After(vb.Timestamp):
		return a.Name()
	}
	return b.Name()
}

// updateSummary confirms what a correction changed.
func (t *turn) updateSummary() string {
	var labels []string
	name := false
	for _, slot := range t.updated {
		switch slot {
		case booking.FirstName.Name(), booking.LastName.Name():
			name = true
		default:
			if l := slotLabel(slot); !slices.Contains(labels, l) {
				labels = append(labels, l)
			}
		}
	}
	if name {
		labels = append([]string{"name to " + t.fullName()}, labels...)
	}
	return fmt.Sprintf("Got it, I've updated your %s.", andList(labels))
}

func andList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
