package dialog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrWong99/flightdesk/internal/booking"
	"github.com/MrWong99/flightdesk/internal/contentfilter"
	"github.com/MrWong99/flightdesk/internal/dateparse"
	"github.com/MrWong99/flightdesk/internal/intent"
	"github.com/MrWong99/flightdesk/internal/observe"
)

// put writes a validated value to f and clears the slot's failure counter.
// When same is non-nil and reports the stored value equal to v, nothing is
// written and put returns true so the caller can acknowledge the
// restatement.
func put[T any](t *turn, f booking.Field[T], v T, confidence float64, src booking.Source, same func(a, b T) bool) (repeated bool) {
	delete(t.conv.failures, f.Name())
	if cur, ok := booking.Get(t.conv.store, f); ok && same != nil && same(cur.Value, v) {
		return true
	}
	if err := booking.Set(t.conv.store, f, v, confidence, src); err != nil {
		observe.Logger(t.ctx).Error("dialog: slot write rejected", "slot", f.Name(), "err", err)
		return false
	}
	t.updated = append(t.updated, f.Name())
	return false
}

func equal[T comparable](a, b T) bool { return a == b }

func sameDay(a, b time.Time) bool { return a.Equal(b) }

// apply validates and stores every slot entity in e. Trip type goes first so
// that date handling knows whether a return leg exists.
func (t *turn) apply(e intent.Entities, src booking.Source) {
	t.applyTripType(e, src)
	t.applyNames(e, src)
	t.applyCities(e, src)
	t.applyDates(e, src)
	t.applyTripDetails(e, src)
}

func (t *turn) applyNames(e intent.Entities, src booking.Source) {
	first, last := e.FirstName, e.LastName
	if first == "" && last == "" {
		return
	}
	s := t.conv.store
	// A lone word while only the last name is missing answers that question.
	if last == "" && src != booking.SourceCorrection && t.conv.state == booking.StateCollectingName &&
		booking.Filled(s, booking.FirstName) && !booking.Filled(s, booking.LastName) {
		first, last = "", first
	}

	_, hadFirst := booking.Get(s, booking.FirstName)
	repeats, writes := 0, 0
	for _, p := range []struct {
		f   booking.Field[string]
		raw string
	}{{booking.FirstName, first}, {booking.LastName, last}} {
		if p.raw == "" {
			continue
		}
		r := t.e.cfg.Validator.Name(p.raw)
		if !r.Valid || !contentfilter.IsValidName(r.Value) {
			msg := r.Message
			if msg == "" {
				msg = "That doesn't sound like a real name. Could you tell me your name again?"
			}
			t.fail(p.f.Name(), msg)
			continue
		}
		writes++
		if put(t, p.f, r.Value, r.Confidence, src, equal) {
			repeats++
		}
	}

	switch {
	case writes == 0:
	case repeats == writes:
		t.say(fmt.Sprintf("I already have your name as %s.", t.fullName()))
	case !hadFirst && src != booking.SourceCorrection:
		if v, ok := booking.Get(s, booking.FirstName); ok {
			t.say(fmt.Sprintf("Nice to meet you, %s!", v.Value))
		}
	}
}

func (t *turn) fullName() string {
	var parts []string
	for _, f := range []booking.Field[string]{booking.FirstName, booking.LastName} {
		if v, ok := booking.Get(t.conv.store, f); ok {
			parts = append(parts, v.Value)
		}
	}
	return strings.Join(parts, " ")
}

// unlabeledCity picks the slot for a city mentioned without a direction.
// ok is false when both cities are known and nothing points at either.
func (t *turn) unlabeledCity() (f booking.Field[string], ok bool) {
	s := t.conv.store
	switch {
	case t.conv.state == booking.StateCollectingDeparture:
		return booking.DepartureCity, true
	case t.conv.state == booking.StateCollectingDestination:
		return booking.ArrivalCity, true
	case !booking.Filled(s, booking.DepartureCity):
		return booking.DepartureCity, true
	case !booking.Filled(s, booking.ArrivalCity):
		return booking.ArrivalCity, true
	}
	return booking.Field[string]{}, false
}

func (t *turn) applyCities(e intent.Entities, src booking.Source) {
	dep, arr := e.DepartureCity, e.ArrivalCity
	if c := e.City; c != "" {
		f, ok := t.unlabeledCity()
		switch {
		case !ok:
			t.ambiguousCity(c)
		case f.Name() == booking.DepartureCity.Name() && dep == "":
			dep = c
		case f.Name() == booking.ArrivalCity.Name() && arr == "":
			arr = c
		}
	}
	if dep == "" && arr == "" {
		return
	}

	v := t.e.cfg.Validator
	if dep != "" && arr != "" {
		p := v.CityPair(dep, arr)
		if !p.Valid {
			slot := booking.ArrivalCity.Name()
			if !v.City(dep).Valid {
				slot = booking.DepartureCity.Name()
			}
			t.fail(slot, p.Message)
			return
		}
		t.storeCity(booking.DepartureCity, p.Value.From, p.Confidence, src)
		t.storeCity(booking.ArrivalCity, p.Value.To, p.Confidence, src)
		return
	}

	f, raw := booking.DepartureCity, dep
	other := booking.ArrivalCity
	if arr != "" {
		f, raw, other = booking.ArrivalCity, arr, booking.DepartureCity
	}
	r := v.City(raw)
	if !r.Valid {
		t.fail(f.Name(), r.Message)
		return
	}
	if o, ok := booking.Get(t.conv.store, other); ok && o.Value == r.Value {
		t.fail(f.Name(), fmt.Sprintf("Your departure and arrival city can't both be %s.", r.Value))
		return
	}
	t.storeCity(f, r.Value, r.Confidence, src)
}

func (t *turn) storeCity(f booking.Field[string], city string, confidence float64, src booking.Source) {
	if put(t, f, city, confidence, src, equal) {
		t.say(fmt.Sprintf("I already have %s as your %s.", city, slotLabel(f.Name())))
		return
	}
	t.itineraryChanged()
}

// ambiguousCity handles a bare city once both cities are known: a restated
// city is acknowledged, anything else needs a direction.
func (t *turn) ambiguousCity(raw string) {
	r := t.e.cfg.Validator.City(raw)
	if !r.Valid {
		t.say(r.Message)
		return
	}
	for _, f := range []booking.Field[string]{booking.DepartureCity, booking.ArrivalCity} {
		if v, ok := booking.Get(t.conv.store, f); ok && v.Value == r.Value {
			t.say(fmt.Sprintf("I already have %s as your %s.", r.Value, slotLabel(f.Name())))
			return
		}
	}
	t.say(fmt.Sprintf("Is %s where you're flying from, or where you're going?", r.Value))
}

// unlabeledDateIsReturn reports whether a date given without a leg belongs
// to the return flight.
func (t *turn) unlabeledDateIsReturn() bool {
	s := t.conv.store
	switch t.conv.state {
	case booking.StateCollectingReturnDate:
		return true
	case booking.StateCollectingDate, booking.StateFlexibleSearch:
		return false
	}
	tt, _ := booking.Get(s, booking.TripKind)
	return booking.Filled(s, booking.DepartureDate) && !booking.Filled(s, booking.ReturnDate) && tt.Value == booking.RoundTrip
}

func (t *turn) applyDates(e intent.Entities, src booking.Source) {
	dep, ret := e.DepartureDate, e.ReturnDate
	if d := e.Date; d != "" {
		if t.unlabeledDateIsReturn() {
			if ret == "" {
				ret = d
			}
		} else if dep == "" {
			dep = d
		}
	}
	if dep != "" {
		t.applyDeparture(dep, src)
	}
	if ret != "" && !t.escalated {
		t.applyReturn(ret, src)
	}
}

func (t *turn) applyDeparture(raw string, src booking.Source) {
	r := t.e.cfg.Validator.Date(raw, t.now)
	if !r.Valid {
		t.fail(booking.DepartureDate.Name(), r.Message)
		return
	}
	if put(t, booking.DepartureDate, r.Value, r.Confidence, src, sameDay) {
		t.say(fmt.Sprintf("I already have you leaving on %s.", r.Value.Format(dateparse.LabelLayout)))
		return
	}
	if ret, ok := booking.Get(t.conv.store, booking.ReturnDate); ok && !ret.Value.After(r.Value) {
		booking.Clear(t.conv.store, booking.ReturnDate)
		t.say("I've cleared your return date since it was no longer after your departure.")
	}
	t.itineraryChanged()
}

func (t *turn) applyReturn(raw string, src booking.Source) {
	s := t.conv.store
	v := t.e.cfg.Validator
	r := v.Date(raw, t.now)

	dep, hasDep := booking.Get(s, booking.DepartureDate)
	if hasDep && r.Valid && !r.Value.After(dep.Value) {
		// "Sunday" after a Friday departure is the Sunday after it.
		if p, ok := dateparse.Parse(raw, dep.Value); ok && !p.ExplicitYear && p.Date.After(dep.Value) {
			r.Value = p.Date
		}
	}
	if !r.Valid {
		t.fail(booking.ReturnDate.Name(), r.Message)
		return
	}
	confidence := r.Confidence
	if hasDep {
		o := v.DateOrder(dep.Value, r.Value, t.now)
		if !o.Valid {
			t.fail(booking.ReturnDate.Name(), o.Message)
			return
		}
		confidence = min(confidence, o.Confidence)
	}

	if tt, ok := booking.Get(s, booking.TripKind); !ok || tt.Value != booking.RoundTrip {
		put(t, booking.TripKind, booking.RoundTrip, 0.8, booking.SourceInference, nil)
	}
	if put(t, booking.ReturnDate, r.Value, confidence, src, sameDay) {
		t.say(fmt.Sprintf("I already have you coming back on %s.", r.Value.Format(dateparse.LabelLayout)))
		return
	}
	t.itineraryChanged()
}

func (t *turn) applyTripType(e intent.Entities, src booking.Source) {
	if e.TripType == "" {
		return
	}
	r := t.e.cfg.Validator.TripType(string(e.TripType))
	if !r.Valid {
		t.fail(booking.TripKind.Name(), r.Message)
		return
	}
	if put(t, booking.TripKind, r.Value, r.Confidence, src, equal) {
		if t.conv.state != booking.StateCollectingTripType {
			return
		}
		t.say(fmt.Sprintf("I already have this down as a %s.", tripLabel(r.Value)))
		return
	}
	if r.Value == booking.OneWay {
		booking.Clear(t.conv.store, booking.ReturnDate)
	}
	t.itineraryChanged()
}

func (t *turn) applyTripDetails(e intent.Entities, src booking.Source) {
	v := t.e.cfg.Validator
	if e.PassengerCount > 0 {
		if r := v.PassengerCount(strconv.Itoa(e.PassengerCount)); !r.Valid {
			t.fail(booking.PassengerCount.Name(), r.Message)
		} else if !put(t, booking.PassengerCount, r.Value, r.Confidence, src, equal) {
			t.itineraryChanged()
		}
	}
	if e.CabinClass != "" {
		if r := v.CabinClass(string(e.CabinClass)); !r.Valid {
			t.fail(booking.Cabin.Name(), r.Message)
		} else if !put(t, booking.Cabin, r.Value, r.Confidence, src, equal) {
			t.itineraryChanged()
		}
	}
	if e.Email != "" {
		if r := v.Email(e.Email); !r.Valid {
			t.fail(booking.Email.Name(), r.Message)
		} else {
			put(t, booking.Email, r.Value, r.Confidence, src, equal)
		}
	}
	if e.Phone != "" {
		if r := v.Phone(e.Phone); !r.Valid {
			t.fail(booking.Phone.Name(), r.Message)
		} else {
			put(t, booking.Phone, r.Value, r.Confidence, src, equal)
		}
	}
}

// itineraryChanged drops flight options and any selection made from them,
// since they no longer match the trip.
func (t *turn) itineraryChanged() {
	if len(t.conv.options) == 0 && !t.conv.searchRequested {
		return
	}
	t.conv.options = nil
	t.conv.presented = false
	t.conv.searchRequested = false
	booking.Clear(t.conv.store, booking.OutboundFlight)
	booking.Clear(t.conv.store, booking.ReturnFlight)
}
