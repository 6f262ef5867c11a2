package dialog

import (
	"crypto/rand"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MrWong99/flightdesk/internal/booking"
)

// presentStep handles the options step: read out cached options, or ask the
// caller for a search the first time there are none.
func (t *turn) presentStep() step {
	shown := t.shown()
	switch {
	case len(shown) > 0 && !t.conv.presented:
		t.conv.presented = true
		return step{booking.StatePresentingOptions, formatOptions(shown)}
	case len(shown) > 0:
		return step{booking.StatePresentingOptions, fmt.Sprintf("Which option would you like, 1 to %d?", len(shown))}
	case !t.conv.searchRequested:
		req := t.searchRequest()
		t.search = &req
		t.conv.searchRequested = true
		return step{booking.StatePresentingOptions, t.searchAnnouncement(req)}
	}
	return step{booking.StatePresentingOptions, "I'm still looking up flights for you."}
}

// shown returns the options currently on offer, numbered from 1.
func (t *turn) shown() []booking.FlightOption {
	return t.conv.options[:min(len(t.conv.options), t.e.cfg.PresentedOptions)]
}

func (t *turn) receiveOptions(opts []booking.FlightOption) {
	opts = slices.Clone(opts[:min(len(opts), MaxFlightOptions)])
	if t.conv.timePreference != "" {
		opts = rank(opts, t.conv.timePreference)
	}
	t.conv.options = opts
	t.conv.presented = false
	t.conv.searchRequested = true

	if t.conv.state != booking.StatePresentingOptions {
		return
	}
	if len(opts) == 0 {
		booking.Clear(t.conv.store, booking.DepartureDate)
		booking.Clear(t.conv.store, booking.ReturnDate)
		t.conv.searchRequested = false
		t.say("Sorry, I couldn't find any flights for those dates.")
	}
	t.advance()
}

func (t *turn) selectOption(n int) {
	shown := t.shown()
	if len(shown) == 0 {
		if n > 0 {
			t.say("I don't have any flight options to choose from yet.")
		}
		return
	}
	if n < 1 || n > len(shown) {
		t.fail(booking.OutboundFlight.Name(), fmt.Sprintf("Please pick an option between 1 and %d.", len(shown)))
		return
	}
	opt := shown[n-1]
	put(t, booking.OutboundFlight, opt, 1, booking.SourceFlightSelection, nil)
	booking.Clear(t.conv.store, booking.ConfirmationNumber)
	t.say(fmt.Sprintf("Great choice: %s.", describe(opt)))
}

// rank moves options departing in the preferred part of the day to the
// front, keeping the collaborator's order otherwise.
func rank(opts []booking.FlightOption, pref string) []booking.FlightOption {
	out := slices.Clone(opts)
	slices.SortStableFunc(out, func(a, b booking.FlightOption) int {
		ia, ib := inWindow(pref, a.DepartureTime), inWindow(pref, b.DepartureTime)
		switch {
		case ia && !ib:
			return -1
		case ib && !ia:
			return 1
		}
		return 0
	})
	return out
}

func inWindow(pref string, t time.Time) bool {
	h := t.Hour()
	switch pref {
	case "morning":
		return h >= 5 && h < 12
	case "afternoon":
		return h >= 12 && h < 17
	case "evening":
		return h >= 17 && h < 22
	case "red-eye":
		return h >= 22 || h < 5
	}
	return false
}

func formatOptions(opts []booking.FlightOption) string {
	var b strings.Builder
	b.WriteString("Here are the best options I found:")
	for i, o := range opts {
		fmt.Fprintf(&b, " %d. %s.", i+1, describe(o))
	}
	fmt.Fprintf(&b, " Which one would you like, 1 to %d?", len(opts))
	return b.String()
}

func describe(o booking.FlightOption) string {
	stops := "nonstop"
	switch {
	case o.Stops == 1:
		stops = "1 stop"
	case o.Stops > 1:
		stops = fmt.Sprintf("%d stops", o.Stops)
	}
	return fmt.Sprintf("%s departing %s, arriving %s, %s, $%.2f",
		flightName(o), o.DepartureTime.Format(time.Kitchen), o.ArrivalTime.Format(time.Kitchen), stops, o.Price)
}

func flightName(o booking.FlightOption) string {
	return strings.TrimSpace(o.Airline + " " + o.FlightNumber)
}

// codeAlphabet leaves out 0, O, 1 and I. Its length divides 256, so a
// random byte maps onto it without bias.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ConfirmationCodeLength is the length of a booking reference.
const ConfirmationCodeLength = 6

// NewConfirmationCode returns a random booking reference such as "K7QX2M".
func NewConfirmationCode() string {
	var b [ConfirmationCodeLength]byte
	_, _ = rand.Read(b[:])
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b[:])
}
