package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrWong99/flightdesk/internal/booking"
	"github.com/MrWong99/flightdesk/internal/intent"
	"github.com/MrWong99/flightdesk/internal/observe"
)

// turn is the working copy of one turn. Nothing it touches is visible outside
// until the engine commits turn.conv.
type turn struct {
	e         *Engine
	ctx       context.Context
	conv      conversation
	res       intent.Result
	utterance string
	now       time.Time
	opening   bool

	out       []string
	updated   []string
	search    *booking.SearchRequest
	escalated bool
}

// run dispatches the recognized intent. A panic anywhere in the handlers is
// returned as an error so the engine can drop the turn instead of the
// conversation.
func (t *turn) run() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("dialog: panic in turn: %v", p)
		}
	}()
	t.dispatch()
	return nil
}

func (t *turn) dispatch() {
	in := t.res.Intent
	switch {
	case in == intent.Cancel:
		t.cancel()
		return
	case t.conv.state == booking.StateBookingComplete:
		t.say(t.completeReminder())
		return
	case t.conv.state == booking.StateError:
		t.say(msgHandoff)
		return
	case in == intent.InappropriateContent:
		t.say(redirect(t.res.Entities.Category))
		t.advance()
		return
	}

	if t.opening && in != intent.Greeting {
		t.say(msgWelcome)
	}
	switch in {
	case intent.Greeting:
		t.greet()
	case intent.Question:
		t.question()
	case intent.Correction:
		t.correct()
	case intent.ConfirmYes:
		t.confirmYes()
	case intent.ConfirmNo:
		t.confirmNo()
	case intent.SelectOption:
		t.apply(t.res.Entities, booking.SourceUserInput)
		t.selectOption(t.res.Entities.OptionNumber)
	case intent.TimePreference:
		t.apply(t.res.Entities, booking.SourceUserInput)
		t.setTimePreference(t.res.Entities.TimePreference)
	case intent.FlexibleSearch:
		t.apply(t.res.Entities, booking.SourceUserInput)
		t.setFlexible()
	default:
		// provide_name, provide_city, provide_date
		t.apply(t.res.Entities, booking.SourceUserInput)
	}
	t.advance()
}

// say appends a sentence to the response. Nothing is added once the turn has
// escalated to a handoff.
func (t *turn) say(s string) {
	if t.escalated || s == "" {
		return
	}
	t.out = append(t.out, s)
}

// advance moves to the first unmet step of the booking and asks for it.
func (t *turn) advance() {
	if t.conv.state.Terminal() {
		return
	}
	st := t.next()
	t.conv.state = st.state
	t.say(st.prompt)
}

func (t *turn) cancel() {
	t.conv = t.e.freshConversation()
	t.conv.state = booking.StateGreeting
	t.say(msgStartOver)
}

func (t *turn) greet() {
	if t.opening || t.conv.state == booking.StateGreeting {
		t.say(msgWelcome)
	} else {
		t.say("Hello again!")
	}
	t.apply(t.res.Entities, booking.SourceUserInput)
}

func (t *turn) question() {
	switch topic := t.res.Entities.Topic; {
	case topic != "":
		t.say(topicAnswer(topic))
	case t.res.Confidence <= intent.DefaultConfidence:
		t.say(msgNotUnderstood)
	default:
		t.say(msgOffTopic)
	}
}

func (t *turn) confirmYes() {
	if t.conv.state != booking.StateConfirmingSelection {
		return
	}
	code := t.e.cfg.ConfirmationCode()
	put(t, booking.ConfirmationNumber, code, 1, booking.SourceAPI, nil)
	observe.Logger(t.ctx).Info("dialog: booking confirmed", "session_id", t.e.cfg.SessionID, "confirmation", code)
}

func (t *turn) confirmNo() {
	if t.conv.state != booking.StateConfirmingSelection {
		return
	}
	booking.Clear(t.conv.store, booking.OutboundFlight)
	t.conv.presented = false
	t.say("No problem.")
}

func (t *turn) setTimePreference(p string) {
	if p == "" {
		return
	}
	t.conv.timePreference = p
	if len(t.conv.options) == 0 {
		t.say(fmt.Sprintf("Noted, I'll look for %s flights.", p))
		return
	}
	t.conv.options = rank(t.conv.options, p)
	t.conv.presented = false
	if _, selected := booking.Get(t.conv.store, booking.OutboundFlight); !selected {
		t.say(fmt.Sprintf("Here are the %s flights first.", p))
	}
}

func (t *turn) setFlexible() {
	t.conv.flexible = true
	if booking.Filled(t.conv.store, booking.DepartureDate) {
		t.say(fmt.Sprintf("No problem, I'll search %d days either side of your date.", t.e.cfg.FlexibleDays))
		t.itineraryChanged()
	}
}

// fail records a validation failure on slot. The response carries msg unless
// the slot has now failed too often, in which case the conversation is
// handed over.
func (t *turn) fail(slot, msg string) {
	t.conv.failures[slot]++
	t.e.cfg.Metrics.RecordValidationFailure(t.ctx, slot)
	n := t.conv.failures[slot]
	observe.Logger(t.ctx).Debug("dialog: validation failed", "session_id", t.e.cfg.SessionID, "slot", slot, "failures", n)
	if n < t.e.cfg.MaxValidationFailures {
		t.say(msg)
		return
	}
	observe.Logger(t.ctx).Warn("dialog: escalating to human agent", "session_id", t.e.cfg.SessionID, "slot", slot, "failures", n)
	t.conv.state = booking.StateError
	t.out = []string{msgHandoff}
	t.escalated = true
}

func (t *turn) result() TurnResult {
	return TurnResult{
		Response:             strings.Join(t.out, " "),
		State:                t.conv.state,
		Intent:               t.res.Intent,
		Booking:              t.conv.store.PublicView(),
		RequiresFlightSearch: t.search != nil,
		SearchRequest:        t.search,
	}
}
