// Package dialog implements the flight-booking conversation: a state machine
// that turns one user utterance at a time into validated slot writes on a
// [booking.Store] and a spoken response.
//
// An [Engine] owns exactly one conversation. Every turn runs against a copy of
// the conversation (slots, state, failure counters and cached flight options)
// that replaces the live copy only once the turn has completed. A turn whose
// context is cancelled part-way through therefore leaves the conversation as
// it was before the turn started.
//
// The next question is never hard-coded per state. After each turn the engine
// walks the canonical slot order (name, departure city, arrival city, trip
// type, departure date, return date, options, confirmation) and asks for the
// first thing still missing, so an utterance that fills several slots at once
// skips every question it already answered.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/MrWong99/flightdesk/internal/booking"
	"github.com/MrWong99/flightdesk/internal/intent"
	"github.com/MrWong99/flightdesk/internal/observe"
	"github.com/MrWong99/flightdesk/internal/validate"
)

// ErrTurnAbandoned is returned when the caller's context ends before a turn
// completes. The conversation is left unchanged.
var ErrTurnAbandoned = errors.New("dialog: turn abandoned")

// Recognizer labels an utterance. [intent.Recognizer] satisfies it.
type Recognizer interface {
	Recognize(ctx context.Context, req intent.Request) intent.Result
}

// Defaults applied by [New] to zero-valued [Config] fields.
const (
	DefaultMaxValidationFailures = 3
	DefaultTurnLogSize           = 20
	DefaultPresentedOptions      = 3
	DefaultFlexibleDays          = 3

	// MaxFlightOptions is the most options kept from one search.
	MaxFlightOptions = 10

	// historyTurns is how many past exchanges accompany a classifier request.
	historyTurns = 2
)

// Config holds the dependencies and tuning knobs of an [Engine].
type Config struct {
	// Recognizer classifies utterances. Must not be nil.
	Recognizer Recognizer

	// Validator checks every value before it reaches the slot store.
	// Must not be nil.
	Validator *validate.Validator

	// SessionID labels log lines.
	SessionID string

	// MaxValidationFailures is the number of consecutive validation failures
	// on one slot that hands the conversation over to a human.
	MaxValidationFailures int

	// TurnLogSize caps the turn log.
	TurnLogSize int

	// PresentedOptions is how many flight options are offered at once.
	PresentedOptions int

	// FlexibleDays is the search window on either side of a flexible date.
	FlexibleDays int

	// Now is the clock used for date resolution and slot timestamps.
	// Default: time.Now.
	Now func() time.Time

	// ConfirmationCode generates booking references.
	// Default: [NewConfirmationCode].
	ConfirmationCode func() string

	// Metrics receives turn and validation metrics.
	// Default: [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// TurnResult is the outcome of one turn.
type TurnResult struct {
	Response string        `json:"response"`
	State    booking.State `json:"state"`
	Intent   intent.Intent `json:"intent,omitempty"`
	Booking  booking.View  `json:"booking"`

	// RequiresFlightSearch is set on the turn that first needs flight
	// options. The caller runs SearchRequest and hands the results to
	// [Engine.ProvideFlightOptions].
	RequiresFlightSearch bool                   `json:"requires_flight_search"`
	SearchRequest        *booking.SearchRequest `json:"flight_search_request,omitempty"`
}

// conversation is everything a turn may change.
type conversation struct {
	state    booking.State
	store    *booking.Store
	failures map[string]int

	timePreference string
	flexible       bool

	// options holds the latest search results in presentation order.
	options []booking.FlightOption
	// presented is set once the current options were read out.
	presented       bool
	searchRequested bool
}

func (c conversation) clone() conversation {
	c.store = c.store.Clone()
	c.failures = maps.Clone(c.failures)
	c.options = slices.Clone(c.options)
	return c
}

// Engine runs one booking conversation. Turns are serialized; concurrent
// calls to [Engine.ProcessTurn] wait for each other. [Engine.State],
// [Engine.Snapshot] and [Engine.Turns] read the last committed turn and do
// not wait for one in flight.
type Engine struct {
	cfg Config

	// mu serializes turns. It is held for the whole turn, classifier
	// retries included.
	mu sync.Mutex

	// view guards conv and log. Writers hold mu as well, so a turn may
	// read both without taking view.
	view sync.RWMutex
	conv conversation
	log  *turnLog
}
// New creates an Engine in [booking.StateIdle].
func New(cfg Config) (*Engine, error) {
	if cfg.Recognizer == nil {
		return nil, errors.New("dialog: Recognizer must not be nil")
	}
	if cfg.Validator == nil {
		return nil, errors.New("dialog: Validator must not be nil")
	}
	if cfg.MaxValidationFailures <= 0 {
		cfg.MaxValidationFailures = DefaultMaxValidationFailures
	}
	if cfg.TurnLogSize <= 0 {
		cfg.TurnLogSize = DefaultTurnLogSize
	}
	if cfg.PresentedOptions <= 0 {
		cfg.PresentedOptions = DefaultPresentedOptions
	}
	if cfg.FlexibleDays <= 0 {
		cfg.FlexibleDays = DefaultFlexibleDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ConfirmationCode == nil {
		cfg.ConfirmationCode = NewConfirmationCode
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	e := &Engine{cfg: cfg, log: newTurnLog(cfg.TurnLogSize)}
	e.conv = e.freshConversation()
	return e, nil
}

func (e *Engine) freshConversation() conversation {
	return conversation{
		state:    booking.StateIdle,
		store:    booking.NewStore(e.cfg.Now),
		failures: make(map[string]int),
	}
}

// ProcessTurn handles one user utterance and returns the response.
//
// ProcessTurn never fails because of what the user said: unsafe, empty or
// unintelligible input yields an ordinary clarifying response. The only
// error is [ErrTurnAbandoned], returned when ctx ends before the turn
// completes.
func (e *Engine) ProcessTurn(ctx context.Context, utterance string) (TurnResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return TurnResult{}, fmt.Errorf("%w: %w", ErrTurnAbandoned, err)
	}
	ctx, span := observe.StartSpan(ctx, "dialog.turn")
	defer span.End()
	start := time.Now()
	log := observe.Logger(ctx).With("session_id", e.cfg.SessionID)

	t := e.newTurn(ctx, utterance)
	if t.conv.state == booking.StateIdle {
		// Any first utterance opens the conversation and is then handled as
		// a greeting-state turn, since it may already carry booking details.
		t.conv.state = booking.StateGreeting
		t.opening = true
	}
	t.res = e.cfg.Recognizer.Recognize(ctx, intent.Request{
		Utterance: utterance,
		State:     t.conv.state,
		Snapshot:  t.conv.store.PublicView(),
		History:   e.log.exchanges(historyTurns),
	})
	if err := ctx.Err(); err != nil {
		log.Info("dialog: turn abandoned", "state", e.conv.state.String())
		return TurnResult{}, fmt.Errorf("%w: %w", ErrTurnAbandoned, err)
	}

	if err := t.run(); err != nil {
		log.Error("dialog: turn failed, keeping previous state", "err", err, "intent", string(t.res.Intent))
		return TurnResult{
			Response: msgInternalError,
			State:    e.conv.state,
			Intent:   intent.Question,
			Booking:  e.conv.store.PublicView(),
		}, nil
	}

	from := e.conv.state
	res := t.result()
	e.commit(t.conv, &Turn{
		Timestamp: t.now,
		Utterance: loggedUtterance(utterance, t.res),
		Response:  res.Response,
		Intent:    t.res.Intent,
		Entities:  t.res.Entities,
	})

	e.cfg.Metrics.RecordTurn(ctx, res.State.String(), time.Since(start).Seconds())
	span.SetAttributes(
		observe.Attr("dialog.intent", string(t.res.Intent)),
		observe.Attr("dialog.state", res.State.String()),
	)
	if from != res.State {
		log.Debug("dialog: state changed", "from", from.String(), "to", res.State.String(), "intent", string(t.res.Intent))
	}
	return res, nil
}

// ProvideFlightOptions hands the engine the results of a flight search, best
// first. At most [MaxFlightOptions] are kept. If the conversation is waiting
// for options they are presented in the returned response; otherwise they are
// cached and the response is empty.
//
// An empty list means nothing matched: the travel dates are cleared and asked
// for again.
func (e *Engine) ProvideFlightOptions(ctx context.Context, opts []booking.FlightOption) (TurnResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return TurnResult{}, fmt.Errorf("%w: %w", ErrTurnAbandoned, err)
	}
	t := e.newTurn(ctx, "")
	t.receiveOptions(opts)
	e.commit(t.conv, nil)
	observe.Logger(ctx).Debug("dialog: flight options received",
		"session_id", e.cfg.SessionID, "count", len(opts), "state", t.conv.state.String())
	return t.result(), nil
}

// commit publishes a finished turn. The caller holds e.mu. The committed
// store is never written again; the next turn works on a clone.
func (e *Engine) commit(conv conversation, entry *Turn) {
	e.view.Lock()
	defer e.view.Unlock()
	e.conv = conv
	if entry != nil {
		e.log.append(*entry)
	}
}

// State returns the current dialog state.
func (e *Engine) State() booking.State {
	e.view.RLock()
	defer e.view.RUnlock()
	return e.conv.state
}

// Snapshot returns the public view of the booking so far.
func (e *Engine) Snapshot() booking.View {
	e.view.RLock()
	defer e.view.RUnlock()
	return e.conv.store.PublicView()
}

// Turns returns a copy of the turn log, oldest first.
func (e *Engine) Turns() []Turn {
	e.view.RLock()
	defer e.view.RUnlock()
	return e.log.snapshot()
}

// Reset discards the booking and the turn log and returns to
// [booking.StateIdle].
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.Lock()
	defer e.view.Unlock()
	e.conv = e.freshConversation()
	e.log = newTurnLog(e.cfg.TurnLogSize)
}

func (e *Engine) newTurn(ctx context.Context, utterance string) *turn {
	return &turn{
		e:         e,
		ctx:       ctx,
		conv:      e.conv.clone(),
		utterance: utterance,
		now:       e.cfg.Now(),
	}
}

// loggedUtterance keeps rejected input out of the turn log, which is fed
// back to the classifier.
func loggedUtterance(utterance string, res intent.Result) string {
	if res.Intent == intent.InappropriateContent {
		return "[" + res.Entities.Category + "]"
	}
	return utterance
}
