// Package session keeps the dialog engines of live conversations.
//
// A [Manager] owns one [dialog.Engine] per session, serializes the turns of
// each session, evicts sessions that went idle and, when configured with a
// [FlightSearcher], answers the engine's flight-search requests itself so
// callers only ever deal in utterances.
//
// Sessions live in memory for the lifetime of the conversation; nothing is
// persisted.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/flightdesk/internal/booking"
	"github.com/MrWong99/flightdesk/internal/dialog"
	"github.com/MrWong99/flightdesk/internal/observe"
)

// ErrNotFound is returned for an unknown or evicted session id.
var ErrNotFound = errors.New("session: not found")

const (
	// DefaultIdleTimeout is how long a session may go without a turn before
	// it is evicted.
	DefaultIdleTimeout = 30 * time.Minute

	// DefaultSweepInterval is the period of the eviction loop.
	DefaultSweepInterval = time.Minute
)

// FlightSearcher runs flight searches on behalf of the dialog engine.
//
// Implementations must be safe for concurrent use and must honour ctx
// cancellation.
type FlightSearcher interface {
	SearchFlights(ctx context.Context, req booking.SearchRequest) ([]booking.FlightOption, error)
}

// BookingRecorder stores completed bookings.
type BookingRecorder interface {
	RecordBooking(ctx context.Context, sessionID string, v booking.View) error
}

// EngineFactory builds the engine of a new session.
type EngineFactory func(sessionID string) (*dialog.Engine, error)

// Config configures a [Manager].
type Config struct {
	// NewEngine builds one engine per session. Must not be nil.
	NewEngine EngineFactory

	// Searcher, if set, is called whenever a turn requests flight options.
	// Without it callers supply options via [Manager.ProvideFlights].
	Searcher FlightSearcher

	// Recorder, if set, receives every booking once it is confirmed.
	Recorder BookingRecorder

	// IdleTimeout defaults to [DefaultIdleTimeout].
	IdleTimeout time.Duration

	// SweepInterval defaults to [DefaultSweepInterval].
	SweepInterval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	// NewID defaults to uuid.NewString.
	NewID func() string

	// Metrics defaults to [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// Info describes a session.
type Info struct {
	ID         string        `json:"id"`
	State      booking.State `json:"state"`
	CreatedAt  time.Time     `json:"created_at"`
	LastActive time.Time     `json:"last_active"`
}

// Snapshot is the full read-only view of a session.
type Snapshot struct {
	Info
	Booking booking.View  `json:"booking"`
	Turns   []dialog.Turn `json:"turns"`
}

type entry struct {
	id        string
	engine    *dialog.Engine
	createdAt time.Time

	// turnMu serializes turns together with the flight search they trigger.
	turnMu sync.Mutex
	// busy counts in-flight calls; busy sessions are never evicted.
	busy atomic.Int32
	// lastActive is guarded by Manager.mu.
	lastActive time.Time
}

// Manager is the registry of live sessions. All methods are safe for
// concurrent use.
type Manager struct {
	cfg Config

	mu       sync.Mutex
	sessions map[string]*entry

	done     chan struct{}
	stopOnce sync.Once
}

// NewManager returns an empty Manager. Call [Manager.Start] to begin
// evicting idle sessions.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.NewEngine == nil {
		return nil, errors.New("session: NewEngine must not be nil")
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*entry),
		done:     make(chan struct{}),
	}, nil
}

// Start runs the eviction loop in a background goroutine until ctx is
// cancelled or [Manager.Stop] is called.
func (m *Manager) Start(ctx context.Context) {
	go m.loop(ctx)
}

// Stop halts the eviction loop. Safe to call multiple times.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
	})
}

func (m *Manager) loop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			if n := m.Sweep(ctx); n > 0 {
				observe.Logger(ctx).Info("session: evicted idle sessions", "count", n)
			}
		}
	}
}

// Create starts a new session and returns its description.
func (m *Manager) Create(ctx context.Context) (Info, error) {
	id := m.cfg.NewID()
	eng, err := m.cfg.NewEngine(id)
	if err != nil {
		return Info{}, fmt.Errorf("session: create engine: %w", err)
	}
	now := m.cfg.Now()
	e := &entry{id: id, engine: eng, createdAt: now, lastActive: now}

	m.mu.Lock()
	if _, dup := m.sessions[id]; dup {
		m.mu.Unlock()
		return Info{}, fmt.Errorf("session: duplicate id %q", id)
	}
	m.sessions[id] = e
	m.mu.Unlock()

	m.cfg.Metrics.ActiveSessions.Add(ctx, 1)
	observe.Logger(ctx).Info("session: created", "session_id", id)
	return m.info(e), nil
}

// Turn processes one utterance in session id. When the turn asks for flight
// options and a searcher is configured, the search runs before Turn returns
// and the options are presented in the same response. A failed search is
// logged and the result is returned with RequiresFlightSearch still set.
func (m *Manager) Turn(ctx context.Context, id, utterance string) (dialog.TurnResult, error) {
	e, release, err := m.acquire(id)
	if err != nil {
		return dialog.TurnResult{}, err
	}
	defer release()

	before := e.engine.State()
	res, err := e.engine.ProcessTurn(ctx, utterance)
	if err != nil {
		return dialog.TurnResult{}, fmt.Errorf("session %s: %w", id, err)
	}
	if res.State == booking.StateBookingComplete && before != booking.StateBookingComplete {
		m.record(ctx, e, res.Booking)
	}
	if !res.RequiresFlightSearch || m.cfg.Searcher == nil {
		return res, nil
	}
	return m.search(ctx, e, res), nil
}

// record hands a confirmed booking to the recorder. Failures are logged; the
// traveller already holds the confirmation number.
func (m *Manager) record(ctx context.Context, e *entry, v booking.View) {
	if m.cfg.Recorder == nil {
		return
	}
	if err := m.cfg.Recorder.RecordBooking(ctx, e.id, v); err != nil {
		observe.Logger(ctx).Error("session: failed to record booking",
			"session_id", e.id, "confirmation_number", v.ConfirmationNumber, "err", err)
	}
}

func (m *Manager) search(ctx context.Context, e *entry, res dialog.TurnResult) dialog.TurnResult {
	log := observe.Logger(ctx).With("session_id", e.id)
	opts, err := m.cfg.Searcher.SearchFlights(ctx, *res.SearchRequest)
	if err != nil {
		log.Warn("session: flight search failed", "err", err)
		return res
	}
	next, err := e.engine.ProvideFlightOptions(ctx, opts)
	if err != nil {
		log.Warn("session: flight options dropped", "err", err)
		return res
	}
	log.Debug("session: flight search done", "options", len(opts))
	next.Response = strings.TrimSpace(res.Response + " " + next.Response)
	return next
}

// ProvideFlights hands flight options for session id to its engine.
func (m *Manager) ProvideFlights(ctx context.Context, id string, opts []booking.FlightOption) (dialog.TurnResult, error) {
	e, release, err := m.acquire(id)
	if err != nil {
		return dialog.TurnResult{}, err
	}
	defer release()

	res, err := e.engine.ProvideFlightOptions(ctx, opts)
	if err != nil {
		return dialog.TurnResult{}, fmt.Errorf("session %s: %w", id, err)
	}
	return res, nil
}

// Get returns a snapshot of session id.
func (m *Manager) Get(id string) (Snapshot, error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return Snapshot{
		Info:    m.info(e),
		Booking: e.engine.Snapshot(),
		Turns:   e.engine.Turns(),
	}, nil
}

// End removes session id.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.cfg.Metrics.ActiveSessions.Add(ctx, -1)
	observe.Logger(ctx).Info("session: ended", "session_id", id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts every session idle for longer than the idle timeout and
// returns how many were removed. Sessions with a turn in flight are kept.
func (m *Manager) Sweep(ctx context.Context) int {
	cutoff := m.cfg.Now().Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	var evicted []string
	for id, e := range m.sessions {
		if e.busy.Load() == 0 && e.lastActive.Before(cutoff) {
			delete(m.sessions, id)
			evicted = append(evicted, id)
		}
	}
	m.mu.Unlock()

	for _, id := range evicted {
		m.cfg.Metrics.ActiveSessions.Add(ctx, -1)
		observe.Logger(ctx).Debug("session: evicted", "session_id", id)
	}
	return len(evicted)
}

// acquire looks up id, marks it busy and takes its turn lock. release must
// be called exactly once.
func (m *Manager) acquire(id string) (*entry, func(), error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok {
		e.busy.Add(1)
		e.lastActive = m.cfg.Now()
	}
	m.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	e.turnMu.Lock()
	return e, func() {
		e.turnMu.Unlock()
		m.mu.Lock()
		e.lastActive = m.cfg.Now()
		m.mu.Unlock()
		e.busy.Add(-1)
	}, nil
}

func (m *Manager) info(e *entry) Info {
	m.mu.Lock()
	last := e.lastActive
	m.mu.Unlock()
	return Info{
		ID:         e.id,
		State:      e.engine.State(),
		CreatedAt:  e.createdAt,
		LastActive: last,
	}
}
